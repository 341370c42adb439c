package ids

import (
	"reflect"
	"testing"
)

func TestNew_SkipsEmptyAndDuplicates(t *testing.T) {
	s := New("a", "", "b", "a")
	if s.Len() != 2 {
		t.Fatalf("expected 2 ids, got %d", s.Len())
	}
	if !s.Has("a") || !s.Has("b") {
		t.Errorf("missing ids: %v", s.Slice())
	}
}

func TestUnion_DoesNotMutateOperands(t *testing.T) {
	a := New("x")
	b := New("y")
	u := a.Union(b)

	if !reflect.DeepEqual(u.Slice(), []string{"x", "y"}) {
		t.Errorf("union = %v", u.Slice())
	}
	if a.Len() != 1 || b.Len() != 1 {
		t.Error("operands were modified")
	}
}

func TestDifference_AbsentIsNoop(t *testing.T) {
	a := New("x", "y")
	d := a.Difference(New("y", "z"))

	if !reflect.DeepEqual(d.Slice(), []string{"x"}) {
		t.Errorf("difference = %v", d.Slice())
	}
}

func TestUnionThenDifference_RestoresOriginal(t *testing.T) {
	orig := New("a", "b")
	delta := New("c", "d")

	got := orig.Union(delta).Difference(delta)
	if !got.Equal(orig) {
		t.Errorf("got %v, want %v", got.Slice(), orig.Slice())
	}
}

func TestSlice_Sorted(t *testing.T) {
	if got := New("c", "a", "b").Slice(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("got %v", got)
	}
}
