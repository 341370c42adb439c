package request

import (
	"errors"
	"testing"
	"time"

	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/domain/search/order"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New(Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != 0 {
		t.Errorf("limit = %d, want 0 (unset)", r.Limit())
	}
	if r.SortBy() != order.Relevance {
		t.Errorf("sort_by = %q, want relevance", r.SortBy())
	}
	if r.SortOrder() != order.Desc {
		t.Errorf("sort_order = %q, want desc", r.SortOrder())
	}
	if r.HighlightSymbol() != DefaultHighlightSymbol {
		t.Errorf("highlight symbol = %q", r.HighlightSymbol())
	}
}

func TestNew_Validation(t *testing.T) {
	first := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	last := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	neg := -1

	tests := []struct {
		name   string
		params Params
	}{
		{"negative limit", Params{Limit: -1}},
		{"unknown sort field", Params{SortBy: "score"}},
		{"unknown sort order", Params{SortOrder: "up"}},
		{"inverted dates", Params{FirstDate: &first, LastDate: &last}},
		{"negative cluster", Params{ClusterID: &neg}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.params)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestNew_SameDayRangeAllowed(t *testing.T) {
	d := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if _, err := New(Params{FirstDate: &d, LastDate: &d}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_DedupesKeepingOrder(t *testing.T) {
	r, err := New(Params{Sources: []string{"bbc", "reuters", "bbc", ""}, IDs: []string{"b", "a", "b"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.Sources(); len(got) != 2 || got[0] != "bbc" || got[1] != "reuters" {
		t.Errorf("sources = %v", got)
	}
	if got := r.IDs(); len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("ids = %v", got)
	}
}
