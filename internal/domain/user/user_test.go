package user

import (
	"errors"
	"testing"

	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/domain/ids"
)

func TestNew_Valid(t *testing.T) {
	u, err := New("id-1", "alice", "$argon2id$hash", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !u.Active() {
		t.Error("new users must be active")
	}
	if u.FeedIDs().Len() != 0 || u.CollectionIDs().Len() != 0 {
		t.Error("new users start without subscriptions")
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name, id, username, hash string
	}{
		{"missing id", "", "alice", "h"},
		{"short username", "id", "a", "h"},
		{"missing hash", "id", "alice", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.id, tc.username, tc.hash, "")
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestSubscriptions_ReturnsCopy(t *testing.T) {
	u := Reconstruct("id", "alice", true, "h", "", []string{"f1"}, nil, nil, "")

	set, err := u.Subscriptions(domain.KindFeed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	set["f2"] = struct{}{}

	if u.FeedIDs().Has("f2") {
		t.Error("mutating the returned set must not affect the user")
	}
}

func TestSetSubscriptions_RejectsUserKind(t *testing.T) {
	u := Reconstruct("id", "alice", true, "h", "", nil, nil, nil, "")
	if err := u.SetSubscriptions(domain.KindUser, ids.New("x")); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestOwnership_IndependentOfSubscriptions(t *testing.T) {
	u := Reconstruct("id", "alice", true, "h", "", []string{"f1"}, nil, nil, "")
	u.Own("f2")
	u.Own("c1")
	u.Disown("c1")
	u.Disown("never")

	if !u.OwnedIDs().Equal(ids.New("f2")) {
		t.Errorf("owned = %v, want [f2]", u.OwnedIDs().Slice())
	}
	if u.FeedIDs().Has("f2") {
		t.Error("owning must not subscribe")
	}
}
