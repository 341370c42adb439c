package item

import (
	"time"

	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/domain/ids"
	"github.com/osinter/osinter/internal/domain/search/order"
)

// FeedParams are the saved search parameters of a feed.
type FeedParams struct {
	Limit          int
	SortBy         order.Field
	SortOrder      order.Direction
	SearchTerm     string
	Highlight      bool
	FirstDate      *time.Time
	LastDate       *time.Time
	SourceCategory ids.Set
}

// Validate checks enum fields and bounds.
func (p FeedParams) Validate() error {
	if p.Limit < 0 {
		return domain.Validationf("limit must not be negative")
	}
	if !p.SortBy.IsValid() {
		return domain.Validationf("unsupported sort field %q", p.SortBy)
	}
	if p.SortOrder != "" && !p.SortOrder.IsValid() {
		return domain.Validationf("unsupported sort order %q", p.SortOrder)
	}
	if p.FirstDate != nil && p.LastDate != nil && p.FirstDate.After(*p.LastDate) {
		return domain.Validationf("first_date must not be after last_date")
	}
	return nil
}

// Feed is a saved article query owned by a user.
type Feed struct {
	Item
	params FeedParams
}

// NewFeed validates and creates a Feed.
func NewFeed(id, name, owner string, params FeedParams) (Feed, error) {
	base, err := newItem(id, name, owner, domain.KindFeed)
	if err != nil {
		return Feed{}, err
	}
	if err := params.Validate(); err != nil {
		return Feed{}, err
	}
	params.SortOrder = params.SortOrder.OrDefault()
	params.SourceCategory = cloneSet(params.SourceCategory)
	return Feed{Item: base, params: params}, nil
}

// ReconstructFeed creates a Feed without validation (storage hydration).
func ReconstructFeed(id, name, owner string, deletable bool, params FeedParams) Feed {
	return Feed{
		Item:   Item{id: id, name: name, owner: owner, kind: domain.KindFeed, deletable: deletable},
		params: params,
	}
}

// Params returns a copy of the saved search parameters.
func (f *Feed) Params() FeedParams {
	p := f.params
	p.SourceCategory = cloneSet(p.SourceCategory)
	return p
}

// Apply merges a partial update. Fields absent from the patch are untouched.
func (f *Feed) Apply(p FeedPatch) error {
	next := f.Params()
	if p.Limit != nil {
		next.Limit = *p.Limit
	}
	if p.SortBy != nil {
		next.SortBy = *p.SortBy
	}
	if p.SortOrder != nil {
		next.SortOrder = *p.SortOrder
	}
	if p.SearchTerm != nil {
		next.SearchTerm = *p.SearchTerm
	}
	if p.Highlight != nil {
		next.Highlight = *p.Highlight
	}
	if p.FirstDate != nil {
		next.FirstDate = p.FirstDate
	}
	if p.LastDate != nil {
		next.LastDate = p.LastDate
	}
	if p.SourceCategory != nil {
		next.SourceCategory = cloneSet(p.SourceCategory)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	f.params = next
	return nil
}

// FeedPatch is a partial feed update. Nil fields are unchanged.
type FeedPatch struct {
	Limit          *int
	SortBy         *order.Field
	SortOrder      *order.Direction
	SearchTerm     *string
	Highlight      *bool
	FirstDate      *time.Time
	LastDate       *time.Time
	SourceCategory ids.Set
}

// IsEmpty reports whether the patch changes nothing.
func (p FeedPatch) IsEmpty() bool {
	return p.Limit == nil && p.SortBy == nil && p.SortOrder == nil && p.SearchTerm == nil &&
		p.Highlight == nil && p.FirstDate == nil && p.LastDate == nil && p.SourceCategory == nil
}

func cloneSet(s ids.Set) ids.Set {
	if s == nil {
		return nil
	}
	return s.Clone()
}
