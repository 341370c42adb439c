package osinter

import (
	"time"

	"github.com/osinter/osinter/internal/domain/search/order"
	"github.com/osinter/osinter/internal/domain/search/request"
	"github.com/osinter/osinter/internal/domain/search/result"
	domuser "github.com/osinter/osinter/internal/domain/user"
)

// Article is a single search hit, also the unit of indexing.
type Article = result.Article

// Page is an ordered list of hits plus the engine's total match count.
type Page = result.Page

// Sort fields.
const (
	SortRelevance   = ""
	SortPublishDate = "publish_date"
	SortReadTimes   = "read_times"
	SortSource      = "source"
	SortAuthor      = "author"
	SortInsertedAt  = "inserted_at"
)

// SearchParams is the article search input. Every field is optional;
// Limit 0 returns up to the engine's maximum.
type SearchParams struct {
	Limit           int
	SortBy          string
	SortOrder       string // "asc" or "desc" (default)
	SearchTerm      string
	FirstDate       *time.Time
	LastDate        *time.Time
	Sources         []string
	IDs             []string
	Highlight       bool
	HighlightSymbol string
	ClusterID       *int
}

func (p SearchParams) toRequest() request.Params {
	return request.Params{
		Limit:           p.Limit,
		SortBy:          order.Field(p.SortBy),
		SortOrder:       order.Direction(p.SortOrder),
		SearchTerm:      p.SearchTerm,
		FirstDate:       p.FirstDate,
		LastDate:        p.LastDate,
		Sources:         p.Sources,
		IDs:             p.IDs,
		Highlight:       p.Highlight,
		HighlightSymbol: p.HighlightSymbol,
		ClusterID:       p.ClusterID,
	}
}

// User is the public projection of an account.
type User struct {
	ID            string
	Username      string
	Active        bool
	FeedIDs       []string
	CollectionIDs []string
	AlreadyRead   string
}

func userFromDomain(u *domuser.User) User {
	return User{
		ID:            u.ID(),
		Username:      u.Username(),
		Active:        u.Active(),
		FeedIDs:       u.FeedIDs().Slice(),
		CollectionIDs: u.CollectionIDs().Slice(),
		AlreadyRead:   u.AlreadyRead(),
	}
}
