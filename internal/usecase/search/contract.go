package search

import (
	"context"

	"github.com/osinter/osinter/internal/domain/item"
	"github.com/osinter/osinter/internal/domain/search/query"
	"github.com/osinter/osinter/internal/domain/search/result"
	"github.com/osinter/osinter/internal/repository/document"
)

// Engine executes compiled queries against an article index.
type Engine interface {
	// Name labels metrics and logs ("elastic", "bleve").
	Name() string
	Search(ctx context.Context, q query.Query) (result.Page, error)
	Ping(ctx context.Context) error
}

// FeedReader loads saved feeds for feed-scoped searches.
type FeedReader interface {
	Load(ctx context.Context, id string) (document.Versioned[*item.Feed], error)
}
