package osinter

import (
	"context"
	"time"

	"github.com/osinter/osinter/internal/app"
)

// ArticleService searches and indexes articles.
type ArticleService struct {
	app *app.App
	obs *observer
}

// Search validates p and runs it against the search engine.
func (s *ArticleService) Search(ctx context.Context, p SearchParams) (_ Page, err error) {
	start := time.Now()
	defer func() { s.obs.observe("articles.search", start, err) }()

	return s.app.Search.Search(ctx, p.toRequest())
}

// Newest returns the most recently published articles without their bodies.
func (s *ArticleService) Newest(ctx context.Context) (_ Page, err error) {
	start := time.Now()
	defer func() { s.obs.observe("articles.newest", start, err) }()

	return s.app.Search.Newest(ctx)
}

// Feed runs the saved search of a feed. A positive limit overrides the feed's own.
func (s *ArticleService) Feed(ctx context.Context, feedID string, limit int) (_ Page, err error) {
	start := time.Now()
	defer func() { s.obs.observe("articles.feed", start, err) }()

	return s.app.Search.FeedSearch(ctx, feedID, limit)
}

// Index adds or replaces articles in the search engine.
func (s *ArticleService) Index(ctx context.Context, articles []Article) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("articles.index", start, err) }()

	return s.app.Engine.Index(ctx, articles)
}
