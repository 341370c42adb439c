package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/domain/item"
	"github.com/osinter/osinter/internal/domain/search/order"
	"github.com/osinter/osinter/internal/domain/search/query"
	"github.com/osinter/osinter/internal/domain/search/request"
	"github.com/osinter/osinter/internal/domain/search/result"
	"github.com/osinter/osinter/internal/logger"
	"github.com/osinter/osinter/internal/metrics"
)

// NewestLimit is the size of the newest-articles overview.
const NewestLimit = 50

// Options configure the search service.
type Options struct {
	Query query.Options
	// Clustering enables cluster-scoped searches.
	Clustering bool
}

// Service compiles article search requests and runs them on an engine.
type Service struct {
	engine Engine
	feeds  FeedReader
	opts   Options
}

// New creates a search service.
func New(engine Engine, feeds FeedReader, opts Options) *Service {
	return &Service{engine: engine, feeds: feeds, opts: opts}
}

// Search validates p, compiles it and runs it.
func (s *Service) Search(ctx context.Context, p request.Params) (result.Page, error) {
	if p.ClusterID != nil && !s.opts.Clustering {
		return result.Page{}, fmt.Errorf("cluster search: %w", domain.ErrNotImplemented)
	}
	req, err := request.New(p)
	if err != nil {
		return result.Page{}, err
	}
	return s.run(ctx, query.Compile(req, s.opts.Query))
}

// Newest returns the most recently published articles without their content.
func (s *Service) Newest(ctx context.Context) (result.Page, error) {
	req, err := request.New(request.Params{
		Limit:     NewestLimit,
		SortBy:    order.PublishDate,
		SortOrder: order.Desc,
	})
	if err != nil {
		return result.Page{}, err
	}
	q := query.Compile(req, s.opts.Query)
	q.OmitContent = true
	return s.run(ctx, q)
}

// FeedSearch runs the saved parameters of a feed. A positive limit
// overrides the feed's own.
func (s *Service) FeedSearch(ctx context.Context, feedID string, limit int) (result.Page, error) {
	v, err := s.feeds.Load(ctx, feedID)
	if err != nil {
		return result.Page{}, fmt.Errorf("load feed %s: %w", feedID, err)
	}
	p := FeedRequest(v.Value.Params())
	if limit > 0 {
		p.Limit = limit
	}
	return s.Search(ctx, p)
}

// FeedRequest maps saved feed parameters onto search parameters.
func FeedRequest(fp item.FeedParams) request.Params {
	p := request.Params{
		Limit:      fp.Limit,
		SortBy:     fp.SortBy,
		SortOrder:  fp.SortOrder,
		SearchTerm: fp.SearchTerm,
		FirstDate:  fp.FirstDate,
		LastDate:   fp.LastDate,
		Highlight:  fp.Highlight,
	}
	if fp.SourceCategory.Len() > 0 {
		p.Sources = fp.SourceCategory.Slice()
	}
	return p
}

func (s *Service) run(ctx context.Context, q query.Query) (result.Page, error) {
	name := s.engine.Name()
	start := time.Now()
	page, err := s.engine.Search(ctx, q)
	metrics.SearchRequestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(name, "error").Inc()
		logger.FromContext(ctx).Warn("article search failed", zap.String("engine", name), zap.Error(err))
		return result.Page{}, fmt.Errorf("search articles: %w", err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(name, "ok").Inc()
	return page, nil
}
