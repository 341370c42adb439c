package request

import (
	"time"

	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/domain/search/order"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search term length.
	MaxQueryLength = 4096
	// MaxIDs bounds the explicit id filter.
	MaxIDs = 10000
	// MaxSources bounds the source filter.
	MaxSources = 512
	// DefaultHighlightSymbol wraps matched spans when highlighting.
	DefaultHighlightSymbol = "**"
)

// Params is the raw, user-facing article search input. Every field is optional.
type Params struct {
	Limit           int
	SortBy          order.Field
	SortOrder       order.Direction
	SearchTerm      string
	FirstDate       *time.Time
	LastDate        *time.Time
	Sources         []string
	IDs             []string
	Highlight       bool
	HighlightSymbol string
	ClusterID       *int
}

// Request is a validated article search request.
type Request struct {
	limit           int
	sortBy          order.Field
	sortOrder       order.Direction
	searchTerm      string
	firstDate       *time.Time
	lastDate        *time.Time
	sources         []string
	ids             []string
	highlight       bool
	highlightSymbol string
	clusterID       *int
}

// New validates and normalizes search parameters.
// Limit 0 means unset, not zero results. Sort order defaults to desc and
// the highlight symbol to "**". Duplicate sources and ids are dropped, order kept.
func New(p Params) (Request, error) {
	if p.Limit < 0 {
		return Request{}, domain.Validationf("limit must not be negative")
	}
	if !p.SortBy.IsValid() {
		return Request{}, domain.Validationf("unsupported sort field %q", p.SortBy)
	}
	dir := p.SortOrder.OrDefault()
	if !dir.IsValid() {
		return Request{}, domain.Validationf("unsupported sort order %q", p.SortOrder)
	}
	if len(p.SearchTerm) > MaxQueryLength {
		return Request{}, domain.Validationf("search term too long (max %d chars)", MaxQueryLength)
	}
	if p.FirstDate != nil && p.LastDate != nil && p.FirstDate.After(*p.LastDate) {
		return Request{}, domain.Validationf("first_date must not be after last_date")
	}
	if len(p.Sources) > MaxSources {
		return Request{}, domain.Validationf("too many sources (max %d)", MaxSources)
	}
	if len(p.IDs) > MaxIDs {
		return Request{}, domain.Validationf("too many ids (max %d)", MaxIDs)
	}
	if p.ClusterID != nil && *p.ClusterID < 0 {
		return Request{}, domain.Validationf("cluster id must not be negative")
	}

	symbol := p.HighlightSymbol
	if symbol == "" {
		symbol = DefaultHighlightSymbol
	}

	return Request{
		limit:           p.Limit,
		sortBy:          p.SortBy,
		sortOrder:       dir,
		searchTerm:      p.SearchTerm,
		firstDate:       p.FirstDate,
		lastDate:        p.LastDate,
		sources:         dedupe(p.Sources),
		ids:             dedupe(p.IDs),
		highlight:       p.Highlight,
		highlightSymbol: symbol,
		clusterID:       p.ClusterID,
	}, nil
}

// Limit returns the result cap, 0 when unset.
func (r *Request) Limit() int { return r.limit }

// SortBy returns the sort field, order.Relevance when unset.
func (r *Request) SortBy() order.Field { return r.sortBy }

// SortOrder returns the sort direction.
func (r *Request) SortOrder() order.Direction { return r.sortOrder }

// SearchTerm returns the free-text term.
func (r *Request) SearchTerm() string { return r.searchTerm }

// FirstDate returns the inclusive lower publish date bound.
func (r *Request) FirstDate() *time.Time { return r.firstDate }

// LastDate returns the inclusive upper publish date bound.
func (r *Request) LastDate() *time.Time { return r.lastDate }

// Sources returns the allowed source names.
func (r *Request) Sources() []string { return r.sources }

// IDs returns the explicit article id filter.
func (r *Request) IDs() []string { return r.ids }

// Highlight reports whether matched spans should be highlighted.
func (r *Request) Highlight() bool { return r.highlight }

// HighlightSymbol returns the delimiter wrapped around matched spans.
func (r *Request) HighlightSymbol() string { return r.highlightSymbol }

// ClusterID returns the topic cluster scope, nil when unscoped.
func (r *Request) ClusterID() *int { return r.clusterID }

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
