package query

import (
	"github.com/osinter/osinter/internal/domain/search/order"
	"github.com/osinter/osinter/internal/domain/search/request"
)

// Highlight fragment defaults, overridable per engine config.
const (
	DefaultFragmentSize      = 150
	DefaultNumberOfFragments = 3
)

// Options tune the compiled query beyond what a request carries.
type Options struct {
	FragmentSize      int
	NumberOfFragments int
}

// Compile turns a validated request into a structured query.
// Each clause is present only when its input was supplied. An id list and a
// search term are both kept: ids narrow the full-text match.
func Compile(req request.Request, opts Options) Query {
	var q Query

	if term := req.SearchTerm(); term != "" {
		q.Match = &Match{Term: term, Fields: append([]string(nil), TextFields...)}
	}

	if req.FirstDate() != nil || req.LastDate() != nil {
		q.Filters = append(q.Filters, DateRange{
			Field: FieldPublishDate,
			From:  req.FirstDate(),
			To:    req.LastDate(),
		})
	}
	if sources := req.Sources(); len(sources) > 0 {
		q.Filters = append(q.Filters, Terms{Field: FieldSource, Values: sources})
	}
	if ids := req.IDs(); len(ids) > 0 {
		q.Filters = append(q.Filters, IDs{Values: ids})
	}
	if c := req.ClusterID(); c != nil {
		q.Filters = append(q.Filters, Cluster{Field: FieldCluster, ID: *c})
	}

	if name, ok := SortFieldName(req.SortBy()); ok {
		q.Sort = &Sort{Field: name, Ascending: req.SortOrder() == order.Asc}
	}

	q.Size = req.Limit()

	if req.Highlight() {
		symbol := req.HighlightSymbol()
		q.Highlight = &Highlight{
			PreTag:            symbol,
			PostTag:           symbol,
			Fields:            append([]string(nil), TextFields...),
			FragmentSize:      orDefault(opts.FragmentSize, DefaultFragmentSize),
			NumberOfFragments: orDefault(opts.NumberOfFragments, DefaultNumberOfFragments),
		}
	}

	return q
}

// IDFilter returns the id list filter, if any.
func (q *Query) IDFilter() (IDs, bool) {
	for _, f := range q.Filters {
		if ids, ok := f.(IDs); ok {
			return ids, true
		}
	}
	return IDs{}, false
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
