package bleve

import (
	"context"
	"fmt"
	"strings"
	"time"

	blevesearch "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/highlight/highlighter/html"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/domain/search/query"
	"github.com/osinter/osinter/internal/domain/search/result"
)

// Tags emitted by the html highlighter, swapped for the requested symbols.
const (
	markOpen  = "<mark>"
	markClose = "</mark>"
)

// storedFields are returned with every hit.
var storedFields = []string{
	query.FieldTitle, query.FieldDescription, query.FieldContent,
	query.FieldURL, query.FieldImageURL, query.FieldAuthor, query.FieldSource,
	query.FieldPublishDate, query.FieldInsertedAt, query.FieldReadTimes, query.FieldCluster,
}

// Search runs q and maps hits to articles in engine order.
func (e *Engine) Search(ctx context.Context, q query.Query) (result.Page, error) {
	bq, err := buildQuery(q)
	if err != nil {
		return result.Page{}, err
	}

	req := blevesearch.NewSearchRequestOptions(bq, e.size(q.Size), 0, false)
	req.Fields = fieldsFor(q)
	if q.Sort != nil {
		field := q.Sort.Field
		if !q.Sort.Ascending {
			field = "-" + field
		}
		req.SortBy([]string{field, "_id"})
	}
	if q.Highlight != nil {
		req.Highlight = blevesearch.NewHighlightWithStyle(html.Name)
		req.Highlight.Fields = q.Highlight.Fields
	}

	res, err := e.idx.SearchInContext(ctx, req)
	if err != nil {
		return result.Page{}, fmt.Errorf("bleve search: %w: %w", domain.ErrSearchUnavailable, err)
	}

	page := result.Page{
		Total:    int64(res.Total),
		Articles: make([]result.Article, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		page.Articles = append(page.Articles, toArticle(hit, q.Highlight))
	}
	return page, nil
}

func (e *Engine) size(n int) int {
	if n <= 0 || n > e.maxResults {
		return e.maxResults
	}
	return n
}

func fieldsFor(q query.Query) []string {
	if !q.OmitContent {
		return storedFields
	}
	out := make([]string, 0, len(storedFields)-1)
	for _, f := range storedFields {
		if f != query.FieldContent {
			out = append(out, f)
		}
	}
	return out
}

func buildQuery(q query.Query) (bleveQuery.Query, error) {
	var clauses []bleveQuery.Query
	if m := q.Match; m != nil {
		per := make([]bleveQuery.Query, 0, len(m.Fields))
		for _, f := range m.Fields {
			mq := blevesearch.NewMatchQuery(m.Term)
			mq.SetField(f)
			per = append(per, mq)
		}
		clauses = append(clauses, blevesearch.NewDisjunctionQuery(per...))
	}
	for _, f := range q.Filters {
		fq, err := filterQuery(f)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, fq)
	}
	if len(clauses) == 0 {
		return blevesearch.NewMatchAllQuery(), nil
	}
	return blevesearch.NewConjunctionQuery(clauses...), nil
}

func filterQuery(f query.Filter) (bleveQuery.Query, error) {
	inclusive := true
	switch f := f.(type) {
	case query.DateRange:
		var from, to time.Time
		if f.From != nil {
			from = *f.From
		}
		if f.To != nil {
			to = *f.To
		}
		dq := blevesearch.NewDateRangeInclusiveQuery(from, to, &inclusive, &inclusive)
		dq.SetField(f.Field)
		return dq, nil
	case query.Terms:
		per := make([]bleveQuery.Query, 0, len(f.Values))
		for _, v := range f.Values {
			tq := blevesearch.NewTermQuery(v)
			tq.SetField(f.Field)
			per = append(per, tq)
		}
		return blevesearch.NewDisjunctionQuery(per...), nil
	case query.IDs:
		return blevesearch.NewDocIDQuery(f.Values), nil
	case query.Cluster:
		id := float64(f.ID)
		nq := blevesearch.NewNumericRangeInclusiveQuery(&id, &id, &inclusive, &inclusive)
		nq.SetField(f.Field)
		return nq, nil
	default:
		return nil, fmt.Errorf("bleve: unsupported filter %T", f)
	}
}

func toArticle(hit *search.DocumentMatch, hl *query.Highlight) result.Article {
	a := result.Article{
		ID:          hit.ID,
		Score:       hit.Score,
		Title:       str(hit.Fields, query.FieldTitle),
		Description: str(hit.Fields, query.FieldDescription),
		Content:     str(hit.Fields, query.FieldContent),
		URL:         str(hit.Fields, query.FieldURL),
		ImageURL:    str(hit.Fields, query.FieldImageURL),
		Author:      str(hit.Fields, query.FieldAuthor),
		Source:      str(hit.Fields, query.FieldSource),
		PublishDate: date(hit.Fields, query.FieldPublishDate),
		InsertedAt:  date(hit.Fields, query.FieldInsertedAt),
	}
	if n, ok := hit.Fields[query.FieldReadTimes].(float64); ok {
		a.ReadTimes = int(n)
	}
	if n, ok := hit.Fields[query.FieldCluster].(float64); ok {
		c := int(n)
		a.Cluster = &c
	}
	if hl != nil && len(hit.Fragments) > 0 {
		a.Highlights = make(map[string][]string, len(hit.Fragments))
		r := strings.NewReplacer(markOpen, hl.PreTag, markClose, hl.PostTag)
		for field, fragments := range hit.Fragments {
			if hl.NumberOfFragments > 0 && len(fragments) > hl.NumberOfFragments {
				fragments = fragments[:hl.NumberOfFragments]
			}
			out := make([]string, len(fragments))
			for i, frag := range fragments {
				out[i] = r.Replace(frag)
			}
			a.Highlights[field] = out
		}
	}
	return a
}

func str(fields map[string]any, name string) string {
	s, _ := fields[name].(string)
	return s
}

func date(fields map[string]any, name string) time.Time {
	s, ok := fields[name].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
