package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/olivere/elastic/v7"

	"github.com/osinter/osinter/internal/domain/search/query"
	"github.com/osinter/osinter/internal/domain/search/result"
)

// articleDoc is the indexed article source.
type articleDoc struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url"`
	Author      string    `json:"author"`
	Source      string    `json:"source"`
	PublishDate time.Time `json:"publish_date"`
	InsertedAt  time.Time `json:"inserted_at"`
	ReadTimes   int       `json:"read_times"`
	ML          *articleML `json:"ml,omitempty"`
}

type articleML struct {
	Cluster *int `json:"cluster"`
}

// Search runs q and maps hits to articles in engine order.
func (e *Engine) Search(ctx context.Context, q query.Query) (result.Page, error) {
	ss, err := e.source(q)
	if err != nil {
		return result.Page{}, err
	}
	res, err := e.client.Search(e.index).SearchSource(ss).Do(ctx)
	if err != nil {
		return result.Page{}, unavailable("search", err)
	}

	page := result.Page{Total: res.TotalHits()}
	if res.Hits == nil {
		return page, nil
	}
	page.Articles = make([]result.Article, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		a, err := toArticle(hit)
		if err != nil {
			return result.Page{}, err
		}
		page.Articles = append(page.Articles, a)
	}
	return page, nil
}

// source builds the request body for q.
func (e *Engine) source(q query.Query) (*elastic.SearchSource, error) {
	eq, err := buildQuery(q)
	if err != nil {
		return nil, err
	}
	ss := elastic.NewSearchSource().
		Query(eq).
		Size(e.size(q.Size)).
		TrackTotalHits(true)

	if q.Sort != nil {
		ss = ss.Sort(q.Sort.Field, q.Sort.Ascending)
	}
	if h := q.Highlight; h != nil {
		hl := elastic.NewHighlight().
			PreTags(h.PreTag).
			PostTags(h.PostTag).
			FragmentSize(h.FragmentSize).
			NumOfFragments(h.NumberOfFragments)
		for _, f := range h.Fields {
			hl = hl.Field(f)
		}
		ss = ss.Highlight(hl)
	}
	if q.OmitContent {
		ss = ss.FetchSourceContext(elastic.NewFetchSourceContext(true).Exclude(query.FieldContent))
	}
	return ss, nil
}

func (e *Engine) size(n int) int {
	if n <= 0 || n > e.maxResults {
		return e.maxResults
	}
	return n
}

func buildQuery(q query.Query) (elastic.Query, error) {
	if q.Match == nil && len(q.Filters) == 0 {
		return elastic.NewMatchAllQuery(), nil
	}
	bq := elastic.NewBoolQuery()
	if m := q.Match; m != nil {
		bq = bq.Must(elastic.NewMultiMatchQuery(m.Term, m.Fields...))
	}
	for _, f := range q.Filters {
		fq, err := filterQuery(f)
		if err != nil {
			return nil, err
		}
		bq = bq.Filter(fq)
	}
	return bq, nil
}

func filterQuery(f query.Filter) (elastic.Query, error) {
	switch f := f.(type) {
	case query.DateRange:
		rq := elastic.NewRangeQuery(f.Field)
		if f.From != nil {
			rq = rq.Gte(f.From.UTC().Format(time.RFC3339))
		}
		if f.To != nil {
			rq = rq.Lte(f.To.UTC().Format(time.RFC3339))
		}
		return rq, nil
	case query.Terms:
		values := make([]interface{}, len(f.Values))
		for i, v := range f.Values {
			values[i] = v
		}
		return elastic.NewTermsQuery(f.Field, values...), nil
	case query.IDs:
		return elastic.NewIdsQuery().Ids(f.Values...), nil
	case query.Cluster:
		return elastic.NewTermQuery(f.Field, f.ID), nil
	default:
		return nil, fmt.Errorf("elastic: unsupported filter %T", f)
	}
}

func toArticle(hit *elastic.SearchHit) (result.Article, error) {
	var doc articleDoc
	if len(hit.Source) > 0 {
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return result.Article{}, fmt.Errorf("decode article %s: %w", hit.Id, err)
		}
	}
	a := result.Article{
		ID:          hit.Id,
		Title:       doc.Title,
		Description: doc.Description,
		Content:     doc.Content,
		URL:         doc.URL,
		ImageURL:    doc.ImageURL,
		Author:      doc.Author,
		Source:      doc.Source,
		PublishDate: doc.PublishDate,
		InsertedAt:  doc.InsertedAt,
		ReadTimes:   doc.ReadTimes,
	}
	if doc.ML != nil {
		a.Cluster = doc.ML.Cluster
	}
	if hit.Score != nil {
		a.Score = *hit.Score
	}
	if len(hit.Highlight) > 0 {
		a.Highlights = make(map[string][]string, len(hit.Highlight))
		for field, fragments := range hit.Highlight {
			a.Highlights[field] = fragments
		}
	}
	return a, nil
}
