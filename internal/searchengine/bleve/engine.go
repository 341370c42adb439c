// Package bleve runs compiled article queries on an embedded bleve index.
// It backs local and development setups that have no Elasticsearch.
package bleve

import (
	"context"
	"errors"
	"fmt"

	blevesearch "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/domain/search/query"
	"github.com/osinter/osinter/internal/domain/search/result"
)

// DefaultMaxResults caps hits when neither the query nor Config sets a size.
const DefaultMaxResults = 10000

// Config locates the index.
type Config struct {
	// Path is the index directory. Empty means an in-memory index.
	Path       string
	MaxResults int
}

// Engine implements article search on a bleve index.
type Engine struct {
	idx        blevesearch.Index
	maxResults int
}

// New opens the index at cfg.Path, creating it when missing.
func New(cfg Config) (*Engine, error) {
	var (
		idx blevesearch.Index
		err error
	)
	switch {
	case cfg.Path == "":
		idx, err = blevesearch.NewMemOnly(indexMapping())
	default:
		idx, err = blevesearch.Open(cfg.Path)
		if errors.Is(err, blevesearch.ErrorIndexPathDoesNotExist) {
			idx, err = blevesearch.New(cfg.Path, indexMapping())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open bleve index: %w", err)
	}

	e := &Engine{idx: idx, maxResults: cfg.MaxResults}
	if e.maxResults <= 0 {
		e.maxResults = DefaultMaxResults
	}
	return e, nil
}

// Name identifies the engine in metrics.
func (e *Engine) Name() string { return "bleve" }

// Ping checks that the index is readable.
func (e *Engine) Ping(_ context.Context) error {
	if _, err := e.idx.DocCount(); err != nil {
		return fmt.Errorf("bleve: %w: %w", domain.ErrSearchUnavailable, err)
	}
	return nil
}

// Close releases the index.
func (e *Engine) Close() error {
	return e.idx.Close()
}

// Index adds or replaces articles in one batch.
func (e *Engine) Index(ctx context.Context, articles []result.Article) error {
	batch := e.idx.NewBatch()
	for i := range articles {
		if err := ctx.Err(); err != nil {
			return err
		}
		a := &articles[i]
		if a.ID == "" {
			return domain.Validationf("article %d has no id", i)
		}
		if err := batch.Index(a.ID, toDoc(a)); err != nil {
			return fmt.Errorf("index article %s: %w", a.ID, err)
		}
	}
	if err := e.idx.Batch(batch); err != nil {
		return fmt.Errorf("bleve batch: %w", err)
	}
	return nil
}

func indexMapping() mapping.IndexMapping {
	im := blevesearch.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := blevesearch.NewDocumentMapping()
	for _, name := range query.TextFields {
		f := blevesearch.NewTextFieldMapping()
		f.Analyzer = standard.Name
		f.Store = true
		f.IncludeTermVectors = true
		dm.AddFieldMappingsAt(name, f)
	}
	for _, name := range []string{query.FieldSource, query.FieldAuthor, query.FieldURL, query.FieldImageURL} {
		f := blevesearch.NewKeywordFieldMapping()
		f.Analyzer = keyword.Name
		f.Store = true
		dm.AddFieldMappingsAt(name, f)
	}
	for _, name := range []string{query.FieldPublishDate, query.FieldInsertedAt} {
		dm.AddFieldMappingsAt(name, blevesearch.NewDateTimeFieldMapping())
	}
	dm.AddFieldMappingsAt(query.FieldReadTimes, blevesearch.NewNumericFieldMapping())

	ml := blevesearch.NewDocumentMapping()
	ml.AddFieldMappingsAt("cluster", blevesearch.NewNumericFieldMapping())
	dm.AddSubDocumentMapping("ml", ml)

	im.DefaultMapping = dm
	return im
}

func toDoc(a *result.Article) map[string]any {
	doc := map[string]any{
		query.FieldTitle:       a.Title,
		query.FieldDescription: a.Description,
		query.FieldContent:     a.Content,
		query.FieldURL:         a.URL,
		query.FieldImageURL:    a.ImageURL,
		query.FieldAuthor:      a.Author,
		query.FieldSource:      a.Source,
		query.FieldReadTimes:   float64(a.ReadTimes),
	}
	if !a.PublishDate.IsZero() {
		doc[query.FieldPublishDate] = a.PublishDate
	}
	if !a.InsertedAt.IsZero() {
		doc[query.FieldInsertedAt] = a.InsertedAt
	}
	if a.Cluster != nil {
		doc["ml"] = map[string]any{"cluster": float64(*a.Cluster)}
	}
	return doc
}
