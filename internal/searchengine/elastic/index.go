package elastic

import (
	"context"
	"fmt"

	"github.com/olivere/elastic/v7"

	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/domain/search/result"
)

// Index adds or replaces articles with one bulk request.
func (e *Engine) Index(ctx context.Context, articles []result.Article) error {
	if len(articles) == 0 {
		return nil
	}
	bulk := e.client.Bulk().Index(e.index)
	for i := range articles {
		a := &articles[i]
		if a.ID == "" {
			return domain.Validationf("article %d has no id", i)
		}
		bulk.Add(elastic.NewBulkIndexRequest().Id(a.ID).Doc(fromArticle(a)))
	}

	res, err := bulk.Do(ctx)
	if err != nil {
		return unavailable("bulk index", err)
	}
	if failed := res.Failed(); len(failed) > 0 {
		reason := "unknown"
		if failed[0].Error != nil {
			reason = failed[0].Error.Reason
		}
		return fmt.Errorf("index article %s: %s (%d of %d failed)", failed[0].Id, reason, len(failed), len(articles))
	}
	return nil
}

func fromArticle(a *result.Article) articleDoc {
	doc := articleDoc{
		Title:       a.Title,
		Description: a.Description,
		Content:     a.Content,
		URL:         a.URL,
		ImageURL:    a.ImageURL,
		Author:      a.Author,
		Source:      a.Source,
		PublishDate: a.PublishDate,
		InsertedAt:  a.InsertedAt,
		ReadTimes:   a.ReadTimes,
	}
	if a.Cluster != nil {
		doc.ML = &articleML{Cluster: a.Cluster}
	}
	return doc
}
