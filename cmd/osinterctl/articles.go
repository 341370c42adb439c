package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/osinter/osinter/internal/domain/search/result"
)

const importBatchSize = 500

// articleRecord is one article in an import file.
type articleRecord struct {
	ID          string    `json:"id"`
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
	ML          *struct {
		Cluster *int `json:"cluster"`
	} `json:"ml"`
}

func (r *articleRecord) article(now time.Time) result.Article {
	a := result.Article{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Content:     r.Content,
		URL:         r.URL,
		ImageURL:    r.ImageURL,
		Author:      r.Author,
		Source:      r.Source,
		PublishDate: r.PublishDate,
		InsertedAt:  r.InsertedAt,
		ReadTimes:   r.ReadTimes,
	}
	if a.InsertedAt.IsZero() {
		a.InsertedAt = now
	}
	if r.ML != nil {
		a.Cluster = r.ML.Cluster
	}
	return a
}

func newArticlesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "Manage the article index",
	}

	importCmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Index articles from a JSON array into the configured search engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			var records []articleRecord
			if err := json.NewDecoder(f).Decode(&records); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			now := time.Now().UTC()
			batch := make([]result.Article, 0, importBatchSize)
			indexed := 0
			flush := func() error {
				if len(batch) == 0 {
					return nil
				}
				if err := e.app.Engine.Index(cmd.Context(), batch); err != nil {
					return fmt.Errorf("after %d articles: %w", indexed, err)
				}
				indexed += len(batch)
				e.logger.Debug("batch indexed", zap.Int("indexed", indexed))
				batch = batch[:0]
				return nil
			}
			for i := range records {
				batch = append(batch, records[i].article(now))
				if len(batch) == importBatchSize {
					if err := flush(); err != nil {
						return err
					}
				}
			}
			if err := flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d articles into %s\n", indexed, e.app.Engine.Name())
			return nil
		},
	}

	cmd.AddCommand(importCmd)
	return cmd
}
