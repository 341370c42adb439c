// Package elastic runs compiled article queries on Elasticsearch.
package elastic

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/olivere/elastic/v7"

	"github.com/osinter/osinter/internal/domain"
)

// Defaults applied to an empty Config.
const (
	DefaultIndex      = "osinter_articles"
	DefaultMaxResults = 10000
)

// Config holds connection parameters for an Elasticsearch cluster.
type Config struct {
	URLs     []string
	Username string
	Password string
	Index    string
	// MaxResults caps hits per query and replaces an unset size.
	MaxResults int
}

// Engine implements article search on one Elasticsearch index.
type Engine struct {
	client     *elastic.Client
	index      string
	maxResults int
}

// New connects to Elasticsearch. Sniffing is off so the engine works behind
// load balancers and in containers.
func New(cfg Config, opts ...elastic.ClientOptionFunc) (*Engine, error) {
	if len(cfg.URLs) == 0 {
		return nil, fmt.Errorf("urls is required")
	}
	options := []elastic.ClientOptionFunc{
		elastic.SetURL(cfg.URLs...),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	}
	if cfg.Username != "" {
		options = append(options, elastic.SetBasicAuth(cfg.Username, cfg.Password))
	}
	options = append(options, opts...)

	client, err := elastic.NewClient(options...)
	if err != nil {
		return nil, fmt.Errorf("connect to elasticsearch: %w", err)
	}

	e := &Engine{client: client, index: cfg.Index, maxResults: cfg.MaxResults}
	if e.index == "" {
		e.index = DefaultIndex
	}
	if e.maxResults <= 0 {
		e.maxResults = DefaultMaxResults
	}
	return e, nil
}

// Name identifies the engine in metrics.
func (e *Engine) Name() string { return "elastic" }

// Ping checks that the article index exists.
func (e *Engine) Ping(ctx context.Context) error {
	ok, err := e.client.IndexExists(e.index).Do(ctx)
	if err != nil {
		return unavailable("ping", err)
	}
	if !ok {
		return fmt.Errorf("index %q missing: %w", e.index, domain.ErrSearchUnavailable)
	}
	return nil
}

// Close stops the client's background goroutines.
func (e *Engine) Close() error {
	e.client.Stop()
	return nil
}

// unavailable classifies transport failures and server errors as
// domain.ErrSearchUnavailable. Client errors (4xx) stay plain.
func unavailable(op string, err error) error {
	var ee *elastic.Error
	if errors.As(err, &ee) && ee.Status < http.StatusInternalServerError {
		return fmt.Errorf("elasticsearch %s: %w", op, err)
	}
	return fmt.Errorf("elasticsearch %s: %w: %w", op, domain.ErrSearchUnavailable, err)
}
