package osinter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/osinter/osinter/internal/app"
	"github.com/osinter/osinter/internal/config"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the osinter SDK entry point.
type Client struct {
	app *app.App
	obs *observer
}

// New creates a Client and connects to the document store.
// The provided context is used for the initial readiness check.
// Articles are searched in an in-memory bleve index unless WithElastic or
// WithBleve says otherwise.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.conf.Database.Driver == "" {
		return nil, errors.New("osinter: document store required (use WithValkey, WithRedis or WithBolt)")
	}
	if cfg.conf.Search.Driver == "" {
		cfg.conf.Search.Driver = config.SearchBleve
	}
	cfg.conf.ApplyDefaults()
	if err := cfg.conf.Validate(); err != nil {
		return nil, fmt.Errorf("osinter: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	a, err := app.New(cfg.conf)
	if err != nil {
		return nil, fmt.Errorf("osinter: %w", err)
	}
	if err := a.Store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		a.Close()
		return nil, fmt.Errorf("osinter: database not ready: %w", err)
	}

	return &Client{app: a, obs: obs}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.app != nil {
		c.app.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.app.Store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Users returns the account service.
func (c *Client) Users() *UserService {
	return &UserService{app: c.app, obs: c.obs}
}

// Items returns the feed, collection and subscription service.
func (c *Client) Items() *ItemService {
	return &ItemService{app: c.app, obs: c.obs}
}

// Articles returns the article search service.
func (c *Client) Articles() *ArticleService {
	return &ArticleService{app: c.app, obs: c.obs}
}
