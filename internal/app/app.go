// Package app builds the store, the search engine and the use case services
// from configuration. Both binaries share it.
package app

import (
	"context"
	"fmt"

	"github.com/osinter/osinter/internal/config"
	"github.com/osinter/osinter/internal/db"
	dbBolt "github.com/osinter/osinter/internal/db/bolt"
	dbRedis "github.com/osinter/osinter/internal/db/redis"
	"github.com/osinter/osinter/internal/domain/item"
	"github.com/osinter/osinter/internal/domain/search/query"
	"github.com/osinter/osinter/internal/domain/search/result"
	domuser "github.com/osinter/osinter/internal/domain/user"
	documentrepo "github.com/osinter/osinter/internal/repository/document"
	"github.com/osinter/osinter/internal/repository/view"
	bleveEngine "github.com/osinter/osinter/internal/searchengine/bleve"
	elasticEngine "github.com/osinter/osinter/internal/searchengine/elastic"
	"github.com/osinter/osinter/internal/usecase/credential"
	healthuc "github.com/osinter/osinter/internal/usecase/health"
	searchuc "github.com/osinter/osinter/internal/usecase/search"
	subscriptionuc "github.com/osinter/osinter/internal/usecase/subscription"
	useruc "github.com/osinter/osinter/internal/usecase/user"
)

// Engine is an article search backend that can also ingest articles.
type Engine interface {
	searchuc.Engine
	Index(ctx context.Context, articles []result.Article) error
	Close() error
}

// App holds the wired services.
type App struct {
	Store         db.Store
	Engine        Engine
	Users         *useruc.Service
	Subscriptions *subscriptionuc.Service
	Search        *searchuc.Service
	Health        *healthuc.Service
}

// New opens the configured store and engine and wires the services.
func New(cfg config.Config) (*App, error) {
	store, err := OpenStore(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	engine, err := OpenEngine(cfg.Search)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open search engine: %w", err)
	}

	retries := documentrepo.WithMaxRetries(cfg.Repository.MaxWriteRetries)
	users := documentrepo.New[*domuser.User](store, documentrepo.UserCodec{}, "user", retries)
	items := documentrepo.New[item.Owned](store, documentrepo.ItemCodec{}, "item", retries)
	feeds := documentrepo.New[*item.Feed](store, documentrepo.FeedCodec{}, "feed", retries)
	colls := documentrepo.New[*item.Collection](store, documentrepo.CollectionCodec{}, "collection", retries)
	lookup := view.New(store)

	a := cfg.Auth.Argon2
	hasher := credential.New(credential.Params{
		Time:      a.Time,
		MemoryKiB: a.MemoryKiB,
		Threads:   a.Threads,
		KeyLen:    a.KeyLen,
		SaltLen:   a.SaltLen,
	})

	return &App{
		Store:  store,
		Engine: engine,
		Users:  useruc.New(users, items, lookup, hasher, cfg.Auth.SignupCodes),
		Subscriptions: subscriptionuc.New(
			subscriptionuc.Repos{Users: users, Items: items, Feeds: feeds, Collections: colls},
			lookup,
			view.NewFull[*item.Feed](feeds, func(f *item.Feed) string { return f.ID() }),
			view.NewFull[*item.Collection](colls, func(c *item.Collection) string { return c.ID() }),
		),
		Search: searchuc.New(engine, feeds, searchuc.Options{
			Query: query.Options{
				FragmentSize:      cfg.Search.FragmentSize,
				NumberOfFragments: cfg.Search.Fragments,
			},
			Clustering: cfg.Features.MLClustering,
		}),
		Health: healthuc.New(store, engine),
	}, nil
}

// Close releases the engine and the store.
func (a *App) Close() {
	_ = a.Engine.Close()
	a.Store.Close()
}

// OpenStore creates the document store for the configured driver.
// Valkey and Redis share the rueidis-backed store.
func OpenStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverValkey, config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:     cfg.Addrs,
			Username:  cfg.Username,
			Password:  cfg.Password,
			DB:        cfg.DB,
			KeyPrefix: cfg.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverBolt:
		s, err := dbBolt.NewStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// OpenEngine creates the article search engine for the configured driver.
func OpenEngine(cfg config.SearchConfig) (Engine, error) {
	switch cfg.Driver {
	case config.SearchElastic:
		e, err := elasticEngine.New(elasticEngine.Config{
			URLs:       cfg.URLs,
			Username:   cfg.Username,
			Password:   cfg.Password,
			Index:      cfg.Index,
			MaxResults: cfg.MaxResults,
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	case config.SearchBleve:
		e, err := bleveEngine.New(bleveEngine.Config{Path: cfg.Path, MaxResults: cfg.MaxResults})
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown search driver %q", cfg.Driver)
	}
}
