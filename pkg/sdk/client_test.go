package osinter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newEmbedded(t *testing.T, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithBolt(filepath.Join(t.TempDir(), "sdk.db")),
		WithArgon2(1, 1024, 1),
	}
	c, err := New(context.Background(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNew_NoStore(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no store configured")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(context.Background(), WithBolt(""))
	if err == nil {
		t.Fatal("expected error for bolt without path")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	WithValkey("localhost:6379", "secret").apply(cfg)
	if cfg.conf.Database.Driver != "valkey" {
		t.Errorf("driver = %q, want valkey", cfg.conf.Database.Driver)
	}
	if cfg.conf.Database.Addrs[0] != "localhost:6379" || cfg.conf.Database.Password != "secret" {
		t.Errorf("database = %+v", cfg.conf.Database)
	}

	WithRedis("localhost:6380", "pass").apply(cfg)
	if cfg.conf.Database.Driver != "redis" {
		t.Errorf("driver = %q, want redis", cfg.conf.Database.Driver)
	}

	WithElastic("articles", "http://es1:9200", "http://es2:9200").apply(cfg)
	if cfg.conf.Search.Driver != "elastic" || cfg.conf.Search.Index != "articles" || len(cfg.conf.Search.URLs) != 2 {
		t.Errorf("search = %+v", cfg.conf.Search)
	}

	WithSignupCodes("a", "b").apply(cfg)
	WithMaxWriteRetries(9).apply(cfg)
	WithClustering().apply(cfg)
	if len(cfg.conf.Auth.SignupCodes) != 2 || cfg.conf.Repository.MaxWriteRetries != 9 || !cfg.conf.Features.MLClustering {
		t.Errorf("conf = %+v", cfg.conf)
	}

	logger := slog.Default()
	WithLogger(logger).apply(cfg)
	if cfg.logger != logger {
		t.Error("expected logger to be set")
	}

	reg := prometheus.NewRegistry()
	WithPrometheus(reg).apply(cfg)
	if cfg.metricsReg != reg {
		t.Error("expected metricsReg to be set")
	}
}

func TestClient_Close_NilApp(t *testing.T) {
	c := &Client{}
	c.Close()
}

func TestClient_UsersAndArticles(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newEmbedded(t, WithPrometheus(reg))
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if h := c.Health(ctx); h.Status != "ok" {
		t.Errorf("health = %+v", h)
	}

	u, err := c.Users().Signup(ctx, SignupParams{Username: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if u.AlreadyRead == "" || len(u.CollectionIDs) != 2 {
		t.Errorf("user = %+v", u)
	}
	if _, err := c.Users().Authenticate(ctx, "alice", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: %v", err)
	}
	if err := c.Users().ResetPassword(ctx, "alice", "pw2"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := c.Users().Authenticate(ctx, "alice", "pw2"); err != nil {
		t.Errorf("Authenticate: %v", err)
	}

	err = c.Articles().Index(ctx, []Article{
		{ID: "a1", Title: "Ransomware gang", Source: "reuters", PublishDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "a2", Title: "Weather", Source: "bbc", PublishDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	page, err := c.Articles().Search(ctx, SearchParams{SearchTerm: "ransomware"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Total != 1 || page.Articles[0].ID != "a1" {
		t.Errorf("page = %+v", page)
	}
	if _, err := c.Articles().Search(ctx, SearchParams{SortBy: "colour"}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad sort: %v", err)
	}
	newest, err := c.Articles().Newest(ctx)
	if err != nil || len(newest.Articles) != 2 || newest.Articles[0].ID != "a2" {
		t.Errorf("newest = %+v, %v", newest, err)
	}

	if err := c.Users().Remove(ctx, "alice"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "osinter", Subsystem: "sdk", Name: "operations_total",
		Help: "Total SDK operations by type and status.",
	}, []string{"operation", "status"})
	if err := registerOrReuse(reg, &ops); err != nil {
		t.Fatalf("registerOrReuse: %v", err)
	}
	if got := testutil.ToFloat64(ops.WithLabelValues("articles.search", "invalid")); got != 1 {
		t.Errorf("invalid searches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ops.WithLabelValues("user.authenticate", "denied")); got != 1 {
		t.Errorf("denied logins = %v, want 1", got)
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe("test", time.Now(), nil)
	obs.observe("test", time.Now(), errors.New("err"))
}

func TestObserver_WithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("articles.search", time.Now().Add(-10*time.Millisecond), nil)
	obs.observe("articles.search", time.Now(), errors.New("fail"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "osinter_sdk_operations_total" {
			found = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected 2 metric samples, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("osinter_sdk_operations_total not found")
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("sort: %w", ErrValidation), "invalid"},
		{ErrInvalidCredentials, "denied"},
		{ErrForbidden, "denied"},
		{ErrNotFound, "not_found"},
		{fmt.Errorf("es: %w", ErrSearchUnavailable), "unavailable"},
		{errors.New("boom"), "error"},
	}
	for _, tc := range tests {
		if got := outcome(tc.err); got != tc.want {
			t.Errorf("outcome(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestObserver_WithLogger(t *testing.T) {
	obs, err := newObserver(slog.Default(), nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	obs.observe("test.op", time.Now(), nil)
	obs.observe("test.op", time.Now(), errors.New("test error"))
}

func TestClient_Items(t *testing.T) {
	c := newEmbedded(t)
	ctx := context.Background()

	alice, err := c.Users().Signup(ctx, SignupParams{Username: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	bob, err := c.Users().Signup(ctx, SignupParams{Username: "bob", Password: "pw"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	feed, err := c.Items().CreateFeed(ctx, alice.ID, "Threats", FeedParams{SearchTerm: "ransomware", Limit: 10})
	if err != nil {
		t.Fatalf("CreateFeed: %v", err)
	}
	if feed.Owner != alice.ID || feed.Params.SortOrder != "desc" || !feed.Deletable {
		t.Errorf("feed = %+v", feed)
	}

	limit := 5
	if _, err := c.Items().UpdateFeed(ctx, bob.ID, feed.ID, FeedPatch{Limit: &limit}); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign update: %v", err)
	}
	updated, err := c.Items().UpdateFeed(ctx, alice.ID, feed.ID, FeedPatch{Limit: &limit})
	if err != nil || updated.Params.Limit != 5 || updated.Params.SearchTerm != "ransomware" {
		t.Errorf("update = %+v, %v", updated, err)
	}

	if err := c.Items().Subscribe(ctx, bob.ID, KindFeed, feed.ID); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	list, err := c.Items().List(ctx, bob.ID, KindFeed)
	if err != nil || len(list) != 1 || list[0].ID != feed.ID {
		t.Errorf("bob's feeds = %+v, %v", list, err)
	}
	if err := c.Items().Unsubscribe(ctx, bob.ID, KindFeed, feed.ID); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if err := c.Items().Subscribe(ctx, bob.ID, "user", feed.ID); !errors.Is(err, ErrValidation) {
		t.Errorf("bad kind: %v", err)
	}

	coll, err := c.Items().CreateCollection(ctx, alice.ID, "Reading", []string{"a1"})
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	if coll, err = c.Items().SetArticles(ctx, alice.ID, coll.ID, []string{"a2", "a3"}); err != nil || len(coll.ArticleIDs) != 2 {
		t.Errorf("SetArticles = %+v, %v", coll, err)
	}
	if sum, err := c.Items().Rename(ctx, alice.ID, coll.ID, "Later"); err != nil || sum.Name != "Later" {
		t.Errorf("Rename = %+v, %v", sum, err)
	}
	colls, err := c.Items().Collections(ctx, alice.ID)
	if err != nil || len(colls) != 3 {
		t.Errorf("collections = %d, %v", len(colls), err)
	}

	if err := c.Items().Remove(ctx, alice.ID, alice.AlreadyRead); !errors.Is(err, ErrForbidden) {
		t.Errorf("remove default collection: %v", err)
	}
	if _, err := c.Items().Collection(ctx, alice.AlreadyRead); err != nil {
		t.Errorf("default collection gone: %v", err)
	}
	if err := c.Items().Remove(ctx, alice.ID, feed.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	feeds, err := c.Items().Feeds(ctx, alice.ID)
	if err != nil || len(feeds) != 0 {
		t.Errorf("feeds after remove = %+v, %v", feeds, err)
	}
}
