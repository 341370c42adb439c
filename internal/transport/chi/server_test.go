package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/osinter/osinter/internal/app"
	"github.com/osinter/osinter/internal/config"
	"github.com/osinter/osinter/internal/domain/item"
	"github.com/osinter/osinter/internal/domain/search/result"
)

type apiFixture struct {
	srv *httptest.Server
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	cfg := config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverBolt, Path: filepath.Join(t.TempDir(), "api.db")},
		Search:   config.SearchConfig{Driver: config.SearchBleve},
		Auth: config.AuthConfig{Argon2: config.Argon2Config{
			Time: 1, MemoryKiB: 1024, Threads: 1, KeyLen: 16, SaltLen: 8,
		}},
	}
	cfg.ApplyDefaults()
	a, err := app.New(cfg)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(a.Close)

	err = a.Engine.Index(context.Background(), []result.Article{
		{
			ID: "a1", Title: "Malware hits banks", Description: "A banking trojan spreads",
			Content: "Full body", Source: "reuters",
			PublishDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "a2", Title: "Weather report", Description: "Sunny",
			Content: "Full body", Source: "bbc",
			PublishDate: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	server := NewServer(a.Users, a.Subscriptions, a.Search, a.Health, zap.NewNop())
	srv := httptest.NewServer(Handler(server))
	t.Cleanup(srv.Close)
	return &apiFixture{srv: srv}
}

type call struct {
	method, path string
	body         any
	user, pass   string
}

func (f *apiFixture) do(t *testing.T, c call, out any) int {
	t.Helper()
	var body io.Reader = http.NoBody
	if c.body != nil {
		b, err := json.Marshal(c.body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(c.method, f.srv.URL+c.path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", c.method, c.path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", c.method, c.path, err)
		}
	}
	return resp.StatusCode
}

func (f *apiFixture) signup(t *testing.T, username string) UserResponse {
	t.Helper()
	var u UserResponse
	code := f.do(t, call{method: "POST", path: "/auth/signup",
		body: SignupRequest{Username: username, Password: "pw-" + username}}, &u)
	if code != http.StatusCreated {
		t.Fatalf("signup %s: status %d", username, code)
	}
	return u
}

func TestAPI_SignupAndStatus(t *testing.T) {
	f := newAPI(t)
	created := f.signup(t, "alice")

	var me UserResponse
	code := f.do(t, call{method: "GET", path: "/auth/status", user: "alice", pass: "pw-alice"}, &me)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if me.ID != created.ID || me.Username != "alice" {
		t.Errorf("me = %+v, created = %+v", me, created)
	}
	if len(me.CollectionIDs) != len(item.DefaultCollections) {
		t.Errorf("collections = %v", me.CollectionIDs)
	}

	if code := f.do(t, call{method: "POST", path: "/auth/signup",
		body: SignupRequest{Username: "alice", Password: "x"}}, nil); code != http.StatusConflict {
		t.Errorf("duplicate signup = %d, want 409", code)
	}
	if code := f.do(t, call{method: "GET", path: "/auth/status", user: "alice", pass: "nope"}, nil); code != http.StatusUnauthorized {
		t.Errorf("wrong password = %d, want 401", code)
	}
}

func TestAPI_FeedLifecycle(t *testing.T) {
	f := newAPI(t)
	f.signup(t, "alice")
	f.signup(t, "bob")
	alice := call{user: "alice", pass: "pw-alice"}
	bob := call{user: "bob", pass: "pw-bob"}

	term := "malware"
	limit := 10
	var feed FeedResponse
	c := alice
	c.method, c.path = "POST", "/user-items/feed"
	c.body = FeedRequest{Name: "Threats", SearchTerm: &term, Limit: &limit}
	if code := f.do(t, c, &feed); code != http.StatusCreated {
		t.Fatalf("create feed = %d", code)
	}
	if feed.Owner == "" || feed.SortOrder != "desc" {
		t.Errorf("feed = %+v", feed)
	}

	var list []item.Summary
	c = alice
	c.method, c.path = "GET", "/my/feeds/list"
	if code := f.do(t, c, &list); code != http.StatusOK {
		t.Fatalf("list = %d", code)
	}
	if len(list) != 1 || list[0].ID != feed.ID {
		t.Fatalf("list = %+v", list)
	}

	newLimit := 5
	c = bob
	c.method, c.path, c.body = "PUT", "/user-items/feed/"+feed.ID, FeedRequest{Limit: &newLimit}
	if code := f.do(t, c, nil); code != http.StatusForbidden {
		t.Errorf("foreign patch = %d, want 403", code)
	}

	var patched FeedResponse
	c = alice
	c.method, c.path, c.body = "PUT", "/user-items/feed/"+feed.ID, FeedRequest{Limit: &newLimit}
	if code := f.do(t, c, &patched); code != http.StatusOK {
		t.Fatalf("patch = %d", code)
	}
	if patched.Limit != 5 || patched.SearchTerm != "malware" {
		t.Errorf("patched = %+v", patched)
	}

	var page ArticleListResponse
	if code := f.do(t, call{method: "GET", path: "/articles/feed/" + feed.ID}, &page); code != http.StatusOK {
		t.Fatalf("feed articles = %d", code)
	}
	if page.Total != 1 || page.Articles[0].ID != "a1" {
		t.Errorf("page = %+v", page)
	}

	c = alice
	c.method, c.path, c.body = "PUT", "/user-items/"+feed.ID+"/name", RenameRequest{Name: "Renamed"}
	var sum item.Summary
	if code := f.do(t, c, &sum); code != http.StatusOK || sum.Name != "Renamed" {
		t.Errorf("rename = %d %+v", code, sum)
	}

	c = alice
	c.method, c.path, c.body = "DELETE", "/user-items/"+feed.ID, nil
	if code := f.do(t, c, nil); code != http.StatusNoContent {
		t.Errorf("delete = %d", code)
	}
	if code := f.do(t, c, nil); code != http.StatusNoContent {
		t.Errorf("repeated delete = %d", code)
	}
	if code := f.do(t, call{method: "GET", path: "/user-items/feed/" + feed.ID}, nil); code != http.StatusUnauthorized {
		t.Errorf("anonymous get = %d, want 401", code)
	}
	c = alice
	c.method, c.path = "GET", "/user-items/feed/"+feed.ID
	if code := f.do(t, c, nil); code != http.StatusNotFound {
		t.Errorf("get deleted = %d, want 404", code)
	}
}

func TestAPI_DefaultCollectionsNotDeletable(t *testing.T) {
	f := newAPI(t)
	created := f.signup(t, "alice")

	c := call{user: "alice", pass: "pw-alice", method: "DELETE", path: "/user-items/" + created.AlreadyRead}
	if code := f.do(t, c, nil); code != http.StatusForbidden {
		t.Fatalf("delete already_read = %d, want 403", code)
	}
	c.method, c.path = "GET", "/user-items/collection/"+created.AlreadyRead
	if code := f.do(t, c, nil); code != http.StatusOK {
		t.Errorf("already_read after delete attempt = %d, want 200", code)
	}
}

func TestAPI_Subscriptions(t *testing.T) {
	f := newAPI(t)
	f.signup(t, "alice")
	c := call{user: "alice", pass: "pw-alice", method: "POST", path: "/my/subscriptions"}

	c.body = SubscriptionRequest{Kind: "feed", Action: "subscribe", IDs: []string{"f1", "f2"}}
	var u UserResponse
	if code := f.do(t, c, &u); code != http.StatusOK {
		t.Fatalf("subscribe = %d", code)
	}
	if len(u.FeedIDs) != 2 {
		t.Errorf("feeds = %v", u.FeedIDs)
	}

	c.body = SubscriptionRequest{Kind: "feed", Action: "toggle", IDs: []string{"f1"}}
	if code := f.do(t, c, nil); code != http.StatusBadRequest {
		t.Errorf("bad action = %d, want 400", code)
	}
	c.body = SubscriptionRequest{Kind: "user", Action: "subscribe", IDs: []string{"f1"}}
	if code := f.do(t, c, nil); code != http.StatusUnprocessableEntity {
		t.Errorf("bad kind = %d, want 422", code)
	}
}

func TestAPI_Collections(t *testing.T) {
	f := newAPI(t)
	f.signup(t, "alice")
	c := call{user: "alice", pass: "pw-alice"}

	var coll CollectionResponse
	c.method, c.path, c.body = "POST", "/user-items/collection", CollectionRequest{Name: "Keep", IDs: []string{"a1"}}
	if code := f.do(t, c, &coll); code != http.StatusCreated {
		t.Fatalf("create = %d", code)
	}

	c.method, c.path, c.body = "PUT", "/user-items/collection/"+coll.ID, CollectionRequest{IDs: []string{"a2", "a3"}}
	var replaced CollectionResponse
	if code := f.do(t, c, &replaced); code != http.StatusOK {
		t.Fatalf("replace = %d", code)
	}
	if len(replaced.IDs) != 2 {
		t.Errorf("ids = %v", replaced.IDs)
	}

	var all map[string]CollectionResponse
	c.method, c.path, c.body = "GET", "/my/collections", nil
	if code := f.do(t, c, &all); code != http.StatusOK {
		t.Fatalf("collections = %d", code)
	}
	if _, ok := all[coll.ID]; !ok || len(all) != len(item.DefaultCollections)+1 {
		t.Errorf("collections = %v", all)
	}
}

func TestAPI_SearchParams(t *testing.T) {
	f := newAPI(t)

	var page ArticleListResponse
	code := f.do(t, call{method: "GET",
		path: "/articles/search?search_term=malware&highlight=true&source_category=reuters&source_category=bbc"}, &page)
	if code != http.StatusOK {
		t.Fatalf("search = %d", code)
	}
	if page.Total != 1 || !strings.Contains(strings.Join(page.Articles[0].Highlights["title"], ""), "**") {
		t.Errorf("page = %+v", page)
	}

	if code := f.do(t, call{method: "GET", path: "/articles/search?limit=many"}, nil); code != http.StatusBadRequest {
		t.Errorf("bad limit = %d, want 400", code)
	}
	if code := f.do(t, call{method: "GET", path: "/articles/search?sort_by=colour"}, nil); code != http.StatusUnprocessableEntity {
		t.Errorf("bad sort = %d, want 422", code)
	}
	if code := f.do(t, call{method: "GET", path: "/articles/search?cluster_id=3"}, nil); code != http.StatusNotImplemented {
		t.Errorf("cluster = %d, want 501", code)
	}
}

func TestAPI_NewestOmitsContent(t *testing.T) {
	f := newAPI(t)

	var page ArticleListResponse
	if code := f.do(t, call{method: "GET", path: "/articles/overview/newest"}, &page); code != http.StatusOK {
		t.Fatalf("newest = %d", code)
	}
	if len(page.Articles) != 2 || page.Articles[0].ID != "a2" {
		t.Fatalf("page = %+v", page)
	}
	for _, a := range page.Articles {
		if a.Content != "" {
			t.Errorf("article %s carries content", a.ID)
		}
	}
}

func TestAPI_Health(t *testing.T) {
	f := newAPI(t)

	var h HealthResponse
	if code := f.do(t, call{method: "GET", path: "/health"}, &h); code != http.StatusOK {
		t.Fatalf("health = %d", code)
	}
	if h.Status != "ok" || h.Checks["database"] != "ok" || h.Checks["search"] != "ok" {
		t.Errorf("health = %+v", h)
	}
}
