package subscription

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/osinter/osinter/internal/db/bolt"
	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/domain/ids"
	"github.com/osinter/osinter/internal/domain/item"
	"github.com/osinter/osinter/internal/domain/search/order"
	"github.com/osinter/osinter/internal/domain/user"
	"github.com/osinter/osinter/internal/repository/document"
	"github.com/osinter/osinter/internal/repository/view"
)

type fixture struct {
	svc   *Service
	repos Repos
	items *document.Repo[item.Owned]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := bolt.NewStore(filepath.Join(t.TempDir(), "sub.db"))
	if err != nil {
		t.Fatalf("bolt.NewStore: %v", err)
	}
	t.Cleanup(st.Close)

	feeds := document.New[*item.Feed](st, document.FeedCodec{}, "feed")
	colls := document.New[*item.Collection](st, document.CollectionCodec{}, "collection")
	items := document.New[item.Owned](st, document.ItemCodec{}, "item")
	repos := Repos{
		Users:       document.New[*user.User](st, document.UserCodec{}, "user"),
		Items:       items,
		Feeds:       feeds,
		Collections: colls,
	}
	svc := New(repos, view.New(st),
		view.NewFull[*item.Feed](feeds, func(f *item.Feed) string { return f.ID() }),
		view.NewFull[*item.Collection](colls, func(c *item.Collection) string { return c.ID() }),
	)
	return &fixture{svc: svc, repos: repos, items: items}
}

func (f *fixture) seedUser(t *testing.T, id string, feedIDs ...string) {
	t.Helper()
	u := user.Reconstruct(id, "user-"+id, true, "hash", "", feedIDs, nil, nil, "")
	if _, err := f.repos.Users.Create(context.Background(), &u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func (f *fixture) feedIDs(t *testing.T, userID string) ids.Set {
	t.Helper()
	v, err := f.repos.Users.Load(context.Background(), userID)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	return v.Value.FeedIDs()
}

func TestModifySubscription_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "f0")
	ctx := context.Background()
	s := ids.New("f1", "f2")

	if _, err := f.svc.ModifySubscription(ctx, "u1", domain.KindFeed, s, Subscribe); err != nil {
		t.Fatalf("first subscribe: %v", err)
	}
	once := f.feedIDs(t, "u1")
	if _, err := f.svc.ModifySubscription(ctx, "u1", domain.KindFeed, s, Subscribe); err != nil {
		t.Fatalf("second subscribe: %v", err)
	}
	twice := f.feedIDs(t, "u1")

	if !once.Equal(twice) || !twice.Equal(ids.New("f0", "f1", "f2")) {
		t.Errorf("once=%v twice=%v", once.Slice(), twice.Slice())
	}
}

func TestModifySubscription_InverseLaw(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "f0", "f9")
	ctx := context.Background()
	original := f.feedIDs(t, "u1")

	// S is disjoint from the original set; "ghost" was never subscribed.
	s := ids.New("f1", "ghost")
	if _, err := f.svc.ModifySubscription(ctx, "u1", domain.KindFeed, s, Subscribe); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := f.svc.ModifySubscription(ctx, "u1", domain.KindFeed, s, Unsubscribe); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if got := f.feedIDs(t, "u1"); !got.Equal(original) {
		t.Errorf("got %v, want %v", got.Slice(), original.Slice())
	}
}

func TestModifySubscription_UnsubscribeAbsentIsNoop(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", "f0")

	u, err := f.svc.ModifySubscription(context.Background(), "u1", domain.KindFeed, ids.New("nope"), Unsubscribe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !u.FeedIDs().Equal(ids.New("f0")) {
		t.Errorf("feed ids = %v", u.FeedIDs().Slice())
	}
}

func TestModifySubscription_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.ModifySubscription(ctx, "missing", domain.KindFeed, ids.New("f1"), Subscribe); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing user: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.ModifySubscription(ctx, "u1", domain.KindUser, ids.New("f1"), Subscribe); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad kind: expected ErrValidation, got %v", err)
	}
	if _, err := f.svc.ModifySubscription(ctx, "u1", domain.KindFeed, ids.New("f1"), "toggle"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad action: expected ErrValidation, got %v", err)
	}
}

func TestModifyFeed_PartialUpdateIsolation(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1")
	ctx := context.Background()

	feed, err := f.svc.CreateFeed(ctx, item.FeedParams{
		Limit:      20,
		SortBy:     order.PublishDate,
		SortOrder:  order.Asc,
		SearchTerm: "ransomware",
		Highlight:  true,
	}, "Ransomware", "u1")
	if err != nil {
		t.Fatalf("CreateFeed: %v", err)
	}

	limit := 50
	got, err := f.svc.ModifyFeed(ctx, feed.ID(), item.FeedPatch{Limit: &limit}, "u1")
	if err != nil {
		t.Fatalf("ModifyFeed: %v", err)
	}

	p := got.Params()
	if p.Limit != 50 {
		t.Errorf("limit = %d, want 50", p.Limit)
	}
	if p.SortBy != order.PublishDate || p.SortOrder != order.Asc || p.SearchTerm != "ransomware" || !p.Highlight {
		t.Errorf("untouched fields changed: %+v", p)
	}

	stored, err := f.svc.Feed(ctx, feed.ID())
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if stored.Params().SearchTerm != "ransomware" || stored.Params().Limit != 50 {
		t.Errorf("stored params = %+v", stored.Params())
	}
}

func TestModifyFeed_OwnershipAndKind(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1")
	ctx := context.Background()

	feed, _ := f.svc.CreateFeed(ctx, item.FeedParams{}, "Mine", "u1")
	coll, _ := f.svc.CreateCollection(ctx, "Stuff", "u1", nil)
	limit := 5

	if _, err := f.svc.ModifyFeed(ctx, feed.ID(), item.FeedPatch{Limit: &limit}, "u2"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("other owner: expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.ModifyFeed(ctx, coll.ID(), item.FeedPatch{Limit: &limit}, "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("collection id: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.ModifyFeed(ctx, "missing", item.FeedPatch{Limit: &limit}, "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing: expected ErrNotFound, got %v", err)
	}
}

func TestModifyCollection_ReplacesSet(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1")
	ctx := context.Background()

	coll, err := f.svc.CreateCollection(ctx, "Reading", "u1", ids.New("a1", "a2"))
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	got, err := f.svc.ModifyCollection(ctx, coll.ID(), ids.New("a3"), "u1")
	if err != nil {
		t.Fatalf("ModifyCollection: %v", err)
	}
	if !got.ArticleIDs().Equal(ids.New("a3")) {
		t.Errorf("ids = %v, want [a3]", got.ArticleIDs().Slice())
	}
	if _, err := f.svc.ModifyCollection(ctx, coll.ID(), ids.New(), "u2"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestRenameItem_BothKinds(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1")
	ctx := context.Background()

	feed, _ := f.svc.CreateFeed(ctx, item.FeedParams{}, "Old feed", "u1")
	coll, _ := f.svc.CreateCollection(ctx, "Old coll", "u1", nil)

	for _, id := range []string{feed.ID(), coll.ID()} {
		got, err := f.svc.RenameItem(ctx, id, "New name", "u1")
		if err != nil {
			t.Fatalf("rename %s: %v", id, err)
		}
		if got.Base().Name() != "New name" {
			t.Errorf("name = %q", got.Base().Name())
		}
	}
	if _, err := f.svc.RenameItem(ctx, feed.ID(), "  ", "u1"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("blank name: expected ErrValidation, got %v", err)
	}
	if _, err := f.svc.RenameItem(ctx, feed.ID(), "x", "u2"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("other owner: expected ErrForbidden, got %v", err)
	}
}

func TestRemoveItem_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1")
	ctx := context.Background()
	feed, _ := f.svc.CreateFeed(ctx, item.FeedParams{}, "Gone soon", "u1")

	for i := 0; i < 2; i++ {
		if err := f.svc.RemoveItem(ctx, feed.ID(), "u1"); err != nil {
			t.Fatalf("remove #%d: %v", i+1, err)
		}
	}
}

func TestRemoveItem_ForbiddenTwice(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1")
	ctx := context.Background()
	coll, _ := f.svc.CreateCollection(ctx, "Theirs", "u1", nil)

	for i := 0; i < 2; i++ {
		if err := f.svc.RemoveItem(ctx, coll.ID(), "u2"); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("attempt #%d: expected ErrForbidden, got %v", i+1, err)
		}
	}
	if _, err := f.svc.Collection(ctx, coll.ID()); err != nil {
		t.Errorf("collection must survive: %v", err)
	}
}

func TestRemoveItem_NotAnItem(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1")

	if err := f.svc.RemoveItem(context.Background(), "u1", "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveItem_UnownedIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	feed, _ := f.svc.CreateFeed(ctx, item.FeedParams{}, "System", "")

	if err := f.svc.RemoveItem(ctx, feed.ID(), "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListItems_SkipsDeleted(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1")
	ctx := context.Background()
	a, _ := f.svc.CreateFeed(ctx, item.FeedParams{}, "Beta", "u1")
	b, _ := f.svc.CreateFeed(ctx, item.FeedParams{}, "Alpha", "u1")
	c, _ := f.svc.CreateFeed(ctx, item.FeedParams{}, "Deleted", "u1")
	if !f.feedIDs(t, "u1").Equal(ids.New(a.ID(), b.ID(), c.ID())) {
		t.Fatalf("creator not subscribed: %v", f.feedIDs(t, "u1").Slice())
	}

	if err := f.svc.RemoveItem(ctx, c.ID(), "u1"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	got, err := f.svc.ListItems(ctx, "u1", domain.KindFeed)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Alpha" || got[1].Name != "Beta" {
		t.Errorf("got %+v", got)
	}

	full, err := f.svc.Feeds(ctx, "u1")
	if err != nil {
		t.Fatalf("Feeds: %v", err)
	}
	if len(full) != 2 {
		t.Errorf("full feeds = %d, want 2", len(full))
	}
	if _, ok := full[c.ID()]; ok {
		t.Error("deleted feed resolved")
	}
}

func (f *fixture) loadUser(t *testing.T, id string) *user.User {
	t.Helper()
	v, err := f.repos.Users.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	return v.Value
}

func TestCreateItem_ClaimsForOwner(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1")
	ctx := context.Background()

	feed, err := f.svc.CreateFeed(ctx, item.FeedParams{}, "Mine", "u1")
	if err != nil {
		t.Fatalf("CreateFeed: %v", err)
	}
	coll, err := f.svc.CreateCollection(ctx, "Reading", "u1", nil)
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	u := f.loadUser(t, "u1")
	if !u.OwnedIDs().Equal(ids.New(feed.ID(), coll.ID())) {
		t.Errorf("owned = %v", u.OwnedIDs().Slice())
	}
	if !u.FeedIDs().Has(feed.ID()) || !u.CollectionIDs().Has(coll.ID()) {
		t.Errorf("creator not subscribed: feeds=%v collections=%v", u.FeedIDs().Slice(), u.CollectionIDs().Slice())
	}

	if err := f.svc.RemoveItem(ctx, feed.ID(), "u1"); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if f.loadUser(t, "u1").OwnedIDs().Has(feed.ID()) {
		t.Error("removed feed still owned")
	}
}

func TestCreateItem_UnknownOwnerLeavesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	feed, err := f.svc.CreateFeed(ctx, item.FeedParams{}, "Orphan", "ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if feed != nil {
		t.Errorf("feed returned for unknown owner: %v", feed.ID())
	}
}

func TestRemoveItem_DefaultCollectionForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := item.NewDefaultCollection("already-read-1", item.AlreadyRead, "u1")
	if err != nil {
		t.Fatalf("NewDefaultCollection: %v", err)
	}
	if _, err := f.repos.Collections.Create(ctx, &c); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.svc.RemoveItem(ctx, c.ID(), "u1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.Collection(ctx, c.ID()); err != nil {
		t.Errorf("default collection must survive: %v", err)
	}
}
