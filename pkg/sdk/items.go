package osinter

import (
	"context"
	"time"

	"github.com/osinter/osinter/internal/app"
	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/domain/ids"
	"github.com/osinter/osinter/internal/domain/item"
	"github.com/osinter/osinter/internal/domain/search/order"
	subscriptionuc "github.com/osinter/osinter/internal/usecase/subscription"
)

// Item kinds accepted by Subscribe and Unsubscribe.
const (
	KindFeed       = string(domain.KindFeed)
	KindCollection = string(domain.KindCollection)
)

// ItemSummary is the minimal projection of a feed or collection.
type ItemSummary = item.Summary

// FeedParams are the saved search parameters of a feed.
type FeedParams struct {
	Limit      int
	SortBy     string
	SortOrder  string
	SearchTerm string
	Highlight  bool
	FirstDate  *time.Time
	LastDate   *time.Time
	Sources    []string
}

func (p FeedParams) toDomain() item.FeedParams {
	out := item.FeedParams{
		Limit:      p.Limit,
		SortBy:     order.Field(p.SortBy),
		SortOrder:  order.Direction(p.SortOrder),
		SearchTerm: p.SearchTerm,
		Highlight:  p.Highlight,
		FirstDate:  p.FirstDate,
		LastDate:   p.LastDate,
	}
	if p.Sources != nil {
		out.SourceCategory = ids.New(p.Sources...)
	}
	return out
}

// FeedPatch is a partial feed update. Nil fields are kept.
type FeedPatch struct {
	Limit      *int
	SortBy     *string
	SortOrder  *string
	SearchTerm *string
	Highlight  *bool
	FirstDate  *time.Time
	LastDate   *time.Time
	Sources    []string
}

func (p FeedPatch) toDomain() item.FeedPatch {
	out := item.FeedPatch{
		Limit:      p.Limit,
		SearchTerm: p.SearchTerm,
		Highlight:  p.Highlight,
		FirstDate:  p.FirstDate,
		LastDate:   p.LastDate,
	}
	if p.SortBy != nil {
		f := order.Field(*p.SortBy)
		out.SortBy = &f
	}
	if p.SortOrder != nil {
		d := order.Direction(*p.SortOrder)
		out.SortOrder = &d
	}
	if p.Sources != nil {
		out.SourceCategory = ids.New(p.Sources...)
	}
	return out
}

// Feed is a saved article search.
type Feed struct {
	ID        string
	Name      string
	Owner     string
	Deletable bool
	Params    FeedParams
}

func feedFromDomain(f *item.Feed) Feed {
	p := f.Params()
	return Feed{
		ID:        f.ID(),
		Name:      f.Name(),
		Owner:     f.Owner(),
		Deletable: f.Deletable(),
		Params: FeedParams{
			Limit:      p.Limit,
			SortBy:     string(p.SortBy),
			SortOrder:  string(p.SortOrder),
			SearchTerm: p.SearchTerm,
			Highlight:  p.Highlight,
			FirstDate:  p.FirstDate,
			LastDate:   p.LastDate,
			Sources:    p.SourceCategory.Slice(),
		},
	}
}

// Collection is a named set of article ids.
type Collection struct {
	ID         string
	Name       string
	Owner      string
	Deletable  bool
	ArticleIDs []string
}

func collectionFromDomain(c *item.Collection) Collection {
	return Collection{
		ID:         c.ID(),
		Name:       c.Name(),
		Owner:      c.Owner(),
		Deletable:  c.Deletable(),
		ArticleIDs: c.ArticleIDs().Slice(),
	}
}

// ItemService manages feeds, collections and subscriptions on behalf of a
// user id the embedder has already authenticated.
type ItemService struct {
	app *app.App
	obs *observer
}

// CreateFeed stores a feed owned by and subscribed to userID.
func (s *ItemService) CreateFeed(ctx context.Context, userID, name string, p FeedParams) (_ Feed, err error) {
	start := time.Now()
	defer func() { s.obs.observe("items.create_feed", start, err) }()

	f, err := s.app.Subscriptions.CreateFeed(ctx, p.toDomain(), name, userID)
	if err != nil {
		return Feed{}, err
	}
	return feedFromDomain(f), nil
}

// CreateCollection stores a collection owned by and subscribed to userID.
func (s *ItemService) CreateCollection(
	ctx context.Context, userID, name string, articleIDs []string,
) (_ Collection, err error) {
	start := time.Now()
	defer func() { s.obs.observe("items.create_collection", start, err) }()

	c, err := s.app.Subscriptions.CreateCollection(ctx, name, userID, ids.New(articleIDs...))
	if err != nil {
		return Collection{}, err
	}
	return collectionFromDomain(c), nil
}

// UpdateFeed applies patch to a feed userID owns.
func (s *ItemService) UpdateFeed(ctx context.Context, userID, feedID string, patch FeedPatch) (_ Feed, err error) {
	start := time.Now()
	defer func() { s.obs.observe("items.update_feed", start, err) }()

	f, err := s.app.Subscriptions.ModifyFeed(ctx, feedID, patch.toDomain(), userID)
	if err != nil {
		return Feed{}, err
	}
	return feedFromDomain(f), nil
}

// SetArticles replaces the article ids of a collection userID owns.
func (s *ItemService) SetArticles(
	ctx context.Context, userID, collectionID string, articleIDs []string,
) (_ Collection, err error) {
	start := time.Now()
	defer func() { s.obs.observe("items.set_articles", start, err) }()

	c, err := s.app.Subscriptions.ModifyCollection(ctx, collectionID, ids.New(articleIDs...), userID)
	if err != nil {
		return Collection{}, err
	}
	return collectionFromDomain(c), nil
}

// Rename changes the name of a feed or collection userID owns.
func (s *ItemService) Rename(ctx context.Context, userID, itemID, name string) (_ ItemSummary, err error) {
	start := time.Now()
	defer func() { s.obs.observe("items.rename", start, err) }()

	o, err := s.app.Subscriptions.RenameItem(ctx, itemID, name, userID)
	if err != nil {
		return ItemSummary{}, err
	}
	return o.Base().Summary(), nil
}

// Remove deletes a feed or collection userID owns. Absent ids succeed;
// default collections are ErrForbidden.
func (s *ItemService) Remove(ctx context.Context, userID, itemID string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("items.remove", start, err) }()

	return s.app.Subscriptions.RemoveItem(ctx, itemID, userID)
}

// Subscribe adds itemIDs of kind (KindFeed or KindCollection) to userID's set.
func (s *ItemService) Subscribe(ctx context.Context, userID, kind string, itemIDs ...string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("items.subscribe", start, err) }()

	_, err = s.app.Subscriptions.ModifySubscription(
		ctx, userID, domain.Kind(kind), ids.New(itemIDs...), subscriptionuc.Subscribe)
	return err
}

// Unsubscribe removes itemIDs of kind from userID's set. Absent ids are ignored.
func (s *ItemService) Unsubscribe(ctx context.Context, userID, kind string, itemIDs ...string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("items.unsubscribe", start, err) }()

	_, err = s.app.Subscriptions.ModifySubscription(
		ctx, userID, domain.Kind(kind), ids.New(itemIDs...), subscriptionuc.Unsubscribe)
	return err
}

// List returns the subscribed items of kind, sorted by name.
func (s *ItemService) List(ctx context.Context, userID, kind string) (_ []ItemSummary, err error) {
	start := time.Now()
	defer func() { s.obs.observe("items.list", start, err) }()

	return s.app.Subscriptions.ListItems(ctx, userID, domain.Kind(kind))
}

// Feeds returns the user's subscribed feeds keyed by id.
func (s *ItemService) Feeds(ctx context.Context, userID string) (_ map[string]Feed, err error) {
	start := time.Now()
	defer func() { s.obs.observe("items.feeds", start, err) }()

	byID, err := s.app.Subscriptions.Feeds(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Feed, len(byID))
	for id, f := range byID {
		out[id] = feedFromDomain(f)
	}
	return out, nil
}

// Collections returns the user's subscribed collections keyed by id.
func (s *ItemService) Collections(ctx context.Context, userID string) (_ map[string]Collection, err error) {
	start := time.Now()
	defer func() { s.obs.observe("items.collections", start, err) }()

	byID, err := s.app.Subscriptions.Collections(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Collection, len(byID))
	for id, c := range byID {
		out[id] = collectionFromDomain(c)
	}
	return out, nil
}

// Collection returns one collection by id.
func (s *ItemService) Collection(ctx context.Context, id string) (_ Collection, err error) {
	start := time.Now()
	defer func() { s.obs.observe("items.collection", start, err) }()

	c, err := s.app.Subscriptions.Collection(ctx, id)
	if err != nil {
		return Collection{}, err
	}
	return collectionFromDomain(c), nil
}
