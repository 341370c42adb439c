package subscription

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/domain/ids"
	"github.com/osinter/osinter/internal/domain/item"
	"github.com/osinter/osinter/internal/domain/user"
	"github.com/osinter/osinter/internal/logger"
)

// Action selects the set operation applied to a subscription set.
type Action string

// Subscription actions.
const (
	Subscribe   Action = "subscribe"
	Unsubscribe Action = "unsubscribe"
)

// IsValid reports whether a is a known action.
func (a Action) IsValid() bool { return a == Subscribe || a == Unsubscribe }

var errUnowned = fmt.Errorf("unowned item: %w", domain.ErrNotFound)

// Repos groups the repositories the service writes through.
type Repos struct {
	Users       Repository[*user.User]
	Items       Repository[item.Owned]
	Feeds       Repository[*item.Feed]
	Collections Repository[*item.Collection]
}

// Service manages subscription sets and owner-gated item mutation.
type Service struct {
	repos       Repos
	summaries   Resolver
	feeds       FullResolver[*item.Feed]
	collections FullResolver[*item.Collection]
}

// New creates a subscription service.
func New(
	repos Repos,
	summaries Resolver,
	feeds FullResolver[*item.Feed],
	collections FullResolver[*item.Collection],
) *Service {
	return &Service{repos: repos, summaries: summaries, feeds: feeds, collections: collections}
}

// ModifySubscription applies a union (subscribe) or difference (unsubscribe)
// to the user's feed or collection set. Both are idempotent.
func (s *Service) ModifySubscription(
	ctx context.Context, userID string, kind domain.Kind, set ids.Set, action Action,
) (*user.User, error) {
	if !kind.IsItem() {
		return nil, domain.Validationf("cannot subscribe to kind %q", kind)
	}
	if !action.IsValid() {
		return nil, domain.Validationf("unknown action %q", action)
	}

	v, err := s.repos.Users.Update(ctx, userID, func(u *user.User) error {
		cur, err := u.Subscriptions(kind)
		if err != nil {
			return err
		}
		if action == Subscribe {
			return u.SetSubscriptions(kind, cur.Union(set))
		}
		return u.SetSubscriptions(kind, cur.Difference(set))
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s for %s: %w", action, kind, userID, err)
	}
	return v.Value, nil
}

// CreateFeed stores a new feed under a fresh identifier. A non-empty owner
// records the feed as owned and subscribes to it before the feed is written.
func (s *Service) CreateFeed(ctx context.Context, params item.FeedParams, name, owner string) (*item.Feed, error) {
	f, err := item.NewFeed(uuid.NewString(), name, owner, params)
	if err != nil {
		return nil, err
	}
	if err := s.claim(ctx, owner, domain.KindFeed, f.ID()); err != nil {
		return nil, fmt.Errorf("create feed: %w", err)
	}
	v, err := s.repos.Feeds.Create(ctx, &f)
	if err != nil {
		s.release(ctx, owner, domain.KindFeed, f.ID())
		return nil, fmt.Errorf("create feed: %w", err)
	}
	return v.Value, nil
}

// CreateCollection stores a new collection under a fresh identifier, claimed
// by owner the same way as CreateFeed.
func (s *Service) CreateCollection(ctx context.Context, name, owner string, articleIDs ids.Set) (*item.Collection, error) {
	c, err := item.NewCollection(uuid.NewString(), name, owner, articleIDs)
	if err != nil {
		return nil, err
	}
	if err := s.claim(ctx, owner, domain.KindCollection, c.ID()); err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	v, err := s.repos.Collections.Create(ctx, &c)
	if err != nil {
		s.release(ctx, owner, domain.KindCollection, c.ID())
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return v.Value, nil
}

// claim adds id to the owner's owned and subscribed sets in one write.
// The user document therefore always names a superset of the items it owns.
func (s *Service) claim(ctx context.Context, owner string, kind domain.Kind, id string) error {
	if owner == "" {
		return nil
	}
	_, err := s.repos.Users.Update(ctx, owner, func(u *user.User) error {
		cur, err := u.Subscriptions(kind)
		if err != nil {
			return err
		}
		u.Own(id)
		return u.SetSubscriptions(kind, cur.Union(ids.New(id)))
	})
	if err != nil {
		return fmt.Errorf("claim %s %s for %s: %w", kind, id, owner, err)
	}
	return nil
}

// release undoes claim after the item write failed. A failure only leaves a
// dangling id, which readers skip, so it is logged and not returned.
func (s *Service) release(ctx context.Context, owner string, kind domain.Kind, id string) {
	if owner == "" {
		return
	}
	_, err := s.repos.Users.Update(ctx, owner, func(u *user.User) error {
		cur, err := u.Subscriptions(kind)
		if err != nil {
			return err
		}
		u.Disown(id)
		return u.SetSubscriptions(kind, cur.Difference(ids.New(id)))
	})
	if err != nil {
		logger.FromContext(ctx).Warn("release claimed item",
			zap.String("user_id", owner), zap.String("item_id", id), zap.Error(err))
	}
}

// ModifyFeed applies the fields present in patch to a feed the requester owns.
func (s *Service) ModifyFeed(ctx context.Context, id string, patch item.FeedPatch, requester string) (*item.Feed, error) {
	v, err := s.repos.Feeds.Update(ctx, id, func(f *item.Feed) error {
		if err := f.CheckOwner(requester); err != nil {
			return err
		}
		return f.Apply(patch)
	})
	if err != nil {
		return nil, fmt.Errorf("modify feed %s: %w", id, err)
	}
	return v.Value, nil
}

// ModifyCollection replaces the article id set of a collection the requester owns.
func (s *Service) ModifyCollection(
	ctx context.Context, id string, articleIDs ids.Set, requester string,
) (*item.Collection, error) {
	v, err := s.repos.Collections.Update(ctx, id, func(c *item.Collection) error {
		if err := c.CheckOwner(requester); err != nil {
			return err
		}
		c.Replace(articleIDs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("modify collection %s: %w", id, err)
	}
	return v.Value, nil
}

// RenameItem renames a feed or collection the requester owns.
func (s *Service) RenameItem(ctx context.Context, id, name, requester string) (item.Owned, error) {
	if err := item.ValidateName(name); err != nil {
		return nil, err
	}
	v, err := s.repos.Items.Update(ctx, id, func(o item.Owned) error {
		if err := o.Base().CheckOwner(requester); err != nil {
			return err
		}
		return o.Base().Rename(name)
	})
	if err != nil {
		return nil, fmt.Errorf("rename item %s: %w", id, err)
	}
	return v.Value, nil
}

// RemoveItem deletes a feed or collection the requester owns.
// An absent id already satisfies the request and succeeds. Documents that
// are not items and unowned system items read as not found; items owned by
// someone else and the default collections are forbidden.
func (s *Service) RemoveItem(ctx context.Context, id, requester string) error {
	err := s.repos.Items.DeleteIf(ctx, id, func(o item.Owned) error {
		if o.Base().Owner() == "" {
			return errUnowned
		}
		if err := o.Base().CheckOwner(requester); err != nil {
			return err
		}
		if !o.Base().Deletable() {
			return fmt.Errorf("%s %s is a default collection: %w", o.Base().Kind(), id, domain.ErrForbidden)
		}
		return nil
	})
	switch {
	case err == nil:
		s.forget(ctx, requester, id)
		return nil
	case errors.Is(err, domain.ErrKindMismatch), errors.Is(err, errUnowned):
		return fmt.Errorf("remove item %s: %w", id, err)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("remove item %s: %w", id, err)
	}
}

// forget drops a deleted item from its owner's owned set. Subscription sets
// are left alone; readers skip ids that no longer resolve.
func (s *Service) forget(ctx context.Context, owner, id string) {
	_, err := s.repos.Users.Update(ctx, owner, func(u *user.User) error {
		u.Disown(id)
		return nil
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.FromContext(ctx).Warn("forget removed item",
			zap.String("user_id", owner), zap.String("item_id", id), zap.Error(err))
	}
}

// ListItems returns the minimal projection of the user's subscribed items
// of one kind, sorted by name. Deleted items are left out.
func (s *Service) ListItems(ctx context.Context, userID string, kind domain.Kind) ([]item.Summary, error) {
	set, err := s.subscriptions(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	byID, err := s.summaries.ResolveByIDs(ctx, kind, set)
	if err != nil {
		return nil, fmt.Errorf("resolve %s list: %w", kind, err)
	}
	out := make([]item.Summary, 0, len(byID))
	for _, sum := range byID {
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Feeds returns the user's subscribed feeds keyed by id.
func (s *Service) Feeds(ctx context.Context, userID string) (map[string]*item.Feed, error) {
	set, err := s.subscriptions(ctx, userID, domain.KindFeed)
	if err != nil {
		return nil, err
	}
	out, err := s.feeds.Resolve(ctx, set)
	if err != nil {
		return nil, fmt.Errorf("resolve feeds: %w", err)
	}
	return out, nil
}

// Collections returns the user's subscribed collections keyed by id.
func (s *Service) Collections(ctx context.Context, userID string) (map[string]*item.Collection, error) {
	set, err := s.subscriptions(ctx, userID, domain.KindCollection)
	if err != nil {
		return nil, err
	}
	out, err := s.collections.Resolve(ctx, set)
	if err != nil {
		return nil, fmt.Errorf("resolve collections: %w", err)
	}
	return out, nil
}

// Feed returns one feed by id.
func (s *Service) Feed(ctx context.Context, id string) (*item.Feed, error) {
	v, err := s.repos.Feeds.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get feed %s: %w", id, err)
	}
	return v.Value, nil
}

// Collection returns one collection by id.
func (s *Service) Collection(ctx context.Context, id string) (*item.Collection, error) {
	v, err := s.repos.Collections.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", id, err)
	}
	return v.Value, nil
}

func (s *Service) subscriptions(ctx context.Context, userID string, kind domain.Kind) (ids.Set, error) {
	v, err := s.repos.Users.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	return v.Value.Subscriptions(kind)
}
