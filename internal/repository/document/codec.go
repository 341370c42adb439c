package document

import (
	"encoding/json"
	"fmt"

	"github.com/osinter/osinter/internal/db"
	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/domain/item"
	"github.com/osinter/osinter/internal/domain/user"
)

// View names maintained by the store on every write.
const (
	ViewUsersByUsername = "users/by_username"
	ViewUsersAuthInfo   = "users/auth_info"
	ViewFeedsMinimal    = "feeds/minimal"
	ViewCollMinimal     = "collections/minimal"
)

// MinimalView returns the id → Summary view for an item kind.
func MinimalView(kind domain.Kind) (string, bool) {
	switch kind {
	case domain.KindFeed:
		return ViewFeedsMinimal, true
	case domain.KindCollection:
		return ViewCollMinimal, true
	default:
		return "", false
	}
}

// UserCodec stores users.
type UserCodec struct{}

// ID implements Codec.
func (UserCodec) ID(u *user.User) string { return u.ID() }

// Kind implements Codec.
func (UserCodec) Kind(*user.User) domain.Kind { return domain.KindUser }

// Accepts implements Codec.
func (UserCodec) Accepts(kind domain.Kind) bool { return kind == domain.KindUser }

// Encode implements Codec.
func (UserCodec) Encode(u *user.User) ([]byte, error) { return json.Marshal(toUserDTO(u)) }

// Decode implements Codec.
func (UserCodec) Decode(id string, _ domain.Kind, body []byte) (*user.User, error) {
	var d userDTO
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, err
	}
	return d.toDomain(id), nil
}

// Views implements Codec: username lookups and login data.
func (UserCodec) Views(u *user.User) ([]db.ViewEntry, error) {
	id, err := json.Marshal(u.ID())
	if err != nil {
		return nil, err
	}
	auth, err := json.Marshal(AuthInfo{
		ID:             u.ID(),
		HashedPassword: u.HashedPassword(),
		HashedEmail:    u.HashedEmail(),
		Active:         u.Active(),
	})
	if err != nil {
		return nil, err
	}
	return []db.ViewEntry{
		{View: ViewUsersByUsername, Key: u.Username(), Value: id},
		{View: ViewUsersAuthInfo, Key: u.Username(), Value: auth},
	}, nil
}

// FeedCodec stores feeds.
type FeedCodec struct{}

// ID implements Codec.
func (FeedCodec) ID(f *item.Feed) string { return f.ID() }

// Kind implements Codec.
func (FeedCodec) Kind(*item.Feed) domain.Kind { return domain.KindFeed }

// Accepts implements Codec.
func (FeedCodec) Accepts(kind domain.Kind) bool { return kind == domain.KindFeed }

// Encode implements Codec.
func (FeedCodec) Encode(f *item.Feed) ([]byte, error) { return json.Marshal(toFeedDTO(f)) }

// Decode implements Codec.
func (FeedCodec) Decode(id string, _ domain.Kind, body []byte) (*item.Feed, error) {
	var d feedDTO
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, err
	}
	return d.toDomain(id), nil
}

// Views implements Codec.
func (FeedCodec) Views(f *item.Feed) ([]db.ViewEntry, error) {
	return summaryView(ViewFeedsMinimal, f.Base())
}

// CollectionCodec stores collections.
type CollectionCodec struct{}

// ID implements Codec.
func (CollectionCodec) ID(c *item.Collection) string { return c.ID() }

// Kind implements Codec.
func (CollectionCodec) Kind(*item.Collection) domain.Kind { return domain.KindCollection }

// Accepts implements Codec.
func (CollectionCodec) Accepts(kind domain.Kind) bool { return kind == domain.KindCollection }

// Encode implements Codec.
func (CollectionCodec) Encode(c *item.Collection) ([]byte, error) {
	return json.Marshal(toCollectionDTO(c))
}

// Decode implements Codec.
func (CollectionCodec) Decode(id string, _ domain.Kind, body []byte) (*item.Collection, error) {
	var d collectionDTO
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, err
	}
	return d.toDomain(id), nil
}

// Views implements Codec.
func (CollectionCodec) Views(c *item.Collection) ([]db.ViewEntry, error) {
	return summaryView(ViewCollMinimal, c.Base())
}

// ItemCodec stores either item kind through the shared base contract.
type ItemCodec struct{}

// ID implements Codec.
func (ItemCodec) ID(o item.Owned) string { return o.Base().ID() }

// Kind implements Codec.
func (ItemCodec) Kind(o item.Owned) domain.Kind { return o.Base().Kind() }

// Accepts implements Codec.
func (ItemCodec) Accepts(kind domain.Kind) bool { return kind.IsItem() }

// Encode implements Codec.
func (ItemCodec) Encode(o item.Owned) ([]byte, error) {
	switch v := o.(type) {
	case *item.Feed:
		return FeedCodec{}.Encode(v)
	case *item.Collection:
		return CollectionCodec{}.Encode(v)
	default:
		return nil, fmt.Errorf("unsupported item type %T", o)
	}
}

// Decode implements Codec.
func (ItemCodec) Decode(id string, kind domain.Kind, body []byte) (item.Owned, error) {
	switch kind {
	case domain.KindFeed:
		return FeedCodec{}.Decode(id, kind, body)
	case domain.KindCollection:
		return CollectionCodec{}.Decode(id, kind, body)
	default:
		return nil, fmt.Errorf("unsupported item kind %q", kind)
	}
}

// Views implements Codec.
func (ItemCodec) Views(o item.Owned) ([]db.ViewEntry, error) {
	view, ok := MinimalView(o.Base().Kind())
	if !ok {
		return nil, fmt.Errorf("unsupported item kind %q", o.Base().Kind())
	}
	return summaryView(view, o.Base())
}

func summaryView(view string, i *item.Item) ([]db.ViewEntry, error) {
	data, err := json.Marshal(i.Summary())
	if err != nil {
		return nil, err
	}
	return []db.ViewEntry{{View: view, Key: i.ID(), Value: data}}, nil
}
