package document

import (
	"time"

	"github.com/osinter/osinter/internal/domain/ids"
	"github.com/osinter/osinter/internal/domain/item"
	"github.com/osinter/osinter/internal/domain/search/order"
	"github.com/osinter/osinter/internal/domain/user"
)

// Stored JSON bodies. Field names follow the public API.

type userDTO struct {
	Username       string   `json:"username"`
	Active         bool     `json:"active"`
	HashedPassword string   `json:"hashed_password"`
	HashedEmail    string   `json:"hashed_email,omitempty"`
	FeedIDs        []string `json:"feed_ids"`
	CollectionIDs  []string `json:"collection_ids"`
	OwnedIDs       []string `json:"owned_ids,omitempty"`
	AlreadyRead    string   `json:"already_read,omitempty"`
}

type itemDTO struct {
	Name      string `json:"name"`
	Owner     string `json:"owner,omitempty"`
	Deletable bool   `json:"deleteable"`
}

type feedDTO struct {
	itemDTO
	Limit          int        `json:"limit"`
	SortBy         string     `json:"sort_by,omitempty"`
	SortOrder      string     `json:"sort_order"`
	SearchTerm     string     `json:"search_term,omitempty"`
	Highlight      bool       `json:"highlight"`
	FirstDate      *time.Time `json:"first_date,omitempty"`
	LastDate       *time.Time `json:"last_date,omitempty"`
	SourceCategory []string   `json:"source_category,omitempty"`
}

type collectionDTO struct {
	itemDTO
	IDs []string `json:"ids"`
}

// AuthInfo is the users/auth_info view row: everything needed to verify a login.
type AuthInfo struct {
	ID             string `json:"id"`
	HashedPassword string `json:"hashed_password"`
	HashedEmail    string `json:"hashed_email,omitempty"`
	Active         bool   `json:"active"`
}

func toUserDTO(u *user.User) userDTO {
	return userDTO{
		Username:       u.Username(),
		Active:         u.Active(),
		HashedPassword: u.HashedPassword(),
		HashedEmail:    u.HashedEmail(),
		FeedIDs:        u.FeedIDs().Slice(),
		CollectionIDs:  u.CollectionIDs().Slice(),
		OwnedIDs:       u.OwnedIDs().Slice(),
		AlreadyRead:    u.AlreadyRead(),
	}
}

func (d userDTO) toDomain(id string) *user.User {
	u := user.Reconstruct(id, d.Username, d.Active, d.HashedPassword, d.HashedEmail,
		d.FeedIDs, d.CollectionIDs, d.OwnedIDs, d.AlreadyRead)
	return &u
}

func toItemDTO(i *item.Item) itemDTO {
	return itemDTO{Name: i.Name(), Owner: i.Owner(), Deletable: i.Deletable()}
}

func toFeedDTO(f *item.Feed) feedDTO {
	p := f.Params()
	return feedDTO{
		itemDTO:        toItemDTO(f.Base()),
		Limit:          p.Limit,
		SortBy:         string(p.SortBy),
		SortOrder:      string(p.SortOrder),
		SearchTerm:     p.SearchTerm,
		Highlight:      p.Highlight,
		FirstDate:      p.FirstDate,
		LastDate:       p.LastDate,
		SourceCategory: p.SourceCategory.Slice(),
	}
}

func (d feedDTO) toDomain(id string) *item.Feed {
	f := item.ReconstructFeed(id, d.Name, d.Owner, d.Deletable, item.FeedParams{
		Limit:          d.Limit,
		SortBy:         order.Field(d.SortBy),
		SortOrder:      order.Direction(d.SortOrder),
		SearchTerm:     d.SearchTerm,
		Highlight:      d.Highlight,
		FirstDate:      d.FirstDate,
		LastDate:       d.LastDate,
		SourceCategory: ids.New(d.SourceCategory...),
	})
	return &f
}

func toCollectionDTO(c *item.Collection) collectionDTO {
	return collectionDTO{itemDTO: toItemDTO(c.Base()), IDs: c.ArticleIDs().Slice()}
}

func (d collectionDTO) toDomain(id string) *item.Collection {
	c := item.ReconstructCollection(id, d.Name, d.Owner, d.Deletable, d.IDs)
	return &c
}
