// Package item holds the user-owned documents: feeds (saved searches) and
// collections (curated article id sets). Both share the Item base.
package item

import (
	"fmt"
	"strings"

	"github.com/osinter/osinter/internal/domain"
)

// MaxNameLength bounds item names.
const MaxNameLength = 128

// Item is the base shared by feeds and collections.
type Item struct {
	id        string
	name      string
	owner     string
	kind      domain.Kind
	deletable bool
}

func newItem(id, name, owner string, kind domain.Kind) (Item, error) {
	if id == "" {
		return Item{}, domain.Validationf("%s id is required", kind)
	}
	if err := ValidateName(name); err != nil {
		return Item{}, err
	}
	return Item{id: id, name: name, owner: owner, kind: kind, deletable: true}, nil
}

// ValidateName checks that a name is non-blank and bounded.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return domain.Validationf("name is required")
	}
	if len(name) > MaxNameLength {
		return domain.Validationf("name too long (max %d)", MaxNameLength)
	}
	return nil
}

// ID returns the item identifier.
func (i *Item) ID() string { return i.id }

// Name returns the display name.
func (i *Item) Name() string { return i.name }

// Owner returns the owning user id, empty for system items.
func (i *Item) Owner() string { return i.owner }

// Kind returns the kind tag.
func (i *Item) Kind() domain.Kind { return i.kind }

// Deletable reports whether the owner may delete the item.
func (i *Item) Deletable() bool { return i.deletable }

// Base returns the shared item fields.
func (i *Item) Base() *Item { return i }

// Rename changes the display name.
func (i *Item) Rename(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	i.name = name
	return nil
}

// CheckOwner returns ErrForbidden unless requester owns the item.
// Unowned system items are never mutable through the user API.
func (i *Item) CheckOwner(requester string) error {
	if i.owner == "" || i.owner != requester {
		return fmt.Errorf("%s %s: %w", i.kind, i.id, domain.ErrForbidden)
	}
	return nil
}

// Summary is the minimal projection of an item served by the secondary index.
type Summary struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Owner     string      `json:"owner,omitempty"`
	Kind      domain.Kind `json:"type"`
	Deletable bool        `json:"deleteable"`
}

// Summary projects the display-relevant fields.
func (i *Item) Summary() Summary {
	return Summary{ID: i.id, Name: i.name, Owner: i.owner, Kind: i.kind, Deletable: i.deletable}
}

// Owned is implemented by *Feed and *Collection.
type Owned interface {
	Base() *Item
}
