package item

import (
	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/domain/ids"
)

// Default collection names, created at signup and never deletable.
const (
	ReadLater   = "Read Later"
	AlreadyRead = "Already Read"
)

// DefaultCollections lists the collections every user starts with.
var DefaultCollections = []string{ReadLater, AlreadyRead}

// Collection is an unordered set of article ids.
type Collection struct {
	Item
	articleIDs ids.Set
}

// NewCollection validates and creates a Collection.
func NewCollection(id, name, owner string, articleIDs ids.Set) (Collection, error) {
	base, err := newItem(id, name, owner, domain.KindCollection)
	if err != nil {
		return Collection{}, err
	}
	if articleIDs == nil {
		articleIDs = ids.New()
	}
	return Collection{Item: base, articleIDs: articleIDs.Clone()}, nil
}

// NewDefaultCollection creates a non-deletable default collection.
func NewDefaultCollection(id, name, owner string) (Collection, error) {
	c, err := NewCollection(id, name, owner, nil)
	if err != nil {
		return Collection{}, err
	}
	c.deletable = false
	return c, nil
}

// ReconstructCollection creates a Collection without validation (storage hydration).
func ReconstructCollection(id, name, owner string, deletable bool, articleIDs []string) Collection {
	return Collection{
		Item:       Item{id: id, name: name, owner: owner, kind: domain.KindCollection, deletable: deletable},
		articleIDs: ids.New(articleIDs...),
	}
}

// ArticleIDs returns a copy of the article ids.
func (c *Collection) ArticleIDs() ids.Set { return c.articleIDs.Clone() }

// Replace swaps the full article id set.
func (c *Collection) Replace(articleIDs ids.Set) {
	if articleIDs == nil {
		articleIDs = ids.New()
	}
	c.articleIDs = articleIDs.Clone()
}
