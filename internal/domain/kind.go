package domain

// Kind is the discriminator stored with every document. All entity kinds share
// one identifier namespace, so every load path checks it before trusting the body.
type Kind string

const (
	// KindUser tags user documents.
	KindUser Kind = "user"
	// KindFeed tags saved-search feed documents.
	KindFeed Kind = "feed"
	// KindCollection tags article collection documents.
	KindCollection Kind = "collection"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	return k == KindUser || k == KindFeed || k == KindCollection
}

// IsItem reports whether k is a user item kind (feed or collection).
func (k Kind) IsItem() bool {
	return k == KindFeed || k == KindCollection
}

// KeyPrefix is the default key namespace for store drivers.
const KeyPrefix = "osinter:"
