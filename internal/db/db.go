package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // consumers depend on the narrow sub-interfaces
type Store interface {
	Pinger
	DocumentStore
	ViewStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Document is a stored, kind-tagged record.
// Revision is assigned by the store on every write.
type Document struct {
	Key      string
	Kind     string
	Body     []byte
	Revision string
}

// ViewEntry is one row a document contributes to a named view.
type ViewEntry struct {
	View  string
	Key   string
	Value []byte
}

// DocumentStore provides revision-checked document operations.
type DocumentStore interface {
	// GetDoc returns ErrKeyNotFound when the key is absent.
	GetDoc(ctx context.Context, key string) (Document, error)
	// GetDocs returns the documents that exist, in key order. Missing keys are omitted.
	GetDocs(ctx context.Context, keys []string) ([]Document, error)
	// PutDoc writes doc if doc.Revision equals the stored revision ("" means create-only)
	// and atomically replaces the document's view entries. Returns the new revision.
	PutDoc(ctx context.Context, doc Document, views []ViewEntry) (string, error)
	// DeleteDoc removes the document and its view entries if rev matches.
	DeleteDoc(ctx context.Context, key, rev string) error
}

// ViewStore provides bulk key lookups over store-maintained views.
type ViewStore interface {
	// QueryView returns the values for the keys present in the view. Absent keys are omitted.
	QueryView(ctx context.Context, view string, keys []string) (map[string][]byte, error)
}
