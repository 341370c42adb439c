package document

import (
	"context"
	"strconv"
	"sync"

	"github.com/osinter/osinter/internal/db"
)

// memStore is an in-memory revisioned store for tests.
type memStore struct {
	mu    sync.Mutex
	docs  map[string]db.Document
	views map[string]map[string][]byte
	seq   int

	// putHook runs before each put under the lock; a non-nil error aborts it.
	putHook func(doc db.Document) error
	getErr  error
	puts    int
}

func newMemStore() *memStore {
	return &memStore{docs: map[string]db.Document{}, views: map[string]map[string][]byte{}}
}

func (m *memStore) GetDoc(_ context.Context, key string) (db.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return db.Document{}, m.getErr
	}
	d, ok := m.docs[key]
	if !ok {
		return db.Document{}, db.ErrKeyNotFound
	}
	return d, nil
}

func (m *memStore) GetDocs(ctx context.Context, keys []string) ([]db.Document, error) {
	var out []db.Document
	for _, k := range keys {
		d, err := m.GetDoc(ctx, k)
		if err == nil {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) PutDoc(_ context.Context, doc db.Document, views []db.ViewEntry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putHook != nil {
		if err := m.putHook(doc); err != nil {
			return "", err
		}
	}
	cur, exists := m.docs[doc.Key]
	switch {
	case !exists && doc.Revision != "":
		return "", db.ErrKeyNotFound
	case exists && cur.Revision != doc.Revision:
		return "", &db.RevisionError{Key: doc.Key, Current: cur.Revision}
	}
	m.seq++
	doc.Revision = strconv.Itoa(m.seq) + "-test"
	m.docs[doc.Key] = doc
	for _, v := range views {
		if m.views[v.View] == nil {
			m.views[v.View] = map[string][]byte{}
		}
		m.views[v.View][v.Key] = v.Value
	}
	return doc.Revision, nil
}

func (m *memStore) DeleteDoc(_ context.Context, key, rev string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.docs[key]
	if !ok {
		return db.ErrKeyNotFound
	}
	if cur.Revision != rev {
		return &db.RevisionError{Key: key, Current: cur.Revision}
	}
	delete(m.docs, key)
	return nil
}
