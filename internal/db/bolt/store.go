// Package bolt implements db.Store on an embedded bbolt file.
// Every write runs in one update transaction, so the revision check,
// the document write and its view rows commit together.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/osinter/osinter/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

var (
	docsBucket  = []byte("docs")
	viewsBucket = []byte("views")
)

// record is the on-disk form of a document.
type record struct {
	Rev   string      `json:"rev"`
	Kind  string      `json:"kind"`
	Body  []byte      `json:"body"`
	Views [][2]string `json:"views,omitempty"` // [view, key]
}

// Store implements db.Store via bbolt.
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) the database file at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{docsBucket, viewsBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: bdb}, nil
}

// Ping reports whether the database file is still open.
func (s *Store) Ping(_ context.Context) error {
	err := s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(docsBucket) == nil {
			return errors.New("docs bucket missing")
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close closes the database file.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady returns immediately: an opened file is ready.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// GetDoc returns a document by key.
func (s *Store) GetDoc(ctx context.Context, key string) (db.Document, error) {
	if err := ctx.Err(); err != nil {
		return db.Document{}, &db.Error{Op: db.OpGet, Err: err}
	}
	var doc db.Document
	err := s.db.View(func(tx *bolt.Tx) error {
		rec, ok, err := getRecord(tx, key)
		if err != nil {
			return err
		}
		if !ok {
			return db.ErrKeyNotFound
		}
		doc = rec.document(key)
		return nil
	})
	if err != nil {
		return db.Document{}, wrap(db.OpGet, err)
	}
	return doc, nil
}

// GetDocs returns the documents that exist, in key order.
func (s *Store) GetDocs(ctx context.Context, keys []string) ([]db.Document, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpMGet, Err: err}
	}
	out := make([]db.Document, 0, len(keys))
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, key := range keys {
			rec, ok, err := getRecord(tx, key)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, rec.document(key))
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrap(db.OpMGet, err)
	}
	return out, nil
}

// PutDoc writes doc if its revision matches and replaces its view rows.
func (s *Store) PutDoc(ctx context.Context, doc db.Document, views []db.ViewEntry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &db.Error{Op: db.OpPut, Err: err}
	}
	var rev string
	err := s.db.Update(func(tx *bolt.Tx) error {
		cur, exists, err := getRecord(tx, doc.Key)
		if err != nil {
			return err
		}
		switch {
		case !exists && doc.Revision != "":
			return db.ErrKeyNotFound
		case exists && cur.Rev != doc.Revision:
			return &db.RevisionError{Key: doc.Key, Current: cur.Rev}
		}

		if exists {
			if err := dropViews(tx, cur.Views); err != nil {
				return err
			}
		}

		refs := make([][2]string, 0, len(views))
		for _, v := range views {
			vb, err := tx.Bucket(viewsBucket).CreateBucketIfNotExists([]byte(v.View))
			if err != nil {
				return err
			}
			if err := vb.Put([]byte(v.Key), v.Value); err != nil {
				return err
			}
			refs = append(refs, [2]string{v.View, v.Key})
		}

		rev = nextRevision(cur.Rev)
		data, err := json.Marshal(record{Rev: rev, Kind: doc.Kind, Body: doc.Body, Views: refs})
		if err != nil {
			return err
		}
		return tx.Bucket(docsBucket).Put([]byte(doc.Key), data)
	})
	if err != nil {
		return "", wrap(db.OpPut, err)
	}
	return rev, nil
}

// DeleteDoc removes a document and its view rows if rev matches.
func (s *Store) DeleteDoc(ctx context.Context, key, rev string) error {
	if err := ctx.Err(); err != nil {
		return &db.Error{Op: db.OpDelete, Err: err}
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		cur, exists, err := getRecord(tx, key)
		if err != nil {
			return err
		}
		if !exists {
			return db.ErrKeyNotFound
		}
		if cur.Rev != rev {
			return &db.RevisionError{Key: key, Current: cur.Rev}
		}
		if err := dropViews(tx, cur.Views); err != nil {
			return err
		}
		return tx.Bucket(docsBucket).Delete([]byte(key))
	})
	return wrap(db.OpDelete, err)
}

// QueryView returns the view rows for the given keys.
func (s *Store) QueryView(ctx context.Context, view string, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpView, Err: err}
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		vb := tx.Bucket(viewsBucket).Bucket([]byte(view))
		if vb == nil {
			return nil
		}
		for _, k := range keys {
			if v := vb.Get([]byte(k)); v != nil {
				// Values are only valid for the life of the transaction.
				out[k] = append([]byte(nil), v...)
			}
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpView, Err: err}
	}
	return out, nil
}

func getRecord(tx *bolt.Tx, key string) (record, bool, error) {
	data := tx.Bucket(docsBucket).Get([]byte(key))
	if data == nil {
		return record{}, false, nil
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return rec, true, nil
}

func dropViews(tx *bolt.Tx, refs [][2]string) error {
	views := tx.Bucket(viewsBucket)
	for _, ref := range refs {
		vb := views.Bucket([]byte(ref[0]))
		if vb == nil {
			continue
		}
		if err := vb.Delete([]byte(ref[1])); err != nil {
			return err
		}
	}
	return nil
}

func (r record) document(key string) db.Document {
	return db.Document{Key: key, Kind: r.Kind, Body: r.Body, Revision: r.Rev}
}

// nextRevision returns "<n+1>-<random>" for a stored "<n>-..." revision.
func nextRevision(cur string) string {
	n := 0
	if head, _, ok := strings.Cut(cur, "-"); ok {
		n, _ = strconv.Atoi(head)
	}
	return strconv.Itoa(n+1) + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// wrap keeps store sentinels unwrapped so callers can errors.Is them directly.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, db.ErrKeyNotFound) || errors.Is(err, db.ErrRevisionMismatch) {
		return err
	}
	return &db.Error{Op: op, Err: err}
}
