package document

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/osinter/osinter/internal/db"
	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/logger"
	"github.com/osinter/osinter/internal/metrics"
)

// DefaultMaxRetries bounds the load-mutate-store loop.
const DefaultMaxRetries = 5

// store is the consumer interface for documents (ISP).
type store interface {
	GetDoc(ctx context.Context, key string) (db.Document, error)
	GetDocs(ctx context.Context, keys []string) ([]db.Document, error)
	PutDoc(ctx context.Context, doc db.Document, views []db.ViewEntry) (string, error)
	DeleteDoc(ctx context.Context, key, rev string) error
}

// Codec maps a domain entity to and from its stored, kind-tagged form.
type Codec[T any] interface {
	// ID returns the document key of v.
	ID(v T) string
	// Kind returns the tag written with v.
	Kind(v T) domain.Kind
	// Accepts reports whether a stored tag decodes into T.
	Accepts(kind domain.Kind) bool
	Encode(v T) ([]byte, error)
	Decode(id string, kind domain.Kind, body []byte) (T, error)
	// Views returns the rows v contributes to store-maintained views.
	Views(v T) ([]db.ViewEntry, error)
}

// Versioned pairs a value with the revision it was loaded at.
type Versioned[T any] struct {
	Value    T
	Revision string
}

// Repo is a revisioned repository over one family of document kinds.
type Repo[T any] struct {
	store      store
	codec      Codec[T]
	maxRetries int
	label      string
}

// Option configures a Repo.
type Option func(*settings)

type settings struct {
	maxRetries int
}

// WithMaxRetries sets the number of attempts Update and DeleteIf make.
func WithMaxRetries(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// New creates a repository. label names the family in metrics.
func New[T any](s store, codec Codec[T], label string, opts ...Option) *Repo[T] {
	cfg := settings{maxRetries: DefaultMaxRetries}
	for _, o := range opts {
		o(&cfg)
	}
	return &Repo[T]{store: s, codec: codec, maxRetries: cfg.maxRetries, label: label}
}

// Load returns the document with its current revision.
// A stored document of another kind is reported as domain.ErrKindMismatch.
func (r *Repo[T]) Load(ctx context.Context, id string) (Versioned[T], error) {
	doc, err := r.store.GetDoc(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return Versioned[T]{}, fmt.Errorf("load %s: %w", id, domain.ErrNotFound)
		}
		return Versioned[T]{}, r.unavailable("load", id, err)
	}
	return r.decode(doc)
}

// LoadMany returns the documents that exist and decode as T. Missing ids and
// documents of other kinds are skipped.
func (r *Repo[T]) LoadMany(ctx context.Context, ids []string) ([]Versioned[T], error) {
	if len(ids) == 0 {
		return nil, nil
	}
	docs, err := r.store.GetDocs(ctx, ids)
	if err != nil {
		return nil, r.unavailable("load many", "", err)
	}
	out := make([]Versioned[T], 0, len(docs))
	for _, doc := range docs {
		v, err := r.decode(doc)
		if errors.Is(err, domain.ErrKindMismatch) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Create stores a new document. An existing id yields domain.ErrAlreadyExists.
func (r *Repo[T]) Create(ctx context.Context, v T) (Versioned[T], error) {
	rev, err := r.put(ctx, v, "")
	if err != nil {
		if errors.Is(err, domain.ErrRevisionConflict) {
			return Versioned[T]{}, fmt.Errorf("create %s: %w", r.codec.ID(v), domain.ErrAlreadyExists)
		}
		return Versioned[T]{}, err
	}
	return Versioned[T]{Value: v, Revision: rev}, nil
}

// Store writes v if its revision is still current and returns the new revision.
// A stale revision yields a *domain.RevisionConflictError.
func (r *Repo[T]) Store(ctx context.Context, v Versioned[T]) (string, error) {
	return r.put(ctx, v.Value, v.Revision)
}

// Delete removes the document at rev.
func (r *Repo[T]) Delete(ctx context.Context, id, rev string) error {
	err := r.store.DeleteDoc(ctx, id, rev)
	var re *db.RevisionError
	switch {
	case err == nil:
		metrics.StoreOperationsTotal.WithLabelValues(r.label, "delete", "ok").Inc()
		return nil
	case errors.Is(err, db.ErrKeyNotFound):
		return fmt.Errorf("delete %s: %w", id, domain.ErrNotFound)
	case errors.As(err, &re):
		return fmt.Errorf("delete %s: %w", id, domain.NewRevisionConflict(re.Current))
	case errors.Is(err, db.ErrRevisionMismatch):
		return fmt.Errorf("delete %s: %w", id, domain.ErrRevisionConflict)
	default:
		return r.unavailable("delete", id, err)
	}
}

// Update loads id, applies mutate and stores the result, retrying from a
// fresh load on every revision conflict. After maxRetries conflicts it
// returns a *domain.ContentionError. Errors from mutate abort the loop as is.
func (r *Repo[T]) Update(ctx context.Context, id string, mutate func(T) error) (Versioned[T], error) {
	log := logger.FromContext(ctx)
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		cur, err := r.Load(ctx, id)
		if err != nil {
			return Versioned[T]{}, err
		}
		if err := mutate(cur.Value); err != nil {
			return Versioned[T]{}, err
		}
		rev, err := r.Store(ctx, cur)
		if err == nil {
			return Versioned[T]{Value: cur.Value, Revision: rev}, nil
		}
		if !errors.Is(err, domain.ErrRevisionConflict) {
			return Versioned[T]{}, err
		}
		metrics.StoreConflictsTotal.WithLabelValues(r.label).Inc()
		log.Debug("revision conflict, retrying",
			zap.String("kind", r.label), zap.String("id", id), zap.Int("attempt", attempt))
	}
	metrics.StoreContentionTotal.WithLabelValues(r.label).Inc()
	log.Warn("write contention", zap.String("kind", r.label), zap.String("id", id), zap.Int("attempts", r.maxRetries))
	return Versioned[T]{}, &domain.ContentionError{ID: id, Attempts: r.maxRetries}
}

// DeleteIf loads id, runs check against the current value and deletes it at
// that revision, retrying on conflict like Update.
func (r *Repo[T]) DeleteIf(ctx context.Context, id string, check func(T) error) error {
	log := logger.FromContext(ctx)
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		cur, err := r.Load(ctx, id)
		if err != nil {
			return err
		}
		if err := check(cur.Value); err != nil {
			return err
		}
		err = r.Delete(ctx, id, cur.Revision)
		if err == nil || !errors.Is(err, domain.ErrRevisionConflict) {
			return err
		}
		metrics.StoreConflictsTotal.WithLabelValues(r.label).Inc()
		log.Debug("revision conflict on delete, retrying",
			zap.String("kind", r.label), zap.String("id", id), zap.Int("attempt", attempt))
	}
	metrics.StoreContentionTotal.WithLabelValues(r.label).Inc()
	return &domain.ContentionError{ID: id, Attempts: r.maxRetries}
}

func (r *Repo[T]) put(ctx context.Context, v T, rev string) (string, error) {
	id := r.codec.ID(v)
	body, err := r.codec.Encode(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", id, err)
	}
	views, err := r.codec.Views(v)
	if err != nil {
		return "", fmt.Errorf("views %s: %w", id, err)
	}

	newRev, err := r.store.PutDoc(ctx, db.Document{
		Key:      id,
		Kind:     string(r.codec.Kind(v)),
		Body:     body,
		Revision: rev,
	}, views)

	var re *db.RevisionError
	switch {
	case err == nil:
		metrics.StoreOperationsTotal.WithLabelValues(r.label, "put", "ok").Inc()
		return newRev, nil
	case errors.As(err, &re):
		return "", fmt.Errorf("store %s: %w", id, domain.NewRevisionConflict(re.Current))
	case errors.Is(err, db.ErrRevisionMismatch):
		return "", fmt.Errorf("store %s: %w", id, domain.ErrRevisionConflict)
	case errors.Is(err, db.ErrKeyNotFound):
		// Deleted since it was loaded.
		return "", fmt.Errorf("store %s: %w", id, domain.ErrNotFound)
	default:
		return "", r.unavailable("store", id, err)
	}
}

func (r *Repo[T]) decode(doc db.Document) (Versioned[T], error) {
	kind := domain.Kind(doc.Kind)
	if !r.codec.Accepts(kind) {
		return Versioned[T]{}, fmt.Errorf("load %s (%s): %w", doc.Key, kind, domain.ErrKindMismatch)
	}
	v, err := r.codec.Decode(doc.Key, kind, doc.Body)
	if err != nil {
		return Versioned[T]{}, fmt.Errorf("decode %s: %w", doc.Key, err)
	}
	return Versioned[T]{Value: v, Revision: doc.Revision}, nil
}

func (r *Repo[T]) unavailable(op, id string, err error) error {
	metrics.StoreOperationsTotal.WithLabelValues(r.label, op, "error").Inc()
	return fmt.Errorf("%s %s %s: %w: %w", r.label, op, id, domain.ErrStoreUnavailable, err)
}
