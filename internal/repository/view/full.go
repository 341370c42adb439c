package view

import (
	"context"

	"github.com/osinter/osinter/internal/domain/ids"
	"github.com/osinter/osinter/internal/repository/document"
)

// loader is the slice of document.Repo the full resolver needs.
type loader[T any] interface {
	LoadMany(ctx context.Context, ids []string) ([]document.Versioned[T], error)
}

// Full resolves id sets into complete records.
type Full[T any] struct {
	repo loader[T]
	id   func(T) string
}

// NewFull creates a full-object resolver. id extracts a record's identifier.
func NewFull[T any](repo loader[T], id func(T) string) *Full[T] {
	return &Full[T]{repo: repo, id: id}
}

// Resolve returns every record in set that still exists and has the
// expected kind. An empty set returns an empty map without a store call.
func (f *Full[T]) Resolve(ctx context.Context, set ids.Set) (map[string]T, error) {
	out := make(map[string]T, set.Len())
	if set.Len() == 0 {
		return out, nil
	}
	loaded, err := f.repo.LoadMany(ctx, set.Slice())
	if err != nil {
		return nil, err
	}
	for _, v := range loaded {
		out[f.id(v.Value)] = v.Value
	}
	return out, nil
}
