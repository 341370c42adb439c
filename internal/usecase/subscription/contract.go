package subscription

import (
	"context"

	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/domain/ids"
	"github.com/osinter/osinter/internal/domain/item"
	"github.com/osinter/osinter/internal/repository/document"
)

// Repository defines the revisioned storage contract for one document family.
type Repository[T any] interface {
	Load(ctx context.Context, id string) (document.Versioned[T], error)
	Create(ctx context.Context, v T) (document.Versioned[T], error)
	Update(ctx context.Context, id string, mutate func(T) error) (document.Versioned[T], error)
	DeleteIf(ctx context.Context, id string, check func(T) error) error
}

// Resolver expands id sets into minimal projections.
type Resolver interface {
	ResolveByIDs(ctx context.Context, kind domain.Kind, set ids.Set) (map[string]item.Summary, error)
}

// FullResolver expands id sets into complete records.
type FullResolver[T any] interface {
	Resolve(ctx context.Context, set ids.Set) (map[string]T, error)
}
