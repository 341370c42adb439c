// Package view resolves identifier sets through store-maintained views.
package view

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/domain/ids"
	"github.com/osinter/osinter/internal/domain/item"
	"github.com/osinter/osinter/internal/repository/document"
)

// store is the consumer interface for view lookups (ISP).
type store interface {
	QueryView(ctx context.Context, view string, keys []string) (map[string][]byte, error)
}

// Resolver expands id sets into projections with one bulk lookup per call.
type Resolver struct {
	store store
}

// New creates a resolver.
func New(s store) *Resolver {
	return &Resolver{store: s}
}

// ResolveByIDs returns the minimal projection of every item in set that
// still exists. An empty set returns an empty map without a store call.
// Result order is irrelevant; callers re-sort.
func (r *Resolver) ResolveByIDs(ctx context.Context, kind domain.Kind, set ids.Set) (map[string]item.Summary, error) {
	out := make(map[string]item.Summary, set.Len())
	if set.Len() == 0 {
		return out, nil
	}
	viewName, ok := document.MinimalView(kind)
	if !ok {
		return nil, domain.Validationf("kind %q has no minimal view", kind)
	}

	rows, err := r.store.QueryView(ctx, viewName, set.Slice())
	if err != nil {
		return nil, unavailable(viewName, err)
	}
	for id, raw := range rows {
		var s item.Summary
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode %s row %s: %w", viewName, id, err)
		}
		out[id] = s
	}
	return out, nil
}

// UserIDByUsername returns the id registered for username.
func (r *Resolver) UserIDByUsername(ctx context.Context, username string) (string, error) {
	raw, err := r.one(ctx, document.ViewUsersByUsername, username)
	if err != nil {
		return "", err
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", fmt.Errorf("decode %s row: %w", document.ViewUsersByUsername, err)
	}
	return id, nil
}

// AuthInfo returns the stored login data for username.
func (r *Resolver) AuthInfo(ctx context.Context, username string) (document.AuthInfo, error) {
	raw, err := r.one(ctx, document.ViewUsersAuthInfo, username)
	if err != nil {
		return document.AuthInfo{}, err
	}
	var info document.AuthInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return document.AuthInfo{}, fmt.Errorf("decode %s row: %w", document.ViewUsersAuthInfo, err)
	}
	return info, nil
}

func (r *Resolver) one(ctx context.Context, viewName, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("%s: empty key: %w", viewName, domain.ErrNotFound)
	}
	rows, err := r.store.QueryView(ctx, viewName, []string{key})
	if err != nil {
		return nil, unavailable(viewName, err)
	}
	raw, ok := rows[key]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", viewName, key, domain.ErrNotFound)
	}
	return raw, nil
}

func unavailable(viewName string, err error) error {
	return fmt.Errorf("query view %s: %w: %w", viewName, domain.ErrStoreUnavailable, err)
}
