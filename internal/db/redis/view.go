package redis

import (
	"context"

	"github.com/osinter/osinter/internal/db"
)

// QueryView looks up keys in a view hash with one HMGET.
func (s *Store) QueryView(ctx context.Context, view string, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	cmd := s.b().Hmget().Key(s.viewKey(view)).Field(keys...).Build()
	vals, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpView, Err: err}
	}
	for i, v := range vals {
		if i >= len(keys) || v.IsNil() {
			continue
		}
		str, err := v.ToString()
		if err != nil {
			return nil, &db.Error{Op: db.OpView, Err: err}
		}
		out[keys[i]] = []byte(str)
	}
	return out, nil
}
