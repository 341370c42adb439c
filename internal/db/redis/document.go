package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/rueidis"

	"github.com/osinter/osinter/internal/db"
)

// Document hash fields.
const (
	fieldRev   = "rev"
	fieldKind  = "kind"
	fieldBody  = "body"
	fieldViews = "views"
)

// Script error prefixes returned by redis.error_reply.
const (
	errRevMismatch = "REVMISMATCH"
	errNotFound    = "NOTFOUND"
)

// putScript compares the stored revision with ARGV[1] ("" = must not exist),
// drops the document's previous view rows, writes the new ones and the
// document, and returns the new revision "<n>-<ARGV[5]>".
// ARGV: expected rev, kind, body, view rows JSON [[viewKey, key, value]...], rev suffix.
var putScript = rueidis.NewLuaScript(`
local cur = redis.call('HGET', KEYS[1], 'rev')
if cur == false then
  if ARGV[1] ~= '' then return redis.error_reply('NOTFOUND') end
elseif cur ~= ARGV[1] then
  return redis.error_reply('REVMISMATCH ' .. cur)
end
local old = redis.call('HGET', KEYS[1], 'views')
if old then
  for _, e in ipairs(cjson.decode(old)) do redis.call('HDEL', e[1], e[2]) end
end
local refs = {}
for i, e in ipairs(cjson.decode(ARGV[4])) do
  redis.call('HSET', e[1], e[2], e[3])
  refs[i] = {e[1], e[2]}
end
local n = 1
if cur then n = tonumber(string.match(cur, '^(%d+)-')) + 1 end
local rev = n .. '-' .. ARGV[5]
local encoded = '[]'
if #refs > 0 then encoded = cjson.encode(refs) end
redis.call('HSET', KEYS[1], 'rev', rev, 'kind', ARGV[2], 'body', ARGV[3], 'views', encoded)
return rev
`)

// deleteScript removes the document and its view rows when ARGV[1] matches the stored revision.
var deleteScript = rueidis.NewLuaScript(`
local cur = redis.call('HGET', KEYS[1], 'rev')
if cur == false then return redis.error_reply('NOTFOUND') end
if cur ~= ARGV[1] then return redis.error_reply('REVMISMATCH ' .. cur) end
local old = redis.call('HGET', KEYS[1], 'views')
if old then
  for _, e in ipairs(cjson.decode(old)) do redis.call('HDEL', e[1], e[2]) end
end
redis.call('DEL', KEYS[1])
return 1
`)

// GetDoc returns a document by key.
func (s *Store) GetDoc(ctx context.Context, key string) (db.Document, error) {
	cmd := s.b().Hgetall().Key(s.docKey(key)).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return db.Document{}, &db.Error{Op: db.OpGet, Err: err}
	}
	doc, ok := toDocument(key, m)
	if !ok {
		return db.Document{}, db.ErrKeyNotFound
	}
	return doc, nil
}

// GetDocs fetches multiple documents in a single DoMulti round-trip.
func (s *Store) GetDocs(ctx context.Context, keys []string) ([]db.Document, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Hgetall().Key(s.docKey(key)).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	out := make([]db.Document, 0, len(results))
	for i, res := range results {
		m, err := res.AsStrMap()
		if err != nil {
			return nil, &db.Error{Op: db.OpMGet, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		if doc, ok := toDocument(keys[i], m); ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

// PutDoc writes a document with compare-and-set on its revision and
// replaces its view rows in the same script run.
func (s *Store) PutDoc(ctx context.Context, doc db.Document, views []db.ViewEntry) (string, error) {
	rows := make([][3]string, len(views))
	for i, v := range views {
		rows[i] = [3]string{s.viewKey(v.View), v.Key, string(v.Value)}
	}
	encoded, err := json.Marshal(rows)
	if err != nil {
		return "", &db.Error{Op: db.OpPut, Err: fmt.Errorf("encode views: %w", err)}
	}

	args := []string{doc.Revision, doc.Kind, string(doc.Body), string(encoded), revSuffix()}
	rev, err := putScript.Exec(ctx, s.client, []string{s.docKey(doc.Key)}, args).ToString()
	if err != nil {
		return "", s.scriptErr(db.OpPut, doc.Key, err)
	}
	return rev, nil
}

// DeleteDoc removes a document and its view rows if rev matches.
func (s *Store) DeleteDoc(ctx context.Context, key, rev string) error {
	err := deleteScript.Exec(ctx, s.client, []string{s.docKey(key)}, []string{rev}).Error()
	if err != nil {
		return s.scriptErr(db.OpDelete, key, err)
	}
	return nil
}

func (s *Store) scriptErr(op, key string, err error) error {
	code, detail, ok := scriptReply(err)
	switch {
	case ok && code == errNotFound:
		return db.ErrKeyNotFound
	case ok && code == errRevMismatch:
		return &db.RevisionError{Key: key, Current: detail}
	default:
		return &db.Error{Op: op, Err: err}
	}
}

func toDocument(key string, m map[string]string) (db.Document, bool) {
	rev, ok := m[fieldRev]
	if !ok || rev == "" {
		return db.Document{}, false
	}
	return db.Document{
		Key:      key,
		Kind:     m[fieldKind],
		Body:     []byte(m[fieldBody]),
		Revision: rev,
	}, true
}

func revSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
