/*
Package query is the read side: exact lookup by id, prefix search with full
record materialization, and autocomplete that returns names only.

Prefix search is a single set fetch. Every possible prefix was written at
load time, so there is no scan and no traversal; lookup cost does not grow
with catalog size or query length. Membership sets are unordered, and when
a set is larger than the limit an arbitrary subset is materialized; callers
must not depend on which one.
*/
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/Soheybfa/cities-api/pkg/store"
)

// DefaultLimit applies when the caller supplies no usable limit.
const DefaultLimit = 10

// ErrEmptyQuery marks a blank or missing query string, a client error
// rather than a valid empty-result search.
var ErrEmptyQuery = errors.New("query must not be empty")

// Result is a prefix-search response: the (trimmed) query echoed back, the
// number of materialized records and the records themselves as original
// JSON.
type Result struct {
	Query   string            `json:"query"`
	Count   int               `json:"count"`
	Records []json.RawMessage `json:"results"`
}

// Suggestions is the autocomplete response, names only.
type Suggestions struct {
	Query string   `json:"query"`
	Names []string `json:"suggestions"`
}

// Engine serves read queries against a loaded store. It never writes.
type Engine struct {
	kv       store.KV
	cache    *PrefixCache
	maxLimit int
}

// Option configures an Engine.
type Option func(*Engine)

// WithHotCache enables an in-process cache of recent autocomplete results,
// holding at most maxEntries prefixes.
func WithHotCache(maxEntries int) Option {
	return func(e *Engine) {
		e.cache = NewPrefixCache(maxEntries)
	}
}

// WithMaxLimit caps the per-request result limit. Zero means uncapped.
func WithMaxLimit(max int) Option {
	return func(e *Engine) {
		e.maxLimit = max
	}
}

// NewEngine returns a read-only engine over kv.
func NewEngine(kv store.KV, opts ...Option) *Engine {
	e := &Engine{kv: kv}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cache returns the engine's hot cache, or nil when disabled. The loader
// uses it to invalidate after in-process loads.
func (e *Engine) Cache() *PrefixCache {
	return e.cache
}

// GetByID fetches the original serialized record for id. An unknown id
// yields store.ErrNotFound.
func (e *Engine) GetByID(ctx context.Context, id int64) (json.RawMessage, error) {
	data, err := e.kv.Get(ctx, store.RecordKey(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("fetching record %d: %w", id, err)
	}
	return json.RawMessage(data), nil
}

// Search returns up to limit full records whose name starts with query.
func (e *Engine) Search(ctx context.Context, query string, limit int) (*Result, error) {
	echo, key, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	limit = e.clampLimit(limit)

	ids, err := e.kv.SMembers(ctx, store.PrefixKey(key))
	if err != nil {
		return nil, fmt.Errorf("fetching prefix set %q: %w", key, err)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	records, err := e.materialize(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &Result{Query: echo, Count: len(records), Records: records}, nil
}

// Autocomplete returns up to limit names whose normalized form starts with
// query. It reads the same index as Search but skips full-record decoding,
// and serves repeated prefixes from the hot cache when one is configured.
func (e *Engine) Autocomplete(ctx context.Context, query string, limit int) (*Suggestions, error) {
	echo, key, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	limit = e.clampLimit(limit)

	if e.cache != nil {
		if names, ok := e.cache.Get(key, limit); ok {
			return &Suggestions{Query: echo, Names: names}, nil
		}
	}

	ids, err := e.kv.SMembers(ctx, store.PrefixKey(key))
	if err != nil {
		return nil, fmt.Errorf("fetching prefix set %q: %w", key, err)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	records, err := e.materialize(ctx, ids)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(records))
	for _, raw := range records {
		var fields struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			log.Warnf("stored record is not valid JSON: %v", err)
			continue
		}
		names = append(names, fields.Name)
	}

	if e.cache != nil {
		e.cache.Put(key, limit, names)
	}
	return &Suggestions{Query: echo, Names: names}, nil
}

// materialize joins a set of ids against the record store in one batched
// fetch. Ids whose record vanished between the index lookup and the fetch
// are dropped silently.
func (e *Engine) materialize(ctx context.Context, ids []string) ([]json.RawMessage, error) {
	records := make([]json.RawMessage, 0, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = store.RecordKeyFor(id)
	}
	values, err := e.kv.MGet(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("fetching %d records: %w", len(keys), err)
	}
	for _, v := range values {
		if v != nil {
			records = append(records, json.RawMessage(v))
		}
	}
	return records, nil
}

func (e *Engine) clampLimit(limit int) int {
	if limit < 1 {
		limit = DefaultLimit
	}
	if e.maxLimit > 0 && limit > e.maxLimit {
		limit = e.maxLimit
	}
	return limit
}

// normalizeQuery trims and case-folds a raw query. The trimmed original is
// echoed back to the caller; the folded form is the index key.
func normalizeQuery(query string) (echo, key string, err error) {
	echo = strings.TrimSpace(query)
	if echo == "" {
		return "", "", ErrEmptyQuery
	}
	return echo, strings.ToLower(echo), nil
}
