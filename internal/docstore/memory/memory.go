// Package memory is an in-process document store used by tests and demo mode.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// Store keeps collections in maps guarded by a single lock
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

var _ docstore.Store = (*Store)(nil)

func New() *Store {
	return &Store{collections: make(map[string]map[string]map[string]any)}
}

func (s *Store) Close() error { return nil }

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.collections[collection][id]
	if !ok {
		return docstore.Document{}, fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	return docstore.Document{ID: id, Data: clone(data)}, nil
}

func (s *Store) Find(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filters := make([]docstore.Filter, len(q.Filters))
	for i, f := range q.Filters {
		v, err := normalizeValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid filter on %s: %w", f.Field, err)
		}
		filters[i] = docstore.Filter{Field: f.Field, Op: f.Op, Value: v}
	}

	s.mu.RLock()
	var docs []docstore.Document
	for id, data := range s.collections[q.Collection] {
		if matches(data, filters) && hasFields(data, q.Orders) {
			docs = append(docs, docstore.Document{ID: id, Data: clone(data)})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range q.Orders {
			c := compare(docs[i].Data[o.Field], docs[j].Data[o.Field])
			if c == 0 {
				continue
			}
			if o.Direction == docstore.Desc {
				return c > 0
			}
			return c < 0
		}
		return docs[i].ID < docs[j].ID
	})

	if q.Max > 0 && len(docs) > q.Max {
		docs = docs[:q.Max]
	}
	return docs, nil
}

func (s *Store) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := docstore.NewID()
	if err := s.Set(ctx, collection, id, data, false); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	norm, err := docstore.Normalize(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collection(collection)
	existing, ok := coll[id]
	if merge && ok {
		for k, v := range norm {
			existing[k] = v
		}
		return nil
	}
	coll[id] = norm
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	norm, err := docstore.Normalize(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.collections[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	for k, v := range norm {
		existing[k] = v
	}
	return nil
}

func (s *Store) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.collections[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	current, _ := existing[field].(float64)
	existing[field] = current + float64(delta)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], id)
	return nil
}

func (s *Store) DeleteBatch(ctx context.Context, refs []docstore.Ref) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range refs {
		delete(s.collections[r.Collection], r.ID)
	}
	return nil
}

func (s *Store) collection(name string) map[string]map[string]any {
	coll, ok := s.collections[name]
	if !ok {
		coll = make(map[string]map[string]any)
		s.collections[name] = coll
	}
	return coll
}

func clone(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func normalizeValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	err = json.Unmarshal(raw, &out)
	return out, err
}

func matches(data map[string]any, filters []docstore.Filter) bool {
	for _, f := range filters {
		switch f.Op {
		case docstore.OpEqual:
			if !reflect.DeepEqual(data[f.Field], f.Value) {
				return false
			}
		case docstore.OpArrayContainsAny:
			if !containsAny(data[f.Field], f.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func containsAny(field, candidates any) bool {
	have, ok := field.([]any)
	if !ok {
		return false
	}
	want, ok := candidates.([]any)
	if !ok {
		return false
	}
	for _, h := range have {
		for _, w := range want {
			if reflect.DeepEqual(h, w) {
				return true
			}
		}
	}
	return false
}

func hasFields(data map[string]any, orders []docstore.Order) bool {
	for _, o := range orders {
		if _, ok := data[o.Field]; !ok {
			return false
		}
	}
	return true
}

// rank follows Postgres jsonb ordering: null < string < number < boolean < other
func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case string:
		return 1
	case float64:
		return 2
	case bool:
		return 3
	default:
		return 4
	}
}

func compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case string:
		return strings.Compare(av, b.(string))
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	case bool:
		bv := b.(bool)
		switch {
		case !av && bv:
			return -1
		case av && !bv:
			return 1
		}
	}
	return 0
}
