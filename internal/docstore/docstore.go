// Package docstore is the document database boundary. Documents are schemaless
// JSON objects addressed by collection and id.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Collection names
const (
	CollectionMovies      = "movies"
	CollectionSeries      = "series"
	CollectionEpisodes    = "episodes"
	CollectionTags        = "tags"
	CollectionUsers       = "users"
	CollectionCredentials = "credentials"
	CollectionProgress    = "progress"
	CollectionComments    = "comments"
	CollectionWatchlist   = "watchlist"
)

// Document is a stored JSON object. Data never contains the "id" key.
type Document struct {
	ID   string
	Data map[string]any
}

// Ref addresses a single document
type Ref struct {
	Collection string
	ID         string
}

// Store is implemented by every document database backend.
// Lookups of missing documents return domain.ErrNotFound (wrapped).
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Find(ctx context.Context, q Query) ([]Document, error)

	// Add inserts data under a new ULID and returns it
	Add(ctx context.Context, collection string, data map[string]any) (string, error)

	// Set replaces the document, or merges top-level fields when merge is true.
	// The document is created if missing.
	Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error

	// Update merges top-level fields into an existing document
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Increment adds delta to a numeric field of an existing document
	Increment(ctx context.Context, collection, id, field string, delta int64) error

	Delete(ctx context.Context, collection, id string) error

	// DeleteBatch deletes all refs atomically: either every delete applies or none
	DeleteBatch(ctx context.Context, refs []Ref) error

	Close() error
}

// NewID returns a new sortable document id
func NewID() string {
	return ulid.Make().String()
}

// SubCollection returns the path of a collection nested under a document,
// e.g. users/{uid}/profiles.
func SubCollection(parent, id, name string) string {
	return strings.Join([]string{parent, id, name}, "/")
}

// Decode converts a document into T, injecting the id under "id"
func Decode[T any](doc Document) (*T, error) {
	data := make(map[string]any, len(doc.Data)+1)
	for k, v := range doc.Data {
		data[k] = v
	}
	data["id"] = doc.ID

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", doc.ID, err)
	}
	return &out, nil
}

// DecodeAll decodes every document, skipping those that fail to decode.
// The second return value lists the ids that were skipped.
func DecodeAll[T any](docs []Document) ([]*T, []string) {
	out := make([]*T, 0, len(docs))
	var skipped []string
	for _, doc := range docs {
		v, err := Decode[T](doc)
		if err != nil {
			skipped = append(skipped, doc.ID)
			continue
		}
		out = append(out, v)
	}
	return out, skipped
}

// Encode converts v into document data, dropping the "id" key
func Encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	delete(data, "id")
	return data, nil
}

// Normalize round-trips data through JSON so values have their decoded
// shape (float64 numbers, []any arrays, map[string]any objects).
func Normalize(data map[string]any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	out, err := Encode(data)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
