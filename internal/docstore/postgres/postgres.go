// Package postgres stores documents in a single JSONB table.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a docstore.Store backed by a pgx pool
type Store struct {
	pool *pgxpool.Pool
}

var _ docstore.Store = (*Store)(nil)

// Connect opens a pool and applies pending migrations
func Connect(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}
	cfg.MinConns = 0
	cfg.MaxConns = 10
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 60 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Migrate runs the embedded goose migrations
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return docstore.Document{}, fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	if err != nil {
		return docstore.Document{}, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}

	data, err := unmarshal(raw)
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{ID: id, Data: data}, nil
}

func (s *Store) Find(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	sql, args, err := buildFind(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", q.Collection, err)
	}
	defer rows.Close()

	var docs []docstore.Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", q.Collection, err)
		}
		data, err := unmarshal(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, docstore.Document{ID: id, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", q.Collection, err)
	}
	return docs, nil
}

// buildFind translates a query into SQL. Field names are always bound as
// parameters.
func buildFind(q docstore.Query) (string, []any, error) {
	var sb strings.Builder
	args := []any{q.Collection}
	param := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString(`SELECT id, data FROM documents WHERE collection = $1`)

	for _, f := range q.Filters {
		switch f.Op {
		case docstore.OpEqual:
			raw, err := json.Marshal(f.Value)
			if err != nil {
				return "", nil, fmt.Errorf("invalid filter on %s: %w", f.Field, err)
			}
			fmt.Fprintf(&sb, ` AND data -> %s::text = %s::jsonb`, param(f.Field), param(string(raw)))
		case docstore.OpArrayContainsAny:
			values, ok := f.Value.([]string)
			if !ok {
				return "", nil, fmt.Errorf("array-contains-any on %s needs []string, got %T", f.Field, f.Value)
			}
			fmt.Fprintf(&sb, ` AND data -> %s::text ?| %s::text[]`, param(f.Field), param(values))
		default:
			return "", nil, fmt.Errorf("unsupported operator %s", f.Op)
		}
	}

	for _, o := range q.Orders {
		fmt.Fprintf(&sb, ` AND data ? %s::text`, param(o.Field))
	}

	if len(q.Orders) > 0 {
		parts := make([]string, 0, len(q.Orders)+1)
		for _, o := range q.Orders {
			dir := "ASC"
			if o.Direction == docstore.Desc {
				dir = "DESC"
			}
			parts = append(parts, fmt.Sprintf("data -> %s::text %s", param(o.Field), dir))
		}
		parts = append(parts, "id ASC")
		sb.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	} else {
		sb.WriteString(" ORDER BY id ASC")
	}

	if q.Max > 0 {
		fmt.Fprintf(&sb, " LIMIT %s", param(q.Max))
	}
	return sb.String(), args, nil
}

func (s *Store) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := docstore.NewID()
	raw, err := marshal(data)
	if err != nil {
		return "", err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
		collection, id, raw,
	)
	if err != nil {
		return "", fmt.Errorf("failed to add to %s: %w", collection, err)
	}
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	raw, err := marshal(data)
	if err != nil {
		return err
	}

	update := `data = EXCLUDED.data`
	if merge {
		update = `data = documents.data || EXCLUDED.data`
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (collection, id) DO UPDATE SET `+update+`, updated_at = now()`,
		collection, id, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := marshal(fields)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET data = data || $3::jsonb, updated_at = now()
		 WHERE collection = $1 AND id = $2`,
		collection, id, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents
		 SET data = jsonb_set(data, ARRAY[$3::text], to_jsonb(COALESCE((data ->> $3::text)::numeric, 0) + $4)),
		     updated_at = now()
		 WHERE collection = $1 AND id = $2`,
		collection, id, field, delta,
	)
	if err != nil {
		return fmt.Errorf("failed to increment %s/%s.%s: %w", collection, id, field, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) DeleteBatch(ctx context.Context, refs []docstore.Ref) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, r := range refs {
			if _, err := tx.Exec(ctx,
				`DELETE FROM documents WHERE collection = $1 AND id = $2`,
				r.Collection, r.ID,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete batch of %d: %w", len(refs), err)
	}
	return nil
}

func marshal(data map[string]any) (string, error) {
	norm, err := docstore.Normalize(data)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(norm)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return string(raw), nil
}

func unmarshal(raw []byte) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}
