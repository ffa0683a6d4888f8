package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// DefaultTTL is how long a written payload counts as fresh
const DefaultTTL = 5 * time.Minute

var bucketCatalog = []byte("catalog")

// Store is the local catalog cache. Payloads are JSON, persisted in BoltDB
// and promoted to an in-memory map on access. Every operation swallows
// storage failures: a broken cache degrades to a miss, never to an error.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex // Protects mem

	// In-memory cache for hot-path reads (promoted on access)
	mem map[string][]byte

	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithTTL overrides the freshness window
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock injects the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for swallowed failures
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens the cache under dir. An empty dir keeps everything in memory.
func Open(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		mem:    make(map[string][]byte),
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if dir == "" {
		// Memory-only mode (no persistence)
		return s, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	db, err := bolt.Open(filepath.Join(dir, "cruciflix.db"), 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCatalog)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	return s, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Write stores payload under key together with the current time.
// Failures are logged and leave the previous entry in place.
func (s *Store) Write(key string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to serialize cache payload", "key", key, "error", err)
		return
	}
	ts, _ := json.Marshal(s.now().UnixMilli())

	if err := s.put(map[string][]byte{key: data, timestampKey(key): ts}); err != nil {
		s.logger.Warn("failed to write cache entry", "key", key, "error", err)
	}
}

// ReadFresh decodes the payload into dest if it was written within the TTL.
// An expired entry is evicted.
func (s *Store) ReadFresh(key string, dest any) bool {
	var storedAt int64
	if !s.get(timestampKey(key), &storedAt) {
		return false
	}

	age := s.now().UnixMilli() - storedAt
	if age > s.ttl.Milliseconds() {
		s.Evict(key)
		return false
	}
	return s.get(key, dest)
}

// ReadStale decodes the payload into dest regardless of its age
func (s *Store) ReadStale(key string, dest any) bool {
	return s.get(key, dest)
}

// Evict removes the given keys and their timestamps.
// With no keys every known catalog key is removed.
func (s *Store) Evict(keys ...string) {
	if len(keys) == 0 {
		keys = KnownKeys()
	}

	all := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		all = append(all, k, timestampKey(k))
	}

	s.mu.Lock()
	for _, k := range all {
		delete(s.mem, k)
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCatalog)
		if b == nil {
			return nil
		}
		for _, k := range all {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to evict cache entries", "keys", keys, "error", err)
	}
}

// === Generic helpers ===

func (s *Store) get(key string, dest any) bool {
	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.mem[key]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCatalog)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to read cache entry", "key", key, "error", err)
		return false
	}
	if data == nil {
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("failed to decode cache entry", "key", key, "error", err)
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.mem[key] = data
	s.mu.Unlock()

	return true
}

// put writes all entries in one transaction. Memory is updated only after the
// disk write succeeds.
func (s *Store) put(entries map[string][]byte) error {
	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketCatalog)
			for k, v := range entries {
				if err := b.Put([]byte(k), v); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	for k, v := range entries {
		s.mem[k] = v
	}
	s.mu.Unlock()
	return nil
}
