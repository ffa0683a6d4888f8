// Package catalog is the content repository: typed access to movies, series,
// episodes and tags with a stale-while-revalidate cache in front of the
// document store.
package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/GerlachSG/Cruciflix/internal/cache"
	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/domain"
	"github.com/GerlachSG/Cruciflix/internal/notify"
	"github.com/GerlachSG/Cruciflix/internal/search"
)

// DefaultRevalidateDelay postpones background refreshes past the first render
const DefaultRevalidateDelay = 100 * time.Millisecond

// Service orchestrates document store + local cache operations.
type Service struct {
	store    docstore.Store
	cache    *cache.Store
	notifier *notify.Notifier
	searcher domain.Searcher
	logger   *slog.Logger

	revalidateDelay time.Duration
	now             func() time.Time

	// Cache generations per key; every eviction bumps the key so an
	// in-flight fetch that started earlier does not write back
	genMu sync.Mutex
	gens  map[string]uint64

	// Background revalidations. bgMu orders bg.Go against Close.
	bgMu   sync.Mutex
	closed bool
	bg     conc.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Service
type Option func(*Service)

// WithRevalidateDelay overrides the delay before a background refresh
func WithRevalidateDelay(d time.Duration) Option {
	return func(s *Service) { s.revalidateDelay = d }
}

// WithClock injects the time source used for createdAt/updatedAt
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSearcher replaces the default fuzzy searcher
func WithSearcher(searcher domain.Searcher) Option {
	return func(s *Service) { s.searcher = searcher }
}

// NewService creates a new catalog service.
func NewService(store docstore.Store, c *cache.Store, n *notify.Notifier, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if n == nil {
		n = notify.New(logger)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		store:           store,
		cache:           c,
		notifier:        n,
		searcher:        search.New(),
		logger:          logger,
		revalidateDelay: DefaultRevalidateDelay,
		now:             time.Now,
		gens:            make(map[string]uint64),
		ctx:             ctx,
		cancel:          cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Wait blocks until in-flight background revalidations finish. It is meant
// for tests and must not run concurrently with reads that can schedule a
// revalidation.
func (s *Service) Wait() {
	s.bg.Wait()
}

// Close cancels pending revalidations and waits for them to exit. Reads
// after Close no longer schedule revalidations.
func (s *Service) Close() {
	s.bgMu.Lock()
	s.closed = true
	s.cancel()
	s.bgMu.Unlock()
	s.bg.Wait()
}

// goBackground runs fn on the revalidation group unless the service is closed
func (s *Service) goBackground(fn func()) {
	s.bgMu.Lock()
	defer s.bgMu.Unlock()
	if s.closed {
		return
	}
	s.bg.Go(fn)
}

// generation returns the eviction count of key
func (s *Service) generation(key string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[key]
}

// evict drops keys from the cache, or every known key when none are given
func (s *Service) evict(keys ...string) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if len(keys) == 0 {
		s.cache.Evict()
		keys = cache.KnownKeys()
	} else {
		s.cache.Evict(keys...)
	}
	for _, key := range keys {
		s.gens[key]++
	}
}

// writeIfCurrent caches payload unless key was evicted after gen was read
func (s *Service) writeIfCurrent(key string, gen uint64, payload any) bool {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.gens[key] != gen {
		return false
	}
	s.cache.Write(key, payload)
	return true
}

// OnMovies subscribes to movie revalidations that detected a change
func (s *Service) OnMovies(fn func([]*domain.Movie)) *notify.Subscription {
	return subscribe(s.notifier, domain.EntityMovies, fn)
}

// OnSeries subscribes to series revalidations that detected a change
func (s *Service) OnSeries(fn func([]*domain.Series)) *notify.Subscription {
	return subscribe(s.notifier, domain.EntitySeries, fn)
}

// OnTags subscribes to tag revalidations that detected a change
func (s *Service) OnTags(fn func([]*domain.Tag)) *notify.Subscription {
	return subscribe(s.notifier, domain.EntityTags, fn)
}

func subscribe[P domain.Entity](n *notify.Notifier, kind domain.EntityType, fn func([]P)) *notify.Subscription {
	return n.Subscribe(kind, func(items []domain.Entity) {
		typed := make([]P, 0, len(items))
		for _, item := range items {
			if v, ok := item.(P); ok {
				typed = append(typed, v)
			}
		}
		fn(typed)
	})
}

func (s *Service) nowMillis() int64 {
	return s.now().UnixMilli()
}

// stamp copies fields and sets updatedAt
func (s *Service) stamp(fields domain.Fields) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		if k == "id" {
			continue
		}
		out[k] = v
	}
	out["updatedAt"] = s.nowMillis()
	return out
}
