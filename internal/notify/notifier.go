// Package notify delivers background revalidation results to subscribers.
package notify

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// Callback receives the fresh list for an entity type
type Callback func(items []domain.Entity)

// Subscription is the handle returned by Subscribe
type Subscription struct {
	n    *Notifier
	kind domain.EntityType
	id   uint64
	once sync.Once
}

// Unsubscribe stops delivery to the callback. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.n == nil {
		return
	}
	s.once.Do(func() { s.n.remove(s.kind, s.id) })
}

type entry struct {
	id uint64
	fn Callback
}

// Notifier is a typed event bus keyed by entity type
type Notifier struct {
	mu     sync.RWMutex
	subs   map[domain.EntityType][]entry
	nextID uint64
	logger *slog.Logger
}

func New(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		subs:   make(map[domain.EntityType][]entry),
		logger: logger,
	}
}

// Subscribe appends fn to the callbacks for kind. The same function may be
// subscribed more than once and will then be called once per subscription.
func (n *Notifier) Subscribe(kind domain.EntityType, fn Callback) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	n.subs[kind] = append(n.subs[kind], entry{id: n.nextID, fn: fn})
	return &Subscription{n: n, kind: kind, id: n.nextID}
}

// Publish calls every callback for kind in subscription order.
// A panicking callback is logged and does not stop the others.
func (n *Notifier) Publish(kind domain.EntityType, items []domain.Entity) {
	n.mu.RLock()
	subs := make([]entry, len(n.subs[kind]))
	copy(subs, n.subs[kind])
	n.mu.RUnlock()

	for _, e := range subs {
		n.invoke(kind, e, items)
	}
}

func (n *Notifier) invoke(kind domain.EntityType, e entry, items []domain.Entity) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("revalidation callback failed",
				"entityType", string(kind),
				"subscription", e.id,
				"error", fmt.Sprint(r))
		}
	}()
	e.fn(items)
}

// Count returns the number of live subscriptions for kind
func (n *Notifier) Count(kind domain.EntityType) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs[kind])
}

func (n *Notifier) remove(kind domain.EntityType, id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	subs := n.subs[kind]
	for i, e := range subs {
		if e.id == id {
			n.subs[kind] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}
