// Package filter holds the viewer's tag selection and debounced search.
package filter

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// DefaultDebounce is the quiet period before a search runs
const DefaultDebounce = 500 * time.Millisecond

// Catalog is the subset of the content repository the filter queries
type Catalog interface {
	ContentByTags(ctx context.Context, tags []string) ([]domain.Content, error)
	SearchContent(ctx context.Context, query string) ([]domain.Content, error)
}

type stopper interface{ Stop() bool }

// Controller is per-session filter state
type Controller struct {
	catalog   Catalog
	logger    *slog.Logger
	delay     time.Duration
	afterFunc func(time.Duration, func()) stopper

	mu       sync.Mutex
	selected map[string]struct{}
	query    string
	pending  stopper
	gen      int
}

type Option func(*Controller)

func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.delay = d }
}

func NewController(catalog Catalog, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		catalog:  catalog,
		logger:   logger,
		delay:    DefaultDebounce,
		selected: make(map[string]struct{}),
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ToggleTag adds or removes tag from the selection and reports whether it
// is now selected
func (c *Controller) ToggleTag(tag string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.selected[tag]; ok {
		delete(c.selected, tag)
		return false
	}
	c.selected[tag] = struct{}{}
	return true
}

// SelectedTags returns the selection sorted by name
func (c *Controller) SelectedTags() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	tags := make([]string, 0, len(c.selected))
	for t := range c.selected {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Query returns the last query passed to Search
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Reset clears tags, query and any pending search
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.selected)
	c.query = ""
	c.gen++
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

// Search records query and calls run with it once no further Search call
// arrives within the debounce period. Superseded calls never run.
func (c *Controller) Search(query string, run func(query string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = query
	c.gen++
	gen := c.gen
	if c.pending != nil {
		c.pending.Stop()
	}
	c.pending = c.afterFunc(c.delay, func() {
		c.mu.Lock()
		current := gen == c.gen
		if current {
			c.pending = nil
		}
		c.mu.Unlock()
		if current {
			run(query)
		}
	})
}

// Results applies the current query and tag selection. A blank query lists
// content carrying any selected tag.
func (c *Controller) Results(ctx context.Context) ([]domain.Content, error) {
	tags := c.SelectedTags()
	query := strings.TrimSpace(c.Query())
	if query == "" {
		return c.catalog.ContentByTags(ctx, tags)
	}

	found, err := c.catalog.SearchContent(ctx, query)
	if err != nil {
		c.logger.Warn("search failed", "query", query, "error", err)
	}
	if len(tags) == 0 {
		return found, err
	}
	out := make([]domain.Content, 0, len(found))
	for _, item := range found {
		if slices.ContainsFunc(tags, func(t string) bool { return slices.Contains(item.GetTags(), t) }) {
			out = append(out, item)
		}
	}
	return out, err
}
