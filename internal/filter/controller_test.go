package filter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GerlachSG/Cruciflix/internal/domain"
)

type fakeTimer struct {
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) afterFunc(_ time.Duration, f func()) stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{fn: f}
	c.timers = append(c.timers, t)
	return t
}

// fireAll runs every timer, including stopped ones, as a late timer would
func (c *fakeClock) fireAll() {
	c.mu.Lock()
	timers := append([]*fakeTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range timers {
		t.fn()
	}
}

type fakeCatalog struct {
	items []domain.Content
}

func (f *fakeCatalog) ContentByTags(_ context.Context, tags []string) ([]domain.Content, error) {
	if len(tags) == 0 {
		return f.items, nil
	}
	var out []domain.Content
	for _, c := range f.items {
		for _, t := range tags {
			if contains(c.GetTags(), t) {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeCatalog) SearchContent(_ context.Context, q string) ([]domain.Content, error) {
	var out []domain.Content
	for _, c := range f.items {
		if c.GetTitle() == q {
			out = append(out, c)
		}
	}
	return out, nil
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func newTestController() (*Controller, *fakeClock) {
	clock := &fakeClock{}
	c := NewController(&fakeCatalog{items: []domain.Content{
		&domain.Movie{ID: "m1", Title: "Ben-Hur", Tags: []string{"Drama", "Épico"}},
		&domain.Movie{ID: "m2", Title: "Quo Vadis", Tags: []string{"Drama"}},
		&domain.Series{ID: "s1", Title: "The Chosen", Tags: []string{"Bíblico"}},
	}}, nil)
	c.afterFunc = clock.afterFunc
	return c, clock
}

func TestToggleTagAndReset(t *testing.T) {
	c, _ := newTestController()

	assert.True(t, c.ToggleTag("Drama"))
	assert.True(t, c.ToggleTag("Bíblico"))
	assert.Equal(t, []string{"Bíblico", "Drama"}, c.SelectedTags())
	assert.False(t, c.ToggleTag("Drama"))
	assert.Equal(t, []string{"Bíblico"}, c.SelectedTags())

	c.Search("x", func(string) {})
	c.Reset()
	assert.Empty(t, c.SelectedTags())
	assert.Empty(t, c.Query())
}

func TestSearch_Debounced(t *testing.T) {
	c, clock := newTestController()
	var ran []string

	c.Search("B", func(q string) { ran = append(ran, q) })
	c.Search("Be", func(q string) { ran = append(ran, q) })
	c.Search("Ben", func(q string) { ran = append(ran, q) })

	require.Len(t, clock.timers, 3)
	assert.True(t, clock.timers[0].stopped)
	assert.True(t, clock.timers[1].stopped)

	clock.fireAll()
	assert.Equal(t, []string{"Ben"}, ran)
}

func TestSearch_ResetCancels(t *testing.T) {
	c, clock := newTestController()
	ran := false
	c.Search("Ben", func(string) { ran = true })
	c.Reset()
	clock.fireAll()
	assert.False(t, ran)
}

func TestSearch_RealTimer(t *testing.T) {
	c := NewController(&fakeCatalog{}, nil, WithDebounce(10*time.Millisecond))
	done := make(chan string, 1)
	c.Search("Ben", func(q string) { done <- q })
	select {
	case q := <-done:
		assert.Equal(t, "Ben", q)
	case <-time.After(time.Second):
		t.Fatal("search never ran")
	}
}

func TestResults(t *testing.T) {
	c, _ := newTestController()
	ctx := context.Background()

	all, err := c.Results(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	c.ToggleTag("Drama")
	drama, err := c.Results(ctx)
	require.NoError(t, err)
	assert.Len(t, drama, 2)

	c.Search("The Chosen", func(string) {})
	none, err := c.Results(ctx)
	require.NoError(t, err)
	assert.Empty(t, none, "search hits must carry a selected tag")

	c.ToggleTag("Drama")
	found, err := c.Results(ctx)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "s1", found[0].(*domain.Series).ID)
}
