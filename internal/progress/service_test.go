package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GerlachSG/Cruciflix/internal/docstore/memory"
	"github.com/GerlachSG/Cruciflix/internal/domain"
)

type fakeResolver map[string]domain.Content

func (f fakeResolver) ContentByID(_ context.Context, id string, _ domain.ContentType) (domain.Content, error) {
	if c, ok := f[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func newTestService(resolver fakeResolver) *Service {
	svc := NewService(memory.New(), resolver, nil)
	base := time.UnixMilli(1_700_000_000_000)
	n := 0
	svc.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return svc
}

func TestSaveAndGet(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()
	key := domain.ProgressKey{UserID: "u1", ContentID: "m1"}

	require.NoError(t, svc.Save(ctx, key, domain.ContentMovie, 42, 100))

	rec, err := svc.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "u1_default_m1", rec.ID)
	assert.Equal(t, domain.DefaultProfileID, rec.ProfileID)
	assert.Equal(t, 42.0, rec.WatchTime)
	assert.False(t, rec.Completed)
	assert.True(t, rec.ShouldResume())
}

func TestSave_DerivesCompletion(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()
	key := domain.ProgressKey{UserID: "u1", ProfileID: "p1", ContentID: "s1", EpisodeID: "e1"}

	require.NoError(t, svc.Save(ctx, key, domain.ContentSeries, 95, 100))
	rec, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, rec.Completed)
	assert.Equal(t, "e1", rec.EpisodeID)

	require.NoError(t, svc.Save(ctx, key, domain.ContentSeries, 90, 100))
	rec, err = svc.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, rec.Completed)
}

func TestGet_NeverWatched(t *testing.T) {
	svc := newTestService(nil)
	rec, err := svc.Get(context.Background(), domain.ProgressKey{UserID: "u1", ContentID: "m1"})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRequiresUser(t *testing.T) {
	svc := newTestService(nil)
	err := svc.Save(context.Background(), domain.ProgressKey{ContentID: "m1"}, domain.ContentMovie, 1, 2)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestContinueWatching(t *testing.T) {
	resolver := fakeResolver{
		"m1": &domain.Movie{ID: "m1", Title: "Ben-Hur"},
		"m2": &domain.Movie{ID: "m2", Title: "Quo Vadis"},
		"m3": &domain.Movie{ID: "m3", Title: "Finished"},
	}
	svc := newTestService(resolver)
	ctx := context.Background()

	save := func(profile, content string, watch float64) {
		require.NoError(t, svc.Save(ctx, domain.ProgressKey{UserID: "u1", ProfileID: profile, ContentID: content}, domain.ContentMovie, watch, 100))
	}
	save("p1", "m1", 10)
	save("p1", "m3", 99)
	save("p1", "gone", 10)
	save("p1", "m2", 20)
	save("p2", "m1", 30)

	items, err := svc.ContinueWatching(ctx, "u1", "p1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Quo Vadis", items[0].Content.GetTitle())
	assert.Equal(t, "Ben-Hur", items[1].Content.GetTitle())
	assert.Equal(t, 10.0, items[1].Progress.WatchTime)
}
