package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GerlachSG/Cruciflix/internal/cache"
	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/docstore/memory"
	"github.com/GerlachSG/Cruciflix/internal/domain"
	"github.com/GerlachSG/Cruciflix/internal/notify"
)

// fakeStore counts queries and injects failures on top of the memory store
type fakeStore struct {
	*memory.Store

	mu       sync.Mutex
	finds    map[string]int
	findErr  error
	batchErr error
	gate     *findGate
}

// findGate parks one Find after it has read the store
type findGate struct {
	entered chan struct{}
	release chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{Store: memory.New(), finds: make(map[string]int)}
}

func (f *fakeStore) Find(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	f.mu.Lock()
	f.finds[q.Collection]++
	err := f.findErr
	gate := f.gate
	f.gate = nil
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	docs, err := f.Store.Find(ctx, q)
	if gate != nil {
		close(gate.entered)
		<-gate.release
	}
	return docs, err
}

// holdNextFind blocks the next Find after its read until release is closed
func (f *fakeStore) holdNextFind() *findGate {
	g := &findGate{entered: make(chan struct{}), release: make(chan struct{})}
	f.mu.Lock()
	f.gate = g
	f.mu.Unlock()
	return g
}

func (f *fakeStore) DeleteBatch(ctx context.Context, refs []docstore.Ref) error {
	f.mu.Lock()
	err := f.batchErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Store.DeleteBatch(ctx, refs)
}

func (f *fakeStore) findCount(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finds[collection]
}

func (f *fakeStore) failFinds(err error) {
	f.mu.Lock()
	f.findErr = err
	f.mu.Unlock()
}

// tickClock advances one millisecond per call so createdAt values are unique
type tickClock struct{ n atomic.Int64 }

func (c *tickClock) now() time.Time {
	return time.UnixMilli(1_700_000_000_000 + c.n.Add(1))
}

func newTestService(t *testing.T, opts ...Option) (*Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	c, err := cache.Open("")
	require.NoError(t, err)

	clock := &tickClock{}
	opts = append([]Option{WithRevalidateDelay(20 * time.Millisecond), WithClock(clock.now)}, opts...)
	svc := NewService(store, c, notify.New(nil), nil, opts...)
	t.Cleanup(svc.Close)
	return svc, store
}

func adminCtx() context.Context {
	return domain.ContextWithActor(context.Background(), domain.Actor{UserID: "admin-1"})
}

func mustCreateMovie(t *testing.T, svc *Service, m domain.Movie) string {
	t.Helper()
	res := svc.CreateMovie(adminCtx(), m)
	require.True(t, res.Success, res.Error)
	return res.ID
}

func TestMovies_SecondCallServedFromCache(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	mustCreateMovie(t, svc, domain.Movie{Title: "Ben-Hur"})
	mustCreateMovie(t, svc, domain.Movie{Title: "A Paixão de Cristo"})

	published := 0
	svc.OnMovies(func([]*domain.Movie) { published++ })

	first, err := svc.Movies(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 1, store.findCount(docstore.CollectionMovies))

	second, err := svc.Movies(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, store.findCount(docstore.CollectionMovies), "cache hit must not block on a fetch")
	assert.Equal(t, first, second)

	svc.Wait()
	assert.Equal(t, 2, store.findCount(docstore.CollectionMovies), "background revalidation ran")
	assert.Equal(t, 0, published, "unchanged data must not notify")
}

func TestMovies_NewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreateMovie(t, svc, domain.Movie{Title: "Old"})
	mustCreateMovie(t, svc, domain.Movie{Title: "New"})

	movies, err := svc.Movies(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "New", movies[0].Title)
}

func TestMovies_RevalidationPublishesChanges(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	mustCreateMovie(t, svc, domain.Movie{Title: "Ben-Hur"})

	_, err := svc.Movies(ctx, false)
	require.NoError(t, err)

	// Written behind the repository's back, so the cache is not evicted
	_, err = store.Add(ctx, docstore.CollectionMovies, map[string]any{"title": "Quo Vadis", "createdAt": time.Now().UnixMilli()})
	require.NoError(t, err)

	var got []*domain.Movie
	svc.OnMovies(func(movies []*domain.Movie) { got = movies })

	stale, err := svc.Movies(ctx, false)
	require.NoError(t, err)
	assert.Len(t, stale, 1)

	svc.Wait()
	require.Len(t, got, 2)
	assert.Equal(t, "Quo Vadis", got[0].Title)

	// Fresh data replaced the cached snapshot
	cached, err := svc.Movies(ctx, false)
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestMovies_EditWithoutTimestampIsNotAChange(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	id := mustCreateMovie(t, svc, domain.Movie{Title: "Ben-Hur"})

	_, err := svc.Movies(ctx, false)
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, docstore.CollectionMovies, id, map[string]any{"title": "Ben-Hur (1959)"}))

	published := false
	svc.OnMovies(func([]*domain.Movie) { published = true })
	_, err = svc.Movies(ctx, false)
	require.NoError(t, err)
	svc.Wait()

	assert.False(t, published)
}

func TestMovies_ForceRefreshFetches(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Movies(ctx, true)
	require.NoError(t, err)
	_, err = svc.Movies(ctx, true)
	require.NoError(t, err)

	assert.Equal(t, 2, store.findCount(docstore.CollectionMovies))
}

func TestMovies_FetchFailure(t *testing.T) {
	svc, store := newTestService(t)
	store.failFinds(errors.New("offline"))

	movies, err := svc.Movies(context.Background(), false)
	assert.Error(t, err)
	assert.NotNil(t, movies)
	assert.Empty(t, movies)
}

func TestMovies_RevalidationFailureIsSwallowed(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	mustCreateMovie(t, svc, domain.Movie{Title: "Ben-Hur"})

	_, err := svc.Movies(ctx, false)
	require.NoError(t, err)

	store.failFinds(errors.New("offline"))
	stale, err := svc.Movies(ctx, false)
	require.NoError(t, err)
	assert.Len(t, stale, 1)
	svc.Wait()

	// The stale snapshot survives the failed refresh
	again, err := svc.Movies(ctx, false)
	require.NoError(t, err)
	assert.Len(t, again, 1)
}

func TestClose_CancelsPendingRevalidation(t *testing.T) {
	svc, store := newTestService(t, WithRevalidateDelay(time.Hour))
	ctx := context.Background()

	_, err := svc.Movies(ctx, false)
	require.NoError(t, err)
	_, err = svc.Movies(ctx, false)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		svc.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not cancel the pending revalidation")
	}
	assert.Equal(t, 1, store.findCount(docstore.CollectionMovies))
}

func TestMutationsInvalidateCache(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	id := mustCreateMovie(t, svc, domain.Movie{Title: "Ben-Hur"})

	_, err := svc.Movies(ctx, false)
	require.NoError(t, err)

	res := svc.UpdateMovie(ctx, id, domain.Fields{"title": "Ben-Hur (1959)"})
	require.True(t, res.Success, res.Error)

	movies, err := svc.Movies(ctx, false)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "Ben-Hur (1959)", movies[0].Title)
	assert.NotZero(t, movies[0].UpdatedAt)
	assert.Equal(t, 2, store.findCount(docstore.CollectionMovies), "evicted cache forces a synchronous fetch")

	res = svc.DeleteMovie(ctx, id)
	require.True(t, res.Success)
	movies, err = svc.Movies(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestMovies_RevalidationDoesNotOverwriteMutation(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	mustCreateMovie(t, svc, domain.Movie{Title: "Ben-Hur"})

	_, err := svc.Movies(ctx, false)
	require.NoError(t, err)

	gate := store.holdNextFind()
	stale, err := svc.Movies(ctx, false)
	require.NoError(t, err)
	require.Len(t, stale, 1)

	select {
	case <-gate.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("revalidation did not start")
	}

	mustCreateMovie(t, svc, domain.Movie{Title: "Quo Vadis"})
	close(gate.release)
	svc.Wait()

	before := store.findCount(docstore.CollectionMovies)
	movies, err := svc.Movies(ctx, false)
	require.NoError(t, err)
	assert.Len(t, movies, 2)
	assert.Equal(t, before+1, store.findCount(docstore.CollectionMovies), "superseded revalidation must not repopulate the cache")
}

func TestMovies_AfterCloseServesWithoutRevalidating(t *testing.T) {
	svc, store := newTestService(t, WithRevalidateDelay(0))
	ctx := context.Background()
	mustCreateMovie(t, svc, domain.Movie{Title: "Ben-Hur"})

	_, err := svc.Movies(ctx, false)
	require.NoError(t, err)

	svc.Close()
	movies, err := svc.Movies(ctx, false)
	require.NoError(t, err)
	assert.Len(t, movies, 1)
	svc.Wait()
	assert.Equal(t, 1, store.findCount(docstore.CollectionMovies))
}

func TestCreateMovie_Defaults(t *testing.T) {
	svc, _ := newTestService(t)
	id := mustCreateMovie(t, svc, domain.Movie{Title: "Ben-Hur"})

	m, err := svc.MovieByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultRating, m.Rating)
	assert.Equal(t, domain.LevelFree, m.SubscriptionLevel)
	assert.Equal(t, "admin-1", m.UploadedBy)
	assert.NotNil(t, m.Tags)
	assert.NotZero(t, m.CreatedAt)
	assert.NotZero(t, m.Year)
}

func TestCreateMovie_RequiresActorAndTitle(t *testing.T) {
	svc, _ := newTestService(t)

	res := svc.CreateMovie(context.Background(), domain.Movie{Title: "x"})
	assert.False(t, res.Success)
	assert.Equal(t, domain.ErrNotAuthenticated.Error(), res.Error)

	res = svc.CreateMovie(adminCtx(), domain.Movie{})
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestUpdateMovie_Missing(t *testing.T) {
	svc, _ := newTestService(t)
	res := svc.UpdateMovie(context.Background(), "nope", domain.Fields{"title": "x"})
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)

	res = svc.UpdateMovie(context.Background(), "nope", domain.Fields{"title": ""})
	assert.False(t, res.Success)
}

func TestMovieByID_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.MovieByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTags_OrderedByName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for _, name := range []string{"Kids", "Drama", "Fé"} {
		require.True(t, svc.AddTag(ctx, name, "").Success)
	}

	tags, err := svc.Tags(ctx, false)
	require.NoError(t, err)
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	assert.Equal(t, []string{"Drama", "Fé", "Kids"}, names)
	assert.Equal(t, domain.DefaultTagColor, tags[0].Color)
	assert.Equal(t, domain.DefaultCategory, tags[0].Category)
}

func TestCreateTag_Duplicate(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	require.True(t, svc.CreateTag(ctx, domain.Tag{Name: "Drama"}).Success)

	res := svc.CreateTag(ctx, domain.Tag{Name: "Drama"})
	assert.Equal(t, domain.Result{Success: false, Error: "Tag já existe"}, res)

	docs, err := store.Store.Find(ctx, docstore.Collection(docstore.CollectionTags))
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestDeleteSeries_Cascade(t *testing.T) {
	svc, store := newTestService(t)
	ctx := adminCtx()

	res := svc.CreateSeries(ctx, domain.Series{Title: "The Chosen"})
	require.True(t, res.Success)
	chosen := res.ID
	res = svc.CreateSeries(ctx, domain.Series{Title: "Other"})
	require.True(t, res.Success)
	other := res.ID

	require.True(t, svc.CreateEpisode(ctx, domain.Episode{SeriesID: chosen, Title: "Ep 1"}).Success)
	require.True(t, svc.CreateEpisode(ctx, domain.Episode{SeriesID: chosen, Title: "Ep 2", EpisodeNumber: 2}).Success)
	require.True(t, svc.CreateEpisode(ctx, domain.Episode{SeriesID: other, Title: "Keep"}).Success)

	res = svc.DeleteSeries(ctx, chosen)
	require.True(t, res.Success, res.Error)

	_, err := svc.SeriesByID(ctx, chosen)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	left, err := store.Store.Find(ctx, docstore.Collection(docstore.CollectionEpisodes))
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, other, left[0].Data["seriesId"])
}

func TestDeleteSeries_BatchFailureDeletesNothing(t *testing.T) {
	svc, store := newTestService(t)
	ctx := adminCtx()

	res := svc.CreateSeries(ctx, domain.Series{Title: "The Chosen"})
	require.True(t, res.Success)
	id := res.ID
	require.True(t, svc.CreateEpisode(ctx, domain.Episode{SeriesID: id, Title: "Ep 1"}).Success)

	store.batchErr = errors.New("commit failed")
	res = svc.DeleteSeries(ctx, id)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "commit failed")

	_, err := svc.SeriesByID(ctx, id)
	assert.NoError(t, err)
	episodes, err := svc.Episodes(ctx, id)
	require.NoError(t, err)
	assert.Len(t, episodes, 1)
}

func TestEpisodes_SortedAndCounted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	res := svc.CreateSeries(ctx, domain.Series{Title: "The Chosen"})
	require.True(t, res.Success)
	id := res.ID

	for _, e := range []domain.Episode{
		{Title: "S2E1", Season: 2, EpisodeNumber: 1},
		{Title: "S1E2", Season: 1, EpisodeNumber: 2},
		{Title: "S1E1", Season: 1, EpisodeNumber: 1},
	} {
		e.SeriesID = id
		require.True(t, svc.CreateEpisode(ctx, e).Success)
	}

	episodes, err := svc.Episodes(ctx, id)
	require.NoError(t, err)
	codes := make([]string, len(episodes))
	for i, e := range episodes {
		codes[i] = e.EpisodeCode()
	}
	assert.Equal(t, []string{"S01E01", "S01E02", "S02E01"}, codes)

	season1, err := svc.EpisodesBySeason(ctx, id, 1)
	require.NoError(t, err)
	assert.Len(t, season1, 2)

	series, err := svc.SeriesByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, series.EpisodeCount)

	require.True(t, svc.DeleteEpisode(ctx, episodes[0].ID).Success)
	series, err = svc.SeriesByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, series.EpisodeCount)
}

func TestUpdateEpisode_MovedBetweenSeries(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	from := svc.CreateSeries(ctx, domain.Series{Title: "The Chosen"})
	require.True(t, from.Success)
	to := svc.CreateSeries(ctx, domain.Series{Title: "House of David"})
	require.True(t, to.Success)

	ep := svc.CreateEpisode(ctx, domain.Episode{SeriesID: from.ID, Title: "Pilot", Season: 1, EpisodeNumber: 1})
	require.True(t, ep.Success, ep.Error)

	res := svc.UpdateEpisode(ctx, ep.ID, domain.Fields{"seriesId": to.ID})
	require.True(t, res.Success, res.Error)

	left, err := svc.SeriesByID(ctx, from.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, left.EpisodeCount)

	joined, err := svc.SeriesByID(ctx, to.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, joined.EpisodeCount)
}

func TestCreateEpisode_VideoURLFallsBackToHLS(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()
	res := svc.CreateEpisode(ctx, domain.Episode{SeriesID: "s", Title: "Ep", HLSURL: "https://cdn/ep.m3u8"})
	require.True(t, res.Success)

	ep, err := svc.EpisodeByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/ep.m3u8", ep.VideoURL)
	assert.Equal(t, 1, ep.Season)
}
