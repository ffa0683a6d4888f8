package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GerlachSG/Cruciflix/internal/account"
	"github.com/GerlachSG/Cruciflix/internal/analytics"
	"github.com/GerlachSG/Cruciflix/internal/cache"
	"github.com/GerlachSG/Cruciflix/internal/catalog"
	"github.com/GerlachSG/Cruciflix/internal/comments"
	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/docstore/memory"
	"github.com/GerlachSG/Cruciflix/internal/domain"
	"github.com/GerlachSG/Cruciflix/internal/logging"
	"github.com/GerlachSG/Cruciflix/internal/media"
	"github.com/GerlachSG/Cruciflix/internal/notify"
	"github.com/GerlachSG/Cruciflix/internal/progress"
	"github.com/GerlachSG/Cruciflix/internal/watchlist"
)

// outageStore fails user reads while down is set
type outageStore struct {
	*memory.Store
	down atomic.Bool
}

func (s *outageStore) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	if s.down.Load() && collection == docstore.CollectionUsers {
		return docstore.Document{}, errors.New("connection refused")
	}
	return s.Store.Get(ctx, collection, id)
}

type testEnv struct {
	server *Server
	store  *outageStore
	fs     afero.Fs
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logging.NullLogger()
	store := &outageStore{Store: memory.New()}

	c, err := cache.Open("")
	require.NoError(t, err)
	cat := catalog.NewService(store, c, notify.New(logger), logger, catalog.WithRevalidateDelay(10*time.Millisecond))
	t.Cleanup(cat.Close)

	accounts := account.NewService(store, account.NewTokens("api-secret", time.Hour), account.NewLogMailer(logger), logger,
		account.WithBcryptCost(bcrypt.MinCost))
	commentSvc := comments.NewService(store, logger)
	fs := afero.NewMemMapFs()

	server := NewServer(Services{
		Accounts:  accounts,
		Catalog:   cat,
		Comments:  commentSvc,
		Watchlist: watchlist.NewService(store, cat, logger),
		Progress:  progress.NewService(store, cat, logger),
		Analytics: analytics.NewService(cat, commentSvc, store, logger),
		Uploader:  media.NewUploader(media.NewFSStore(fs, "/media", "https://cdn.test"), logger),
	}, logger)
	return &testEnv{server: server, store: store, fs: fs}
}

type call struct {
	method  string
	path    string
	body    any
	token   string
	profile string
}

func (e *testEnv) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.profile != "" {
		req.Header.Set(ProfileHeader, c.profile)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// signUp registers and logs in, returning the token and user id
func (e *testEnv) signUp(t *testing.T, email string) (string, string) {
	t.Helper()
	creds := map[string]string{"email": email, "password": "secret123", "displayName": "Ana"}
	rec := e.do(t, call{method: http.MethodPost, path: "/auth/register", body: creds})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, call{method: http.MethodPost, path: "/auth/login", body: creds})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[struct {
		Token string       `json:"token"`
		User  *domain.User `json:"user"`
	}](t, rec)
	return resp.Token, resp.User.ID
}

func (e *testEnv) promote(t *testing.T, uid string) {
	t.Helper()
	require.NoError(t, e.store.Update(context.Background(), docstore.CollectionUsers, uid,
		map[string]any{"role": domain.RoleAdmin}))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signUp(t, "ana@example.com")

	rec := env.do(t, call{method: http.MethodGet, path: "/me"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, call{method: http.MethodGet, path: "/me", token: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, call{method: http.MethodGet, path: "/me", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana@example.com", decode[domain.User](t, rec).Email)

	rec = env.do(t, call{method: http.MethodPost, path: "/auth/login",
		body: map[string]string{"email": "ana@example.com", "password": "wrong-password"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, call{method: http.MethodPost, path: "/auth/register",
		body: map[string]string{"email": "ana@example.com", "password": "secret123"}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, call{method: http.MethodPost, path: "/auth/reset-password",
		body: map[string]string{"email": "nobody@example.com"}})
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestProfilesAndSubscription(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signUp(t, "ana@example.com")

	rec := env.do(t, call{method: http.MethodGet, path: "/me/profiles", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Profile](t, rec), 1)

	rec = env.do(t, call{method: http.MethodPost, path: "/me/profiles", token: token,
		body: domain.Profile{Name: "Kids", IsKids: true, PIN: "1234"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	kidsID := decode[domain.Result](t, rec).ID

	rec = env.do(t, call{method: http.MethodPost, path: "/me/profiles/" + kidsID + "/verify-pin", token: token,
		body: map[string]string{"pin": "1234"}})
	assert.Equal(t, map[string]bool{"valid": true}, decode[map[string]bool](t, rec))

	rec = env.do(t, call{method: http.MethodPut, path: "/me/subscription", token: token,
		body: map[string]string{"plan": "gold"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, call{method: http.MethodPut, path: "/me/subscription", token: token,
		body: map[string]string{"plan": domain.PlanPremium}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, call{method: http.MethodGet, path: "/me/subscription", token: token})
	assert.Equal(t, domain.PlanPremium, decode[domain.Subscription](t, rec).Plan)

	rec = env.do(t, call{method: http.MethodGet, path: "/avatars?kids=true"})
	for _, a := range decode[[]domain.Avatar](t, rec) {
		assert.Contains(t, a.ID, "kids")
	}
}

func TestAdminRoutes(t *testing.T) {
	env := newTestEnv(t)
	token, uid := env.signUp(t, "admin@example.com")

	movie := domain.Movie{Title: "A Paixão de Cristo", Tags: []string{"Drama"}, IsFeatured: true}
	rec := env.do(t, call{method: http.MethodPost, path: "/admin/movies", token: token, body: movie})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	env.promote(t, uid)
	rec = env.do(t, call{method: http.MethodPost, path: "/admin/movies", token: token, body: movie})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	movieID := decode[domain.Result](t, rec).ID

	rec = env.do(t, call{method: http.MethodGet, path: "/movies"})
	require.Equal(t, http.StatusOK, rec.Code)
	movies := decode[[]domain.Movie](t, rec)
	require.Len(t, movies, 1)
	assert.Equal(t, movieID, movies[0].ID)

	rec = env.do(t, call{method: http.MethodGet, path: "/content/" + movieID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "movie", decode[map[string]any](t, rec)["type"])

	rec = env.do(t, call{method: http.MethodGet, path: "/content?tags=Drama,Comedy"})
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = env.do(t, call{method: http.MethodGet, path: "/content/featured"})
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = env.do(t, call{method: http.MethodPost, path: "/content/" + movieID + "/views?type=movie"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, call{method: http.MethodPost, path: "/admin/tags", token: token, body: domain.Tag{Name: "Drama"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, call{method: http.MethodPost, path: "/admin/tags", token: token, body: domain.Tag{Name: "Drama"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrTagExists.Error(), decode[domain.Result](t, rec).Error)

	rec = env.do(t, call{method: http.MethodGet, path: "/admin/analytics", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[struct {
		Totals      domain.Analytics `json:"totals"`
		TotalVideos int              `json:"totalVideos"`
	}](t, rec)
	assert.Equal(t, 1, stats.Totals.TotalMovies)
	assert.Equal(t, int64(1), stats.Totals.TotalViews)
	assert.Equal(t, 1, stats.Totals.TotalUsers)
	assert.Equal(t, 1, stats.TotalVideos)

	rec = env.do(t, call{method: http.MethodDelete, path: "/admin/cache?type=movies", token: token})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, call{method: http.MethodDelete, path: "/admin/cache?type=users", token: token})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, call{method: http.MethodDelete, path: "/admin/movies/" + movieID, token: token})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, call{method: http.MethodGet, path: "/movies/" + movieID})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRoleUnknown(t *testing.T) {
	env := newTestEnv(t)
	token, uid := env.signUp(t, "admin@example.com")
	env.promote(t, uid)

	env.store.down.Store(true)
	rec := env.do(t, call{method: http.MethodGet, path: "/admin/users", token: token})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	env.store.down.Store(false)
	rec = env.do(t, call{method: http.MethodGet, path: "/admin/users", token: token})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEngagement(t *testing.T) {
	env := newTestEnv(t)
	adminToken, adminID := env.signUp(t, "admin@example.com")
	env.promote(t, adminID)
	token, _ := env.signUp(t, "viewer@example.com")

	rec := env.do(t, call{method: http.MethodPost, path: "/admin/movies", token: adminToken,
		body: domain.Movie{Title: "Ben-Hur"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	movieID := decode[domain.Result](t, rec).ID

	// Watchlist needs a selected profile
	rec = env.do(t, call{method: http.MethodPut, path: "/watchlist/" + movieID, token: token,
		body: map[string]string{"contentType": "movie"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, call{method: http.MethodPut, path: "/watchlist/" + movieID, token: token, profile: "p1",
		body: map[string]string{"contentType": "movie"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, call{method: http.MethodGet, path: "/watchlist", token: token, profile: "p1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = env.do(t, call{method: http.MethodGet, path: "/watchlist/" + movieID, token: token, profile: "p2"})
	assert.Equal(t, map[string]bool{"inWatchlist": false}, decode[map[string]bool](t, rec))

	// Progress
	rec = env.do(t, call{method: http.MethodPut, path: "/progress", token: token, profile: "p1",
		body: progressRequest{ContentID: movieID, ContentType: domain.ContentMovie, WatchTime: 42, Duration: 100}})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = env.do(t, call{method: http.MethodGet, path: "/progress/" + movieID, token: token, profile: "p1"})
	require.Equal(t, http.StatusOK, rec.Code)
	record := decode[domain.ProgressRecord](t, rec)
	assert.Equal(t, 42.0, record.WatchTime)
	assert.False(t, record.Completed)

	rec = env.do(t, call{method: http.MethodGet, path: "/progress/" + movieID, token: token, profile: "p2"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, call{method: http.MethodGet, path: "/continue-watching", token: token, profile: "p1"})
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	// Comments stay hidden until approved
	rec = env.do(t, call{method: http.MethodPost, path: "/content/" + movieID + "/comments", token: token,
		body: map[string]string{"content": "Lindo filme"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	commentID := decode[domain.Result](t, rec).ID

	rec = env.do(t, call{method: http.MethodGet, path: "/content/" + movieID + "/comments"})
	assert.Empty(t, decode[[]domain.Comment](t, rec))

	rec = env.do(t, call{method: http.MethodPost, path: "/admin/comments/" + commentID + "/approve", token: token})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, call{method: http.MethodPost, path: "/admin/comments/" + commentID + "/approve", token: adminToken})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, call{method: http.MethodGet, path: "/content/" + movieID + "/comments"})
	got := decode[[]domain.Comment](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "Ana", got[0].UserName)
}

func TestUploadVideo(t *testing.T) {
	env := newTestEnv(t)
	token, uid := env.signUp(t, "admin@example.com")
	env.promote(t, uid)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Ben Hur"))
	require.NoError(t, mw.WriteField("resolutions", "360p,720p"))
	part, err := mw.CreateFormFile("video", "benhur.mp4")
	require.NoError(t, err)
	_, err = part.Write(append([]byte("\x00\x00\x00\x18ftypisom\x00\x00\x02\x00isommp41"), make([]byte, 64)...))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/uploads/video", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assets := decode[map[string]any](t, rec)
	assert.Equal(t, true, assets["hlsPending"])
	assert.Contains(t, assets["hlsUrl"], "https://cdn.test/videos/hls/ben_hur_")

	originals, err := afero.ReadDir(env.fs, "/media/videos/originals")
	require.NoError(t, err)
	assert.Len(t, originals, 1)
}

func TestUploadVideo_RejectsMissingFile(t *testing.T) {
	env := newTestEnv(t)
	token, uid := env.signUp(t, "admin@example.com")
	env.promote(t, uid)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Ben Hur"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/uploads/video", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
