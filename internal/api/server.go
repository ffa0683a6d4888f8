package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GerlachSG/Cruciflix/internal/account"
	"github.com/GerlachSG/Cruciflix/internal/analytics"
	"github.com/GerlachSG/Cruciflix/internal/catalog"
	"github.com/GerlachSG/Cruciflix/internal/comments"
	"github.com/GerlachSG/Cruciflix/internal/media"
	"github.com/GerlachSG/Cruciflix/internal/progress"
	"github.com/GerlachSG/Cruciflix/internal/watchlist"
)

// ProfileHeader selects the viewer profile for watchlist and progress calls
const ProfileHeader = "X-Profile-ID"

// maxUploadMemory is the multipart form size kept in memory before spilling to disk
const maxUploadMemory = 32 << 20

// Services are the application services exposed over HTTP.
// Uploader may be nil, which disables the upload routes.
type Services struct {
	Accounts  *account.Service
	Catalog   *catalog.Service
	Comments  *comments.Service
	Watchlist *watchlist.Service
	Progress  *progress.Service
	Analytics *analytics.Service
	Uploader  *media.Uploader
}

// Server is the JSON API over the catalog and account services
type Server struct {
	svc    Services
	router chi.Router
	logger *slog.Logger
}

// NewServer builds the router
func NewServer(svc Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{svc: svc, logger: logger}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLogger, middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/reset-password", s.handleResetPassword)
		r.Post("/reset-password/confirm", s.handleConfirmReset)
	})

	r.Get("/plans", s.handlePlans)
	r.Get("/avatars", s.handleAvatars)

	// Catalog reads are public
	r.Get("/movies", s.handleMovies)
	r.Get("/movies/{id}", s.handleMovie)
	r.Get("/series", s.handleSeriesList)
	r.Get("/series/{id}", s.handleSeries)
	r.Get("/series/{id}/episodes", s.handleEpisodes)
	r.Get("/episodes/{id}", s.handleEpisode)
	r.Get("/tags", s.handleTags)
	r.Get("/content", s.handleContent)
	r.Get("/content/featured", s.handleFeatured)
	r.Get("/content/kids", s.handleKids)
	r.Get("/content/{id}", s.handleContentByID)
	r.Get("/content/{id}/comments", s.handleComments)
	r.Post("/content/{id}/views", s.handleView)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/me", s.handleMe)
		r.Patch("/me", s.handleUpdateMe)
		r.Get("/me/subscription", s.handleSubscription)
		r.Put("/me/subscription", s.handleUpdateSubscription)

		r.Get("/me/profiles", s.handleProfiles)
		r.Post("/me/profiles", s.handleCreateProfile)
		r.Patch("/me/profiles/{id}", s.handleUpdateProfile)
		r.Delete("/me/profiles/{id}", s.handleDeleteProfile)
		r.Post("/me/profiles/{id}/verify-pin", s.handleVerifyPIN)

		r.Post("/content/{id}/comments", s.handleAddComment)

		r.Get("/watchlist", s.handleWatchlist)
		r.Get("/watchlist/{contentID}", s.handleWatchlistContains)
		r.Put("/watchlist/{contentID}", s.handleWatchlistAdd)
		r.Delete("/watchlist/{contentID}", s.handleWatchlistRemove)

		r.Put("/progress", s.handleSaveProgress)
		r.Get("/progress/{contentID}", s.handleProgress)
		r.Get("/continue-watching", s.handleContinueWatching)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAuth, s.requireAdmin)

		r.Post("/movies", s.handleCreateMovie)
		r.Patch("/movies/{id}", s.handleUpdateMovie)
		r.Delete("/movies/{id}", s.handleDeleteMovie)

		r.Post("/series", s.handleCreateSeries)
		r.Patch("/series/{id}", s.handleUpdateSeries)
		r.Delete("/series/{id}", s.handleDeleteSeries)

		r.Post("/episodes", s.handleCreateEpisode)
		r.Patch("/episodes/{id}", s.handleUpdateEpisode)
		r.Delete("/episodes/{id}", s.handleDeleteEpisode)

		r.Post("/tags", s.handleCreateTag)
		r.Patch("/tags/{id}", s.handleUpdateTag)
		r.Delete("/tags/{id}", s.handleDeleteTag)

		r.Get("/comments", s.handleAllComments)
		r.Post("/comments/{id}/approve", s.handleApproveComment)
		r.Delete("/comments/{id}", s.handleDeleteComment)

		r.Get("/users", s.handleUsers)
		r.Post("/users/{id}/role", s.handleToggleRole)
		r.Delete("/users/{id}", s.handleDeleteUser)

		r.Get("/analytics", s.handleAnalytics)
		r.Delete("/cache", s.handleInvalidateCache)

		if s.svc.Uploader != nil {
			r.Post("/uploads/video", s.handleUploadVideo)
			r.Post("/uploads/image", s.handleUploadImage)
		}
	})

	return r
}
