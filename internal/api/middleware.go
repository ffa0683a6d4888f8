package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/GerlachSG/Cruciflix/internal/domain"
)

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"requestID", middleware.GetReqID(r.Context()),
		)
	})
}

// requireAuth resolves the bearer token into the request's actor
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if authz == "" {
			errorJSON(w, http.StatusUnauthorized, "missing token")
			return
		}
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			errorJSON(w, http.StatusUnauthorized, "invalid auth header")
			return
		}
		claims, err := s.svc.Accounts.Authenticate(parts[1])
		if err != nil {
			errorJSON(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := domain.ContextWithActor(r.Context(), domain.Actor{
			UserID:    claims.UserID,
			Email:     claims.Email,
			ProfileID: r.Header.Get(ProfileHeader),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin checks the stored role, not the token claim, so demotions
// apply immediately. An unreadable role is refused.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := s.svc.Accounts.RequireAdmin(r.Context())
		switch {
		case err == nil:
			next.ServeHTTP(w, r)
		case errors.Is(err, domain.ErrRoleUnknown):
			s.logger.Warn("admin check unavailable", "path", r.URL.Path, "error", err)
			errorJSON(w, http.StatusServiceUnavailable, "role check unavailable")
		default:
			errorJSON(w, statusFor(err), "forbidden")
		}
	})
}
