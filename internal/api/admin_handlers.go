package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/GerlachSG/Cruciflix/internal/analytics"
	"github.com/GerlachSG/Cruciflix/internal/domain"
	"github.com/GerlachSG/Cruciflix/internal/media"
)

func (s *Server) handleAllComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.svc.Comments.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handleApproveComment(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, s.svc.Comments.Approve(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, s.svc.Comments.Delete(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.Accounts.Users(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleToggleRole(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, s.svc.Accounts.ToggleRole(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, s.svc.Accounts.DeleteUser(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	totals, err := s.svc.Analytics.Totals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totals":      totals,
		"totalVideos": analytics.TotalVideos(totals),
	})
}

// handleInvalidateCache drops the cached list named by ?type=, or every list
func (s *Server) handleInvalidateCache(w http.ResponseWriter, r *http.Request) {
	kind := domain.EntityType(r.URL.Query().Get("type"))
	switch kind {
	case "", domain.EntityMovies, domain.EntitySeries, domain.EntityTags:
	default:
		writeError(w, fmt.Errorf("%w: unknown cache type %q", domain.ErrValidation, kind))
		return
	}
	s.svc.Catalog.Invalidate(kind)
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadVideo accepts a multipart form with title, video, an optional
// thumbnail and optional comma separated resolutions.
func (s *Server) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	video, header, err := r.FormFile("video")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "video file is required")
		return
	}
	defer video.Close()

	req := media.UploadVideoRequest{
		Title:    r.FormValue("title"),
		Filename: header.Filename,
		Video:    video,
	}
	if raw := r.FormValue("resolutions"); raw != "" {
		req.Resolutions = strings.Split(raw, ",")
	}

	thumb, _, err := r.FormFile("thumbnail")
	switch {
	case err == nil:
		defer thumb.Close()
		req.Thumbnail = thumb
	case !errors.Is(err, http.ErrMissingFile):
		errorJSON(w, http.StatusBadRequest, "invalid thumbnail")
		return
	}

	assets, err := s.svc.Uploader.ProcessVideo(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"videoUrl":     assets.VideoURL,
		"hlsUrl":       assets.HLSURL,
		"thumbnailUrl": assets.ThumbnailURL,
		"hlsPending":   assets.HLSPending,
	})
}

// handleUploadImage accepts a multipart form with title, kind
// (thumbnail or banner) and image.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	kind := media.ImageKind(r.FormValue("kind"))
	if kind == "" {
		kind = media.ImageThumbnail
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	asset, err := s.svc.Uploader.UploadImage(r.Context(), kind, r.FormValue("title"), file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": asset.URL, "path": asset.Path})
}
