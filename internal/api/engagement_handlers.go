package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GerlachSG/Cruciflix/internal/domain"
)

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.svc.Comments.ForVideo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"content"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, http.StatusCreated, s.svc.Comments.Add(r.Context(), chi.URLParam(r, "id"), req.Text))
}

type watchlistItem struct {
	domain.WatchlistEntry
	Content contentItem `json:"content"`
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Watchlist.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]watchlistItem, 0, len(items))
	for _, it := range items {
		out = append(out, watchlistItem{
			WatchlistEntry: it.Entry,
			Content:        contentItem{Type: it.Content.GetContentType(), Data: it.Content},
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleWatchlistContains(w http.ResponseWriter, r *http.Request) {
	ok, err := s.svc.Watchlist.Contains(r.Context(), chi.URLParam(r, "contentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"inWatchlist": ok})
}

func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContentType domain.ContentType `json:"contentType"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, http.StatusOK, s.svc.Watchlist.Add(r.Context(), chi.URLParam(r, "contentID"), req.ContentType))
}

func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, s.svc.Watchlist.Remove(r.Context(), chi.URLParam(r, "contentID")))
}

type progressRequest struct {
	ContentID   string             `json:"contentId"`
	EpisodeID   string             `json:"episodeId"`
	ContentType domain.ContentType `json:"contentType"`
	WatchTime   float64            `json:"watchTime"`
	Duration    float64            `json:"duration"`
}

func progressKey(r *http.Request, contentID, episodeID string) domain.ProgressKey {
	actor, _ := domain.ActorFromContext(r.Context())
	return domain.ProgressKey{
		UserID:    actor.UserID,
		ProfileID: actor.ProfileID,
		ContentID: contentID,
		EpisodeID: episodeID,
	}
}

func (s *Server) handleSaveProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ContentID == "" {
		errorJSON(w, http.StatusBadRequest, "contentId is required")
		return
	}
	key := progressKey(r, req.ContentID, req.EpisodeID)
	if err := s.svc.Progress.Save(r.Context(), key, req.ContentType, req.WatchTime, req.Duration); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	key := progressKey(r, chi.URLParam(r, "contentID"), r.URL.Query().Get("episode"))
	record, err := s.svc.Progress.Get(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	if record == nil {
		errorJSON(w, http.StatusNotFound, "no progress")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

type continueWatchingItem struct {
	Progress domain.ProgressRecord `json:"progress"`
	Content  contentItem           `json:"content"`
}

func (s *Server) handleContinueWatching(w http.ResponseWriter, r *http.Request) {
	actor, _ := domain.ActorFromContext(r.Context())
	items, err := s.svc.Progress.ContinueWatching(r.Context(), actor.UserID, actor.ProfileID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]continueWatchingItem, 0, len(items))
	for _, it := range items {
		out = append(out, continueWatchingItem{
			Progress: it.Progress,
			Content:  contentItem{Type: it.Content.GetContentType(), Data: it.Content},
		})
	}
	writeJSON(w, http.StatusOK, out)
}
