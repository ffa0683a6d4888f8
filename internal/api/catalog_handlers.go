package api

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// forceRefresh reports whether the caller asked to bypass the cache
func forceRefresh(r *http.Request) bool {
	force, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	return force
}

func (s *Server) handleMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := s.svc.Catalog.Movies(r.Context(), forceRefresh(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

func (s *Server) handleMovie(w http.ResponseWriter, r *http.Request) {
	movie, err := s.svc.Catalog.MovieByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (s *Server) handleSeriesList(w http.ResponseWriter, r *http.Request) {
	series, err := s.svc.Catalog.Series(r.Context(), forceRefresh(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	series, err := s.svc.Catalog.SeriesByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	seriesID := chi.URLParam(r, "id")

	var (
		episodes []*domain.Episode
		err      error
	)
	if raw := r.URL.Query().Get("season"); raw != "" {
		season, convErr := strconv.Atoi(raw)
		if convErr != nil {
			errorJSON(w, http.StatusBadRequest, "invalid season")
			return
		}
		episodes, err = s.svc.Catalog.EpisodesBySeason(r.Context(), seriesID, season)
	} else {
		episodes, err = s.svc.Catalog.Episodes(r.Context(), seriesID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, episodes)
}

func (s *Server) handleEpisode(w http.ResponseWriter, r *http.Request) {
	episode, err := s.svc.Catalog.EpisodeByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, episode)
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.svc.Catalog.Tags(r.Context(), forceRefresh(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// handleContent lists content filtered by ?tags=a,b (any of) and ranked by ?q=
func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	var tags []string
	if raw := r.URL.Query().Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		content, err := s.svc.Catalog.ContentByTags(r.Context(), tags)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, contentItems(content))
		return
	}

	content, err := s.svc.Catalog.SearchContent(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(tags) > 0 {
		content = slices.DeleteFunc(content, func(c domain.Content) bool {
			return !slices.ContainsFunc(c.GetTags(), func(t string) bool { return slices.Contains(tags, t) })
		})
	}
	writeJSON(w, http.StatusOK, contentItems(content))
}

func (s *Server) handleFeatured(w http.ResponseWriter, r *http.Request) {
	content, err := s.svc.Catalog.FeaturedContent(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contentItems(content))
}

func (s *Server) handleKids(w http.ResponseWriter, r *http.Request) {
	content, err := s.svc.Catalog.KidsContent(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contentItems(content))
}

func (s *Server) handleContentByID(w http.ResponseWriter, r *http.Request) {
	contentType := domain.ContentType(r.URL.Query().Get("type"))
	content, err := s.svc.Catalog.ContentByID(r.Context(), chi.URLParam(r, "id"), contentType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contentItem{Type: content.GetContentType(), Data: content})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	contentType := domain.ContentType(r.URL.Query().Get("type"))
	if contentType != domain.ContentMovie && contentType != domain.ContentSeries {
		errorJSON(w, http.StatusBadRequest, "type must be movie or series")
		return
	}
	if err := s.svc.Catalog.IncrementViewCount(r.Context(), contentType, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	var m domain.Movie
	if !decodeBody(w, r, &m) {
		return
	}
	writeResult(w, http.StatusCreated, s.svc.Catalog.CreateMovie(r.Context(), m))
}

func (s *Server) handleUpdateMovie(w http.ResponseWriter, r *http.Request) {
	var fields domain.Fields
	if !decodeBody(w, r, &fields) {
		return
	}
	writeResult(w, http.StatusOK, s.svc.Catalog.UpdateMovie(r.Context(), chi.URLParam(r, "id"), fields))
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, s.svc.Catalog.DeleteMovie(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleCreateSeries(w http.ResponseWriter, r *http.Request) {
	var sr domain.Series
	if !decodeBody(w, r, &sr) {
		return
	}
	writeResult(w, http.StatusCreated, s.svc.Catalog.CreateSeries(r.Context(), sr))
}

func (s *Server) handleUpdateSeries(w http.ResponseWriter, r *http.Request) {
	var fields domain.Fields
	if !decodeBody(w, r, &fields) {
		return
	}
	writeResult(w, http.StatusOK, s.svc.Catalog.UpdateSeries(r.Context(), chi.URLParam(r, "id"), fields))
}

func (s *Server) handleDeleteSeries(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, s.svc.Catalog.DeleteSeries(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleCreateEpisode(w http.ResponseWriter, r *http.Request) {
	var e domain.Episode
	if !decodeBody(w, r, &e) {
		return
	}
	writeResult(w, http.StatusCreated, s.svc.Catalog.CreateEpisode(r.Context(), e))
}

func (s *Server) handleUpdateEpisode(w http.ResponseWriter, r *http.Request) {
	var fields domain.Fields
	if !decodeBody(w, r, &fields) {
		return
	}
	writeResult(w, http.StatusOK, s.svc.Catalog.UpdateEpisode(r.Context(), chi.URLParam(r, "id"), fields))
}

func (s *Server) handleDeleteEpisode(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, s.svc.Catalog.DeleteEpisode(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var t domain.Tag
	if !decodeBody(w, r, &t) {
		return
	}
	writeResult(w, http.StatusCreated, s.svc.Catalog.CreateTag(r.Context(), t))
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	var fields domain.Fields
	if !decodeBody(w, r, &fields) {
		return
	}
	writeResult(w, http.StatusOK, s.svc.Catalog.UpdateTag(r.Context(), chi.URLParam(r, "id"), fields))
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, s.svc.Catalog.DeleteTag(r.Context(), chi.URLParam(r, "id")))
}
