package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/GerlachSG/Cruciflix/internal/domain"
	"github.com/GerlachSG/Cruciflix/internal/media"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps domain errors onto HTTP statuses
func writeError(w http.ResponseWriter, err error) {
	errorJSON(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrEmailTaken), errors.Is(err, domain.ErrTagExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRoleUnknown):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidPlan),
		errors.Is(err, domain.ErrProfileLimit),
		errors.Is(err, domain.ErrLastProfile),
		errors.Is(err, domain.ErrNoProfile),
		errors.Is(err, media.ErrUnsupportedMedia):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeResult reports a mutation outcome. Failed results carry only the
// message, so they are all reported as bad requests.
func writeResult(w http.ResponseWriter, okStatus int, res domain.Result) {
	if !res.Success {
		writeJSON(w, http.StatusBadRequest, res)
		return
	}
	writeJSON(w, okStatus, res)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid body")
		return false
	}
	return true
}

// contentItem tags polymorphic content with its type
type contentItem struct {
	Type domain.ContentType `json:"type"`
	Data domain.Content     `json:"data"`
}

func contentItems(content []domain.Content) []contentItem {
	out := make([]contentItem, 0, len(content))
	for _, c := range content {
		out = append(out, contentItem{Type: c.GetContentType(), Data: c})
	}
	return out
}
