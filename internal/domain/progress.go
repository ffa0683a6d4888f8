package domain

import "strings"

// DefaultProfileID is used when no profile is selected
const DefaultProfileID = "default"

// CompletionThreshold is the watched fraction above which a title is completed
const CompletionThreshold = 0.9

// ProgressKey identifies a progress or watchlist document
type ProgressKey struct {
	UserID    string
	ProfileID string
	ContentID string
	EpisodeID string // Empty for movies
}

// Profile returns the profile id, defaulting to "default"
func (k ProgressKey) Profile() string {
	if k.ProfileID == "" {
		return DefaultProfileID
	}
	return k.ProfileID
}

// DocID returns the document id: uid_pid_cid[_eid]
func (k ProgressKey) DocID() string {
	parts := []string{k.UserID, k.Profile(), k.ContentID}
	if k.EpisodeID != "" {
		parts = append(parts, k.EpisodeID)
	}
	return strings.Join(parts, "_")
}

// ProgressRecord tracks how far a profile watched a title
type ProgressRecord struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	ProfileID   string      `json:"profileId"`
	ContentID   string      `json:"contentId"`
	EpisodeID   string      `json:"episodeId,omitempty"`
	ContentType ContentType `json:"contentType"`
	WatchTime   float64     `json:"watchTime"` // Seconds
	Duration    float64     `json:"duration"`
	Completed   bool        `json:"completed"`
	LastWatched int64       `json:"lastWatched"` // Unix millis
}

// ShouldResume reports whether playback should seek to the saved position
func (r *ProgressRecord) ShouldResume() bool {
	return r != nil && r.WatchTime > 0 && !r.Completed
}

// IsCompleted derives completion from watched time and duration.
// Strictly greater than the threshold; unknown duration is never completed.
func IsCompleted(watchTime, duration float64) bool {
	if duration <= 0 {
		return false
	}
	return watchTime/duration > CompletionThreshold
}

// ContinueWatchingItem pairs a progress record with its resolved content
type ContinueWatchingItem struct {
	Progress ProgressRecord
	Content  Content
}
