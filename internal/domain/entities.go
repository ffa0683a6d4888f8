package domain

import (
	"fmt"
	"strings"
)

// EntityType identifies a cached catalog collection
type EntityType string

const (
	EntityMovies EntityType = "movies"
	EntitySeries EntityType = "series"
	EntityTags   EntityType = "tags"
)

// ContentType distinguishes playable catalog content
type ContentType string

const (
	ContentMovie  ContentType = "movie"
	ContentSeries ContentType = "series"
)

// Subscription levels gating content
const (
	LevelFree    = "FREE"
	LevelBasic   = "BASIC"
	LevelPremium = "PREMIUM"
)

// Default values applied when creating content
const (
	DefaultRating   = "L"
	DefaultTagColor = "#00a79e"
	DefaultCategory = "general"
)

// Movie is a standalone playable title
type Movie struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Tags              []string `json:"tags"`
	HLSURL            string   `json:"hlsUrl"`
	VideoURL          string   `json:"videoUrl"`
	TrailerURL        string   `json:"trailerUrl"`
	ThumbnailURL      string   `json:"thumbnailUrl"`
	BannerURL         string   `json:"bannerUrl"`
	Duration          int      `json:"duration"` // Seconds
	DurationMinutes   int      `json:"durationMinutes"`
	Year              int      `json:"year"`
	Rating            string   `json:"rating"` // Age rating, "L" = all ages
	SubscriptionLevel string   `json:"subscriptionLevel"`
	UploadedBy        string   `json:"uploadedBy"`
	CreatedAt         int64    `json:"createdAt"` // Unix millis
	UpdatedAt         int64    `json:"updatedAt,omitempty"`
	ViewCount         int64    `json:"viewCount"`
	IsKidsSafe        bool     `json:"isKidsSafe"`
	IsFeatured        bool     `json:"isFeatured"`
	HLSPending        bool     `json:"hlsPending"` // Placeholder playlists only
}

// Validate checks required fields
func (m Movie) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("%w: movie title is required", ErrValidation)
	}
	return nil
}

func (m *Movie) GetID() string               { return m.ID }
func (m *Movie) Freshness() int64            { return freshness(m.UpdatedAt, m.CreatedAt) }
func (m *Movie) GetTitle() string            { return m.Title }
func (m *Movie) GetDescription() string      { return m.Description }
func (m *Movie) GetTags() []string           { return m.Tags }
func (m *Movie) GetCreatedAt() int64         { return m.CreatedAt }
func (m *Movie) GetContentType() ContentType { return ContentMovie }
func (m *Movie) Featured() bool              { return m.IsFeatured }
func (m *Movie) KidsSafe() bool              { return m.IsKidsSafe }

// StreamURL returns the preferred playback URL
func (m *Movie) StreamURL() string {
	if m.HLSURL != "" {
		return m.HLSURL
	}
	return m.VideoURL
}

// Series is a container of episodes
type Series struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Tags              []string `json:"tags"`
	ThumbnailURL      string   `json:"thumbnailUrl"`
	BannerURL         string   `json:"bannerUrl"`
	TrailerURL        string   `json:"trailerUrl"`
	Year              int      `json:"year"`
	Rating            string   `json:"rating"`
	TotalSeasons      int      `json:"totalSeasons"`
	EpisodeCount      int      `json:"episodeCount"`
	SubscriptionLevel string   `json:"subscriptionLevel,omitempty"`
	UploadedBy        string   `json:"uploadedBy"`
	CreatedAt         int64    `json:"createdAt"`
	UpdatedAt         int64    `json:"updatedAt,omitempty"`
	ViewCount         int64    `json:"viewCount"`
	IsKidsSafe        bool     `json:"isKidsSafe"`
	IsFeatured        bool     `json:"isFeatured"`
}

// Validate checks required fields
func (s Series) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: series title is required", ErrValidation)
	}
	return nil
}

func (s *Series) GetID() string               { return s.ID }
func (s *Series) Freshness() int64            { return freshness(s.UpdatedAt, s.CreatedAt) }
func (s *Series) GetTitle() string            { return s.Title }
func (s *Series) GetDescription() string      { return s.Description }
func (s *Series) GetTags() []string           { return s.Tags }
func (s *Series) GetCreatedAt() int64         { return s.CreatedAt }
func (s *Series) GetContentType() ContentType { return ContentSeries }
func (s *Series) Featured() bool              { return s.IsFeatured }
func (s *Series) KidsSafe() bool              { return s.IsKidsSafe }

// Episode belongs to exactly one series
type Episode struct {
	ID                string `json:"id"`
	SeriesID          string `json:"seriesId"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Season            int    `json:"season"`
	EpisodeNumber     int    `json:"episodeNumber"`
	VideoURL          string `json:"videoUrl"`
	HLSURL            string `json:"hlsUrl"`
	ThumbnailURL      string `json:"thumbnailUrl"`
	Duration          int    `json:"duration"`
	DurationMinutes   int    `json:"durationMinutes"`
	SubscriptionLevel string `json:"subscriptionLevel"`
	CreatedAt         int64  `json:"createdAt"`
	UpdatedAt         int64  `json:"updatedAt,omitempty"`
	HLSPending        bool   `json:"hlsPending"`
}

// Validate checks required fields
func (e Episode) Validate() error {
	if strings.TrimSpace(e.SeriesID) == "" {
		return fmt.Errorf("%w: episode series id is required", ErrValidation)
	}
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: episode title is required", ErrValidation)
	}
	return nil
}

func (e *Episode) GetID() string    { return e.ID }
func (e *Episode) Freshness() int64 { return freshness(e.UpdatedAt, e.CreatedAt) }

// EpisodeCode returns the formatted episode code (e.g., "S01E05")
func (e *Episode) EpisodeCode() string {
	return fmt.Sprintf("S%02dE%02d", e.Season, e.EpisodeNumber)
}

// StreamURL returns the preferred playback URL
func (e *Episode) StreamURL() string {
	if e.HLSURL != "" {
		return e.HLSURL
	}
	return e.VideoURL
}

// Tag is a catalog label; names are unique
type Tag struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Category  string `json:"category"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
}

// Validate checks required fields
func (t Tag) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: tag name is required", ErrValidation)
	}
	return nil
}

func (t *Tag) GetID() string    { return t.ID }
func (t *Tag) Freshness() int64 { return freshness(t.UpdatedAt, t.CreatedAt) }

func freshness(updatedAt, createdAt int64) int64 {
	if updatedAt != 0 {
		return updatedAt
	}
	return createdAt
}

// Fields is a partial document update
type Fields map[string]any
