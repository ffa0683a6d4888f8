package tui

import (
	"github.com/GerlachSG/Cruciflix/internal/domain"
	"github.com/GerlachSG/Cruciflix/internal/playback"
	"github.com/GerlachSG/Cruciflix/internal/watchlist"
)

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}

// LoggedInMsg signals a successful sign-in
type LoggedInMsg struct {
	Token string
	User  *domain.User
}

// ProfilesLoadedMsg carries the account's profiles
type ProfilesLoadedMsg struct {
	Profiles []*domain.Profile
}

// ContentLoadedMsg carries the browse list for the current filters
type ContentLoadedMsg struct {
	Content []domain.Content
}

// TagsLoadedMsg carries the tag sidebar entries
type TagsLoadedMsg struct {
	Tags []*domain.Tag
}

// CatalogChangedMsg is sent when a background revalidation published new data
type CatalogChangedMsg struct {
	Kind domain.EntityType
}

// SearchDueMsg is sent once the search debounce elapsed
type SearchDueMsg struct {
	Query string
}

// ContinueWatchingMsg carries the continue-watching row
type ContinueWatchingMsg struct {
	Items []domain.ContinueWatchingItem
}

// WatchlistLoadedMsg carries the profile's saved titles
type WatchlistLoadedMsg struct {
	Items []watchlist.Item
}

// WatchlistToggledMsg reports the new watchlist membership of a title
type WatchlistToggledMsg struct {
	ContentID string
	Added     bool
}

// EpisodesLoadedMsg carries a series' episodes
type EpisodesLoadedMsg struct {
	SeriesID string
	Episodes []*domain.Episode
}

// PlayerOpenedMsg carries a freshly launched player
type PlayerOpenedMsg struct {
	Player Player
}

// PlaybackStateMsg reports a playback session state change
type PlaybackStateMsg struct {
	State playback.State
	Err   error
}

// PlayerTickMsg refreshes the position display
type PlayerTickMsg struct{}

// PlayerClosedMsg signals the player window was torn down
type PlayerClosedMsg struct{}
