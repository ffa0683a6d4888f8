package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/GerlachSG/Cruciflix/internal/account"
	"github.com/GerlachSG/Cruciflix/internal/catalog"
	"github.com/GerlachSG/Cruciflix/internal/domain"
	"github.com/GerlachSG/Cruciflix/internal/filter"
	"github.com/GerlachSG/Cruciflix/internal/playback"
	"github.com/GerlachSG/Cruciflix/internal/progress"
	"github.com/GerlachSG/Cruciflix/internal/watchlist"
)

// Command factories for async operations

const defaultTimeout = 30 * time.Second

// LoginCmd signs in with email and password
func LoginCmd(svc *account.Service, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()

		token, user, err := svc.Login(ctx, email, password)
		if err != nil {
			return ErrMsg{Err: err, Context: "login"}
		}
		return LoggedInMsg{Token: token, User: user}
	}
}

// LoadProfilesCmd lists the signed-in account's profiles
func LoadProfilesCmd(svc *account.Service, session *account.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()

		profiles, err := svc.Profiles(session.Context(ctx))
		if err != nil {
			return ErrMsg{Err: err, Context: "loading profiles"}
		}
		return ProfilesLoadedMsg{Profiles: profiles}
	}
}

// LoadContentCmd applies the filter controller's query and tags
func LoadContentCmd(ctl *filter.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()

		content, err := ctl.Results(ctx)
		if err != nil && len(content) == 0 {
			return ErrMsg{Err: err, Context: "loading catalog"}
		}
		return ContentLoadedMsg{Content: content}
	}
}

// LoadTagsCmd loads the tag sidebar
func LoadTagsCmd(svc *catalog.Service, force bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()

		tags, err := svc.Tags(ctx, force)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading tags"}
		}
		return TagsLoadedMsg{Tags: tags}
	}
}

// RefreshCatalogCmd bypasses the cache for every collection, then reloads
// the browse list
func RefreshCatalogCmd(svc *catalog.Service, ctl *filter.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()

		_, moviesErr := svc.Movies(ctx, true)
		_, seriesErr := svc.Series(ctx, true)
		if err := errors.Join(moviesErr, seriesErr); err != nil {
			return ErrMsg{Err: err, Context: "refreshing catalog"}
		}
		return LoadContentCmd(ctl)()
	}
}

// LoadContinueWatchingCmd loads unfinished titles for the current profile
func LoadContinueWatchingCmd(svc *progress.Service, session *account.Session) tea.Cmd {
	return func() tea.Msg {
		user, profile := session.User(), session.Profile()
		if user == nil || profile == nil {
			return ContinueWatchingMsg{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()

		items, err := svc.ContinueWatching(ctx, user.ID, profile.ID)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading continue watching"}
		}
		return ContinueWatchingMsg{Items: items}
	}
}

// LoadWatchlistCmd loads the current profile's list
func LoadWatchlistCmd(svc *watchlist.Service, session *account.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()

		items, err := svc.List(session.Context(ctx))
		if err != nil {
			return ErrMsg{Err: err, Context: "loading my list"}
		}
		return WatchlistLoadedMsg{Items: items}
	}
}

// ToggleWatchlistCmd adds or removes a title from the current profile's list
func ToggleWatchlistCmd(svc *watchlist.Service, session *account.Session, c domain.Content) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		ctx = session.Context(ctx)

		present, err := svc.Contains(ctx, c.GetID())
		if err != nil {
			return ErrMsg{Err: err, Context: "updating my list"}
		}
		var res domain.Result
		if present {
			res = svc.Remove(ctx, c.GetID())
		} else {
			res = svc.Add(ctx, c.GetID(), c.GetContentType())
		}
		if !res.Success {
			return ErrMsg{Err: errors.New(res.Error), Context: "updating my list"}
		}
		return WatchlistToggledMsg{ContentID: c.GetID(), Added: !present}
	}
}

// LoadEpisodesCmd loads a series' episodes
func LoadEpisodesCmd(svc *catalog.Service, seriesID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()

		episodes, err := svc.Episodes(ctx, seriesID)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading episodes"}
		}
		return EpisodesLoadedMsg{SeriesID: seriesID, Episodes: episodes}
	}
}

// OpenPlayerCmd launches the player window
func OpenPlayerCmd(open OpenPlayerFunc) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()

		p, err := open(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "opening player"}
		}
		return PlayerOpenedMsg{Player: p}
	}
}

// playRequest is what the player screen needs to start a stream
type playRequest struct {
	Title       string
	URL         string
	Key         domain.ProgressKey
	ContentType domain.ContentType
}

// StartPlaybackCmd starts the session on the opened player
func StartPlaybackCmd(s *playback.Session, p Player, req playRequest) tea.Cmd {
	return func() tea.Msg {
		if err := s.Start(context.Background(), p, req.URL, req.Key, req.ContentType); err != nil {
			return ErrMsg{Err: err, Context: "starting playback"}
		}
		return nil
	}
}

// ClosePlayerCmd flushes progress and shuts the player down
func ClosePlayerCmd(s *playback.Session, p Player) tea.Cmd {
	return func() tea.Msg {
		if s != nil {
			s.Stop()
		}
		if p != nil {
			_ = p.Close()
		}
		return PlayerClosedMsg{}
	}
}

// WaitForSearchCmd waits for the debounced search to fire
func WaitForSearchCmd(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		return SearchDueMsg{Query: <-ch}
	}
}

// PlayerTickCmd schedules a position refresh
func PlayerTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return PlayerTickMsg{}
	})
}

// ClearStatusCmd clears the status message after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
