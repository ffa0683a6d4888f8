package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// handleKeyMsg routes key presses to the active screen
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.Close()
		return m, tea.Quit
	}

	switch m.State {
	case StateLogin:
		return m.handleLoginKey(msg)
	case StateProfiles:
		return m.handleProfilesKey(msg)
	case StateBrowsing:
		return m.handleBrowseKey(msg)
	case StateDetail:
		return m.handleDetailKey(msg)
	case StatePlayer:
		return m.handlePlayerKey(msg)
	case StateHelp:
		m.State = m.prevState
		return m, nil
	}
	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		return m, tea.Quit
	}
	var (
		cmd       tea.Cmd
		submitted bool
	)
	m.login, cmd, submitted = m.login.Update(msg)
	if !submitted {
		return m, cmd
	}
	email, password := m.login.Credentials()
	if email == "" || password == "" {
		m.login.SetError("Informe email e senha")
		return m, nil
	}
	m.login.SetBusy(true)
	return m, LoginCmd(m.svc.Accounts, email, password)
}

func (m Model) handleProfilesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pin.IsVisible() {
		var (
			cmd       tea.Cmd
			submitted bool
		)
		m.pin, cmd, submitted = m.pin.Update(msg)
		if !submitted {
			return m, cmd
		}
		p := m.pendingPIN
		ctx := m.svc.Session.Context(context.Background())
		if p == nil || !m.svc.Accounts.VerifyKidsPIN(ctx, p.ID, m.pin.Value()) {
			m.pin.SetValue("")
			return m.setStatus("PIN incorreto", true)
		}
		m.pin.Hide()
		m.pendingPIN = nil
		return m.enterBrowsing(p)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Logout):
		return m.logout()
	case key.Matches(msg, m.keys.Enter):
		if len(m.profiles) == 0 {
			return m, nil
		}
		p := m.profiles[m.profileCursor]
		if p.IsKids && p.PIN != "" {
			m.pendingPIN = p
			m.pin.Show("PIN do perfil "+p.Name, "****", true)
			return m, nil
		}
		return m.enterBrowsing(p)
	default:
		m.profileCursor = m.moveCursor(msg, m.profileCursor, len(m.profiles))
	}
	return m, nil
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.search.IsVisible() {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.prevState = m.State
		m.State = StateHelp
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		if m.focus == PaneContent {
			m.focus = PaneTags
		} else {
			m.focus = PaneContent
		}
		m.tags.SetFocused(m.focus == PaneTags)
		return m, nil
	case key.Matches(msg, m.keys.Search):
		m.mode = ModeCatalog
		m.search.Show("Buscar:", "título ou descrição", false)
		m.search.SetValue(m.filter.Query())
		return m, nil
	case key.Matches(msg, m.keys.ClearFilters):
		m.filter.Reset()
		m.tags.SetSelected(nil)
		m.Loading = true
		return m, LoadContentCmd(m.filter)
	case key.Matches(msg, m.keys.Refresh):
		m.Loading = true
		return m, tea.Batch(
			RefreshCatalogCmd(m.svc.Catalog, m.filter),
			LoadTagsCmd(m.svc.Catalog, true),
			LoadContinueWatchingCmd(m.svc.Progress, m.svc.Session),
		)
	case key.Matches(msg, m.keys.ShowAll):
		m.mode, m.cursor = ModeCatalog, 0
		return m, nil
	case key.Matches(msg, m.keys.ShowContinue):
		m.mode, m.cursor = ModeContinue, 0
		return m, LoadContinueWatchingCmd(m.svc.Progress, m.svc.Session)
	case key.Matches(msg, m.keys.ShowWatchlist):
		m.mode, m.cursor = ModeWatchlist, 0
		return m, LoadWatchlistCmd(m.svc.Watchlist, m.svc.Session)
	case key.Matches(msg, m.keys.SwitchProfile):
		m.svc.Session.ClearProfile()
		m.State = StateProfiles
		return m, LoadProfilesCmd(m.svc.Accounts, m.svc.Session)
	case key.Matches(msg, m.keys.Logout):
		return m.logout()
	}

	if m.focus == PaneTags {
		if key.Matches(msg, m.keys.ToggleTag, m.keys.Enter) {
			tag := m.tags.SelectedTag()
			if tag == nil {
				return m, nil
			}
			m.filter.ToggleTag(tag.Name)
			m.tags.SetSelected(m.filter.SelectedTags())
			m.mode = ModeCatalog
			m.Loading = true
			return m, LoadContentCmd(m.filter)
		}
		var cmd tea.Cmd
		m.tags, cmd = m.tags.Update(msg)
		return m, cmd
	}

	items := m.listed()
	switch {
	case key.Matches(msg, m.keys.Enter):
		if len(items) == 0 {
			return m, nil
		}
		return m.openDetail(items[m.cursor])
	case key.Matches(msg, m.keys.Watchlist):
		if len(items) == 0 {
			return m, nil
		}
		return m, ToggleWatchlistCmd(m.svc.Watchlist, m.svc.Session, items[m.cursor])
	default:
		m.cursor = m.moveCursor(msg, m.cursor, len(items))
	}
	return m, nil
}

// handleSearchKey feeds the query to the debounced filter on every edit
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	before := m.search.Value()
	search, cmd, submitted := m.search.Update(msg)
	m.search = search
	switch {
	case submitted:
		m.search.Hide()
		return m, cmd
	case !m.search.IsVisible():
		// esc clears the query
		m.search.SetValue("")
	}
	if m.search.Value() != before {
		m.debounceSearch(strings.TrimSpace(m.search.Value()))
	}
	return m, cmd
}

// debounceSearch schedules a search; the result arrives as SearchDueMsg
func (m Model) debounceSearch(query string) {
	ch := m.searchCh
	m.filter.Search(query, func(q string) {
		select {
		case ch <- q:
		default:
		}
	})
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.State = StateBrowsing
		m.selected = nil
		m.episodes = nil
		return m, nil
	case key.Matches(msg, m.keys.Watchlist):
		return m, ToggleWatchlistCmd(m.svc.Watchlist, m.svc.Session, m.selected)
	case key.Matches(msg, m.keys.Enter):
		return m.playSelected()
	default:
		m.episodeCursor = m.moveCursor(msg, m.episodeCursor, len(m.episodes))
	}
	return m, nil
}

func (m Model) openDetail(c domain.Content) (tea.Model, tea.Cmd) {
	m.State = StateDetail
	m.selected = c
	m.episodes = nil
	m.episodeCursor = 0
	if c.GetContentType() == domain.ContentSeries {
		return m, LoadEpisodesCmd(m.svc.Catalog, c.GetID())
	}
	return m, nil
}

// playSelected starts the movie or the highlighted episode
func (m Model) playSelected() (tea.Model, tea.Cmd) {
	user, profile := m.svc.Session.User(), m.svc.Session.Profile()
	if user == nil || profile == nil {
		return m.setStatus(domain.ErrNoProfile.Error(), true)
	}
	pk := domain.ProgressKey{UserID: user.ID, ProfileID: profile.ID, ContentID: m.selected.GetID()}

	var req playRequest
	switch c := m.selected.(type) {
	case *domain.Movie:
		req = playRequest{Title: c.Title, URL: c.StreamURL(), Key: pk, ContentType: domain.ContentMovie}
	case *domain.Series:
		if len(m.episodes) == 0 {
			return m.setStatus("Nenhum episódio disponível", true)
		}
		ep := m.episodes[m.episodeCursor]
		pk.EpisodeID = ep.ID
		req = playRequest{
			Title:       c.Title + " " + ep.EpisodeCode() + " " + ep.Title,
			URL:         ep.StreamURL(),
			Key:         pk,
			ContentType: domain.ContentSeries,
		}
	}
	if req.URL == "" {
		return m.setStatus("Vídeo indisponível", true)
	}
	if m.svc.OpenPlayer == nil {
		return m.setStatus(errPlayerUnavailable.Error(), true)
	}
	return m.startPlayer(req)
}

var errPlayerUnavailable = errors.New("no player configured")
