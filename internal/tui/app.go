package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/GerlachSG/Cruciflix/internal/account"
	"github.com/GerlachSG/Cruciflix/internal/catalog"
	"github.com/GerlachSG/Cruciflix/internal/domain"
	"github.com/GerlachSG/Cruciflix/internal/filter"
	"github.com/GerlachSG/Cruciflix/internal/playback"
	"github.com/GerlachSG/Cruciflix/internal/progress"
	"github.com/GerlachSG/Cruciflix/internal/tui/components"
	"github.com/GerlachSG/Cruciflix/internal/tui/styles"
	"github.com/GerlachSG/Cruciflix/internal/watchlist"
)

// ApplicationState represents the current screen
type ApplicationState int

const (
	StateLogin ApplicationState = iota
	StateProfiles
	StateBrowsing
	StateDetail
	StatePlayer
	StateHelp
)

// BrowseMode selects what the main list shows
type BrowseMode int

const (
	ModeCatalog BrowseMode = iota
	ModeContinue
	ModeWatchlist
)

// Pane identifies the focused browse pane
type Pane int

const (
	PaneContent Pane = iota
	PaneTags
)

// Layout
const (
	SidebarWidth = 26
	ChromeHeight = 3
	statusDelay  = 4 * time.Second
)

// Player is a playback element the TUI can shut down
type Player interface {
	playback.Element
	Close() error
}

// OpenPlayerFunc launches a player window
type OpenPlayerFunc func(ctx context.Context) (Player, error)

// Services are the application services the TUI drives
type Services struct {
	Accounts   *account.Service
	Session    *account.Session
	Catalog    *catalog.Service
	Progress   *progress.Service
	Watchlist  *watchlist.Service
	OpenPlayer OpenPlayerFunc

	// RememberEmail persists the last signed-in email; optional
	RememberEmail func(email string) error
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State     ApplicationState
	prevState ApplicationState
	Ready     bool

	svc        Services
	logger     *slog.Logger
	keys       KeyMap
	playerKeys PlayerKeyMap
	help       help.Model

	// Login and profile selection
	login         components.LoginForm
	profiles      []*domain.Profile
	profileCursor int
	pin           components.InputModal
	pendingPIN    *domain.Profile

	// Browsing
	filter   *filter.Controller
	searchCh chan string
	observer *CatalogObserver
	tags     components.TagSidebar
	search   components.InputModal
	focus    Pane
	mode     BrowseMode
	content  []domain.Content
	cursor   int
	resume   []domain.ContinueWatchingItem
	saved    []watchlist.Item

	// Detail
	selected      domain.Content
	episodes      []*domain.Episode
	episodeCursor int

	// Player
	player     Player
	playback   *playback.Session
	events     *playbackEvents
	nowPlaying playRequest
	playState  playback.State
	playErr    error

	// Dimensions
	Width  int
	Height int

	// initial runs from Init; set when signed in before the program starts
	initial tea.Cmd

	// Status line
	StatusMsg   string
	StatusIsErr bool
	Loading     bool
}

// NewModel creates the application model. lastEmail pre-fills the login form.
func NewModel(svc Services, lastEmail string, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	if svc.Session == nil {
		svc.Session = account.NewSession()
	}
	h := help.New()
	h.Styles.ShortKey = styles.HelpKeyStyle
	h.Styles.ShortDesc = styles.HelpDescStyle
	h.Styles.FullKey = styles.HelpKeyStyle
	h.Styles.FullDesc = styles.HelpDescStyle

	return Model{
		State:      StateLogin,
		svc:        svc,
		logger:     logger,
		keys:       DefaultKeyMap(),
		playerKeys: DefaultPlayerKeyMap(),
		help:       h,
		login:      components.NewLoginForm(lastEmail),
		pin:        components.NewInputModal(),
		filter:     filter.NewController(svc.Catalog, logger),
		searchCh:   make(chan string, 1),
		tags:       components.NewTagSidebar(),
		search:     components.NewInputModal(),
	}
}

// SignedIn skips the login screen for a session established before the
// program starts
func (m *Model) SignedIn(token string, user *domain.User) {
	m.initial = func() tea.Msg {
		return LoggedInMsg{Token: token, User: user}
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return m.initial
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case ErrMsg:
		m.Loading = false
		m.logger.Error("tui operation failed", "context", msg.Context, "error", msg.Err)
		if m.State == StateLogin {
			m.login.SetError(msg.Err.Error())
			return m, nil
		}
		if m.State == StatePlayer {
			m.playErr = msg.Err
		}
		return m.setStatus(msg.Error(), true)

	case StatusMsg:
		return m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil

	case LoggedInMsg:
		m.svc.Session.SignIn(msg.Token, msg.User)
		m.login.SetBusy(false)
		m.State = StateProfiles
		if m.svc.RememberEmail != nil {
			if err := m.svc.RememberEmail(msg.User.Email); err != nil {
				m.logger.Warn("failed to remember email", "error", err)
			}
		}
		return m, LoadProfilesCmd(m.svc.Accounts, m.svc.Session)

	case ProfilesLoadedMsg:
		m.profiles = msg.Profiles
		m.profileCursor = 0
		return m, nil

	case ContentLoadedMsg:
		m.Loading = false
		m.content = m.visible(msg.Content)
		m.cursor = clampCursor(m.cursor, len(m.content))
		return m, nil

	case TagsLoadedMsg:
		m.tags.SetTags(msg.Tags)
		m.tags.SetSelected(m.filter.SelectedTags())
		return m, nil

	case CatalogChangedMsg:
		// Revalidation published fresh data
		cmds := []tea.Cmd{m.observer.Wait()}
		if msg.Kind == domain.EntityTags {
			cmds = append(cmds, LoadTagsCmd(m.svc.Catalog, false))
		} else {
			cmds = append(cmds, LoadContentCmd(m.filter))
		}
		return m, tea.Batch(cmds...)

	case SearchDueMsg:
		m.Loading = true
		return m, tea.Batch(LoadContentCmd(m.filter), WaitForSearchCmd(m.searchCh))

	case ContinueWatchingMsg:
		m.resume = msg.Items
		return m, nil

	case WatchlistLoadedMsg:
		m.saved = msg.Items
		return m, nil

	case WatchlistToggledMsg:
		text := "Removido da minha lista"
		if msg.Added {
			text = "Adicionado à minha lista"
		}
		next, cmd := m.setStatus(text, false)
		return next, tea.Batch(cmd, LoadWatchlistCmd(m.svc.Watchlist, m.svc.Session))

	case EpisodesLoadedMsg:
		if m.selected != nil && m.selected.GetID() == msg.SeriesID {
			m.episodes = msg.Episodes
			m.episodeCursor = 0
		}
		return m, nil

	case PlayerOpenedMsg, PlaybackStateMsg, PlayerTickMsg, PlayerClosedMsg:
		return m.updatePlayer(msg)
	}

	return m, nil
}

func (m Model) setStatus(text string, isErr bool) (Model, tea.Cmd) {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return m, ClearStatusCmd(statusDelay)
}

func (m *Model) updateLayout() {
	m.help.Width = m.Width
	m.tags.SetSize(SidebarWidth, max(m.Height-ChromeHeight, 4))
}

// enterBrowsing starts the observer and initial loads for the selected profile
func (m Model) enterBrowsing(p *domain.Profile) (Model, tea.Cmd) {
	m.svc.Session.SelectProfile(p)
	m.State = StateBrowsing
	m.mode = ModeCatalog
	m.focus = PaneContent
	m.tags.SetFocused(false)
	m.filter.Reset()
	m.Loading = true

	cmds := []tea.Cmd{
		LoadContentCmd(m.filter),
		LoadTagsCmd(m.svc.Catalog, false),
		LoadContinueWatchingCmd(m.svc.Progress, m.svc.Session),
		LoadWatchlistCmd(m.svc.Watchlist, m.svc.Session),
	}
	if m.observer == nil {
		m.observer = NewCatalogObserver(m.svc.Catalog)
		cmds = append(cmds, m.observer.Wait(), WaitForSearchCmd(m.searchCh))
	}
	return m, tea.Batch(cmds...)
}

// logout returns to the login screen
func (m Model) logout() (Model, tea.Cmd) {
	email := ""
	if u := m.svc.Session.User(); u != nil {
		email = u.Email
	}
	m.svc.Accounts.Logout(m.svc.Session)
	m.State = StateLogin
	m.login = components.NewLoginForm(email)
	m.profiles = nil
	m.content = nil
	m.resume = nil
	m.saved = nil
	m.selected = nil
	m.filter.Reset()
	return m, nil
}

// visible hides content a kids profile may not see
func (m Model) visible(content []domain.Content) []domain.Content {
	p := m.svc.Session.Profile()
	if p == nil || !p.IsKids {
		return content
	}
	out := make([]domain.Content, 0, len(content))
	for _, c := range content {
		if c.KidsSafe() {
			out = append(out, c)
		}
	}
	return out
}

// listed returns the titles of the current browse mode
func (m Model) listed() []domain.Content {
	switch m.mode {
	case ModeContinue:
		out := make([]domain.Content, 0, len(m.resume))
		for _, it := range m.resume {
			out = append(out, it.Content)
		}
		return m.visible(out)
	case ModeWatchlist:
		out := make([]domain.Content, 0, len(m.saved))
		for _, it := range m.saved {
			out = append(out, it.Content)
		}
		return m.visible(out)
	default:
		return m.content
	}
}

func (m Model) inWatchlist(id string) bool {
	for _, it := range m.saved {
		if it.Entry.ContentID == id {
			return true
		}
	}
	return false
}

// Close releases the observer and any running player
func (m Model) Close() {
	if m.observer != nil {
		m.observer.Close()
	}
	if m.playback != nil {
		m.playback.Stop()
	}
	if m.player != nil {
		_ = m.player.Close()
	}
}

func clampCursor(cursor, n int) int {
	if n == 0 {
		return 0
	}
	return max(0, min(cursor, n-1))
}

// pageSize is how many rows PgUp/PgDn move
func (m Model) pageSize() int {
	return max(m.Height-ChromeHeight-2, 1)
}

// moveCursor applies navigation bindings to cursor over n rows
func (m Model) moveCursor(msg tea.KeyMsg, cursor, n int) int {
	switch {
	case key.Matches(msg, m.keys.Up):
		cursor--
	case key.Matches(msg, m.keys.Down):
		cursor++
	case key.Matches(msg, m.keys.Home):
		cursor = 0
	case key.Matches(msg, m.keys.End):
		cursor = n - 1
	case key.Matches(msg, m.keys.PageUp):
		cursor -= m.pageSize()
	case key.Matches(msg, m.keys.PageDown):
		cursor += m.pageSize()
	}
	return clampCursor(cursor, n)
}
