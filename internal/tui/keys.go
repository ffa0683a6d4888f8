package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the browsing key bindings
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	Enter    key.Binding
	Back     key.Binding
	Tab      key.Binding
	Home     key.Binding
	End      key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Actions
	Quit          key.Binding
	Help          key.Binding
	Search        key.Binding
	ToggleTag     key.Binding
	ClearFilters  key.Binding
	Refresh       key.Binding
	Watchlist     key.Binding
	ShowAll       key.Binding
	ShowContinue  key.Binding
	ShowWatchlist key.Binding
	SwitchProfile key.Binding
	Logout        key.Binding
}

// DefaultKeyMap returns the default browsing bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open/play"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Home: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn", "page down"),
		),

		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		ToggleTag: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space", "toggle tag"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "clear filters"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Watchlist: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "add/remove my list"),
		),
		ShowAll: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "catalog"),
		),
		ShowContinue: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "continue watching"),
		),
		ShowWatchlist: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "my list"),
		),
		SwitchProfile: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "switch profile"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "logout"),
		),
	}
}

// PlayerKeyMap defines the transport bindings of the player screen
type PlayerKeyMap struct {
	PlayPause  key.Binding
	Fullscreen key.Binding
	Mute       key.Binding
	Rewind     key.Binding
	Forward    key.Binding
	VolumeUp   key.Binding
	VolumeDown key.Binding
	Close      key.Binding
}

// Transport step sizes
const (
	SkipSeconds = 10
	VolumeStep  = 0.1
)

// DefaultPlayerKeyMap returns the default transport bindings
func DefaultPlayerKeyMap() PlayerKeyMap {
	return PlayerKeyMap{
		PlayPause: key.NewBinding(
			key.WithKeys(" ", "k"),
			key.WithHelp("space/k", "play/pause"),
		),
		Fullscreen: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fullscreen"),
		),
		Mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		Rewind: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "-10s"),
		),
		Forward: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "+10s"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "volume +"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "volume -"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.ToggleTag, k.Watchlist, k.Enter, k.Help, k.Quit}
}

// FullHelp returns every binding grouped for the help screen
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Home, k.End, k.PageUp, k.PageDown, k.Tab, k.Enter, k.Back},
		{k.Search, k.ToggleTag, k.ClearFilters, k.Refresh, k.Watchlist},
		{k.ShowAll, k.ShowContinue, k.ShowWatchlist, k.SwitchProfile, k.Logout, k.Help, k.Quit},
	}
}

// ShortHelp returns the player bindings shown in the footer
func (k PlayerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.Rewind, k.Forward, k.VolumeUp, k.VolumeDown, k.Mute, k.Fullscreen, k.Close}
}

// FullHelp implements help.KeyMap
func (k PlayerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
