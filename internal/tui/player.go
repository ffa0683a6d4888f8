package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/GerlachSG/Cruciflix/internal/playback"
)

// playbackEvents carries session state changes into the update loop.
// Sends never block; the tick re-reads the state if one is dropped.
type playbackEvents struct {
	ch   chan PlaybackStateMsg
	done chan struct{}
}

func newPlaybackEvents() *playbackEvents {
	return &playbackEvents{ch: make(chan PlaybackStateMsg, 16), done: make(chan struct{})}
}

func (e *playbackEvents) send(st playback.State, err error) {
	select {
	case e.ch <- PlaybackStateMsg{State: st, Err: err}:
	default:
	}
}

func (e *playbackEvents) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-e.ch:
			return msg
		case <-e.done:
			return nil
		}
	}
}

func (e *playbackEvents) close() {
	close(e.done)
}

// startPlayer switches to the player screen and launches the player window
func (m Model) startPlayer(req playRequest) (tea.Model, tea.Cmd) {
	m.State = StatePlayer
	m.nowPlaying = req
	m.playState = playback.StateUninitialized
	m.playErr = nil
	m.events = newPlaybackEvents()
	m.playback = playback.NewSession(m.svc.Progress, m.logger,
		playback.WithViewCounter(m.svc.Catalog),
		playback.WithStateListener(m.events.send),
		playback.WithAutoplay(true),
	)
	return m, tea.Batch(OpenPlayerCmd(m.svc.OpenPlayer), m.events.wait())
}

func (m Model) updatePlayer(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PlayerOpenedMsg:
		if m.State != StatePlayer || m.playback == nil {
			// Closed before the window came up
			_ = msg.Player.Close()
			return m, nil
		}
		m.player = msg.Player
		return m, tea.Batch(StartPlaybackCmd(m.playback, m.player, m.nowPlaying), PlayerTickCmd())

	case PlaybackStateMsg:
		if m.events == nil {
			return m, nil
		}
		m.playState = msg.State
		if msg.Err != nil {
			m.playErr = msg.Err
		}
		if msg.State == playback.StateEnded {
			return m.closePlayer()
		}
		return m, m.events.wait()

	case PlayerTickMsg:
		if m.State != StatePlayer || m.playback == nil {
			return m, nil
		}
		m.playState = m.playback.State()
		return m, PlayerTickCmd()

	case PlayerClosedMsg:
		m.State = StateDetail
		return m, LoadContinueWatchingCmd(m.svc.Progress, m.svc.Session)
	}
	return m, nil
}

// closePlayer tears the session down; the final progress save runs in the command
func (m Model) closePlayer() (tea.Model, tea.Cmd) {
	s, p := m.playback, m.player
	if m.events != nil {
		m.events.close()
	}
	m.playback, m.player, m.events = nil, nil, nil
	m.playState = playback.StateUninitialized
	return m, ClosePlayerCmd(s, p)
}

func (m Model) handlePlayerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.playerKeys.Close) {
		return m.closePlayer()
	}
	s := m.playback
	if s == nil {
		return m, nil
	}

	var err error
	switch {
	case key.Matches(msg, m.playerKeys.PlayPause):
		err = s.PlayPause()
	case key.Matches(msg, m.playerKeys.Fullscreen):
		err = s.ToggleFullscreen()
	case key.Matches(msg, m.playerKeys.Mute):
		err = s.ToggleMute()
	case key.Matches(msg, m.playerKeys.Rewind):
		err = s.Skip(-SkipSeconds)
	case key.Matches(msg, m.playerKeys.Forward):
		err = s.Skip(SkipSeconds)
	case key.Matches(msg, m.playerKeys.VolumeUp):
		err = s.AdjustVolume(VolumeStep)
	case key.Matches(msg, m.playerKeys.VolumeDown):
		err = s.AdjustVolume(-VolumeStep)
	}
	if err != nil {
		m.logger.Debug("player control failed", "key", msg.String(), "error", err)
		return m.setStatus(err.Error(), true)
	}
	return m, nil
}
