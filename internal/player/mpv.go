// Package player drives an external mpv process as a playback element.
package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/GerlachSG/Cruciflix/internal/playback"
)

// requestTimeout bounds how long a command waits for mpv's reply
const requestTimeout = 5 * time.Second

// ErrClosed is returned by commands sent after Close
var ErrClosed = errors.New("mpv connection closed")

// Observed property ids
const (
	propPause = iota + 1
	propTimePos
	propDuration
	propVolume
	propMute
	propFullscreen
)

var observed = map[int]string{
	propPause:      "pause",
	propTimePos:    "time-pos",
	propDuration:   "duration",
	propVolume:     "volume",
	propMute:       "mute",
	propFullscreen: "fullscreen",
}

type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// message is either a command reply or an event
type message struct {
	RequestID int64           `json:"request_id"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	Event     string          `json:"event"`
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Reason    string          `json:"reason"`
	FileError string          `json:"file_error"`
}

// MPV talks to mpv over its JSON IPC socket
type MPV struct {
	conn    net.Conn
	logger  *slog.Logger
	onClose func() error

	writeMu sync.Mutex

	mu         sync.Mutex
	nextID     int64
	pending    map[int64]chan message
	handler    playback.Handler
	closed     bool
	paused     bool
	timePos    float64
	duration   float64
	volume     float64 // 0..1
	muted      bool
	fullscreen bool

	events chan playback.Event
	done   chan struct{}
}

var _ playback.Element = (*MPV)(nil)

// NewMPV wraps an established IPC connection. onClose runs after the
// connection is closed, typically to reap the mpv process.
func NewMPV(conn net.Conn, logger *slog.Logger, onClose func() error) (*MPV, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &MPV{
		conn:    conn,
		logger:  logger,
		onClose: onClose,
		pending: make(map[int64]chan message),
		paused:  true,
		volume:  1,
		events:  make(chan playback.Event, 64),
		done:    make(chan struct{}),
	}
	go m.readLoop()
	go m.dispatchLoop()

	for id, name := range observed {
		if _, err := m.command("observe_property", id, name); err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("failed to observe %s: %w", name, err)
		}
	}
	return m, nil
}

func (m *MPV) command(args ...any) (json.RawMessage, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.nextID++
	id := m.nextID
	reply := make(chan message, 1)
	m.pending[id] = reply
	m.mu.Unlock()

	line, err := json.Marshal(request{Command: args, RequestID: id})
	if err != nil {
		m.forget(id)
		return nil, err
	}
	m.writeMu.Lock()
	_, err = m.conn.Write(append(line, '\n'))
	m.writeMu.Unlock()
	if err != nil {
		m.forget(id)
		return nil, fmt.Errorf("failed to send %v: %w", args[0], err)
	}

	select {
	case msg, ok := <-reply:
		if !ok {
			return nil, ErrClosed
		}
		if msg.Error != "success" {
			return nil, fmt.Errorf("mpv %v: %s", args[0], msg.Error)
		}
		return msg.Data, nil
	case <-time.After(requestTimeout):
		m.forget(id)
		return nil, fmt.Errorf("mpv %v: timed out", args[0])
	}
}

func (m *MPV) forget(id int64) {
	m.mu.Lock()
	delete(m.pending, id)
	m.mu.Unlock()
}

func (m *MPV) readLoop() {
	defer m.shutdown()
	scanner := bufio.NewScanner(m.conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			m.logger.Debug("ignoring malformed mpv message", "error", err)
			continue
		}
		if msg.Event == "" {
			m.mu.Lock()
			reply, ok := m.pending[msg.RequestID]
			delete(m.pending, msg.RequestID)
			m.mu.Unlock()
			if ok {
				reply <- msg
			}
			continue
		}
		m.handleEvent(msg)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, io.EOF) {
		m.logger.Warn("mpv connection lost", "error", err)
	}
}

func (m *MPV) handleEvent(msg message) {
	switch msg.Event {
	case "property-change":
		m.propertyChanged(msg)
	case "file-loaded":
		m.emit(playback.Event{Type: playback.EventMetadataLoaded})
	case "end-file":
		switch msg.Reason {
		case "eof":
			m.emit(playback.Event{Type: playback.EventEnded})
		case "error":
			m.emit(playback.Event{Type: playback.EventError, Err: &playback.StreamError{
				Kind:    playback.ErrorOther,
				Fatal:   true,
				Details: msg.FileError,
			}})
		}
	}
}

func (m *MPV) propertyChanged(msg message) {
	m.mu.Lock()
	var ev *playback.Event
	switch msg.ID {
	case propPause:
		var paused bool
		if json.Unmarshal(msg.Data, &paused) == nil && paused != m.paused {
			m.paused = paused
			t := playback.EventPlaying
			if paused {
				t = playback.EventPaused
			}
			ev = &playback.Event{Type: t}
		}
	case propTimePos:
		_ = json.Unmarshal(msg.Data, &m.timePos)
	case propDuration:
		_ = json.Unmarshal(msg.Data, &m.duration)
	case propVolume:
		var v float64
		if json.Unmarshal(msg.Data, &v) == nil {
			m.volume = v / 100
		}
	case propMute:
		_ = json.Unmarshal(msg.Data, &m.muted)
	case propFullscreen:
		_ = json.Unmarshal(msg.Data, &m.fullscreen)
	}
	m.mu.Unlock()
	if ev != nil {
		m.emit(*ev)
	}
}

func (m *MPV) emit(ev playback.Event) {
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

// dispatchLoop delivers events off the read goroutine so handlers may
// issue commands
func (m *MPV) dispatchLoop() {
	for {
		select {
		case ev := <-m.events:
			m.mu.Lock()
			h := m.handler
			m.mu.Unlock()
			if h != nil {
				h(ev)
			}
		case <-m.done:
			return
		}
	}
}

func (m *MPV) shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.done)
	for id, reply := range m.pending {
		close(reply)
		delete(m.pending, id)
	}
}

// Close quits mpv and releases the connection
func (m *MPV) Close() error {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if !closed {
		line, _ := json.Marshal(request{Command: []any{"quit"}})
		m.writeMu.Lock()
		_, _ = m.conn.Write(append(line, '\n'))
		m.writeMu.Unlock()
	}
	err := m.conn.Close()
	m.shutdown()
	if m.onClose != nil {
		if cerr := m.onClose(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// CanPlayType reports native support; mpv demuxes HLS itself
func (m *MPV) CanPlayType(mimeType string) bool {
	return mimeType == playback.HLSMimeType
}

func (m *MPV) OnEvent(h playback.Handler) {
	m.mu.Lock()
	m.handler = h
	m.mu.Unlock()
}

func (m *MPV) SetSource(url string) error {
	_, err := m.command("loadfile", url, "replace")
	return err
}

func (m *MPV) Unload() error {
	_, err := m.command("stop")
	return err
}

func (m *MPV) Play() error  { return m.setProperty("pause", false) }
func (m *MPV) Pause() error { return m.setProperty("pause", true) }

func (m *MPV) setProperty(name string, value any) error {
	_, err := m.command("set_property", name, value)
	return err
}

func (m *MPV) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *MPV) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timePos
}

func (m *MPV) SetCurrentTime(seconds float64) error {
	if _, err := m.command("seek", seconds, "absolute"); err != nil {
		return err
	}
	m.mu.Lock()
	m.timePos = seconds
	m.mu.Unlock()
	return nil
}

func (m *MPV) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *MPV) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *MPV) SetVolume(v float64) error {
	return m.setProperty("volume", v*100)
}

func (m *MPV) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (m *MPV) SetMuted(muted bool) error {
	return m.setProperty("mute", muted)
}

func (m *MPV) ToggleFullscreen() error {
	_, err := m.command("cycle", "fullscreen")
	return err
}
