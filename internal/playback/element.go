// Package playback binds a media element to a stream and tracks watch
// position for resume.
package playback

import (
	"fmt"
	"time"
)

// HLSMimeType is checked against elements to detect native HLS playback
const HLSMimeType = "application/vnd.apple.mpegurl"

// EventType enumerates element and engine notifications
type EventType int

const (
	EventManifestParsed EventType = iota // Engine parsed the master playlist
	EventMetadataLoaded                  // Element knows duration and dimensions
	EventPlaying
	EventPaused
	EventEnded
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventManifestParsed:
		return "manifest-parsed"
	case EventMetadataLoaded:
		return "metadata-loaded"
	case EventPlaying:
		return "playing"
	case EventPaused:
		return "paused"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// ErrorKind classifies stream errors for recovery
type ErrorKind int

const (
	ErrorNetwork ErrorKind = iota
	ErrorMedia
	ErrorOther
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNetwork:
		return "network"
	case ErrorMedia:
		return "media"
	default:
		return "other"
	}
}

// StreamError is reported by an element or engine
type StreamError struct {
	Kind    ErrorKind
	Fatal   bool
	Details string
}

func (e *StreamError) Error() string {
	severity := "non-fatal"
	if e.Fatal {
		severity = "fatal"
	}
	return fmt.Sprintf("%s %s stream error: %s", severity, e.Kind, e.Details)
}

// Event is delivered to the session's handler
type Event struct {
	Type EventType
	Err  *StreamError // Set for EventError
}

// Handler receives events. It may be called from any goroutine but must
// not be called while the emitter holds a lock its own methods need.
type Handler func(Event)

// Element is a media output surface: a player window or video tag
type Element interface {
	CanPlayType(mimeType string) bool
	SetSource(url string) error
	Unload() error
	OnEvent(h Handler)

	Play() error
	Pause() error
	Paused() bool
	CurrentTime() float64
	SetCurrentTime(seconds float64) error
	Duration() float64
	Volume() float64
	SetVolume(v float64) error
	Muted() bool
	SetMuted(muted bool) error
	ToggleFullscreen() error
}

// Engine is a library-driven HLS pipeline feeding an element
type Engine interface {
	LoadSource(url string) error
	Attach(el Element) error
	OnEvent(h Handler)
	StartLoad() error
	RecoverMediaError() error
	Destroy()
}

// EngineFactory returns a new engine, or false when library playback is
// unsupported on this platform
type EngineFactory func() (Engine, bool)

// Ticker drives periodic progress saves
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}
