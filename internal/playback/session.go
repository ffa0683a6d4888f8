package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// SaveInterval is how often progress is persisted while playing
const SaveInterval = 10 * time.Second

var (
	// ErrHLSUnsupported indicates neither an engine nor the element can play HLS
	ErrHLSUnsupported = errors.New("HLS playback is not supported")

	// ErrNotStarted is returned by transport calls before Start
	ErrNotStarted = errors.New("playback session not started")

	// ErrSessionUsed is returned when Start is called twice
	ErrSessionUsed = errors.New("playback session already started")
)

// State of a playback session
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StatePlaying
	StatePaused
	StateEnded
	StateError
)

func (s State) String() string {
	return [...]string{"uninitialized", "loading", "ready", "playing", "paused", "ended", "error"}[s]
}

// Option configures a Session
type Option func(*Session)

// WithEngine enables library playback
func WithEngine(f EngineFactory) Option {
	return func(s *Session) { s.newEngine = f }
}

// WithViewCounter counts a view when playback starts
func WithViewCounter(v domain.ViewCounter) Option {
	return func(s *Session) { s.views = v }
}

// WithTicker replaces the save ticker
func WithTicker(f func(time.Duration) Ticker) Option {
	return func(s *Session) { s.newTicker = f }
}

// WithStateListener is called after every state change
func WithStateListener(fn func(State, error)) Option {
	return func(s *Session) { s.onState = fn }
}

// WithAutoplay starts playback once the stream is ready
func WithAutoplay(on bool) Option {
	return func(s *Session) { s.autoplay = on }
}

// Session plays one stream on one element. Sessions are single use.
type Session struct {
	progress  domain.ProgressStore
	views     domain.ViewCounter
	newEngine EngineFactory
	newTicker func(time.Duration) Ticker
	onState   func(State, error)
	autoplay  bool
	logger    *slog.Logger

	mu          sync.Mutex
	ctx         context.Context
	state       State
	err         error
	el          Element
	engine      Engine
	key         domain.ProgressKey
	contentType domain.ContentType
	started     bool // Playback reached Playing at least once
	resumed     bool
	recovered   map[ErrorKind]bool
	stopped     bool
	stopTick    chan struct{}
	tickDone    chan struct{}
	afterTick   func()
}

func NewSession(progress domain.ProgressStore, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		progress:  progress,
		newTicker: newTimeTicker,
		logger:    logger,
		recovered: make(map[ErrorKind]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds streamURL to el. Resume and progress tracking begin once the
// stream is ready.
func (s *Session) Start(ctx context.Context, el Element, streamURL string, key domain.ProgressKey, contentType domain.ContentType) error {
	s.mu.Lock()
	if s.state != StateUninitialized || s.stopped {
		s.mu.Unlock()
		return ErrSessionUsed
	}
	s.ctx = ctx
	s.el = el
	s.key = key
	s.contentType = contentType
	s.setState(StateLoading, nil)
	s.mu.Unlock()
	s.notify()

	el.OnEvent(s.handle)

	var engine Engine
	supported := false
	if s.newEngine != nil {
		engine, supported = s.newEngine()
	}

	switch {
	case supported:
		s.mu.Lock()
		s.engine = engine
		s.mu.Unlock()
		engine.OnEvent(s.handle)
		if err := engine.LoadSource(streamURL); err != nil {
			return s.fail(fmt.Errorf("failed to load source: %w", err))
		}
		if err := engine.Attach(el); err != nil {
			return s.fail(fmt.Errorf("failed to attach engine: %w", err))
		}
	case el.CanPlayType(HLSMimeType):
		if err := el.SetSource(streamURL); err != nil {
			return s.fail(fmt.Errorf("failed to set source: %w", err))
		}
	default:
		return s.fail(ErrHLSUnsupported)
	}

	s.startTicker()

	if s.views != nil && key.ContentID != "" {
		if err := s.views.IncrementViewCount(ctx, contentType, key.ContentID); err != nil {
			s.logger.Warn("failed to count view", "contentID", key.ContentID, "error", err)
		}
	}
	return nil
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.setState(StateError, err)
	s.mu.Unlock()
	s.notify()
	s.logger.Error("playback failed", "error", err)
	return err
}

// setState must be called with mu held
func (s *Session) setState(st State, err error) {
	s.state = st
	if err != nil {
		s.err = err
	}
}

func (s *Session) notify() {
	if s.onState == nil {
		return
	}
	s.mu.Lock()
	st, err := s.state, s.err
	s.mu.Unlock()
	s.onState(st, err)
}

func (s *Session) handle(ev Event) {
	switch ev.Type {
	case EventManifestParsed:
		s.ready(true)
	case EventMetadataLoaded:
		s.ready(false)
	case EventPlaying:
		s.transition(StatePlaying, func() { s.started = true })
	case EventPaused:
		s.transition(StatePaused, nil)
	case EventEnded:
		s.transition(StateEnded, nil)
	case EventError:
		if ev.Err != nil {
			s.handleError(ev.Err)
		}
	}
}

func (s *Session) transition(st State, also func()) {
	s.mu.Lock()
	if s.stopped || s.state == StateError {
		s.mu.Unlock()
		return
	}
	if also != nil {
		also()
	}
	changed := s.state != st
	s.setState(st, nil)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// ready resumes from saved progress. Library playback waits for the
// manifest; native playback for metadata.
func (s *Session) ready(fromEngine bool) {
	s.mu.Lock()
	if s.stopped || s.resumed || s.state != StateLoading || fromEngine != (s.engine != nil) {
		s.mu.Unlock()
		return
	}
	s.resumed = true
	ctx, key, el := s.ctx, s.key, s.el
	s.mu.Unlock()

	rec, err := s.progress.Get(ctx, key)
	if err != nil {
		s.logger.Warn("failed to load saved progress", "contentID", key.ContentID, "error", err)
	}
	if rec.ShouldResume() {
		if err := el.SetCurrentTime(rec.WatchTime); err != nil {
			s.logger.Warn("failed to resume", "contentID", key.ContentID, "error", err)
		} else {
			s.logger.Info("resumed playback", "contentID", key.ContentID, "position", rec.WatchTime)
		}
	}

	s.transition(StateReady, nil)
	if s.autoplay {
		if err := el.Play(); err != nil {
			s.logger.Warn("autoplay failed", "error", err)
		}
	}
}

// handleError applies one recovery per fatal kind; anything further is terminal
func (s *Session) handleError(e *StreamError) {
	if !e.Fatal {
		s.logger.Warn("stream error", "kind", e.Kind.String(), "details", e.Details)
		return
	}

	s.mu.Lock()
	if s.stopped || s.state == StateError {
		s.mu.Unlock()
		return
	}
	engine := s.engine
	canRecover := engine != nil && e.Kind != ErrorOther && !s.recovered[e.Kind]
	if canRecover {
		s.recovered[e.Kind] = true
	}
	s.mu.Unlock()

	if canRecover {
		s.logger.Warn("recovering from fatal stream error", "kind", e.Kind.String(), "details", e.Details)
		var err error
		if e.Kind == ErrorNetwork {
			err = engine.StartLoad()
		} else {
			err = engine.RecoverMediaError()
		}
		if err == nil {
			return
		}
		s.logger.Error("stream recovery failed", "kind", e.Kind.String(), "error", err)
	}

	s.logger.Error("fatal stream error", "kind", e.Kind.String(), "details", e.Details)
	s.mu.Lock()
	s.setState(StateError, e)
	s.mu.Unlock()
	s.stopTicker()
	s.notify()
}

func (s *Session) startTicker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopTick != nil || s.stopped {
		return
	}
	t := s.newTicker(SaveInterval)
	stop := make(chan struct{})
	done := make(chan struct{})
	s.stopTick, s.tickDone = stop, done

	go func() {
		defer close(done)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C():
				s.saveIfPlaying()
				if s.afterTick != nil {
					s.afterTick()
				}
			}
		}
	}()
}

func (s *Session) stopTicker() {
	s.mu.Lock()
	stop, done := s.stopTick, s.tickDone
	s.stopTick = nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (s *Session) saveIfPlaying() {
	s.mu.Lock()
	playing, el := s.state == StatePlaying, s.el
	s.mu.Unlock()
	if playing && !el.Paused() {
		s.save()
	}
}

func (s *Session) save() {
	s.mu.Lock()
	ctx, key, ct, el := s.ctx, s.key, s.contentType, s.el
	s.mu.Unlock()
	position, duration := el.CurrentTime(), el.Duration()

	if err := s.progress.Save(ctx, key, ct, position, duration); err != nil {
		s.logger.Warn("failed to save progress", "contentID", key.ContentID, "error", err)
	}
}

// Stop cancels tracking, flushes a final snapshot if playback started and
// releases the stream. Safe to call repeatedly or before Start.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started && s.el != nil
	engine, el := s.engine, s.el
	s.mu.Unlock()

	s.stopTicker()
	if started {
		s.save()
	}
	if engine != nil {
		engine.Destroy()
	} else if el != nil {
		if err := el.Unload(); err != nil {
			s.logger.Debug("failed to unload element", "error", err)
		}
	}
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that moved the session into StateError
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) element() (Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.el == nil {
		return nil, ErrNotStarted
	}
	return s.el, nil
}

// PlayPause toggles between playing and paused
func (s *Session) PlayPause() error {
	el, err := s.element()
	if err != nil {
		return err
	}
	if el.Paused() {
		return el.Play()
	}
	return el.Pause()
}

// Seek jumps to seconds, clamped to the stream bounds
func (s *Session) Seek(seconds float64) error {
	el, err := s.element()
	if err != nil {
		return err
	}
	if d := el.Duration(); d > 0 && seconds > d {
		seconds = d
	}
	if seconds < 0 {
		seconds = 0
	}
	return el.SetCurrentTime(seconds)
}

// Skip moves the position by delta seconds
func (s *Session) Skip(delta float64) error {
	el, err := s.element()
	if err != nil {
		return err
	}
	return s.Seek(el.CurrentTime() + delta)
}

// SetVolume sets the volume clamped to [0, 1]
func (s *Session) SetVolume(v float64) error {
	el, err := s.element()
	if err != nil {
		return err
	}
	return el.SetVolume(min(max(v, 0), 1))
}

// AdjustVolume changes the volume by delta
func (s *Session) AdjustVolume(delta float64) error {
	el, err := s.element()
	if err != nil {
		return err
	}
	return s.SetVolume(el.Volume() + delta)
}

func (s *Session) ToggleMute() error {
	el, err := s.element()
	if err != nil {
		return err
	}
	return el.SetMuted(!el.Muted())
}

func (s *Session) ToggleFullscreen() error {
	el, err := s.element()
	if err != nil {
		return err
	}
	return el.ToggleFullscreen()
}

// Position returns the current time and duration in seconds
func (s *Session) Position() (current, duration float64) {
	el, err := s.element()
	if err != nil {
		return 0, 0
	}
	return el.CurrentTime(), el.Duration()
}
