package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GerlachSG/Cruciflix/internal/domain"
)

type fakeElement struct {
	mu         sync.Mutex
	native     bool
	src        string
	unloaded   int
	handler    Handler
	paused     bool
	current    float64
	duration   float64
	volume     float64
	muted      bool
	fullscreen bool
	seeks      []float64
	plays      int
}

func newFakeElement(native bool) *fakeElement {
	return &fakeElement{native: native, paused: true, duration: 100, volume: 1}
}

func (f *fakeElement) CanPlayType(m string) bool { return f.native && m == HLSMimeType }
func (f *fakeElement) SetSource(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.src = url
	return nil
}
func (f *fakeElement) Unload() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unloaded++
	return nil
}
func (f *fakeElement) OnEvent(h Handler) {
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()
}
func (f *fakeElement) emit(ev Event) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h(ev)
}
func (f *fakeElement) Play() error {
	f.mu.Lock()
	f.paused = false
	f.plays++
	f.mu.Unlock()
	f.emit(Event{Type: EventPlaying})
	return nil
}
func (f *fakeElement) Pause() error {
	f.mu.Lock()
	f.paused = true
	f.mu.Unlock()
	f.emit(Event{Type: EventPaused})
	return nil
}
func (f *fakeElement) Paused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}
func (f *fakeElement) CurrentTime() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}
func (f *fakeElement) SetCurrentTime(s float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = s
	f.seeks = append(f.seeks, s)
	return nil
}
func (f *fakeElement) Duration() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration
}
func (f *fakeElement) Volume() float64   {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}
func (f *fakeElement) SetVolume(v float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = v
	return nil
}
func (f *fakeElement) Muted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.muted
}
func (f *fakeElement) SetMuted(m bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muted = m
	return nil
}
func (f *fakeElement) ToggleFullscreen() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fullscreen = !f.fullscreen
	return nil
}

type fakeEngine struct {
	mu         sync.Mutex
	handler    Handler
	source     string
	attached   Element
	startLoads int
	mediaFixes int
	destroyed  int
}

func (e *fakeEngine) LoadSource(url string) error {
	e.source = url
	return nil
}
func (e *fakeEngine) Attach(el Element) error    {
	e.attached = el
	return nil
}
func (e *fakeEngine) OnEvent(h Handler)          { e.handler = h }
func (e *fakeEngine) StartLoad() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startLoads++
	return nil
}
func (e *fakeEngine) RecoverMediaError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mediaFixes++
	return nil
}
func (e *fakeEngine) Destroy() {
	e.mu.Lock()
	e.destroyed++
	e.mu.Unlock()
}

type manualTicker struct{ c chan time.Time }

func (t *manualTicker) C() <-chan time.Time { return t.c }
func (t *manualTicker) Stop()               {}

type fakeProgress struct {
	mu     sync.Mutex
	record *domain.ProgressRecord
	saves  []float64
}

func (p *fakeProgress) Get(context.Context, domain.ProgressKey) (*domain.ProgressRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record, nil
}

func (p *fakeProgress) Save(_ context.Context, _ domain.ProgressKey, _ domain.ContentType, watch, _ float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves = append(p.saves, watch)
	return nil
}

func (p *fakeProgress) saveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saves)
}

type countingViews struct{ n int }

func (c *countingViews) IncrementViewCount(context.Context, domain.ContentType, string) error {
	c.n++
	return nil
}

var testKey = domain.ProgressKey{UserID: "u1", ProfileID: "p1", ContentID: "m1"}

func newTestSession(progress *fakeProgress, opts ...Option) (*Session, *manualTicker) {
	ticker := &manualTicker{c: make(chan time.Time)}
	opts = append([]Option{WithTicker(func(time.Duration) Ticker { return ticker })}, opts...)
	return NewSession(progress, nil, opts...), ticker
}

func TestStart_ResumesSavedPosition(t *testing.T) {
	progress := &fakeProgress{record: &domain.ProgressRecord{WatchTime: 42}}
	s, _ := newTestSession(progress)
	el := newFakeElement(true)

	require.NoError(t, s.Start(context.Background(), el, "https://cdn/master.m3u8", testKey, domain.ContentMovie))
	assert.Equal(t, StateLoading, s.State())
	assert.Equal(t, "https://cdn/master.m3u8", el.src)

	el.emit(Event{Type: EventMetadataLoaded})
	assert.Equal(t, []float64{42}, el.seeks)
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, 0, el.plays)
	s.Stop()
}

func TestStart_NoSeekWhenCompleted(t *testing.T) {
	progress := &fakeProgress{record: &domain.ProgressRecord{WatchTime: 95, Completed: true}}
	s, _ := newTestSession(progress, WithAutoplay(true))
	el := newFakeElement(true)

	require.NoError(t, s.Start(context.Background(), el, "u", testKey, domain.ContentMovie))
	el.emit(Event{Type: EventMetadataLoaded})

	assert.Empty(t, el.seeks)
	assert.Equal(t, 1, el.plays)
	assert.Equal(t, StatePlaying, s.State())
	s.Stop()
}

func TestStart_EngineWaitsForManifest(t *testing.T) {
	progress := &fakeProgress{record: &domain.ProgressRecord{WatchTime: 42}}
	engine := &fakeEngine{}
	views := &countingViews{}
	s, _ := newTestSession(progress,
		WithEngine(func() (Engine, bool) { return engine, true }),
		WithViewCounter(views))
	el := newFakeElement(false)

	require.NoError(t, s.Start(context.Background(), el, "https://cdn/master.m3u8", testKey, domain.ContentMovie))
	assert.Equal(t, "https://cdn/master.m3u8", engine.source)
	assert.Same(t, el, engine.attached)
	assert.Equal(t, 1, views.n)

	el.emit(Event{Type: EventMetadataLoaded})
	assert.Empty(t, el.seeks, "metadata is ignored on the engine branch")

	engine.handler(Event{Type: EventManifestParsed})
	assert.Equal(t, []float64{42}, el.seeks)

	s.Stop()
	assert.Equal(t, 1, engine.destroyed)
	assert.Equal(t, 0, el.unloaded)
}

func TestStart_Unsupported(t *testing.T) {
	var states []State
	s, _ := newTestSession(&fakeProgress{},
		WithEngine(func() (Engine, bool) { return nil, false }),
		WithStateListener(func(st State, _ error) { states = append(states, st) }))

	err := s.Start(context.Background(), newFakeElement(false), "u", testKey, domain.ContentMovie)
	assert.ErrorIs(t, err, ErrHLSUnsupported)
	assert.Equal(t, StateError, s.State())
	assert.ErrorIs(t, s.Err(), ErrHLSUnsupported)
	assert.Equal(t, []State{StateLoading, StateError}, states)
	s.Stop()
}

func TestStart_Twice(t *testing.T) {
	s, _ := newTestSession(&fakeProgress{})
	require.NoError(t, s.Start(context.Background(), newFakeElement(true), "u", testKey, domain.ContentMovie))
	assert.ErrorIs(t, s.Start(context.Background(), newFakeElement(true), "u", testKey, domain.ContentMovie), ErrSessionUsed)
	s.Stop()
}

func TestTicker_SavesOnlyWhilePlaying(t *testing.T) {
	progress := &fakeProgress{}
	s, ticker := newTestSession(progress)
	ticked := make(chan struct{})
	s.afterTick = func() { ticked <- struct{}{} }
	tick := func() {
		ticker.c <- time.Now()
		<-ticked
	}

	el := newFakeElement(true)
	require.NoError(t, s.Start(context.Background(), el, "u", testKey, domain.ContentMovie))
	el.emit(Event{Type: EventMetadataLoaded})

	tick()
	assert.Equal(t, 0, progress.saveCount())

	require.NoError(t, el.SetCurrentTime(30))
	require.NoError(t, s.PlayPause())
	tick()
	assert.Equal(t, 1, progress.saveCount())

	require.NoError(t, s.PlayPause())
	assert.Equal(t, StatePaused, s.State())
	tick()
	tick()
	assert.Equal(t, 1, progress.saveCount())

	s.Stop()
	assert.Equal(t, []float64{30, 30}, progress.saves, "stop flushes a final snapshot")
}

func TestStop_Idempotent(t *testing.T) {
	s, _ := newTestSession(&fakeProgress{})
	s.Stop()
	s.Stop()

	progress := &fakeProgress{}
	s, _ = newTestSession(progress)
	el := newFakeElement(true)
	require.NoError(t, s.Start(context.Background(), el, "u", testKey, domain.ContentMovie))
	s.Stop()
	s.Stop()
	assert.Equal(t, 1, el.unloaded)
	assert.Equal(t, 0, progress.saveCount(), "never played, nothing to flush")
}

func TestFatalErrors_RecoverOncePerKind(t *testing.T) {
	engine := &fakeEngine{}
	s, _ := newTestSession(&fakeProgress{}, WithEngine(func() (Engine, bool) { return engine, true }))
	el := newFakeElement(false)
	require.NoError(t, s.Start(context.Background(), el, "u", testKey, domain.ContentMovie))
	engine.handler(Event{Type: EventManifestParsed})
	require.NoError(t, el.Play())

	engine.handler(Event{Type: EventError, Err: &StreamError{Kind: ErrorNetwork, Fatal: false}})
	engine.handler(Event{Type: EventError, Err: &StreamError{Kind: ErrorNetwork, Fatal: true}})
	engine.handler(Event{Type: EventError, Err: &StreamError{Kind: ErrorMedia, Fatal: true}})
	assert.Equal(t, 1, engine.startLoads)
	assert.Equal(t, 1, engine.mediaFixes)
	assert.Equal(t, StatePlaying, s.State())

	engine.handler(Event{Type: EventError, Err: &StreamError{Kind: ErrorNetwork, Fatal: true, Details: "gone"}})
	assert.Equal(t, 1, engine.startLoads)
	assert.Equal(t, StateError, s.State())
	var streamErr *StreamError
	require.ErrorAs(t, s.Err(), &streamErr)
	assert.Equal(t, "gone", streamErr.Details)

	el.emit(Event{Type: EventPlaying})
	assert.Equal(t, StateError, s.State(), "error is terminal")
	s.Stop()
}

func TestFatalErrors_OtherIsTerminal(t *testing.T) {
	engine := &fakeEngine{}
	s, _ := newTestSession(&fakeProgress{}, WithEngine(func() (Engine, bool) { return engine, true }))
	require.NoError(t, s.Start(context.Background(), newFakeElement(false), "u", testKey, domain.ContentMovie))

	engine.handler(Event{Type: EventError, Err: &StreamError{Kind: ErrorOther, Fatal: true}})
	assert.Equal(t, StateError, s.State())
	assert.Equal(t, 0, engine.startLoads+engine.mediaFixes)
	s.Stop()
}

func TestTransport(t *testing.T) {
	s, _ := newTestSession(&fakeProgress{})
	assert.ErrorIs(t, s.PlayPause(), ErrNotStarted)

	el := newFakeElement(true)
	require.NoError(t, s.Start(context.Background(), el, "u", testKey, domain.ContentMovie))

	require.NoError(t, s.Seek(50))
	require.NoError(t, s.Skip(10))
	assert.Equal(t, 60.0, el.CurrentTime())
	require.NoError(t, s.Skip(-100))
	assert.Equal(t, 0.0, el.CurrentTime())
	require.NoError(t, s.Seek(500))
	assert.Equal(t, 100.0, el.CurrentTime())

	require.NoError(t, s.SetVolume(1.7))
	assert.Equal(t, 1.0, el.Volume())
	require.NoError(t, s.SetVolume(-0.2))
	assert.Equal(t, 0.0, el.Volume())
	require.NoError(t, s.AdjustVolume(0.1))
	assert.InDelta(t, 0.1, el.Volume(), 1e-9)

	require.NoError(t, s.ToggleMute())
	assert.True(t, el.Muted())
	require.NoError(t, s.ToggleFullscreen())
	assert.True(t, el.fullscreen)

	cur, dur := s.Position()
	assert.Equal(t, 100.0, cur)
	assert.Equal(t, 100.0, dur)
	s.Stop()
}
