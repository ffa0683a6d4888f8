package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GerlachSG/Cruciflix/internal/playback"
)

// fakeMPV answers IPC requests on one end of a pipe
type fakeMPV struct {
	conn     net.Conn
	writeMu  sync.Mutex
	mu       sync.Mutex
	commands [][]any
	failing  map[string]string
}

func startFakeMPV(t *testing.T) (*fakeMPV, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	f := &fakeMPV{conn: server, failing: map[string]string{}}
	go f.serve()
	t.Cleanup(func() { _ = server.Close() })
	return f, client
}

func (f *fakeMPV) serve() {
	scanner := bufio.NewScanner(f.conn)
	for scanner.Scan() {
		var req request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}
		name := fmt.Sprint(req.Command[0])
		f.mu.Lock()
		f.commands = append(f.commands, req.Command)
		status, fail := f.failing[name]
		f.mu.Unlock()
		if name == "quit" {
			return
		}
		if !fail {
			status = "success"
		}
		f.send(map[string]any{"request_id": req.RequestID, "error": status})
	}
}

func (f *fakeMPV) send(msg map[string]any) {
	line, _ := json.Marshal(msg)
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	_, _ = f.conn.Write(append(line, '\n'))
}

func (f *fakeMPV) property(id int, name string, data any) {
	f.send(map[string]any{"event": "property-change", "id": id, "name": name, "data": data})
}

func (f *fakeMPV) last() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commands[len(f.commands)-1]
}

type eventLog struct {
	mu     sync.Mutex
	events []playback.Event
}

func (l *eventLog) handle(ev playback.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) types() []playback.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]playback.EventType, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Type
	}
	return out
}

func newTestMPV(t *testing.T) (*MPV, *fakeMPV, *eventLog) {
	t.Helper()
	fake, conn := startFakeMPV(t)
	m, err := NewMPV(conn, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	log := &eventLog{}
	m.OnEvent(log.handle)
	return m, fake, log
}

func TestMPV_Commands(t *testing.T) {
	m, fake, _ := newTestMPV(t)

	assert.True(t, m.CanPlayType(playback.HLSMimeType))
	assert.False(t, m.CanPlayType("video/webm"))

	require.NoError(t, m.SetSource("https://cdn/master.m3u8"))
	assert.Equal(t, []any{"loadfile", "https://cdn/master.m3u8", "replace"}, fake.last())

	require.NoError(t, m.SetCurrentTime(42))
	assert.Equal(t, []any{"seek", 42.0, "absolute"}, fake.last())
	assert.Equal(t, 42.0, m.CurrentTime())

	require.NoError(t, m.SetVolume(0.5))
	assert.Equal(t, []any{"set_property", "volume", 50.0}, fake.last())

	require.NoError(t, m.Play())
	assert.Equal(t, []any{"set_property", "pause", false}, fake.last())

	require.NoError(t, m.ToggleFullscreen())
	assert.Equal(t, []any{"cycle", "fullscreen"}, fake.last())
}

func TestMPV_CommandError(t *testing.T) {
	m, fake, _ := newTestMPV(t)
	fake.mu.Lock()
	fake.failing["loadfile"] = "invalid parameter"
	fake.mu.Unlock()

	err := m.SetSource("bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid parameter")
}

func TestMPV_Events(t *testing.T) {
	m, fake, log := newTestMPV(t)

	fake.send(map[string]any{"event": "file-loaded"})
	fake.property(propDuration, "duration", 120.5)
	fake.property(propPause, "pause", false)
	fake.property(propTimePos, "time-pos", 12.5)
	fake.property(propVolume, "volume", 80)
	fake.property(propMute, "mute", true)
	fake.property(propPause, "pause", true)
	fake.send(map[string]any{"event": "end-file", "reason": "eof"})

	require.Eventually(t, func() bool { return len(log.types()) == 4 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []playback.EventType{
		playback.EventMetadataLoaded,
		playback.EventPlaying,
		playback.EventPaused,
		playback.EventEnded,
	}, log.types())

	assert.Equal(t, 120.5, m.Duration())
	assert.Equal(t, 12.5, m.CurrentTime())
	assert.InDelta(t, 0.8, m.Volume(), 1e-9)
	assert.True(t, m.Muted())
	assert.True(t, m.Paused())
}

func TestMPV_EndFileError(t *testing.T) {
	_, fake, log := newTestMPV(t)

	fake.send(map[string]any{"event": "end-file", "reason": "error", "file_error": "loading failed"})
	require.Eventually(t, func() bool { return len(log.types()) == 1 }, time.Second, 5*time.Millisecond)

	log.mu.Lock()
	ev := log.events[0]
	log.mu.Unlock()
	require.NotNil(t, ev.Err)
	assert.True(t, ev.Err.Fatal)
	assert.Equal(t, "loading failed", ev.Err.Details)
}

func TestMPV_CloseRunsHook(t *testing.T) {
	fake, conn := startFakeMPV(t)
	closed := false
	m, err := NewMPV(conn, nil, func() error { closed = true; return nil })
	require.NoError(t, err)

	require.NoError(t, m.Close())
	assert.True(t, closed)
	assert.ErrorIs(t, m.Play(), ErrClosed)
	_ = fake
}

func TestExternalArgs(t *testing.T) {
	p := externalPlayer{command: "mpv", offsetFlag: "--start="}
	assert.Equal(t, []string{"--start=90", "u"}, externalArgs(p, "u", 90*time.Second))
	assert.Equal(t, []string{"u"}, externalArgs(p, "u", 0))
}

func TestIPCArgs(t *testing.T) {
	l := NewLauncher("", []string{"--no-border"}, "/tmp", nil)
	args := l.ipcArgs("/tmp/x.sock")
	assert.Equal(t, "--no-border", args[0])
	assert.Contains(t, args, "--input-ipc-server=/tmp/x.sock")
	assert.Contains(t, args, "--pause")
	assert.Equal(t, "mpv", l.command)
}
