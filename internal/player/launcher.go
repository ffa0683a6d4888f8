package player

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// socketWait bounds how long Open waits for mpv to create its IPC socket
const socketWait = 5 * time.Second

// Launcher starts players for the viewer
type Launcher struct {
	command   string   // mpv-compatible binary, "mpv" by default
	args      []string // extra player arguments
	socketDir string
	logger    *slog.Logger
}

// externalPlayer knows how to hand a URL to a player we cannot control
type externalPlayer struct {
	command    string
	offsetFlag string // Resume offset flag, e.g. "--start="
}

// externalPlayers are tried in order by OpenExternal
var externalPlayers = map[string][]externalPlayer{
	"darwin":  {{command: "iina", offsetFlag: "--mpv-start="}, {command: "vlc", offsetFlag: "--start-time="}, {command: "mpv", offsetFlag: "--start="}},
	"linux":   {{command: "mpv", offsetFlag: "--start="}, {command: "celluloid", offsetFlag: "--mpv-start="}, {command: "vlc", offsetFlag: "--start-time="}},
	"windows": {{command: "vlc", offsetFlag: "--start-time="}, {command: "mpv", offsetFlag: "--start="}},
}

func NewLauncher(command string, args []string, socketDir string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	if command == "" {
		command = "mpv"
	}
	if socketDir == "" {
		socketDir = os.TempDir()
	}
	return &Launcher{command: command, args: args, socketDir: socketDir, logger: logger}
}

// ipcArgs builds the mpv command line. Playback starts paused so the
// session can seek to the resume position first.
func (l *Launcher) ipcArgs(socket string) []string {
	args := append([]string{}, l.args...)
	return append(args,
		"--input-ipc-server="+socket,
		"--idle=yes",
		"--pause",
		"--force-window=immediate",
		"--keep-open=no",
	)
}

// Open starts mpv with an IPC socket and returns it as a playback element
func (l *Launcher) Open(ctx context.Context) (*MPV, error) {
	if runtime.GOOS == "windows" {
		return nil, fmt.Errorf("mpv IPC is not supported on windows")
	}
	if _, err := exec.LookPath(l.command); err != nil {
		return nil, fmt.Errorf("player %q not found: %w", l.command, err)
	}

	socket := filepath.Join(l.socketDir, "cruciflix-"+strings.ToLower(ulid.Make().String())+".sock")
	cmd := exec.Command(l.command, l.ipcArgs(socket)...)
	l.logger.Info("launching player", "command", l.command, "socket", socket)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start player: %w", err)
	}

	reap := func() error {
		err := cmd.Wait()
		_ = os.Remove(socket)
		if _, ok := err.(*exec.ExitError); ok {
			return nil
		}
		return err
	}

	conn, err := dialSocket(ctx, socket)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = reap()
		return nil, err
	}
	return NewMPV(conn, l.logger, reap)
}

func dialSocket(ctx context.Context, socket string) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, socketWait)
	defer cancel()

	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "unix", socket)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("player IPC socket not ready: %w", err)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// OpenExternal hands url to the first installed player without progress
// tracking, falling back to the system default handler
func (l *Launcher) OpenExternal(url string, startOffset time.Duration) error {
	candidates, ok := externalPlayers[runtime.GOOS]
	if !ok {
		candidates = externalPlayers["linux"]
	}
	for _, p := range candidates {
		if _, err := exec.LookPath(p.command); err != nil {
			l.logger.Debug("player not available", "player", p.command)
			continue
		}
		cmd := exec.Command(p.command, externalArgs(p, url, startOffset)...)
		if err := cmd.Start(); err == nil {
			l.logger.Info("launched with detected player", "player", p.command)
			return nil
		}
	}

	l.logger.Info("no candidate players found, using system default")
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

func externalArgs(p externalPlayer, url string, startOffset time.Duration) []string {
	var args []string
	if startOffset > 0 && p.offsetFlag != "" {
		args = append(args, fmt.Sprintf("%s%.0f", p.offsetFlag, startOffset.Seconds()))
	}
	return append(args, url)
}
