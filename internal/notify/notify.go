// Package notify raises desktop notifications through the host platform's
// native tooling.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/simplygenius/atmos-sub001/internal/logging"
	"github.com/simplygenius/atmos-sub001/internal/platform"
)

var notifyLog = logging.ForComponent(logging.CompNotify)

// DefaultTitle is used when Config.Title is empty.
const DefaultTitle = "atmos"

// DefaultTimeout bounds a single dispatch.
const DefaultTimeout = 10 * time.Second

// Config controls the notifier.
type Config struct {
	// Disable turns every Notify into a successful no-op.
	Disable bool

	// Title heads each notification.
	Title string

	// MinInterval is the minimum spacing between dispatched notifications.
	// Calls arriving sooner succeed without notifying. Zero means no limit.
	MinInterval time.Duration

	// Timeout bounds one dispatch (default: DefaultTimeout).
	Timeout time.Duration
}

// Result describes a dispatched notification.
type Result struct {
	// Stdout is what the backend command printed.
	Stdout string
	// Success is false when the backend ran but reported failure.
	Success bool
}

// runFunc runs a backend command and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Notifier dispatches notifications. Safe for concurrent use; dispatches
// are serialized.
type Notifier struct {
	cfg      Config
	limiter  *rate.Limiter
	platform platform.Platform
	run      runFunc
	lookPath func(string) (string, error)

	mu sync.Mutex
}

// New returns a Notifier for the current platform.
func New(cfg Config) *Notifier {
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	return &Notifier{
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, 1),
		platform: platform.Detect(),
		run:      runCommand,
		lookPath: exec.LookPath,
	}
}

// Notify raises message at level ("info", "warn" or "error").
//
// A disabled or throttled notifier returns a successful empty Result. On a
// platform with no backend it returns ErrNotSupported.
func (n *Notifier) Notify(ctx context.Context, message, level string) (Result, error) {
	if n.cfg.Disable {
		return Result{Success: true}, nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.limiter.Allow() {
		notifyLog.Debug("notification_throttled", slog.String("level", level))
		return Result{Success: true}, nil
	}

	name, args, err := n.command(message, level)
	if err != nil {
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	out, err := n.run(ctx, name, args...)
	res := Result{Stdout: strings.TrimSpace(string(out)), Success: err == nil}
	if err != nil {
		notifyLog.Warn("notification_failed",
			slog.String("backend", name),
			slog.String("error", err.Error()))
		return res, nil
	}
	notifyLog.Debug("notification_sent",
		slog.String("backend", name),
		slog.String("level", level))
	return res, nil
}

// command picks the backend for the detected platform.
func (n *Notifier) command(message, level string) (string, []string, error) {
	switch n.platform {
	case platform.PlatformMacOS:
		script := fmt.Sprintf("display notification %s with title %s",
			appleScriptString(message), appleScriptString(n.cfg.Title))
		return "osascript", []string{"-e", script}, nil

	case platform.PlatformLinux:
		path, err := n.lookPath("notify-send")
		if err != nil {
			return "", nil, fmt.Errorf("%w: notify-send not found", ErrNotSupported)
		}
		return path, []string{"--urgency", urgency(level), n.cfg.Title, message}, nil

	case platform.PlatformWSL1, platform.PlatformWSL2, platform.PlatformWindows:
		return "powershell.exe", []string{"-NoProfile", "-NonInteractive", "-Command",
			balloonScript(n.cfg.Title, message, level)}, nil
	}
	return "", nil, fmt.Errorf("%w: %s", ErrNotSupported, n.platform)
}

func urgency(level string) string {
	switch level {
	case "error":
		return "critical"
	case "debug":
		return "low"
	}
	return "normal"
}

// appleScriptString quotes s as an AppleScript string literal.
func appleScriptString(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

// psString quotes s as a single-quoted PowerShell literal.
func psString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func balloonScript(title, message, level string) string {
	icon := "Info"
	switch level {
	case "warn":
		icon = "Warning"
	case "error":
		icon = "Error"
	}
	return strings.Join([]string{
		"Add-Type -AssemblyName System.Windows.Forms",
		"$n = New-Object System.Windows.Forms.NotifyIcon",
		"$n.Icon = [System.Drawing.SystemIcons]::Information",
		"$n.BalloonTipIcon = '" + icon + "'",
		"$n.BalloonTipTitle = " + psString(title),
		"$n.BalloonTipText = " + psString(message),
		"$n.Visible = $true",
		"$n.ShowBalloonTip(5000)",
		"Start-Sleep -Seconds 5",
		"$n.Dispose()",
	}, "; ")
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
