package locker

import (
	"io"
	"testing"

	"github.com/ubuntu/screenlock/internal/auth"
)

// LockConfig is the configuration of the lock screen, for tests.
type LockConfig = lockConfig

// NewForTests returns an App running args, with the given IO and backend, without terminal checks
// nor systemd notifications.
func NewForTests(t *testing.T, in io.Reader, out io.Writer, backend auth.Backend, args ...string) *App {
	t.Helper()

	a := New(func(o *options) {
		o.in = in
		o.out = out
		o.backend = backend
		o.skipTerminalCheck = true
		o.systemdSdNotifier = func(bool, string) (bool, error) { return false, nil }
	})
	a.rootCmd.SetArgs(args)
	return a
}

// Config returns the loaded configuration.
func (a *App) Config() LockConfig {
	return a.config
}

// CheckWaiting returns whether the lock screen currently ignores input, or true if not locked yet.
func (a *App) CheckWaiting() bool {
	_, coord := a.session()
	if coord == nil {
		return true
	}
	return coord.CheckWaiting()
}

// IsUnlocked returns whether the session got unlocked.
func (a *App) IsUnlocked() bool {
	l, _ := a.session()
	return l != nil && l.IsUnlocked()
}

// FailedAttempts returns the number of failed attempts of the lock session.
func (a *App) FailedAttempts() int {
	l, _ := a.session()
	if l == nil {
		return 0
	}
	return l.FailedAttempts()
}
