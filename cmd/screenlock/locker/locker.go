// Package locker is the screenlock command line: it loads the configuration and runs the lock session.
package locker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"runtime"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ubuntu/decorate"
	"github.com/ubuntu/screenlock/internal/auth"
	"github.com/ubuntu/screenlock/internal/fallback"
	"github.com/ubuntu/screenlock/internal/lockctl"
	"github.com/ubuntu/screenlock/internal/logind"
	"github.com/ubuntu/screenlock/internal/pamauth"
	"github.com/ubuntu/screenlock/internal/scheduler"
	"github.com/ubuntu/screenlock/internal/ui"
	"github.com/ubuntu/screenlock/log"
	"golang.org/x/term"
)

// cmdName is the binary name.
const cmdName = "screenlock"

// App encapsulate commands and options of the lock screen, which can be controlled by env variables and config files.
type App struct {
	rootCmd cobra.Command
	viper   *viper.Viper
	config  lockConfig
	opts    options

	mu     sync.Mutex
	locker *lockctl.Locker
	coord  *auth.Coordinator

	ready     chan struct{}
	readyOnce sync.Once
}

// generalConfig holds the authentication settings.
type generalConfig struct {
	PAMModule        string        `mapstructure:"pam_module"`
	FallbackPassword string        `mapstructure:"fallback_password"`
	Grace            time.Duration `mapstructure:"grace"`
	IgnoreEmptyInput bool          `mapstructure:"ignore_empty_input"`
}

// lockConfig defines configuration parameters of the lock screen.
type lockConfig struct {
	Verbosity int
	General   generalConfig
	Logind    bool
	Journal   bool
}

type options struct {
	in  io.Reader
	out io.Writer

	backend            auth.Backend
	skipTerminalCheck  bool
	systemdSdNotifier  func(unsetEnvironment bool, state string) (bool, error)
	logindConnectionFn func(sessionID string) (*logind.Session, error)
}

type option func(*options)

// New registers commands and return a new App.
func New(args ...option) *App {
	opts := options{
		systemdSdNotifier: daemon.SdNotify,
		logindConnectionFn: func(sessionID string) (*logind.Session, error) {
			return logind.Connect(sessionID)
		},
	}
	for _, f := range args {
		f(&opts)
	}

	a := App{opts: opts, ready: make(chan struct{})}
	a.rootCmd = cobra.Command{
		Use:   fmt.Sprintf("%s COMMAND", cmdName),
		Short: "Terminal screen locker",
		Long:  "Lock the current terminal session until the user authenticates through PAM.",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.rootCmd.SilenceUsage = true

			setConfigDefaults(a.viper)
			if err := initViperConfig(cmdName, &a.rootCmd, a.viper); err != nil {
				return err
			}
			if err := a.viper.Unmarshal(&a.config); err != nil {
				return fmt.Errorf("unable to decode configuration into struct: %w", err)
			}

			setVerboseMode(a.config.Verbosity)
			log.Debugf(context.Background(), "Verbosity: %d", a.config.Verbosity)

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.lock(cmd.Context())
		},
		// We display usage error ourselves
		SilenceErrors: true,
	}
	a.viper = viper.New()

	installVerbosityFlag(&a.rootCmd, a.viper)
	installConfigFlag(&a.rootCmd)

	// subcommands
	a.installVersion()
	a.installFallbackDigest()

	return &a
}

// lock runs the lock session until it is unlocked or terminated.
func (a *App) lock(ctx context.Context) (err error) {
	defer a.setReady()
	defer decorate.OnError(&err, "can't lock the session")

	if ctx == nil {
		ctx = context.Background()
	}

	if !a.opts.skipTerminalCheck && !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("standard input is not a terminal")
	}

	journal := log.InitJournalHandler(a.config.Journal)

	verifier, err := fallback.New(a.config.General.FallbackPassword)
	if err != nil {
		log.Warningf(ctx, "Fallback password disabled: %v", err)
		verifier = fallback.Verifier{}
	}

	var pamOpts []pamauth.Option
	if pamConfDir != "" {
		pamOpts = append(pamOpts, pamauth.WithConfDir(pamConfDir))
	}
	backend := a.opts.backend
	if backend == nil {
		backend = pamauth.New(pamOpts...)
	}
	profile := pamauth.ResolveProfile(a.config.General.PAMModule, pamOpts...)

	sched := scheduler.New()
	lockerOpts := []lockctl.Option{
		lockctl.WithGrace(a.config.General.Grace),
		lockctl.WithIgnoreEmptyInput(a.config.General.IgnoreEmptyInput),
	}

	var session *logind.Session
	if a.config.Logind {
		session, err = a.opts.logindConnectionFn(os.Getenv("XDG_SESSION_ID"))
		if err != nil {
			log.Warningf(ctx, "Session lock state won't be published: %v", err)
		} else {
			defer func() { decorate.LogOnError(session.Close()) }()
			lockerOpts = append(lockerOpts, lockctl.WithSessionHint(session))
		}
	}

	l := lockctl.New(sched, lockerOpts...)
	coord := auth.New(backend, sched, l, auth.WithProfile(profile), auth.WithFallback(verifier))

	var uiOpts []ui.Option
	if u, err := user.Current(); err == nil {
		uiOpts = append(uiOpts, ui.WithUser(u.Username))
	}
	m := ui.New(l, coord, sched, uiOpts...)

	a.mu.Lock()
	a.locker, a.coord = l, coord
	a.mu.Unlock()

	l.Lock(coord, m)
	a.setReady()

	if session != nil {
		go func() {
			for {
				select {
				case <-session.Unlocks():
					l.UnlockExternally("logind")
				case <-l.Done():
					return
				}
			}
		}()
	}

	if sent, err := a.opts.systemdSdNotifier(false, "READY=1"); err != nil {
		log.Warningf(ctx, "Couldn't send ready notification to systemd: %v", err)
	} else if sent {
		log.Debug(ctx, "Ready state sent to systemd")
	}

	// Keep the lock screen clean from logs written to the same terminal.
	if !journal && term.IsTerminal(int(os.Stderr.Fd())) {
		restore := log.Output()
		log.SetOutput(io.Discard)
		defer log.SetOutput(restore)
	}

	if err := ui.Run(ctx, m, a.opts.in, a.opts.out); err != nil {
		l.Terminate()
		return err
	}

	// The screen can only end on its own once the session is done.
	l.Terminate()
	<-l.Done()

	if l.IsUnlocked() {
		log.Noticef(ctx, "Unlocked after %s and %d failed attempts", coord.TimeSinceLockedString(), l.FailedAttempts())
	}

	return nil
}

func (a *App) setReady() {
	a.readyOnce.Do(func() { close(a.ready) })
}

func (a *App) session() (*lockctl.Locker, *auth.Coordinator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.locker, a.coord
}

// Run executes the command and associated process. It returns an error on syntax/usage error.
func (a *App) Run() error {
	// Subcommands never lock, but signals may still wait for the session.
	defer a.setReady()
	return a.rootCmd.Execute()
}

// UsageError returns if the error is a command parsing or runtime one.
func (a *App) UsageError() bool {
	return !a.rootCmd.SilenceUsage
}

// Hup prints all goroutine stack traces and return false to signal you shouldn't quit.
func (a *App) Hup() (shouldQuit bool) {
	buf := make([]byte, 1<<16)
	n := runtime.Stack(buf, true)
	fmt.Fprintf(os.Stderr, "%s", buf[:n])
	return false
}

// Quit ends the lock session without unlocking it.
func (a *App) Quit() {
	a.WaitReady()
	if l, _ := a.session(); l != nil {
		l.Terminate()
	}
}

// Unlock unlocks the session without authentication.
func (a *App) Unlock() {
	a.WaitReady()
	if l, _ := a.session(); l != nil {
		l.UnlockExternally("SIGUSR1")
	}
}

// WaitReady returns once the session is locked, or failed to.
func (a *App) WaitReady() {
	<-a.ready
}

// RootCmd returns a copy of the root command for the app.
// Shouldn't be in general necessary apart when running generators.
func (a *App) RootCmd() *cobra.Command {
	return &a.rootCmd
}
