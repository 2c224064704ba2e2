// Package pamauth authenticates the current user through the PAM stack.
package pamauth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"github.com/msteinert/pam/v2"
	"github.com/ubuntu/decorate"
	"github.com/ubuntu/screenlock/internal/auth"
	"github.com/ubuntu/screenlock/internal/consts"
	"github.com/ubuntu/screenlock/log"
	"golang.org/x/sys/unix"
)

// Backend runs PAM transactions on behalf of the lock screen.
type Backend struct {
	confDir string
	user    string
}

type options struct {
	confDir string
	user    string
}

// Option is the function signature used to tweak the backend creation.
type Option func(*options)

// WithConfDir loads the PAM profiles from dir instead of the system directory.
func WithConfDir(dir string) Option {
	return func(o *options) {
		o.confDir = dir
	}
}

// WithUser authenticates name instead of the user running the process.
func WithUser(name string) Option {
	return func(o *options) {
		o.user = name
	}
}

// New returns a PAM backend.
func New(args ...Option) *Backend {
	var opts options
	for _, f := range args {
		f(&opts)
	}

	return &Backend{
		confDir: opts.confDir,
		user:    opts.user,
	}
}

// Authenticate runs one PAM authentication for profile, answering the stack through conv.
func (b *Backend) Authenticate(profile string, conv auth.Conversation) (err error) {
	defer decorate.OnError(&err, "PAM authentication against %q", profile)

	name, err := b.userName()
	if err != nil {
		return fmt.Errorf("%w: %w", auth.ErrBackendUnavailable, err)
	}

	tx, err := b.start(profile, name, conversationHandler(conv))
	if err != nil {
		return fmt.Errorf("%w: %w", auth.ErrBackendUnavailable, err)
	}
	defer func() {
		if err := tx.End(); err != nil {
			log.Warningf(context.Background(), "Could not end PAM transaction: %v", err)
		}
	}()

	if err := tx.Authenticate(0); err != nil {
		if isAuthFailure(err) {
			return fmt.Errorf("%w: %w", auth.ErrAuthFailed, err)
		}
		return err
	}

	return nil
}

func (b *Backend) start(profile, name string, conv pam.ConversationHandler) (*pam.Transaction, error) {
	if b.confDir != "" {
		return pam.StartConfDir(profile, name, conv, b.confDir)
	}
	return pam.Start(profile, name, conv)
}

func (b *Backend) userName() (string, error) {
	if b.user != "" {
		return b.user, nil
	}

	u, err := user.LookupId(strconv.Itoa(unix.Getuid()))
	if err != nil {
		return "", fmt.Errorf("could not get current user: %w", err)
	}
	return u.Username, nil
}

func conversationHandler(conv auth.Conversation) pam.ConversationFunc {
	return func(style pam.Style, msg string) (string, error) {
		switch style {
		case pam.PromptEchoOff:
			return conv.Prompt(msg, false)
		case pam.PromptEchoOn:
			return conv.Prompt(msg, true)
		case pam.ErrorMsg:
			conv.ErrorMessage(msg)
			return "", nil
		case pam.TextInfo:
			conv.InfoMessage(msg)
			return "", nil
		default:
			return "", fmt.Errorf("PAM style %d not implemented", style)
		}
	}
}

func isAuthFailure(err error) bool {
	for _, e := range []error{pam.ErrAuth, pam.ErrUserUnknown, pam.ErrMaxtries, pam.ErrPermDenied} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// ResolveProfile returns name if such a PAM profile exists, the default profile otherwise.
func ResolveProfile(name string, args ...Option) string {
	opts := options{confDir: consts.PAMConfDir}
	for _, f := range args {
		f(&opts)
	}

	if name == "" {
		return consts.DefaultPAMProfile
	}

	if _, err := os.Stat(filepath.Join(opts.confDir, name)); err != nil {
		log.Warningf(context.Background(), "PAM profile %q not found in %s, falling back to %q: %v",
			name, opts.confDir, consts.DefaultPAMProfile, err)
		return consts.DefaultPAMProfile
	}

	return name
}
