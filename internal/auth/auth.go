// Package auth coordinates the authentication of a locked session.
//
// A Coordinator runs one authentication attempt per call to Start on a dedicated worker
// goroutine. The worker hands prompts to, and receives secrets from, the UI thread through a
// mutex and condition variable protected conversation state. Anything that must happen on the
// UI thread is posted to a Scheduler.
package auth

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ubuntu/screenlock/internal/consts"
	"github.com/ubuntu/screenlock/internal/fallback"
	"github.com/ubuntu/screenlock/log"
)

var (
	// ErrBackendUnavailable is returned by a Backend when no authentication session could be started.
	ErrBackendUnavailable = errors.New("authentication service unavailable")
	// ErrAuthFailed is returned by a Backend when the secret was rejected.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrAborted is returned by the conversation when the attempt must stop without an answer.
	ErrAborted = errors.New("authentication aborted")
)

// Conversation is the set of callbacks a Backend drives during one attempt.
type Conversation interface {
	// Prompt asks for a secret (echo false) or visible input (echo true).
	Prompt(msg string, echo bool) (string, error)
	// ErrorMessage reports an error message from the backend.
	ErrorMessage(msg string)
	// InfoMessage reports an informational message from the backend.
	InfoMessage(msg string)
}

// Backend runs one authentication attempt for the given profile.
type Backend interface {
	Authenticate(profile string, conv Conversation) error
}

// Scheduler runs callbacks on the UI thread.
type Scheduler interface {
	PostDeferred(delay time.Duration, fn func())
}

// Controller owns the global lock state.
// ClearInputBuffer and OnAttemptResult are only called from Scheduler callbacks.
type Controller interface {
	IsUnlocked() bool
	IsTerminating() bool
	ClearInputBuffer()
	OnAttemptResult()
	RequestRedraw()
}

// Coordinator drives the authentication of a lock session.
type Coordinator struct {
	backend Backend
	sched   Scheduler
	ctl     Controller

	profile  string
	fallback fallback.Verifier
	session  string

	state conversationState
	// blockInput is guarded by state.mu.
	blockInput bool

	authenticated atomic.Bool
	running       atomic.Bool
}

type options struct {
	profile  string
	fallback fallback.Verifier
	now      func() time.Time
}

// Option is the function signature used to tweak the coordinator creation.
type Option func(*options)

// WithProfile selects the backend profile to authenticate against.
func WithProfile(profile string) Option {
	return func(o *options) {
		o.profile = profile
	}
}

// WithFallback sets the verifier checked before contacting the backend.
func WithFallback(v fallback.Verifier) Option {
	return func(o *options) {
		o.fallback = v
	}
}

// WithClock overrides the time source used to measure the lock duration.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New returns a coordinator for a new lock session. The lock duration is measured from now.
func New(backend Backend, sched Scheduler, ctl Controller, args ...Option) *Coordinator {
	opts := options{
		profile: consts.DefaultPAMProfile,
		now:     time.Now,
	}
	for _, f := range args {
		f(&opts)
	}

	c := &Coordinator{
		backend:  backend,
		sched:    sched,
		ctl:      ctl,
		profile:  opts.profile,
		fallback: opts.fallback,
		session:  uuid.New().String(),

		// Input is only accepted once the worker asks for it.
		blockInput: true,
	}
	c.state.init(opts.now)

	log.Debugf(context.Background(), "Lock session %s: authenticating against profile %q (fallback enabled: %v)",
		c.session, c.profile, c.fallback.Enabled())

	return c
}

// Start spawns the worker running one authentication attempt.
// It can be called again once the previous attempt has published its result.
func (c *Coordinator) Start() {
	if !c.running.CompareAndSwap(false, true) {
		log.Warningf(context.Background(), "Lock session %s: authentication already in progress, ignoring start request", c.session)
		return
	}

	go func() {
		publish := c.run()
		// Released before publishing so that the result handler can start a new attempt.
		c.running.Store(false)
		if publish {
			c.sched.PostDeferred(consts.SchedulerTick, c.ctl.OnAttemptResult)
		}
	}()
}

// run is the worker body. It returns whether the result has to be published to the controller.
func (c *Coordinator) run() bool {
	ctx := context.Background()

	c.resetConversation()
	c.state.setPrompt(consts.DefaultPrompt)

	if !c.waitForInput() {
		log.Debugf(ctx, "Lock session %s: terminating before any attempt", c.session)
		return false
	}

	// Grace period or external unlocks.
	if c.ctl.IsUnlocked() {
		return false
	}

	ok := c.attempt()
	c.state.dropInput()
	if ok {
		c.authenticated.Store(true)
	}

	return !c.ctl.IsUnlocked() && !c.ctl.IsTerminating()
}

// attempt runs one authentication attempt with the currently held secret.
func (c *Coordinator) attempt() bool {
	ctx := context.Background()

	if c.fallback.Enabled() && c.state.inputMatches(c.fallback) {
		log.Noticef(ctx, "Lock session %s: unlocking with fallback password", c.session)
		c.state.mu.Lock()
		c.state.waitingForBackend = false
		c.state.failText = consts.TextAuthenticated
		c.state.mu.Unlock()
		return true
	}

	conv := &conversation{c: c}
	err := c.backend.Authenticate(c.profile, conv)

	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	c.state.waitingForBackend = false

	switch {
	case err == nil:
		c.state.failText = consts.TextAuthenticated
		log.Noticef(ctx, "Lock session %s: authenticated for %s", c.session, c.profile)
		return true
	case conv.aborted:
		log.Debugf(ctx, "Lock session %s: attempt aborted", c.session)
		return false
	case errors.Is(err, ErrBackendUnavailable):
		c.state.failText = consts.TextBackendUnavailable
		log.Errorf(ctx, "Lock session %s: %v", c.session, err)
		return false
	}

	if !c.state.failTextFromBackend {
		c.state.failText = consts.TextAuthError
		if errors.Is(err, ErrAuthFailed) {
			c.state.failText = consts.TextAuthFailed
		}
	}
	log.Warningf(ctx, "Lock session %s: %v for %s", c.session, err, c.profile)

	return false
}

// waitForInput blocks the worker until a secret is submitted or the controller terminates.
// It returns false when woken up by termination.
func (c *Coordinator) waitForInput() bool {
	// The visible input can only be cleared from the UI thread.
	c.sched.PostDeferred(consts.SchedulerTick, c.ctl.ClearInputBuffer)

	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	c.blockInput = false
	c.state.waitingForBackend = false
	c.state.inputRequested = true

	for c.state.inputRequested && !c.ctl.IsTerminating() {
		c.state.inputSubmitted.Wait()
	}
	c.blockInput = true

	return !c.ctl.IsTerminating()
}

// SubmitInput hands secret over to the worker.
// It is expected to be called only while the worker is waiting for input.
func (c *Coordinator) SubmitInput(secret string) {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	if !c.state.inputRequested {
		log.Errorf(context.Background(), "Lock session %s: input submitted while the authentication worker is not waiting for it", c.session)
	}

	clear(c.state.input)
	c.state.input = []byte(secret)
	c.state.inputRequested = false
	c.state.waitingForBackend = true
	c.state.inputSubmitted.Broadcast()
}

// IsAuthenticated returns true once an attempt succeeded.
func (c *Coordinator) IsAuthenticated() bool {
	return c.authenticated.Load()
}

// LastFailText returns the last result text, if any.
func (c *Coordinator) LastFailText() (string, bool) {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	return c.state.failText, c.state.failText != ""
}

// LastPrompt returns the last prompt requested by the backend, if any.
func (c *Coordinator) LastPrompt() (string, bool) {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	return c.state.prompt, c.state.prompt != ""
}

// TimeSinceLocked returns for how long the session has been locked.
func (c *Coordinator) TimeSinceLocked() time.Duration {
	return c.state.now().Sub(c.state.startTime)
}

// TimeSinceLockedString returns the lock duration formatted by [FormatDuration].
func (c *Coordinator) TimeSinceLockedString() string {
	return FormatDuration(c.TimeSinceLocked())
}

// CheckWaiting returns true while the UI must not accept new input.
func (c *Coordinator) CheckWaiting() bool {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	return c.blockInput || c.state.waitingForBackend
}

// Terminate wakes up the worker so that it can notice that the controller is terminating.
func (c *Coordinator) Terminate() {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	c.state.inputSubmitted.Broadcast()
}

// SessionID returns the identifier of the lock session, as used in the logs.
func (c *Coordinator) SessionID() string {
	return c.session
}

func (c *Coordinator) resetConversation() {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	clear(c.state.input)
	c.state.input = nil
	c.blockInput = true
	c.state.waitingForBackend = false
	c.state.inputRequested = false
	c.state.failTextFromBackend = false
}
