// Package lockctl owns the state of a locked session and decides when it ends.
//
// Unless stated otherwise, the methods of a Locker must be called on the scheduler
// consumer goroutine, which is also where the Frontend lives.
package lockctl

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ubuntu/screenlock/log"
)

// Authenticator is the authentication worker of a lock session.
type Authenticator interface {
	Start()
	SubmitInput(secret string)
	CheckWaiting() bool
	IsAuthenticated() bool
	Terminate()
}

// Frontend is the lock screen the user interacts with.
type Frontend interface {
	ClearInput()
	Redraw()
	Quit()
}

// Poster queues callbacks to the frontend goroutine.
type Poster interface {
	Post(fn func())
	PostDeferred(delay time.Duration, fn func())
	Stop()
}

// LockedHinter publishes the lock state to the session manager.
type LockedHinter interface {
	SetLocked(locked bool) error
}

// Locker is the lock controller of one session.
type Locker struct {
	sched       Poster
	grace       time.Duration
	ignoreEmpty bool
	hinter      LockedHinter
	now         func() time.Time

	mu       sync.Mutex
	auth     Authenticator
	fe       Frontend
	lockedAt time.Time

	unlocked    atomic.Bool
	terminating atomic.Bool
	failed      atomic.Int64

	done     chan struct{}
	doneOnce sync.Once
}

type options struct {
	grace       time.Duration
	ignoreEmpty bool
	hinter      LockedHinter
	now         func() time.Time
}

// Option is the function signature used to tweak the locker creation.
type Option func(*options)

// WithGrace unlocks on any input submitted within d after locking.
func WithGrace(d time.Duration) Option {
	return func(o *options) {
		o.grace = d
	}
}

// WithIgnoreEmptyInput drops empty submissions instead of trying them.
func WithIgnoreEmptyInput(ignore bool) Option {
	return func(o *options) {
		o.ignoreEmpty = ignore
	}
}

// WithSessionHint publishes the lock state through h.
func WithSessionHint(h LockedHinter) Option {
	return func(o *options) {
		o.hinter = h
	}
}

// WithClock overrides the time source used for the grace period.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New returns a locker posting its UI work to sched.
func New(sched Poster, args ...Option) *Locker {
	opts := options{now: time.Now}
	for _, f := range args {
		f(&opts)
	}

	return &Locker{
		sched:       sched,
		grace:       opts.grace,
		ignoreEmpty: opts.ignoreEmpty,
		hinter:      opts.hinter,
		now:         opts.now,
		done:        make(chan struct{}),
	}
}

// Lock locks the session and starts authenticating through a.
// It can be called from any goroutine, once.
func (l *Locker) Lock(a Authenticator, fe Frontend) {
	l.mu.Lock()
	l.auth = a
	l.fe = fe
	l.lockedAt = l.now()
	l.mu.Unlock()

	log.Notice(context.Background(), "Session locked")
	l.setHint(true)

	a.Start()
}

// Submit tries secret, unless an attempt is already in flight.
func (l *Locker) Submit(secret string) {
	ctx := context.Background()
	a, _, lockedAt := l.session()
	if a == nil || l.IsUnlocked() || l.IsTerminating() {
		return
	}

	if a.CheckWaiting() {
		log.Debug(ctx, "Input ignored while an attempt is in progress")
		return
	}

	if l.grace > 0 && l.now().Sub(lockedAt) < l.grace {
		// Already on the consumer goroutine: posting could block on a full queue.
		if l.markUnlocked("input within grace period") {
			l.unlock()
		}
		return
	}

	if secret == "" && l.ignoreEmpty {
		log.Debug(ctx, "Empty input ignored")
		return
	}

	a.SubmitInput(secret)
}

// OnAttemptResult unlocks after a successful attempt, or starts a new one.
func (l *Locker) OnAttemptResult() {
	a, fe, _ := l.session()
	if a == nil || l.IsUnlocked() || l.IsTerminating() {
		return
	}

	if a.IsAuthenticated() {
		l.unlocked.Store(true)
		l.unlock()
		return
	}

	n := l.failed.Add(1)
	log.Infof(context.Background(), "Authentication attempt failed (%d so far)", n)

	fe.ClearInput()
	a.Start()
	fe.Redraw()
}

// UnlockExternally ends the lock without authentication, for instance on a session manager request.
// It can be called from any goroutine.
func (l *Locker) UnlockExternally(reason string) {
	if !l.markUnlocked(reason) {
		return
	}
	l.sched.Post(l.unlock)
}

// markUnlocked flags the session as unlocked and stops the worker.
// It returns false if the session was already unlocked or is terminating.
func (l *Locker) markUnlocked(reason string) bool {
	if l.IsTerminating() || !l.unlocked.CompareAndSwap(false, true) {
		return false
	}
	log.Noticef(context.Background(), "Unlock requested: %s", reason)

	if a, _, _ := l.session(); a != nil {
		a.Terminate()
	}
	return true
}

// Terminate ends the lock session while keeping it locked.
// It can be called from any goroutine.
func (l *Locker) Terminate() {
	if !l.terminating.CompareAndSwap(false, true) {
		return
	}
	log.Notice(context.Background(), "Terminating")
	l.finish()
}

// IsUnlocked returns true once the session is unlocked.
func (l *Locker) IsUnlocked() bool {
	return l.unlocked.Load()
}

// IsTerminating returns true once the lock session is ending.
func (l *Locker) IsTerminating() bool {
	return l.terminating.Load()
}

// FailedAttempts returns the number of failed attempts since locking.
func (l *Locker) FailedAttempts() int {
	return int(l.failed.Load())
}

// ClearInputBuffer empties the visible input.
func (l *Locker) ClearInputBuffer() {
	if _, fe, _ := l.session(); fe != nil {
		fe.ClearInput()
	}
}

// RequestRedraw asks the frontend to render again. It can be called from any goroutine.
func (l *Locker) RequestRedraw() {
	l.sched.Post(func() {
		if _, fe, _ := l.session(); fe != nil {
			fe.Redraw()
		}
	})
}

// Done is closed when the lock session is over.
func (l *Locker) Done() <-chan struct{} {
	return l.done
}

func (l *Locker) unlock() {
	log.Notice(context.Background(), "Session unlocked")
	l.setHint(false)

	if _, fe, _ := l.session(); fe != nil {
		fe.Quit()
	}

	l.terminating.Store(true)
	l.finish()
}

func (l *Locker) finish() {
	if a, _, _ := l.session(); a != nil {
		a.Terminate()
	}
	l.sched.Stop()
	l.doneOnce.Do(func() { close(l.done) })
}

func (l *Locker) setHint(locked bool) {
	if l.hinter == nil {
		return
	}
	if err := l.hinter.SetLocked(locked); err != nil {
		log.Warningf(context.Background(), "Could not set session locked hint to %v: %v", locked, err)
	}
}

func (l *Locker) session() (Authenticator, Frontend, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.auth, l.fe, l.lockedAt
}
