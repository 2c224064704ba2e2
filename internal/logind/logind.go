// Package logind publishes the lock state to systemd-logind and relays its unlock requests.
package logind

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/ubuntu/decorate"
	"github.com/ubuntu/screenlock/log"
)

const (
	busName          = "org.freedesktop.login1"
	managerPath      = dbus.ObjectPath("/org/freedesktop/login1")
	managerInterface = "org.freedesktop.login1.Manager"
	sessionInterface = "org.freedesktop.login1.Session"
)

// Session is a logind session.
type Session struct {
	conn    *dbus.Conn
	ownConn bool
	obj     dbus.BusObject

	signals chan *dbus.Signal
	unlocks chan struct{}

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

type options struct {
	conn *dbus.Conn
}

// Option is the function signature used to tweak the session connection.
type Option func(*options)

// WithConnection uses conn instead of a new system bus connection. conn is not closed by the session.
func WithConnection(conn *dbus.Conn) Option {
	return func(o *options) {
		o.conn = conn
	}
}

// Connect resolves the logind session sessionID, or the session of the process if empty.
func Connect(sessionID string, args ...Option) (s *Session, err error) {
	defer decorate.OnError(&err, "could not connect to logind session %q", sessionID)

	var opts options
	for _, f := range args {
		f(&opts)
	}

	conn, ownConn := opts.conn, false
	if conn == nil {
		if conn, err = dbus.ConnectSystemBus(); err != nil {
			return nil, err
		}
		ownConn = true
	}
	defer func() {
		if err != nil && ownConn {
			_ = conn.Close()
		}
	}()

	manager := conn.Object(busName, managerPath)
	var path dbus.ObjectPath
	if sessionID == "" {
		err = manager.Call(managerInterface+".GetSessionByPID", 0, uint32(os.Getpid())).Store(&path)
	} else {
		err = manager.Call(managerInterface+".GetSession", 0, sessionID).Store(&path)
	}
	if err != nil {
		return nil, err
	}
	log.Debugf(context.Background(), "Using logind session %s", path)

	if err := conn.AddMatchSignal(unlockMatch(path)...); err != nil {
		return nil, fmt.Errorf("could not register to Unlock signal: %w", err)
	}

	s = &Session{
		conn:    conn,
		ownConn: ownConn,
		obj:     conn.Object(busName, path),
		signals: make(chan *dbus.Signal, 10),
		unlocks: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	conn.Signal(s.signals)

	s.wg.Add(1)
	go s.handleSignals()

	return s, nil
}

func unlockMatch(path dbus.ObjectPath) []dbus.MatchOption {
	return []dbus.MatchOption{
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(sessionInterface),
		dbus.WithMatchSender(busName),
		dbus.WithMatchMember("Unlock"),
	}
}

// Path returns the object path of the session.
func (s *Session) Path() dbus.ObjectPath {
	return s.obj.Path()
}

// SetLocked sets the LockedHint of the session.
func (s *Session) SetLocked(locked bool) error {
	if err := s.obj.Call(sessionInterface+".SetLockedHint", 0, locked).Err; err != nil {
		return fmt.Errorf("could not set locked hint: %w", err)
	}
	return nil
}

// Unlocks notifies of the Unlock requests for the session. Notifications are dropped while one is pending.
func (s *Session) Unlocks() <-chan struct{} {
	return s.unlocks
}

// Close stops listening to the session signals.
func (s *Session) Close() (err error) {
	s.closeOnce.Do(func() {
		s.conn.RemoveSignal(s.signals)
		err = s.conn.RemoveMatchSignal(unlockMatch(s.obj.Path())...)
		close(s.done)
		s.wg.Wait()

		if s.ownConn {
			if e := s.conn.Close(); e != nil && err == nil {
				err = e
			}
		}
	})
	return err
}

func (s *Session) handleSignals() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case sig, ok := <-s.signals:
			if !ok {
				return
			}
			// Seems to happen on close.
			if sig == nil {
				continue
			}
			if sig.Path != s.obj.Path() || sig.Name != sessionInterface+".Unlock" {
				continue
			}

			log.Info(context.Background(), "Unlock requested by logind")
			select {
			case s.unlocks <- struct{}{}:
			default:
			}
		}
	}
}
