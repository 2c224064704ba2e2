package testutils

import (
	"sync"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	logindBusName          = "org.freedesktop.login1"
	logindManagerPath      = dbus.ObjectPath("/org/freedesktop/login1")
	logindManagerInterface = "org.freedesktop.login1.Manager"
	logindSessionInterface = "org.freedesktop.login1.Session"
)

// LogindMock serves a minimal org.freedesktop.login1 on a test bus.
type LogindMock struct {
	conn *dbus.Conn

	manager  *logindManagerMock
	ids      []string
	sessions map[string]*logindSessionMock
}

type logindManagerMock struct {
	m *LogindMock
}

type logindSessionMock struct {
	path dbus.ObjectPath

	mu    sync.Mutex
	hints []bool
}

// StartLogindMock exports sessions with the given IDs on the bus at addr.
// The session of the calling process is the first one.
func StartLogindMock(t *testing.T, addr string, sessionIDs ...string) *LogindMock {
	t.Helper()

	conn := ConnectBus(t, addr)
	m := &LogindMock{conn: conn, sessions: make(map[string]*logindSessionMock)}
	m.manager = &logindManagerMock{m: m}

	exportObject(t, conn, m.manager, logindManagerPath, logindManagerInterface)
	for _, id := range sessionIDs {
		s := &logindSessionMock{path: dbus.ObjectPath("/org/freedesktop/login1/session/" + id)}
		m.sessions[id] = s
		m.ids = append(m.ids, id)
		exportObject(t, conn, s, s.path, logindSessionInterface)
	}

	reply, err := conn.RequestName(logindBusName, dbus.NameFlagDoNotQueue)
	if err != nil || reply != dbus.RequestNameReplyPrimaryOwner {
		t.Fatalf("Setup: could not own %s: %v (reply %v)", logindBusName, err, reply)
	}
	t.Cleanup(func() { _, _ = conn.ReleaseName(logindBusName) })

	return m
}

func exportObject(t *testing.T, conn *dbus.Conn, obj interface{}, path dbus.ObjectPath, iface string) {
	t.Helper()

	if err := conn.Export(obj, path, iface); err != nil {
		t.Fatalf("Setup: could not export %s: %v", path, err)
	}
	if err := conn.Export(introspect.NewIntrospectable(&introspect.Node{
		Name: string(path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{Name: iface, Methods: introspect.Methods(obj)},
		},
	}), path, introspect.IntrospectData.Name); err != nil {
		t.Fatalf("Setup: could not export introspection of %s: %v", path, err)
	}
}

// SessionPath returns the object path of the session id.
func (m *LogindMock) SessionPath(id string) dbus.ObjectPath {
	s, ok := m.sessions[id]
	if !ok {
		return ""
	}
	return s.path
}

// LockedHints returns the successive values the session id got with SetLockedHint.
func (m *LogindMock) LockedHints(id string) []bool {
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.hints...)
}

// EmitUnlock sends the Unlock signal of the session id.
func (m *LogindMock) EmitUnlock(t *testing.T, id string) {
	t.Helper()

	if err := m.conn.Emit(m.SessionPath(id), logindSessionInterface+".Unlock"); err != nil {
		t.Fatalf("Could not emit Unlock signal: %v", err)
	}
}

func (mm *logindManagerMock) GetSession(id string) (dbus.ObjectPath, *dbus.Error) {
	s, ok := mm.m.sessions[id]
	if !ok {
		return "", dbus.NewError("org.freedesktop.login1.NoSuchSession", []interface{}{"No session '" + id + "' known"})
	}
	return s.path, nil
}

func (mm *logindManagerMock) GetSessionByPID(_ uint32) (dbus.ObjectPath, *dbus.Error) {
	if len(mm.m.ids) > 0 {
		return mm.m.sessions[mm.m.ids[0]].path, nil
	}
	return "", dbus.NewError("org.freedesktop.login1.NoSessionForPID", []interface{}{"PID does not belong to any known session"})
}

func (s *logindSessionMock) SetLockedHint(locked bool) *dbus.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hints = append(s.hints, locked)
	return nil
}
