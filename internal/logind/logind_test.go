package logind_test

import (
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/require"
	"github.com/ubuntu/screenlock/internal/logind"
	"github.com/ubuntu/screenlock/internal/testutils"
)

func TestConnect(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		sessionID string
		noLogind  bool

		wantPath dbus.ObjectPath
		wantErr  bool
	}{
		"Resolves_session_by_id":           {sessionID: "c2", wantPath: "/org/freedesktop/login1/session/c2"},
		"Resolves_session_of_the_process":  {sessionID: "", wantPath: "/org/freedesktop/login1/session/c1"},

		"Error_on_unknown_session":  {sessionID: "unknown", wantErr: true},
		"Error_when_logind_missing": {sessionID: "c1", noLogind: true, wantErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			addr := testutils.StartBusMock(t)
			if !tc.noLogind {
				testutils.StartLogindMock(t, addr, "c1", "c2")
			}

			s, err := logind.Connect(tc.sessionID, logind.WithConnection(testutils.ConnectBus(t, addr)))
			if tc.wantErr {
				require.Error(t, err, "Connect should return an error")
				return
			}
			require.NoError(t, err, "Connect should not return an error")
			t.Cleanup(func() { require.NoError(t, s.Close(), "Close should not return an error") })

			require.Equal(t, tc.wantPath, s.Path(), "Session path should match")
		})
	}
}

func TestSetLocked(t *testing.T) {
	t.Parallel()

	addr := testutils.StartBusMock(t)
	mock := testutils.StartLogindMock(t, addr, "c1", "c2")

	s, err := logind.Connect("c2", logind.WithConnection(testutils.ConnectBus(t, addr)))
	require.NoError(t, err, "Setup: Connect should not return an error")
	defer s.Close()

	require.NoError(t, s.SetLocked(true), "SetLocked should not return an error")
	require.NoError(t, s.SetLocked(false), "SetLocked should not return an error")

	require.Equal(t, []bool{true, false}, mock.LockedHints("c2"), "Locked hints should be sent to the session")
	require.Empty(t, mock.LockedHints("c1"), "Other sessions should not be touched")
}

func TestUnlocks(t *testing.T) {
	t.Parallel()

	addr := testutils.StartBusMock(t)
	mock := testutils.StartLogindMock(t, addr, "c1", "c2")

	s, err := logind.Connect("c1", logind.WithConnection(testutils.ConnectBus(t, addr)))
	require.NoError(t, err, "Setup: Connect should not return an error")
	defer s.Close()

	mock.EmitUnlock(t, "c2")
	select {
	case <-s.Unlocks():
		t.Fatal("Unlock of another session should be ignored")
	case <-time.After(100 * time.Millisecond):
	}

	mock.EmitUnlock(t, "c1")
	select {
	case <-s.Unlocks():
	case <-time.After(5 * time.Second):
		t.Fatal("Unlock of the session should be notified")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	addr := testutils.StartBusMock(t)
	testutils.StartLogindMock(t, addr, "c1")

	s, err := logind.Connect("c1", logind.WithConnection(testutils.ConnectBus(t, addr)))
	require.NoError(t, err, "Setup: Connect should not return an error")

	require.NoError(t, s.Close(), "First Close should not return an error")
	require.NoError(t, s.Close(), "Second Close should not return an error")
}
