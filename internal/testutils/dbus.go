// Package testutils provides utility functions and behaviors for testing.
package testutils

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

var busMockCfg = `<!DOCTYPE busconfig PUBLIC "-//freedesktop//DTD D-Bus Bus Configuration 1.0//EN"
 "http://www.freedesktop.org/standards/dbus/1.0/busconfig.dtd">
<busconfig>
  <type>system</type>
  <keep_umask/>
  <listen>unix:path=%s</listen>
  <policy context="default">
    <allow user="*"/>
    <allow send_destination="*" eavesdrop="true"/>
    <allow eavesdrop="true"/>
    <allow own="*"/>
  </policy>
</busconfig>
`

// StartBusMock starts a private dbus daemon for the duration of the test and returns its address.
// The test is skipped if dbus-daemon is not installed.
func StartBusMock(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("dbus-daemon"); err != nil {
		t.Skip("dbus-daemon is not installed")
	}

	// Socket paths are limited in length, so don't use t.TempDir().
	tmp, err := os.MkdirTemp("", "screenlock-bus-mock")
	if err != nil {
		t.Fatalf("Setup: could not create bus directory: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tmp) })

	cfgPath := filepath.Join(tmp, "bus.conf")
	listenPath := filepath.Join(tmp, "bus.sock")
	if err := os.WriteFile(cfgPath, []byte(fmt.Sprintf(busMockCfg, listenPath)), 0600); err != nil {
		t.Fatalf("Setup: could not write bus configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	//#nosec:G204 // This is a test helper and we are in control of the arguments.
	cmd := exec.CommandContext(ctx, "dbus-daemon", "--config-file="+cfgPath, "--nofork")
	if err := cmd.Start(); err != nil {
		cancel()
		t.Fatalf("Setup: could not start dbus-daemon: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		_ = cmd.Wait()
	})

	addr := "unix:path=" + listenPath
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(listenPath); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Setup: dbus-daemon did not create its socket %s", listenPath)
		}
		time.Sleep(10 * time.Millisecond)
	}

	return addr
}

// ConnectBus opens a private connection to the bus at addr, closed at the end of the test.
func ConnectBus(t *testing.T, addr string) *dbus.Conn {
	t.Helper()

	conn, err := dbus.Connect(addr)
	if err != nil {
		t.Fatalf("Setup: could not connect to bus %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}
