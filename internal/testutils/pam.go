package testutils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/msteinert/pam/v2"
)

// PAMControl is the control flag of a PAM service line.
type PAMControl string

const (
	// Required modules must succeed, but the stack keeps going.
	Required PAMControl = "required"
	// Requisite modules stop the stack on failure.
	Requisite PAMControl = "requisite"
	// Sufficient modules end the stack on success.
	Sufficient PAMControl = "sufficient"
)

const (
	// PermitModule always succeeds.
	PermitModule = "pam_permit.so"
	// DenyModule always fails with an authentication error.
	DenyModule = "pam_deny.so"
	// DebugModule returns the results given as arguments, like auth=user_unknown.
	DebugModule = "pam_debug.so"
	// ExecModule runs a command. With expose_authtok it prompts for a password first.
	ExecModule = "pam_exec.so"
)

// PAMAuthLine is an auth line of a PAM service file.
type PAMAuthLine struct {
	Control PAMControl
	Module  string
	Args    []string
}

// SkipIfNoPAMConfDir skips the test if libpam can't load services from a custom directory.
func SkipIfNoPAMConfDir(t *testing.T) {
	t.Helper()

	if !pam.CheckPamHasStartConfdir() {
		t.Skip("libpam does not support loading services from a custom directory")
	}
}

// CreatePAMService writes a service file named name in a temporary directory and returns the directory.
func CreatePAMService(t *testing.T, name string, lines ...PAMAuthLine) (confDir string) {
	t.Helper()

	confDir = t.TempDir()
	contents := make([]string, 0, len(lines))
	for _, l := range lines {
		fields := append([]string{"auth", string(l.Control), l.Module}, l.Args...)
		contents = append(contents, strings.Join(fields, "\t"))
	}

	if err := os.WriteFile(filepath.Join(confDir, name), []byte(strings.Join(contents, "\n")+"\n"), 0600); err != nil {
		t.Fatalf("Setup: could not create PAM service %q: %v", name, err)
	}

	return confDir
}
