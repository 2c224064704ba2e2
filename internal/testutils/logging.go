package testutils

import (
	"testing"

	"github.com/ubuntu/screenlock/log"
)

// CaptureLogs redirects the logs to a buffer at the given level until the end of the test.
// It changes global state, so it must not be used in parallel tests.
func CaptureLogs(t *testing.T, level log.Level) *SyncBuffer {
	t.Helper()

	var buf SyncBuffer
	oldOutput := log.Output()
	oldLevel := log.SetLevel(level)
	log.SetOutput(&buf)
	t.Cleanup(func() {
		log.SetOutput(oldOutput)
		log.SetLevel(oldLevel)
	})

	return &buf
}
