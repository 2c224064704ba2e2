// Package testsdetection guards helpers that must only be reachable from tests.
package testsdetection

import (
	"testing"
)

// forcedByTag is set by builds using the integrationtests tag.
var forcedByTag = false

// MustBeTesting panics when called outside of a test binary or an integration tests build.
func MustBeTesting() {
	if testing.Testing() || forcedByTag {
		return
	}
	panic("test-only helper called outside of tests")
}
