package testsdetection_test

import (
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ubuntu/screenlock/internal/testsdetection"
)

func TestMustBeTestingInTests(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, testsdetection.MustBeTesting, "MustBeTesting should not panic in a test binary")
}

func TestMustBeTestingInBinary(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("Go toolchain not available")
	}

	tests := map[string]struct {
		tags string

		wantPanic bool
	}{
		"Does_not_panic_with_integrationtests_tag": {tags: "integrationtests"},

		"Panics_in_regular_binary": {wantPanic: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			bin := filepath.Join(t.TempDir(), "testbin")
			args := []string{"build", "-o", bin}
			if tc.tags != "" {
				args = append(args, "-tags="+tc.tags)
			}
			args = append(args, "testdata/binary.go")

			//nolint:gosec // G204 we are in control of the arguments in our tests.
			out, err := exec.Command("go", args...).CombinedOutput()
			require.NoErrorf(t, err, "Setup: could not build test binary: %s", out)

			//nolint:gosec // G204 the binary is built by the test.
			out, err = exec.Command(bin).CombinedOutput()
			if tc.wantPanic {
				require.Errorf(t, err, "Binary should have panicked: %s", out)
				return
			}
			require.NoErrorf(t, err, "Binary should not have panicked: %s", out)
		})
	}
}
