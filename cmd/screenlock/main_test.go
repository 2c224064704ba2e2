package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type myApp struct {
	runError   bool
	usageError bool
}

func (a myApp) Run() error {
	if a.runError {
		return errors.New("oops")
	}
	return nil
}

func (a myApp) UsageError() bool { return a.usageError }
func (a myApp) Hup() bool        { return false }
func (a myApp) Quit()            {}
func (a myApp) Unlock()          {}

func TestRun(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		runError   bool
		usageError bool

		wantReturnCode int
	}{
		"Run_and_exit_successfully":           {},
		"Run_and_return_error":                {runError: true, wantReturnCode: 1},
		"Run_and_return_usage_error":          {usageError: true, runError: true, wantReturnCode: 2},
		"Usage_error_without_error_exits_0":   {usageError: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			a := myApp{runError: tc.runError, usageError: tc.usageError}
			require.Equal(t, tc.wantReturnCode, run(a), "Return code should match")
		})
	}
}
