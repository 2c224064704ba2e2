//go:build integrationtests

package main

import (
	"os"

	"github.com/ubuntu/screenlock/cmd/screenlock/locker"
	"github.com/ubuntu/screenlock/internal/testsdetection"
)

// load any behaviour modifiers from env variable.
func init() {
	testsdetection.MustBeTesting()

	if dir := os.Getenv("SCREENLOCK_INTEGRATIONTESTS_PAM_CONFDIR"); dir != "" {
		locker.Z_ForTests_SetPAMConfDir(dir)
	}
}
