package locker

import "github.com/ubuntu/screenlock/internal/testsdetection"

// pamConfDir overrides the directory of the PAM profiles.
var pamConfDir string

// Z_ForTests_SetPAMConfDir loads the PAM profiles from dir.
// Tests using this can't be run in parallel.
//
// nolint:revive,nolintlint // We want to use underscores in the function name here.
func Z_ForTests_SetPAMConfDir(dir string) {
	testsdetection.MustBeTesting()
	pamConfDir = dir
}
