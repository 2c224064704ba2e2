//go:build integrationtests

package testsdetection

func init() {
	forcedByTag = true
}
