// Package consts defines the constants used by the project.
package consts

import (
	"time"

	"github.com/ubuntu/screenlock/log"
)

var (
	// Version is the version of the executable.
	Version = "Dev"
)

const (
	// DefaultLogLevel is the default logging level selected without any option.
	DefaultLogLevel = log.NoticeLevel

	// PAMConfDir is the system directory holding the PAM service profiles.
	PAMConfDir = "/etc/pam.d"

	// DefaultPAMProfile is the profile used when the configured one does not exist.
	DefaultPAMProfile = "su"

	// DefaultPrompt is the label shown before the backend asks for anything.
	DefaultPrompt = "Password: "

	// SchedulerTick is the delay used to hand work over to the UI thread.
	SchedulerTick = time.Millisecond
)

// User facing result texts.
const (
	// TextAuthenticated is shown once the secret has been accepted.
	TextAuthenticated = "Successfully authenticated"
	// TextAuthFailed is shown when the secret was rejected.
	TextAuthFailed = "Authentication failed"
	// TextAuthError is shown when the backend failed for another reason than a rejected secret.
	TextAuthError = "Authentication error"
	// TextBackendUnavailable is shown when no authentication session could be started.
	TextBackendUnavailable = "Authentication service unavailable"
)
