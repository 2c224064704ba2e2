package auth

import (
	"context"
	"strings"

	"github.com/ubuntu/screenlock/log"
)

// lockoutMarker identifies the pam_faillock message telling how long the account stays locked.
const lockoutMarker = "left to unlock"

// conversation answers the backend requests of a single attempt.
// Its methods are called on the worker goroutine only.
type conversation struct {
	c *Coordinator

	answered bool
	aborted  bool
}

// Prompt answers with the submitted secret.
//
// Some stacks ask twice in a row with the same prompt, in which case the previous secret is
// reused. A different prompt after the first one needs new input from the user.
func (conv *conversation) Prompt(msg string, echo bool) (string, error) {
	c := conv.c
	log.Debugf(context.Background(), "Lock session %s: prompt %q (echo: %v)", c.session, msg, echo)

	changed := c.state.recordPrompt(msg)
	if changed {
		c.ctl.RequestRedraw()
	}

	if conv.answered && changed {
		if !c.waitForInput() {
			conv.aborted = true
			return "", ErrAborted
		}
	}

	if c.ctl.IsUnlocked() || c.ctl.IsTerminating() {
		conv.aborted = true
		return "", ErrAborted
	}

	conv.answered = true
	return c.state.secret(), nil
}

// ErrorMessage only reaches the logs.
func (conv *conversation) ErrorMessage(msg string) {
	log.Errorf(context.Background(), "Lock session %s: backend error: %s", conv.c.session, msg)
}

// InfoMessage is logged. Lockout messages become the failure text.
func (conv *conversation) InfoMessage(msg string) {
	log.Infof(context.Background(), "Lock session %s: backend info: %s", conv.c.session, msg)

	if strings.Contains(msg, lockoutMarker) {
		conv.c.state.setBackendFailText(msg)
	}
}
