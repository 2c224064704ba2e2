package auth

import (
	"sync"
	"time"

	"github.com/ubuntu/screenlock/internal/fallback"
)

// conversationState is shared between the worker and the UI thread.
// inputRequested and waitingForBackend are never both true.
type conversationState struct {
	mu             sync.Mutex
	inputSubmitted *sync.Cond

	prompt              string
	failText            string
	failTextFromBackend bool

	// input is the last submitted secret. It is zeroed as soon as it is not needed anymore.
	input []byte

	inputRequested    bool
	waitingForBackend bool

	startTime time.Time
	now       func() time.Time
}

func (s *conversationState) init(now func() time.Time) {
	s.inputSubmitted = sync.NewCond(&s.mu)
	s.now = now
	s.startTime = now()
}

func (s *conversationState) setPrompt(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompt = prompt
}

// recordPrompt stores prompt and returns whether it differs from the previous one.
func (s *conversationState) recordPrompt(prompt string) (changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed = prompt != s.prompt
	s.prompt = prompt
	return changed
}

func (s *conversationState) setBackendFailText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failText = text
	s.failTextFromBackend = true
}

// secret returns a copy of the held secret, to be handed over to the backend.
func (s *conversationState) secret() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.input)
}

func (s *conversationState) inputMatches(v fallback.Verifier) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return v.Matches(s.input)
}

func (s *conversationState) dropInput() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.input)
	s.input = nil
}
