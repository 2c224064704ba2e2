package auth

// WaitForInput exposes the worker suspension point for tests.
func (c *Coordinator) WaitForInput() bool {
	return c.waitForInput()
}

// InputRequested returns whether the worker is waiting for a secret.
func (c *Coordinator) InputRequested() bool {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	return c.state.inputRequested
}

// WaitingForBackend returns whether an attempt is in flight.
func (c *Coordinator) WaitingForBackend() bool {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	return c.state.waitingForBackend
}

// Input returns the currently held secret.
func (c *Coordinator) Input() string {
	return c.state.secret()
}

// IsRunning returns whether a worker is alive.
func (c *Coordinator) IsRunning() bool {
	return c.running.Load()
}
