package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ubuntu/screenlock/internal/scheduler"
)

func TestPostRunsInOrder(t *testing.T) {
	t.Parallel()

	s := scheduler.New()
	var got []int
	for i := range 5 {
		s.Post(func() { got = append(got, i) })
	}
	s.Post(s.Stop)

	err := s.Run(context.Background())
	require.NoError(t, err, "Run should return without error once stopped")
	require.Equal(t, []int{0, 1, 2, 3, 4}, got, "Callbacks should run in posting order")
}

func TestPostDeferred(t *testing.T) {
	t.Parallel()

	s := scheduler.New()
	start := time.Now()
	var elapsed time.Duration
	s.PostDeferred(50*time.Millisecond, func() {
		elapsed = time.Since(start)
		s.Stop()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx), "Run should return once the deferred callback stopped the scheduler")
	require.GreaterOrEqual(t, elapsed, 50*time.Millisecond, "Deferred callback should wait for its delay")
}

func TestPostFromOtherGoroutines(t *testing.T) {
	t.Parallel()

	s := scheduler.New()

	const posters = 10
	var wg sync.WaitGroup
	var count int
	for range posters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.PostDeferred(time.Millisecond, func() { count++ })
		}()
	}
	go func() {
		wg.Wait()
		// Queued after every increment has been posted.
		time.Sleep(50 * time.Millisecond)
		s.Post(s.Stop)
	}()

	require.NoError(t, s.Run(context.Background()), "Run should not fail")
	require.Equal(t, posters, count, "Every callback should run on the consumer goroutine")
}

func TestRunStopsWithContext(t *testing.T) {
	t.Parallel()

	s := scheduler.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.Run(ctx), context.Canceled, "Run should return the context error")
}

func TestTasksChannel(t *testing.T) {
	t.Parallel()

	s := scheduler.New()
	ran := false
	s.Post(func() { ran = true })

	select {
	case fn := <-s.Tasks():
		fn()
	case <-time.After(5 * time.Second):
		t.Fatal("Posted callback should be available on the tasks channel")
	}
	require.True(t, ran, "Callback from the tasks channel should be the posted one")
}

func TestStop(t *testing.T) {
	t.Parallel()

	s := scheduler.New()
	ran := make(chan struct{}, 2)
	s.PostDeferred(20*time.Millisecond, func() { ran <- struct{}{} })

	s.Stop()
	require.NotPanics(t, s.Stop, "Stop should be idempotent")

	select {
	case <-s.Done():
	default:
		t.Fatal("Done should be closed once stopped")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Would block on a full queue if posting after stop was not a no-op.
		for range 1000 {
			s.Post(func() { ran <- struct{}{} })
			s.PostDeferred(0, func() { ran <- struct{}{} })
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Posting after Stop should never block")
	}

	require.NoError(t, s.Run(context.Background()), "Run should return immediately once stopped")
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, ran, "No callback should run after Stop")
}
