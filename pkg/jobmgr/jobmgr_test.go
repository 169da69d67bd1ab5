package jobmgr

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_RejectsDuplicateNames(t *testing.T) {
	m := NewManager(context.Background(), nil)
	release := make(chan struct{})

	require.NoError(t, m.Start("job", func(ctx context.Context) error {
		<-release
		return nil
	}))
	require.Error(t, m.Start("job", func(ctx context.Context) error { return nil }))

	assert.True(t, m.Running("job"))
	assert.Equal(t, []string{"job"}, m.List())

	close(release)
	m.StopAll()
	assert.False(t, m.Running("job"))
}

func TestStart_NameFreesUpAfterCompletion(t *testing.T) {
	m := NewManager(context.Background(), nil)

	done := make(chan struct{})
	require.NoError(t, m.Start("job", func(ctx context.Context) error {
		close(done)
		return nil
	}))
	<-done
	m.StopAll()

	require.NoError(t, m.Start("job", func(ctx context.Context) error { return nil }))
	m.StopAll()
}

func TestStop_CancelsTaskContext(t *testing.T) {
	m := NewManager(context.Background(), nil)

	cancelled := make(chan struct{})
	require.NoError(t, m.Start("job", func(ctx context.Context) error {
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}))

	require.NoError(t, m.Stop("job"))
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("task context was not cancelled")
	}

	require.Error(t, m.Stop("job"))
}

func TestStopAll_WaitsAndInheritsParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	m := NewManager(parent, nil)

	finished := false
	require.NoError(t, m.Start("job", func(ctx context.Context) error {
		<-ctx.Done()
		finished = true
		return nil
	}))

	cancel()
	m.StopAll()
	assert.True(t, finished)
}

func TestReporter_SeesLifecycle(t *testing.T) {
	var mu sync.Mutex
	var events []string
	m := NewManager(context.Background(), func(msg string) {
		mu.Lock()
		events = append(events, msg)
		mu.Unlock()
	})

	require.NoError(t, m.Start("ok", func(ctx context.Context) error { return nil }))
	require.NoError(t, m.Start("bad", func(ctx context.Context) error { return errors.New("boom") }))
	m.StopAll()

	// StopAll may race task self-removal, so wait for the reports themselves.
	deadline := time.After(time.Second)
	for {
		mu.Lock()
		n := len(events)
		mu.Unlock()
		if n >= 4 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("lifecycle events never arrived")
		case <-time.After(5 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, events, "running:ok")
	assert.Contains(t, events, "done:ok")
	assert.Contains(t, events, "running:bad")
	assert.Contains(t, events, "error:bad:boom")
}
