// Package jobmgr tracks the process's detached background tasks, keyed by
// purpose. Each task is individually cancellable and every task inherits
// cancellation from the parent context handed to the manager.
//
// Typical usage:
//
//	jm := jobmgr.NewManager(ctx, func(msg string) {
//	    log.Println("[INFO] task:", msg)
//	})
//
//	_ = jm.Start("tempban-sweep", func(ctx context.Context) error {
//	    return banlist.RunSweeper(ctx, bans)
//	})
//
//	// on shutdown
//	jm.StopAll()
package jobmgr

import (
	"context"
	"fmt"
	"sync"
)

// StatusReporter receives task lifecycle events, e.g. "running:announce",
// "error:announce:timed out", "done:announce".
type StatusReporter func(string)

type task struct {
	name   string
	cancel context.CancelFunc
}

// Manager starts, stops and tracks tasks. Safe for concurrent use.
type Manager struct {
	parent   context.Context
	reporter StatusReporter

	mu    sync.Mutex
	tasks map[string]*task
	wg    sync.WaitGroup
}

// NewManager creates a Manager whose tasks are children of parent.
// The reporter may be nil.
func NewManager(parent context.Context, reporter StatusReporter) *Manager {
	if parent == nil {
		parent = context.Background()
	}
	return &Manager{
		parent:   parent,
		reporter: reporter,
		tasks:    make(map[string]*task),
	}
}

// Start runs a task in its own goroutine. A second task with the same name
// is rejected while the first is still running. Tasks remove themselves on
// completion, success or failure.
func (m *Manager) Start(name string, runner func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(m.parent)

	m.mu.Lock()
	if _, exists := m.tasks[name]; exists {
		m.mu.Unlock()
		cancel()
		return fmt.Errorf("task %q is already running", name)
	}
	m.tasks[name] = &task{name: name, cancel: cancel}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		m.report("running:" + name)

		if err := runner(ctx); err != nil {
			m.report("error:" + name + ":" + err.Error())
		} else {
			m.report("done:" + name)
		}

		cancel()
		m.mu.Lock()
		delete(m.tasks, name)
		m.mu.Unlock()
	}()

	return nil
}

// Stop cancels a running task by name.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[name]
	if !ok {
		return fmt.Errorf("task %q not running", name)
	}
	t.cancel()
	delete(m.tasks, name)
	return nil
}

// StopAll cancels every task and waits for their goroutines to return.
func (m *Manager) StopAll() {
	m.mu.Lock()
	for name, t := range m.tasks {
		t.cancel()
		delete(m.tasks, name)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// Running reports whether a task with the given name is active.
func (m *Manager) Running(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[name]
	return ok
}

// List returns the active task names.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.tasks))
	for name := range m.tasks {
		out = append(out, name)
	}
	return out
}

func (m *Manager) report(s string) {
	if m.reporter != nil {
		m.reporter(s)
	}
}
