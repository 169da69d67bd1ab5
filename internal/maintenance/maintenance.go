// Package maintenance holds the process-wide maintenance flag with a durable
// mirror in storage. Reads are lock-free; writes go through a single mutex.
package maintenance

import (
	"sync"
	"sync/atomic"

	"linkpatrol/internal/storage"
)

type Flag struct {
	store   storage.Store
	enabled atomic.Bool
	mu      sync.Mutex
}

// Load reads the persisted flag into the in-memory mirror.
func Load(store storage.Store) (*Flag, error) {
	f := &Flag{store: store}
	on, err := store.Maintenance()
	if err != nil {
		return nil, err
	}
	f.enabled.Store(on)
	return f, nil
}

func (f *Flag) Enabled() bool {
	return f.enabled.Load()
}

// Set persists the new state before updating the mirror.
func (f *Flag) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.store.SetMaintenance(on); err != nil {
		return err
	}
	f.enabled.Store(on)
	return nil
}
