package state

import (
	"fmt"
	"sync"

	"github.com/tarungka/loom/stream"
)

// InMemoryBackend is an in-memory implementation of the Backend
// interface, used by the verification harness and in tests.
type InMemoryBackend struct {
	mu      sync.RWMutex
	entries map[string][]stream.Entry
}

// NewInMemoryBackend creates a new InMemoryBackend.
func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{
		entries: make(map[string][]stream.Entry),
	}
}

// Save persists the entries of one snapshot of one unit.
func (b *InMemoryBackend) Save(unitID string, snapshotID int64, entries []stream.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := fmt.Sprintf("%s-%d", unitID, snapshotID)
	saved := make([]stream.Entry, len(entries))
	copy(saved, entries)
	b.entries[key] = saved
	return nil
}

// Load retrieves the entries saved for the unit under the snapshot ID.
func (b *InMemoryBackend) Load(unitID string, snapshotID int64) ([]stream.Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	key := fmt.Sprintf("%s-%d", unitID, snapshotID)
	entries, ok := b.entries[key]
	if !ok {
		return nil, fmt.Errorf("no snapshot for unit %s and snapshot %d", unitID, snapshotID)
	}
	loaded := make([]stream.Entry, len(entries))
	copy(loaded, entries)
	return loaded, nil
}
