// Package state stores snapshot entries per unit and snapshot ID. The
// entries themselves are opaque key/value pairs; backends that persist to
// disk encode them with msgpack.
package state

import "github.com/tarungka/loom/stream"

// Backend is an interface for storing and retrieving a unit's snapshot
// entries.
type Backend interface {
	// Save persists the entries of one snapshot of one unit.
	Save(unitID string, snapshotID int64, entries []stream.Entry) error
	// Load retrieves the entries saved for the unit under the snapshot ID.
	Load(unitID string, snapshotID int64) ([]stream.Entry, error)
}
