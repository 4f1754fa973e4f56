// Package snapshot orchestrates the save/restore/finish sub-protocol of
// a processing unit against a state backend.
package snapshot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tarungka/loom/internal/logger"
	"github.com/tarungka/loom/processor"
	"github.com/tarungka/loom/state"
	"github.com/tarungka/loom/stream"
)

// Supplier produces a fresh, uninitialized unit instance. The controller
// uses it to substitute the instance between save and restore, which is
// how fault injection exercises the "restored into a different instance"
// path.
type Supplier func() processor.Processor

// Controller drives the snapshot sub-protocol for one unit. It must only
// be invoked between callback invocations, never while the unit is
// mid-callback.
type Controller struct {
	unitID  string
	backend state.Backend
	logger  zerolog.Logger
}

// NewController creates a Controller persisting through the given backend.
func NewController(unitID string, backend state.Backend) *Controller {
	return &Controller{
		unitID:  unitID,
		backend: backend,
		logger:  logger.GetLogger("snapshot").With().Str("unit", unitID).Logger(),
	}
}

// Save drives SaveToSnapshot to completion, draining the outbox's
// snapshot queue after every call, and persists the collected entries.
// It returns the ID of the saved snapshot.
func (c *Controller) Save(p processor.Processor, out *processor.BufferedOutbox) (int64, error) {
	snapshotID := time.Now().UnixNano()
	start := time.Now()

	var entries []stream.Entry
	for {
		status, err := p.SaveToSnapshot()
		if err != nil {
			return 0, fmt.Errorf("unit %s failed to save snapshot: %w", c.unitID, err)
		}
		drained := out.DrainSnapshotQueue()
		entries = append(entries, drained...)
		if status.IsDone() {
			break
		}
		if len(drained) == 0 {
			return 0, fmt.Errorf("unit %s reported a pending snapshot save without emitting entries", c.unitID)
		}
	}

	if err := c.backend.Save(c.unitID, snapshotID, entries); err != nil {
		return 0, err
	}
	c.logger.Debug().Int64("snapshot", snapshotID).Int("entries", len(entries)).Dur("duration_ms", time.Since(start)).Msg("snapshot saved")
	return snapshotID, nil
}

// Restore loads the saved entries and feeds them to the unit in chunks of
// chunkSize (everything at once when chunkSize is not positive), then
// invokes FinishSnapshotRestore. The receiving instance need not be the
// one that saved.
func (c *Controller) Restore(p processor.Processor, snapshotID int64, chunkSize int) error {
	entries, err := c.backend.Load(c.unitID, snapshotID)
	if err != nil {
		return err
	}
	if chunkSize < 1 {
		chunkSize = len(entries)
	}

	for pos := 0; pos < len(entries); pos += chunkSize {
		end := pos + chunkSize
		if end > len(entries) {
			end = len(entries)
		}
		inbox := processor.NewArrayInbox(int(processor.SnapshotOrdinal))
		for _, entry := range entries[pos:end] {
			inbox.Add(entry)
		}
		for !inbox.IsEmpty() {
			before := inbox.Size()
			if _, err := p.RestoreFromSnapshot(inbox); err != nil {
				return fmt.Errorf("unit %s failed to restore snapshot %d: %w", c.unitID, snapshotID, err)
			}
			if inbox.Size() == before {
				return fmt.Errorf("unit %s consumed no entries while restoring snapshot %d", c.unitID, snapshotID)
			}
		}
	}

	if err := p.FinishSnapshotRestore(); err != nil {
		return fmt.Errorf("unit %s failed to finish snapshot restore: %w", c.unitID, err)
	}
	c.logger.Debug().Int64("snapshot", snapshotID).Int("entries", len(entries)).Msg("snapshot restored")
	return nil
}

// Cycle runs one full save -> (optional instance substitution) ->
// restore -> finish round and returns the instance that finished it.
// When fresh is non-nil the saving instance is discarded and a new one
// is produced, initialized with ctx, and restored into; this is the
// round-trip check that a unit's saved state actually reconstructs the
// unit.
func (c *Controller) Cycle(ctx *processor.Context, p processor.Processor, out *processor.BufferedOutbox, fresh Supplier) (processor.Processor, error) {
	snapshotID, err := c.Save(p, out)
	if err != nil {
		return p, err
	}

	restored := p
	if fresh != nil {
		restored = fresh()
		if err := restored.Init(ctx); err != nil {
			return p, fmt.Errorf("unit %s failed to init replacement instance: %w", c.unitID, err)
		}
	}

	if err := c.Restore(restored, snapshotID, 0); err != nil {
		return p, err
	}
	return restored, nil
}
