package state

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tarungka/loom/internal/logger"
	"github.com/tarungka/loom/stream"
)

// BadgerBackend persists snapshot entries in a badger key-value store.
type BadgerBackend struct {
	db     *badger.DB
	logger zerolog.Logger
}

// NewBadgerBackend opens a file-based badger store at dir. An empty dir
// opens an in-memory store, which is what tests use.
func NewBadgerBackend(dir string) (*BadgerBackend, error) {
	newLogger := logger.GetLogger("badger-state")

	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store: %w", err)
	}
	newLogger.Debug().Str("dir", dir).Bool("in_memory", dir == "").Msg("opened badger state store")

	return &BadgerBackend{
		db:     db,
		logger: newLogger,
	}, nil
}

func snapshotKey(unitID string, snapshotID int64) []byte {
	return []byte(fmt.Sprintf("%s-%d", unitID, snapshotID))
}

// Save persists the entries of one snapshot of one unit.
func (b *BadgerBackend) Save(unitID string, snapshotID int64, entries []stream.Entry) error {
	encoded, err := encodeEntries(entries)
	if err != nil {
		return fmt.Errorf("encoding snapshot entries: %w", err)
	}

	key := snapshotKey(unitID, snapshotID)
	b.logger.Trace().Str("unit", unitID).Int64("snapshot", snapshotID).Int("entries", len(entries)).Msg("saving snapshot")
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, encoded)
	})
	if err != nil {
		b.logger.Err(err).Str("unit", unitID).Int64("snapshot", snapshotID).Msg("failed to save snapshot")
		return err
	}
	return nil
}

// Load retrieves the entries saved for the unit under the snapshot ID.
func (b *BadgerBackend) Load(unitID string, snapshotID int64) ([]stream.Entry, error) {
	key := snapshotKey(unitID, snapshotID)

	var encoded []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		encoded, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("no snapshot for unit %s and snapshot %d: %w", unitID, snapshotID, err)
	}

	return decodeEntries(encoded)
}

// Close closes the underlying store.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}
