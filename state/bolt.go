package state

import (
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"github.com/tarungka/loom/internal/logger"
	"github.com/tarungka/loom/stream"
)

// BoltBackend persists snapshot entries in a bbolt file, one bucket per
// unit keyed by snapshot ID.
type BoltBackend struct {
	db     *bolt.DB
	logger zerolog.Logger
}

// NewBoltBackend opens (or creates) a bbolt store at path.
func NewBoltBackend(path string) (*BoltBackend, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening bolt store: %w", err)
	}
	return &BoltBackend{
		db:     db,
		logger: logger.GetLogger("bolt-state"),
	}, nil
}

func snapshotIDKey(snapshotID int64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(snapshotID))
	return key[:]
}

// Save persists the entries of one snapshot of one unit.
func (b *BoltBackend) Save(unitID string, snapshotID int64, entries []stream.Entry) error {
	encoded, err := encodeEntries(entries)
	if err != nil {
		return fmt.Errorf("encoding snapshot entries: %w", err)
	}

	b.logger.Trace().Str("unit", unitID).Int64("snapshot", snapshotID).Int("entries", len(entries)).Msg("saving snapshot")
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(unitID))
		if err != nil {
			return err
		}
		return bucket.Put(snapshotIDKey(snapshotID), encoded)
	})
}

// Load retrieves the entries saved for the unit under the snapshot ID.
func (b *BoltBackend) Load(unitID string, snapshotID int64) ([]stream.Entry, error) {
	var encoded []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(unitID))
		if bucket == nil {
			return fmt.Errorf("no snapshots for unit %s", unitID)
		}
		value := bucket.Get(snapshotIDKey(snapshotID))
		if value == nil {
			return fmt.Errorf("no snapshot for unit %s and snapshot %d", unitID, snapshotID)
		}
		encoded = append([]byte(nil), value...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decodeEntries(encoded)
}

// Close closes the underlying store.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}
