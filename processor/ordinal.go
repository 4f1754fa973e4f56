package processor

import "strconv"

// Ordinal identifies one destination of an outbox. Non-negative values
// address a single edge; units commonly use only the fixed ordinals 0..4
// and the engine dispatches higher ones through the same path. Two
// reserved values address every edge at once and the snapshot queue.
type Ordinal int

const (
	// Broadcast targets every destination of the outbox in a single
	// all-or-nothing offer.
	Broadcast Ordinal = -1
	// SnapshotOrdinal is the reserved destination for snapshot entries.
	SnapshotOrdinal Ordinal = -2
)

func (o Ordinal) String() string {
	switch o {
	case Broadcast:
		return "broadcast"
	case SnapshotOrdinal:
		return "snapshot"
	default:
		return "ordinal-" + strconv.Itoa(int(o))
	}
}
