package processor

import (
	"github.com/rs/zerolog"

	"github.com/tarungka/loom/internal/logger"
	"github.com/tarungka/loom/stream"
)

// Outbox is the unit-facing surface of the bounded output buffers. A unit
// may only offer items; the boolean result is the only capacity signal it
// ever sees. A false result is backpressure, not an error: the unit must
// stop emitting for this invocation and report Pending so it gets called
// again.
type Outbox interface {
	// DestinationCount returns the number of regular destinations.
	DestinationCount() int
	// Offer attempts to put the item on one destination. Passing
	// Broadcast is equivalent to OfferBroadcast.
	Offer(ordinal Ordinal, item stream.Item) bool
	// OfferBroadcast attempts to put the item on every destination as a
	// single all-or-nothing offer: if any destination is at capacity,
	// nothing is accepted anywhere.
	OfferBroadcast(item stream.Item) bool
	// OfferToSnapshot attempts to put a snapshot entry on the reserved
	// snapshot queue.
	OfferToSnapshot(entry stream.Entry) bool
	// Offered returns the number of accepted offers so far. A broadcast
	// counts once, not once per destination.
	Offered() uint64
}

// BufferedOutbox is the engine-owned Outbox implementation: one bounded
// queue per destination plus the reserved snapshot queue. The engine
// drains the queues between callback invocations; the unit never sees
// the draining side.
type BufferedOutbox struct {
	queues        [][]stream.Item
	snapshotQueue []stream.Entry
	capacity      int
	offered       uint64
	logger        zerolog.Logger
}

// NewBufferedOutbox returns an outbox with the given number of regular
// destinations, each bounded to capacity items. A capacity below one
// means unbounded; the snapshot queue shares the same bound.
func NewBufferedOutbox(destinations, capacity int) *BufferedOutbox {
	if destinations < 1 {
		destinations = 1
	}
	return &BufferedOutbox{
		queues:   make([][]stream.Item, destinations),
		capacity: capacity,
		logger:   logger.GetLogger("outbox"),
	}
}

// DestinationCount returns the number of regular destinations.
func (o *BufferedOutbox) DestinationCount() int {
	return len(o.queues)
}

func (o *BufferedOutbox) hasRoom(ordinal int) bool {
	return o.capacity < 1 || len(o.queues[ordinal]) < o.capacity
}

// Offer attempts to put the item on one destination.
func (o *BufferedOutbox) Offer(ordinal Ordinal, item stream.Item) bool {
	if ordinal == Broadcast {
		return o.OfferBroadcast(item)
	}
	if !o.hasRoom(int(ordinal)) {
		o.logger.Trace().Stringer("dest", ordinal).Msg("offer rejected, destination at capacity")
		return false
	}
	o.queues[ordinal] = append(o.queues[ordinal], item)
	o.offered++
	return true
}

// OfferBroadcast attempts an all-or-nothing offer across every
// destination. Acceptance is observed as a single event regardless of
// how many destinations received the item.
func (o *BufferedOutbox) OfferBroadcast(item stream.Item) bool {
	for i := range o.queues {
		if !o.hasRoom(i) {
			o.logger.Trace().Int("dest", i).Msg("broadcast rejected, destination at capacity")
			return false
		}
	}
	for i := range o.queues {
		o.queues[i] = append(o.queues[i], item)
	}
	o.offered++
	return true
}

// OfferToSnapshot attempts to put a snapshot entry on the reserved queue.
func (o *BufferedOutbox) OfferToSnapshot(entry stream.Entry) bool {
	if o.capacity >= 1 && len(o.snapshotQueue) >= o.capacity {
		o.logger.Trace().Msg("snapshot offer rejected, queue at capacity")
		return false
	}
	o.snapshotQueue = append(o.snapshotQueue, entry)
	o.offered++
	return true
}

// Offered returns the number of accepted offers so far.
func (o *BufferedOutbox) Offered() uint64 {
	return o.offered
}

// Queue returns the pending items of one destination without draining.
func (o *BufferedOutbox) Queue(ordinal int) []stream.Item {
	return o.queues[ordinal]
}

// DrainQueue removes and returns every pending item of one destination,
// in offer order.
func (o *BufferedOutbox) DrainQueue(ordinal int) []stream.Item {
	drained := o.queues[ordinal]
	o.queues[ordinal] = nil
	return drained
}

// DrainSnapshotQueue removes and returns every pending snapshot entry,
// in offer order.
func (o *BufferedOutbox) DrainSnapshotQueue() []stream.Entry {
	drained := o.snapshotQueue
	o.snapshotQueue = nil
	return drained
}
