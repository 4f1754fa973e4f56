package processor

import (
	"github.com/tarungka/loom/stream"
	"github.com/tarungka/loom/traverse"
)

// Emission drives a traverser against an outbox, suspending when capacity
// runs out and resuming exactly where it left off. It pulls each item at
// most once: on rejection the pulled item is retained and re-offered on
// the next call before anything else is pulled, so no item is ever
// skipped or duplicated no matter how many Pending returns occur.
//
// The zero value is ready to use. One Emission must not be shared across
// traversers until the previous one reported Done.
type Emission struct {
	pending    stream.Item
	hasPending bool
}

// EmitFrom offers items pulled from t to the given destination until the
// traverser reports nothing available (Done) or the outbox rejects an
// item (Pending). After Pending the caller must invoke EmitFrom again
// with the same traverser.
func (e *Emission) EmitFrom(t traverse.Traverser, out Outbox, ordinal Ordinal) Status {
	for {
		if !e.hasPending {
			it, ok := t.Next()
			if !ok {
				return Done
			}
			e.pending = it
			e.hasPending = true
		}
		if !out.Offer(ordinal, e.pending) {
			return Pending
		}
		e.pending = nil
		e.hasPending = false
	}
}

// EmitFromToSnapshot is EmitFrom for the reserved snapshot queue. The
// traverser must yield stream.Entry values; anything else is a
// programming error and panics.
func (e *Emission) EmitFromToSnapshot(t traverse.Traverser, out Outbox) Status {
	for {
		if !e.hasPending {
			it, ok := t.Next()
			if !ok {
				return Done
			}
			e.pending = it
			e.hasPending = true
		}
		if !out.OfferToSnapshot(e.pending.(stream.Entry)) {
			return Pending
		}
		e.pending = nil
		e.hasPending = false
	}
}
