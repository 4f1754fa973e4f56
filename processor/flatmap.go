package processor

import (
	"github.com/tarungka/loom/stream"
	"github.com/tarungka/loom/traverse"
)

// FlatMapper binds an item-to-sequence mapping function to the resumable
// emission protocol, so "one input maps to zero or more outputs" needs no
// hand-rolled suspension logic in the unit.
//
// Between calls either no traverser is held, or the held traverser still
// has at least the retained item to offer.
type FlatMapper struct {
	ordinal  Ordinal
	mapFn    func(stream.Item) traverse.Traverser
	current  traverse.Traverser
	emission Emission
}

// NewFlatMapper returns a FlatMapper emitting to the given destination.
func NewFlatMapper(ordinal Ordinal, mapFn func(stream.Item) traverse.Traverser) *FlatMapper {
	return &FlatMapper{ordinal: ordinal, mapFn: mapFn}
}

// TryProcess maps the input item to a traverser and drains it into the
// outbox. On Pending the caller must call TryProcess again with the same
// input item; the item is ignored while a traverser from the previous
// call is still held, which is exactly the resumption path. On Done the
// held traverser is cleared and the next call starts a fresh mapping.
func (f *FlatMapper) TryProcess(item stream.Item, out Outbox) Status {
	if f.current == nil {
		f.current = f.mapFn(item)
	}
	if f.emission.EmitFrom(f.current, out, f.ordinal) == Pending {
		return Pending
	}
	f.current = nil
	return Done
}
