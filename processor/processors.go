package processor

import (
	"github.com/tarungka/loom/stream"
	"github.com/tarungka/loom/traverse"
)

// FlatMapProcessor is a ready-made unit that expands every input item
// into the sequence produced by its mapping function, with suspension
// and resumption handled by a FlatMapper. It keeps no durable state, so
// the default snapshot hooks apply.
type FlatMapProcessor struct {
	NopProcessor
	fm *FlatMapper
}

// NewFlatMapProcessor returns a unit emitting to the given destination.
func NewFlatMapProcessor(ordinal Ordinal, mapFn func(stream.Item) traverse.Traverser) *FlatMapProcessor {
	return &FlatMapProcessor{fm: NewFlatMapper(ordinal, mapFn)}
}

// Process expands items from the front of the inbox. An item is only
// removed once its whole expansion has been accepted, so a Pending
// mid-sequence leaves the item in place and the next call resumes it.
func (p *FlatMapProcessor) Process(ordinal int, inbox Inbox) error {
	out := p.Ctx().Outbox
	for {
		it, ok := inbox.Peek()
		if !ok {
			return nil
		}
		if wm, ok := it.(stream.Watermark); ok {
			if status, _ := p.ProcessWatermark(ordinal, wm); status == Pending {
				return nil
			}
			inbox.Poll()
			continue
		}
		if p.fm.TryProcess(it, out) == Pending {
			return nil
		}
		inbox.Poll()
	}
}

// ProcessWatermark forwards the watermark downstream, suspending when
// the destination is at capacity.
func (p *FlatMapProcessor) ProcessWatermark(ordinal int, wm stream.Watermark) (Status, error) {
	if !p.Ctx().Outbox.Offer(p.fm.ordinal, wm) {
		return Pending, nil
	}
	return Done, nil
}

// NewMapProcessor returns a unit applying a one-to-one mapping function
// to every input item.
func NewMapProcessor(ordinal Ordinal, mapFn func(stream.Item) stream.Item) *FlatMapProcessor {
	return NewFlatMapProcessor(ordinal, func(it stream.Item) traverse.Traverser {
		return traverse.Over(mapFn(it))
	})
}
