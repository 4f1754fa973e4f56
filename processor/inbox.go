package processor

import "github.com/tarungka/loom/stream"

// Inbox is the ordered buffer of pending input items for one logical
// input of a unit. The engine replenishes it; the unit only removes items
// from the front. Data items and watermarks share the same sequence, and
// the filtered retrieval paths consume from that one sequence so the
// relative order of the two subtypes is preserved.
type Inbox interface {
	// Ordinal returns the input this inbox belongs to.
	Ordinal() int
	// Size returns the number of items currently pending.
	Size() int
	// IsEmpty reports whether the inbox has no pending items.
	IsEmpty() bool
	// Peek returns the front item without removing it.
	Peek() (stream.Item, bool)
	// Poll removes and returns the front item, whatever its subtype.
	Poll() (stream.Item, bool)
	// PollData removes and returns the front item only if it is a data
	// item. It returns false when the inbox is empty or a watermark is
	// at the front.
	PollData() (stream.Item, bool)
	// PollWatermark removes and returns the front item only if it is a
	// watermark. It returns false when the inbox is empty or a data item
	// is at the front.
	PollWatermark() (stream.Watermark, bool)
	// Drain removes every pending item in order, passing each to fn.
	Drain(fn func(stream.Item))
}

// ArrayInbox is the engine-owned Inbox implementation backed by a slice.
// It is not safe for concurrent use; a unit's callbacks are never
// re-entrant, so it does not need to be.
type ArrayInbox struct {
	ordinal int
	items   []stream.Item
}

// NewArrayInbox returns an empty inbox for the given input ordinal.
func NewArrayInbox(ordinal int) *ArrayInbox {
	return &ArrayInbox{ordinal: ordinal}
}

// Add appends items at the back. Only the engine side calls this.
func (in *ArrayInbox) Add(items ...stream.Item) {
	in.items = append(in.items, items...)
}

// Ordinal returns the input this inbox belongs to.
func (in *ArrayInbox) Ordinal() int {
	return in.ordinal
}

// Size returns the number of items currently pending.
func (in *ArrayInbox) Size() int {
	return len(in.items)
}

// IsEmpty reports whether the inbox has no pending items.
func (in *ArrayInbox) IsEmpty() bool {
	return len(in.items) == 0
}

// Peek returns the front item without removing it.
func (in *ArrayInbox) Peek() (stream.Item, bool) {
	if len(in.items) == 0 {
		return nil, false
	}
	return in.items[0], true
}

// Poll removes and returns the front item.
func (in *ArrayInbox) Poll() (stream.Item, bool) {
	if len(in.items) == 0 {
		return nil, false
	}
	it := in.items[0]
	in.items = in.items[1:]
	return it, true
}

// PollData removes and returns the front item only if it is a data item.
func (in *ArrayInbox) PollData() (stream.Item, bool) {
	if len(in.items) == 0 || stream.IsWatermark(in.items[0]) {
		return nil, false
	}
	return in.Poll()
}

// PollWatermark removes and returns the front item only if it is a
// watermark.
func (in *ArrayInbox) PollWatermark() (stream.Watermark, bool) {
	if len(in.items) == 0 {
		return stream.Watermark{}, false
	}
	wm, ok := in.items[0].(stream.Watermark)
	if !ok {
		return stream.Watermark{}, false
	}
	in.items = in.items[1:]
	return wm, true
}

// Drain removes every pending item in order, passing each to fn.
func (in *ArrayInbox) Drain(fn func(stream.Item)) {
	for _, it := range in.items {
		fn(it)
	}
	in.items = in.items[:0]
}
