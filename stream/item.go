package stream

// Item represents a single value flowing through the engine. An Item is
// opaque to the execution layer; only the engine edges care about its shape.
// A nil Item is never valid.
type Item = any

// Watermark is a monotonic progress marker interleaved with data items
// in an inbox. Watermarks with the same ordinal never regress.
type Watermark struct {
	Timestamp int64
}

// IsWatermark reports whether the item is a progress marker rather than
// a data item.
func IsWatermark(it Item) bool {
	_, ok := it.(Watermark)
	return ok
}

// Entry is a key/value fragment of a unit's durable state. Entries travel
// through the snapshot queue with the same offer/accept discipline as
// normal output; their byte encoding is owned by the state backend.
type Entry struct {
	Key   Item
	Value Item
}
