// Package traverse provides the pull-based lazy sequence used by the
// execution layer to decouple what a unit wants to emit from how much
// outbox capacity exists right now.
package traverse

import "github.com/tarungka/loom/stream"

// Traverser is a cursor over a sequence of non-nil items.
//
// Next returns the next item and true, or a zero item and false when
// nothing is available right now. For a finite traverser the false result
// is permanent; a traverser over a live source may alternate between
// producing items and producing nothing, so callers must not treat a
// single false as exhaustion unless the traverser is documented as finite.
//
// Traversers are stateful and single-pass. Once handed to an emission
// helper, the helper owns it until exhausted or replaced.
type Traverser interface {
	Next() (stream.Item, bool)
}

// Func adapts a plain function to the Traverser interface.
type Func func() (stream.Item, bool)

// Next calls f.
func (f Func) Next() (stream.Item, bool) {
	return f()
}

type emptyTraverser struct{}

func (emptyTraverser) Next() (stream.Item, bool) {
	return nil, false
}

// Empty returns a finite traverser that is exhausted from the start.
func Empty() Traverser {
	return emptyTraverser{}
}

type sliceTraverser struct {
	items []stream.Item
	pos   int
}

func (t *sliceTraverser) Next() (stream.Item, bool) {
	if t.pos >= len(t.items) {
		return nil, false
	}
	it := t.items[t.pos]
	t.pos++
	return it, true
}

// Over returns a finite traverser over the given items, in order.
func Over(items ...stream.Item) Traverser {
	return &sliceTraverser{items: items}
}
