package traverse

import "github.com/tarungka/loom/stream"

// Map returns a traverser that lazily applies fn to every item pulled
// from t.
func Map(t Traverser, fn func(stream.Item) stream.Item) Traverser {
	return Func(func() (stream.Item, bool) {
		it, ok := t.Next()
		if !ok {
			return nil, false
		}
		return fn(it), true
	})
}

// Filter returns a traverser that lazily drops items from t for which
// pred returns false. A false result from the source is passed through
// unchanged, so a live source stays live.
func Filter(t Traverser, pred func(stream.Item) bool) Traverser {
	return Func(func() (stream.Item, bool) {
		for {
			it, ok := t.Next()
			if !ok {
				return nil, false
			}
			if pred(it) {
				return it, true
			}
		}
	})
}

type flatMapTraverser struct {
	source Traverser
	fn     func(stream.Item) Traverser
	inner  Traverser
}

func (t *flatMapTraverser) Next() (stream.Item, bool) {
	for {
		if t.inner != nil {
			if it, ok := t.inner.Next(); ok {
				return it, true
			}
			t.inner = nil
		}
		it, ok := t.source.Next()
		if !ok {
			return nil, false
		}
		t.inner = t.fn(it)
	}
}

// FlatMap returns a traverser that lazily expands every item pulled from
// t into the sub-sequence produced by fn, concatenated in order.
//
// The inner traversers must be finite; a temporarily empty inner source
// would be discarded as exhausted.
func FlatMap(t Traverser, fn func(stream.Item) Traverser) Traverser {
	return &flatMapTraverser{source: t, fn: fn}
}

// Append returns a traverser that yields everything t yields, then the
// given items. t must be finite.
func Append(t Traverser, items ...stream.Item) Traverser {
	tail := Over(items...)
	srcDone := false
	return Func(func() (stream.Item, bool) {
		if !srcDone {
			if it, ok := t.Next(); ok {
				return it, true
			}
			srcDone = true
		}
		return tail.Next()
	})
}

// Take returns a traverser that yields at most n items from t.
func Take(t Traverser, n int) Traverser {
	remaining := n
	return Func(func() (stream.Item, bool) {
		if remaining <= 0 {
			return nil, false
		}
		it, ok := t.Next()
		if !ok {
			return nil, false
		}
		remaining--
		return it, true
	})
}
