package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tarungka/loom/stream"
	"github.com/tarungka/loom/traverse"
)

// drainAgainstCapacity runs the emission helper to completion against an
// outbox of the given capacity, draining between Pending returns, and
// returns every accepted item in acceptance order.
func drainAgainstCapacity(t *testing.T, source traverse.Traverser, capacity int) []stream.Item {
	t.Helper()
	out := NewBufferedOutbox(1, capacity)
	var emission Emission
	var accepted []stream.Item
	for rounds := 0; ; rounds++ {
		assert.Less(t, rounds, 10000, "emission must terminate")
		status := emission.EmitFrom(source, out, 0)
		accepted = append(accepted, out.DrainQueue(0)...)
		if status.IsDone() {
			return accepted
		}
	}
}

func TestEmissionRetryLaw(t *testing.T) {
	// Whatever the capacity schedule, the accepted sequence must equal a
	// full drain against an unbounded outbox: nothing skipped, nothing
	// duplicated.
	items := []stream.Item{1, 2, 3, 4, 5, 6, 7}
	want := drainAgainstCapacity(t, traverse.Over(items...), 0)
	assert.Equal(t, items, want)

	for _, capacity := range []int{1, 2, 3, 5} {
		got := drainAgainstCapacity(t, traverse.Over(items...), capacity)
		assert.Equal(t, want, got, "capacity %d must not change the accepted sequence", capacity)
	}
}

func TestEmissionRetainsRejectedItemWithoutRepulling(t *testing.T) {
	pulls := 0
	source := traverse.Func(func() (stream.Item, bool) {
		pulls++
		if pulls > 2 {
			return nil, false
		}
		return pulls, true
	})

	out := NewBufferedOutbox(1, 1)
	var emission Emission

	assert.Equal(t, Pending, emission.EmitFrom(source, out, 0))
	assert.Equal(t, 2, pulls, "one accepted pull plus the retained one")

	// No pull may happen until the retained item is accepted.
	assert.Equal(t, Pending, emission.EmitFrom(source, out, 0))
	assert.Equal(t, 2, pulls)

	assert.Equal(t, []stream.Item{1}, out.DrainQueue(0))
	assert.Equal(t, Done, emission.EmitFrom(source, out, 0))
	assert.Equal(t, []stream.Item{2}, out.DrainQueue(0))
}

func TestEmissionEmptyTraverserIsDone(t *testing.T) {
	out := NewBufferedOutbox(1, 1)
	var emission Emission
	assert.Equal(t, Done, emission.EmitFrom(traverse.Empty(), out, 0))
	assert.Empty(t, out.DrainQueue(0))
}

func TestEmitFromToSnapshot(t *testing.T) {
	entries := []stream.Item{
		stream.Entry{Key: "a", Value: 1},
		stream.Entry{Key: "b", Value: 2},
	}
	out := NewBufferedOutbox(1, 1)
	var emission Emission

	assert.Equal(t, Pending, emission.EmitFromToSnapshot(traverse.Over(entries...), out))
	drained := out.DrainSnapshotQueue()
	assert.Equal(t, []stream.Entry{{Key: "a", Value: 1}}, drained)

	// The retained entry is re-offered before the traverser is pulled
	// again, so "b" lands even though this traverser has nothing left.
	assert.Equal(t, Done, emission.EmitFromToSnapshot(traverse.Empty(), out))
	assert.Equal(t, []stream.Entry{{Key: "b", Value: 2}}, out.DrainSnapshotQueue())
}
