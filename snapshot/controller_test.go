package snapshot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tarungka/loom/processor"
	"github.com/tarungka/loom/state"
	"github.com/tarungka/loom/stream"
	"github.com/tarungka/loom/traverse"
)

// countingUnit counts data items and emits the running count per item.
// Its durable state is the count plus the emit-pending flag.
type countingUnit struct {
	processor.NopProcessor
	count       int64
	pendingEmit bool
	saving      traverse.Traverser
	emission    processor.Emission
}

func (p *countingUnit) Process(ordinal int, inbox processor.Inbox) error {
	out := p.Ctx().Outbox
	for {
		if p.pendingEmit {
			if !out.Offer(0, p.count) {
				return nil
			}
			p.pendingEmit = false
		}
		if _, ok := inbox.PollData(); !ok {
			return nil
		}
		p.count++
		p.pendingEmit = true
	}
}

func (p *countingUnit) Complete() (processor.Status, error) {
	if p.pendingEmit {
		if !p.Ctx().Outbox.Offer(0, p.count) {
			return processor.Pending, nil
		}
		p.pendingEmit = false
	}
	return processor.Done, nil
}

func (p *countingUnit) SaveToSnapshot() (processor.Status, error) {
	if p.saving == nil {
		p.saving = traverse.Over(
			stream.Entry{Key: "count", Value: p.count},
			stream.Entry{Key: "pending", Value: p.pendingEmit},
		)
	}
	if p.emission.EmitFromToSnapshot(p.saving, p.Ctx().Outbox) == processor.Pending {
		return processor.Pending, nil
	}
	p.saving = nil
	return processor.Done, nil
}

func (p *countingUnit) RestoreFromSnapshot(entries processor.Inbox) (processor.Status, error) {
	for {
		it, ok := entries.Poll()
		if !ok {
			return processor.Done, nil
		}
		entry := it.(stream.Entry)
		switch entry.Key {
		case "count":
			p.count = entry.Value.(int64)
		case "pending":
			p.pendingEmit = entry.Value.(bool)
		}
	}
}

func processItems(t *testing.T, p processor.Processor, out *processor.BufferedOutbox, items ...stream.Item) []stream.Item {
	t.Helper()
	inbox := processor.NewArrayInbox(0)
	var emitted []stream.Item
	for _, item := range items {
		inbox.Add(item)
		for !inbox.IsEmpty() {
			require.NoError(t, p.Process(0, inbox))
			emitted = append(emitted, out.DrainQueue(0)...)
		}
	}
	return emitted
}

func TestCycleRoundTripsIntoFreshInstance(t *testing.T) {
	out := processor.NewBufferedOutbox(1, 0)
	ctx := processor.NewContext(out, false)
	ctrl := NewController("counting-unit", state.NewInMemoryBackend())

	original := &countingUnit{}
	require.NoError(t, original.Init(ctx))

	// Feed 1 and 2, snapshot after the second item, restore into a
	// fresh instance, then feed 3. The restored prefix must not be
	// double-counted.
	emitted := processItems(t, original, out, 1, 2)
	assert.Equal(t, []stream.Item{int64(1), int64(2)}, emitted)

	restored, err := ctrl.Cycle(ctx, original, out, func() processor.Processor { return &countingUnit{} })
	require.NoError(t, err)
	require.NotSame(t, original, restored)

	emitted = processItems(t, restored, out, 3)
	assert.Equal(t, []stream.Item{int64(3)}, emitted)
}

func TestCycleWithoutSupplierRestoresInPlace(t *testing.T) {
	out := processor.NewBufferedOutbox(1, 0)
	ctx := processor.NewContext(out, false)
	ctrl := NewController("counting-unit", state.NewInMemoryBackend())

	unit := &countingUnit{}
	require.NoError(t, unit.Init(ctx))
	processItems(t, unit, out, 1, 2)

	restored, err := ctrl.Cycle(ctx, unit, out, nil)
	require.NoError(t, err)
	assert.Same(t, unit, restored)
	assert.Equal(t, int64(2), unit.count)
}

func TestSaveSuspendsOnSnapshotBackpressure(t *testing.T) {
	// Capacity 1: two entries need two save rounds, with the controller
	// draining between them.
	out := processor.NewBufferedOutbox(1, 1)
	ctx := processor.NewContext(out, true)
	ctrl := NewController("counting-unit", state.NewInMemoryBackend())

	unit := &countingUnit{}
	require.NoError(t, unit.Init(ctx))
	unit.count = 7

	snapshotID, err := ctrl.Save(unit, out)
	require.NoError(t, err)

	fresh := &countingUnit{}
	require.NoError(t, fresh.Init(ctx))
	require.NoError(t, ctrl.Restore(fresh, snapshotID, 1))
	assert.Equal(t, int64(7), fresh.count)
}

func TestSaveFailsOnStalledUnit(t *testing.T) {
	out := processor.NewBufferedOutbox(1, 0)
	ctx := processor.NewContext(out, false)
	ctrl := NewController("stalled-unit", state.NewInMemoryBackend())

	unit := &stalledSaver{}
	require.NoError(t, unit.Init(ctx))

	_, err := ctrl.Save(unit, out)
	assert.ErrorContains(t, err, "without emitting entries")
}

type stalledSaver struct {
	processor.NopProcessor
}

func (p *stalledSaver) SaveToSnapshot() (processor.Status, error) {
	return processor.Pending, nil
}

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Save(unitID string, snapshotID int64, entries []stream.Entry) error {
	return m.Called(unitID, snapshotID, entries).Error(0)
}

func (m *mockBackend) Load(unitID string, snapshotID int64) ([]stream.Entry, error) {
	args := m.Called(unitID, snapshotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stream.Entry), args.Error(1)
}

func TestSavePropagatesBackendError(t *testing.T) {
	backendErr := errors.New("disk full")
	backend := new(mockBackend)
	backend.On("Save", "counting-unit", mock.Anything, mock.Anything).Return(backendErr)

	out := processor.NewBufferedOutbox(1, 0)
	ctx := processor.NewContext(out, false)
	ctrl := NewController("counting-unit", backend)

	unit := &countingUnit{}
	require.NoError(t, unit.Init(ctx))

	_, err := ctrl.Save(unit, out)
	assert.ErrorIs(t, err, backendErr)
	backend.AssertExpectations(t)
}

func TestRestoreFailsWhenUnitConsumesNothing(t *testing.T) {
	backend := new(mockBackend)
	backend.On("Load", "frozen-unit", int64(1)).
		Return([]stream.Entry{{Key: "k", Value: "v"}}, nil)

	ctrl := NewController("frozen-unit", backend)
	err := ctrl.Restore(&frozenRestorer{}, 1, 0)
	assert.ErrorContains(t, err, "consumed no entries")
}

type frozenRestorer struct {
	processor.NopProcessor
}

func (p *frozenRestorer) RestoreFromSnapshot(entries processor.Inbox) (processor.Status, error) {
	return processor.Pending, nil
}
