package processor

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarungka/loom/stream"
)

func TestLoggingOutboxPreservesSemantics(t *testing.T) {
	var buf bytes.Buffer
	inner := NewBufferedOutbox(2, 1)
	out := NewLoggingOutbox(inner, WithDiagnosticLogger(zerolog.New(&buf)))

	assert.True(t, out.Offer(0, "a"))
	assert.False(t, out.Offer(0, "b"), "rejection must pass through unchanged")
	assert.Equal(t, inner.Offered(), out.Offered())
	assert.Equal(t, []stream.Item{"a"}, inner.DrainQueue(0))

	lines := strings.Count(buf.String(), "\n")
	assert.Equal(t, 2, lines, "every offer logs exactly one line, rejections included")
}

func TestLoggingOutboxBroadcastLogsOnce(t *testing.T) {
	var buf bytes.Buffer
	inner := NewBufferedOutbox(3, 0)
	out := NewLoggingOutbox(inner, WithDiagnosticLogger(zerolog.New(&buf)))

	assert.True(t, out.OfferBroadcast("x"))

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"), "a broadcast is one observation across all destinations")
	for ordinal := 0; ordinal < 3; ordinal++ {
		assert.Equal(t, []stream.Item{"x"}, inner.DrainQueue(ordinal))
	}
}

func TestLoggingInboxObservesWithoutMutating(t *testing.T) {
	var buf bytes.Buffer
	inner := NewArrayInbox(1)
	inner.Add("a", stream.Watermark{Timestamp: 3}, "b")
	in := NewLoggingInbox(inner, WithDiagnosticLogger(zerolog.New(&buf)))

	assert.Equal(t, 1, in.Ordinal())
	assert.Equal(t, 3, in.Size())

	it, ok := in.PollData()
	assert.True(t, ok)
	assert.Equal(t, "a", it)

	_, ok = in.PollData()
	assert.False(t, ok, "filtered-path gating passes through")

	wm, ok := in.PollWatermark()
	assert.True(t, ok)
	assert.Equal(t, int64(3), wm.Timestamp)

	var rest []stream.Item
	in.Drain(func(it stream.Item) { rest = append(rest, it) })
	assert.Equal(t, []stream.Item{"b"}, rest)

	// Three successful reads, three lines; the failed PollData logs
	// nothing.
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))
}

func TestDiagnosticRendererAndFilter(t *testing.T) {
	var buf bytes.Buffer
	inner := NewBufferedOutbox(1, 0)
	out := NewLoggingOutbox(inner,
		WithDiagnosticLogger(zerolog.New(&buf)),
		WithItemRenderer(func(it stream.Item) string { return "item=" + strconv.Itoa(it.(int)) }),
		WithItemFilter(func(it stream.Item) bool { return it.(int)%2 == 0 }),
	)

	assert.True(t, out.Offer(0, 1))
	assert.True(t, out.Offer(0, 2))

	logged := buf.String()
	assert.Equal(t, 1, strings.Count(logged, "\n"), "filtered items produce no line")
	assert.Contains(t, logged, "item=2")
	assert.NotContains(t, logged, "item=1")
}

func TestWrapWithLoggingDelegatesLifecycle(t *testing.T) {
	var buf bytes.Buffer
	inner := NewFlatMapProcessor(0, duplicateAndIncrement)
	p := WrapWithLogging(inner, WithDiagnosticLogger(zerolog.New(&buf)))

	out := NewBufferedOutbox(1, 0)
	require.NoError(t, p.Init(NewContext(out, true)))

	in := NewArrayInbox(0)
	in.Add(3)
	require.NoError(t, p.Process(0, in))
	assert.Equal(t, []stream.Item{3, 4}, out.DrainQueue(0), "wrapper must not change the unit's output")

	status, err := p.Complete()
	require.NoError(t, err)
	assert.Equal(t, Done, status)

	assert.NotZero(t, buf.Len(), "reads and offers are observed")
}
