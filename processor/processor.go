package processor

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tarungka/loom/internal/logger"
	"github.com/tarungka/loom/stream"
)

// Processor is the contract every processing unit implements. The engine
// drives one instance through
//
//	uninitialized -> Init -> Process/ProcessWatermark ... -> Complete* -> completed
//
// with the snapshot sub-protocol (SaveToSnapshot, RestoreFromSnapshot,
// FinishSnapshotRestore) entered only between callbacks, never mid-call.
//
// Every callback runs on a shared thread and must return promptly: no
// blocking, sleeping, or waiting on I/O. An outbox rejection is handled
// by returning Pending, never by waiting. Any error returned from a
// callback is fatal to the instance and is surfaced to the engine
// unretried; because callbacks never block, an error can not mean "needs
// more time" and must always propagate immediately.
type Processor interface {
	// Init is called exactly once, before any other callback. An error
	// is fatal to the instance.
	Init(ctx *Context) error

	// Process is invoked with the inbox of one input. The unit drains
	// some or all items and/or emits to the outbox. Items it does not
	// remove stay pending and are presented again on the next call.
	Process(ordinal int, inbox Inbox) error

	// ProcessWatermark is the watermark-path twin of Process. Pending
	// means the watermark could not be forwarded yet and will be
	// presented again.
	ProcessWatermark(ordinal int, wm stream.Watermark) (Status, error)

	// Complete is polled once all inputs are exhausted. Done means all
	// pending output has been flushed; Pending means call again.
	Complete() (Status, error)

	// SaveToSnapshot emits the unit's durable state as entries on the
	// reserved snapshot queue, with the same accept/retry discipline as
	// normal emission. Pending means not all entries fit; call again.
	SaveToSnapshot() (Status, error)

	// RestoreFromSnapshot consumes previously saved entries from the
	// given inbox and reconstructs internal state. It must tolerate
	// entries produced by a different instance of the same unit type.
	// Pending means call again with the remaining entries.
	RestoreFromSnapshot(entries Inbox) (Status, error)

	// FinishSnapshotRestore is called once after the last restore batch,
	// before normal processing resumes.
	FinishSnapshotRestore() error
}

// Context carries the engine-provided environment a unit receives at
// Init. Helpers that need the outbox take it per call instead of keeping
// the context around.
type Context struct {
	// ID uniquely identifies this unit instance.
	ID uuid.UUID
	// Logger is the instance-scoped structured logger.
	Logger zerolog.Logger
	// Outbox is the unit's only emission surface, owned by the engine.
	Outbox Outbox
	// Cooperative marks the unit as sharing its thread; the engine holds
	// cooperative units to a per-callback time budget.
	Cooperative bool
}

// NewContext returns a Context for a fresh unit instance.
func NewContext(out Outbox, cooperative bool) *Context {
	id := uuid.New()
	return &Context{
		ID:          id,
		Logger:      logger.GetLogger("processor").With().Str("instance", id.String()).Logger(),
		Outbox:      out,
		Cooperative: cooperative,
	}
}

// NopProcessor implements every Processor callback with a safe default
// and is meant to be embedded, so units only spell out the callbacks
// they care about. The default Process consumes and discards its input;
// the default watermark, completion, and snapshot hooks report Done with
// no state.
type NopProcessor struct {
	ctx *Context
}

// Init stores the context for Ctx.
func (p *NopProcessor) Init(ctx *Context) error {
	p.ctx = ctx
	return nil
}

// Ctx returns the context received at Init.
func (p *NopProcessor) Ctx() *Context {
	return p.ctx
}

// Process drains and discards the inbox.
func (p *NopProcessor) Process(ordinal int, inbox Inbox) error {
	inbox.Drain(func(stream.Item) {})
	return nil
}

// ProcessWatermark drops the watermark.
func (p *NopProcessor) ProcessWatermark(ordinal int, wm stream.Watermark) (Status, error) {
	return Done, nil
}

// Complete reports Done immediately.
func (p *NopProcessor) Complete() (Status, error) {
	return Done, nil
}

// SaveToSnapshot saves nothing.
func (p *NopProcessor) SaveToSnapshot() (Status, error) {
	return Done, nil
}

// RestoreFromSnapshot drains and discards the entries.
func (p *NopProcessor) RestoreFromSnapshot(entries Inbox) (Status, error) {
	entries.Drain(func(stream.Item) {})
	return Done, nil
}

// FinishSnapshotRestore does nothing.
func (p *NopProcessor) FinishSnapshotRestore() error {
	return nil
}
