package processor

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tarungka/loom/internal/logger"
	"github.com/tarungka/loom/stream"
)

// DiagnosticOption configures the logging wrappers.
type DiagnosticOption func(*diagConfig)

type diagConfig struct {
	logger  zerolog.Logger
	render  func(stream.Item) string
	include func(stream.Item) bool
}

// WithDiagnosticLogger routes diagnostic lines to the given logger.
func WithDiagnosticLogger(l zerolog.Logger) DiagnosticOption {
	return func(c *diagConfig) { c.logger = l }
}

// WithItemRenderer sets the item-to-string function used in log lines.
func WithItemRenderer(render func(stream.Item) string) DiagnosticOption {
	return func(c *diagConfig) { c.render = render }
}

// WithItemFilter limits diagnostics to items the predicate accepts.
func WithItemFilter(include func(stream.Item) bool) DiagnosticOption {
	return func(c *diagConfig) { c.include = include }
}

func newDiagConfig(opts []DiagnosticOption) *diagConfig {
	c := &diagConfig{
		logger:  logger.GetLogger("diagnostics"),
		render:  func(it stream.Item) string { return fmt.Sprintf("%v", it) },
		include: func(stream.Item) bool { return true },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoggingInbox logs every successful read from the wrapped inbox. It
// observes only: sizes, order, and poll results are exactly those of the
// wrapped inbox.
type LoggingInbox struct {
	inner Inbox
	cfg   *diagConfig
}

// NewLoggingInbox wraps an inbox with read diagnostics.
func NewLoggingInbox(inner Inbox, opts ...DiagnosticOption) *LoggingInbox {
	return &LoggingInbox{inner: inner, cfg: newDiagConfig(opts)}
}

func (in *LoggingInbox) observe(op string, it stream.Item) {
	if in.cfg.include(it) {
		in.cfg.logger.Debug().Int("ordinal", in.inner.Ordinal()).Str("op", op).Msg(in.cfg.render(it))
	}
}

func (in *LoggingInbox) Ordinal() int  { return in.inner.Ordinal() }
func (in *LoggingInbox) Size() int     { return in.inner.Size() }
func (in *LoggingInbox) IsEmpty() bool { return in.inner.IsEmpty() }

func (in *LoggingInbox) Peek() (stream.Item, bool) {
	return in.inner.Peek()
}

func (in *LoggingInbox) Poll() (stream.Item, bool) {
	it, ok := in.inner.Poll()
	if ok {
		in.observe("poll", it)
	}
	return it, ok
}

func (in *LoggingInbox) PollData() (stream.Item, bool) {
	it, ok := in.inner.PollData()
	if ok {
		in.observe("poll-data", it)
	}
	return it, ok
}

func (in *LoggingInbox) PollWatermark() (stream.Watermark, bool) {
	wm, ok := in.inner.PollWatermark()
	if ok {
		in.observe("poll-watermark", wm)
	}
	return wm, ok
}

func (in *LoggingInbox) Drain(fn func(stream.Item)) {
	in.inner.Drain(func(it stream.Item) {
		in.observe("drain", it)
		fn(it)
	})
}

// LoggingOutbox logs every offer against the wrapped outbox, including
// rejections. A broadcast produces one line, not one per destination.
// Pass/fail results and ordering are exactly those of the wrapped outbox.
type LoggingOutbox struct {
	inner Outbox
	cfg   *diagConfig
}

// NewLoggingOutbox wraps an outbox with offer diagnostics.
func NewLoggingOutbox(inner Outbox, opts ...DiagnosticOption) *LoggingOutbox {
	return &LoggingOutbox{inner: inner, cfg: newDiagConfig(opts)}
}

func (o *LoggingOutbox) observe(dest string, accepted bool, it stream.Item) {
	if o.cfg.include(it) {
		o.cfg.logger.Debug().Str("dest", dest).Bool("accepted", accepted).Msg(o.cfg.render(it))
	}
}

func (o *LoggingOutbox) DestinationCount() int { return o.inner.DestinationCount() }
func (o *LoggingOutbox) Offered() uint64       { return o.inner.Offered() }

func (o *LoggingOutbox) Offer(ordinal Ordinal, item stream.Item) bool {
	accepted := o.inner.Offer(ordinal, item)
	o.observe(ordinal.String(), accepted, item)
	return accepted
}

func (o *LoggingOutbox) OfferBroadcast(item stream.Item) bool {
	accepted := o.inner.OfferBroadcast(item)
	o.observe(Broadcast.String(), accepted, item)
	return accepted
}

func (o *LoggingOutbox) OfferToSnapshot(entry stream.Entry) bool {
	accepted := o.inner.OfferToSnapshot(entry)
	o.observe(SnapshotOrdinal.String(), accepted, entry)
	return accepted
}

// WrapWithLogging decorates a processor so that every inbox read and
// every outbox offer produces a log line. The wrapper observes, never
// mutates: the wrapped unit sees the same items, the same acceptance
// results, and the same ordering it would without the wrapper.
func WrapWithLogging(p Processor, opts ...DiagnosticOption) Processor {
	return &loggingProcessor{inner: p, opts: opts}
}

type loggingProcessor struct {
	inner Processor
	opts  []DiagnosticOption
}

func (p *loggingProcessor) Init(ctx *Context) error {
	wrapped := *ctx
	wrapped.Outbox = NewLoggingOutbox(ctx.Outbox, p.opts...)
	return p.inner.Init(&wrapped)
}

func (p *loggingProcessor) Process(ordinal int, inbox Inbox) error {
	return p.inner.Process(ordinal, NewLoggingInbox(inbox, p.opts...))
}

func (p *loggingProcessor) ProcessWatermark(ordinal int, wm stream.Watermark) (Status, error) {
	return p.inner.ProcessWatermark(ordinal, wm)
}

func (p *loggingProcessor) Complete() (Status, error) {
	return p.inner.Complete()
}

func (p *loggingProcessor) SaveToSnapshot() (Status, error) {
	return p.inner.SaveToSnapshot()
}

func (p *loggingProcessor) RestoreFromSnapshot(entries Inbox) (Status, error) {
	return p.inner.RestoreFromSnapshot(NewLoggingInbox(entries, p.opts...))
}

func (p *loggingProcessor) FinishSnapshotRestore() error {
	return p.inner.FinishSnapshotRestore()
}
