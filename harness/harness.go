// Package harness drives a processing unit through its full cooperative
// lifecycle against scripted input, deterministically and outside any
// engine: init, optional snapshot cycles, per-item data and watermark
// callbacks, completion polling, and output verification.
package harness

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tarungka/loom/internal/logger"
	"github.com/tarungka/loom/processor"
	"github.com/tarungka/loom/snapshot"
	"github.com/tarungka/loom/state"
	"github.com/tarungka/loom/stream"
)

// Violation categories. A unit's own error is propagated unwrapped in
// meaning (only annotated with the callback it came from); these
// sentinels mark harness-detected contract violations instead.
var (
	// ErrProgressViolation marks a callback that consumed nothing,
	// produced nothing, and did not report done: a stalled cooperative
	// loop.
	ErrProgressViolation = errors.New("progress violation")
	// ErrTimingViolation marks a callback that exceeded the configured
	// time budget, breaking the non-blocking contract.
	ErrTimingViolation = errors.New("timing violation")
	// ErrOutputMismatch marks a discrepancy between the expected and
	// actual output sequences.
	ErrOutputMismatch = errors.New("output mismatch")
)

// stallLimit bounds polling loops so a stalled unit fails the run even
// with the progress assertion disabled.
const stallLimit = 10000

// Checker compares one expected output item against one actual item.
type Checker func(expected, actual stream.Item) bool

// Harness is a deterministic lifecycle driver for one unit. Configure it
// fluently, then call Run or Execute. All assertions default to enabled
// and strict.
type Harness struct {
	supplier       func() processor.Processor
	backend        state.Backend
	input          []stream.Item
	expected       []stream.Item
	checker        Checker
	callComplete   bool
	logging        bool
	assertProgress bool
	runSnapshots   bool
	substitute     bool
	timeout        time.Duration
}

// New returns a Harness over a factory of unit instances. The factory is
// also used to produce replacement instances during snapshot cycles, so
// it must return a fresh, uninitialized unit each call.
func New(supplier func() processor.Processor) *Harness {
	return &Harness{
		supplier:       supplier,
		checker:        func(expected, actual stream.Item) bool { return reflect.DeepEqual(expected, actual) },
		callComplete:   true,
		logging:        true,
		assertProgress: true,
		runSnapshots:   true,
		substitute:     true,
	}
}

// ForInstance returns a Harness over a single pre-built instance.
// Snapshot cycles still run, but without instance substitution, since no
// fresh instance can be produced.
func ForInstance(p processor.Processor) *Harness {
	h := New(func() processor.Processor { return p })
	h.substitute = false
	return h
}

// Input sets the scripted input sequence. Watermarks in the sequence are
// routed through the watermark callback; everything else goes through
// the data path, one item in the inbox per call.
func (h *Harness) Input(items ...stream.Item) *Harness {
	h.input = items
	return h
}

// ExpectOutput sets the expected output sequence for destination 0.
func (h *Harness) ExpectOutput(items ...stream.Item) *Harness {
	h.expected = items
	return h
}

// OutputChecker replaces the default structural-equality comparator.
func (h *Harness) OutputChecker(checker Checker) *Harness {
	h.checker = checker
	return h
}

// DisableCompleteCall skips the completion-polling phase.
func (h *Harness) DisableCompleteCall() *Harness {
	h.callComplete = false
	return h
}

// DisableLogging turns off the per-item diagnostic log lines.
func (h *Harness) DisableLogging() *Harness {
	h.logging = false
	return h
}

// DisableProgressAssertion stops treating no-progress callbacks as
// failures. The stall guard still bounds every polling loop.
func (h *Harness) DisableProgressAssertion() *Harness {
	h.assertProgress = false
	return h
}

// DisableSnapshots skips every save/restore/finish cycle.
func (h *Harness) DisableSnapshots() *Harness {
	h.runSnapshots = false
	return h
}

// CooperativeTimeout marks the unit as cooperative: every callback must
// return within d, and the unit runs against a capacity-1 outbox that
// alternates between empty and full across successive calls, forcing the
// already-full-on-entry edge case.
func (h *Harness) CooperativeTimeout(d time.Duration) *Harness {
	h.timeout = d
	return h
}

// StateBackend replaces the default in-memory snapshot backend.
func (h *Harness) StateBackend(b state.Backend) *Harness {
	h.backend = b
	return h
}

// Run executes the harness and fails the test on any violation or unit
// error.
func (h *Harness) Run(t testingT) {
	t.Helper()
	if err := h.Execute(); err != nil {
		t.Fatalf("harness run failed: %v", err)
	}
}

// testingT is the subset of *testing.T the harness needs.
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

type run struct {
	h           *Harness
	p           processor.Processor
	out         *processor.BufferedOutbox
	ctx         *processor.Context
	ctrl        *snapshot.Controller
	logger      zerolog.Logger
	cooperative bool
	calls       int
	actual      []stream.Item
}

// Execute drives the full lifecycle and returns the first violation or
// unit error, nil on a clean verified run.
func (h *Harness) Execute() error {
	cooperative := h.timeout > 0
	capacity := 0
	if cooperative {
		capacity = 1
	}

	r := &run{
		h:           h,
		out:         processor.NewBufferedOutbox(1, capacity),
		cooperative: cooperative,
		logger:      logger.GetLogger("harness"),
	}
	if !h.logging {
		r.logger = zerolog.Nop()
	}

	backend := h.backend
	if backend == nil {
		backend = state.NewInMemoryBackend()
	}
	r.ctrl = snapshot.NewController("harness-"+uuid.NewString(), backend)

	r.ctx = processor.NewContext(r.out, cooperative)
	if !h.logging {
		r.ctx.Logger = zerolog.Nop()
	}

	r.p = r.newInstance()
	if err := r.p.Init(r.ctx); err != nil {
		return fmt.Errorf("unit failed in init: %w", err)
	}

	if err := r.snapshotCycle(); err != nil {
		return err
	}

	inbox := processor.NewArrayInbox(0)
	for _, item := range h.input {
		if wm, ok := item.(stream.Watermark); ok {
			if err := r.driveWatermark(wm); err != nil {
				return err
			}
		} else {
			inbox.Add(item)
			if err := r.driveData(inbox); err != nil {
				return err
			}
		}
		if err := r.snapshotCycle(); err != nil {
			return err
		}
	}

	if h.callComplete {
		if err := r.driveComplete(); err != nil {
			return err
		}
	}

	r.drainAll()
	if err := r.snapshotCycle(); err != nil {
		return err
	}

	return r.verifyOutput()
}

func (r *run) newInstance() processor.Processor {
	p := r.h.supplier()
	if r.h.logging {
		p = processor.WrapWithLogging(p, processor.WithDiagnosticLogger(r.logger))
	}
	return p
}

// drain moves accepted output into the actual sequence. For cooperative
// units it runs only on every second call, so the capacity-1 outbox
// really does alternate between empty and full on entry.
func (r *run) drain() {
	if r.cooperative && r.calls%2 == 1 {
		return
	}
	r.drainAll()
}

func (r *run) drainAll() {
	r.actual = append(r.actual, r.out.DrainQueue(0)...)
}

// invoke wraps one callback with timing and progress accounting. The
// progressed result feeds the stall guard of the polling loops.
func (r *run) invoke(name string, inbox processor.Inbox, call func() (processor.Status, error)) (status processor.Status, progressed bool, err error) {
	fullOnEntry := r.cooperative && len(r.out.Queue(0)) > 0
	inboxBefore := 0
	if inbox != nil {
		inboxBefore = inbox.Size()
	}
	offeredBefore := r.out.Offered()

	start := time.Now()
	status, err = call()
	elapsed := time.Since(start)

	if err != nil {
		return status, false, fmt.Errorf("unit failed in %s: %w", name, err)
	}
	if r.h.timeout > 0 && elapsed > r.h.timeout {
		return status, false, fmt.Errorf("%w: %s took %v, budget %v", ErrTimingViolation, name, elapsed, r.h.timeout)
	}

	consumed := inbox != nil && inbox.Size() < inboxBefore
	produced := r.out.Offered() > offeredBefore
	if r.h.assertProgress && !fullOnEntry && !consumed && !produced && !status.IsDone() {
		return status, false, fmt.Errorf("%w: %s neither consumed input, nor produced output, nor reported done", ErrProgressViolation, name)
	}

	r.calls++
	r.drain()
	return status, consumed || produced || status.IsDone(), nil
}

func (r *run) driveData(inbox *processor.ArrayInbox) error {
	idle := 0
	for !inbox.IsEmpty() {
		if idle > stallLimit {
			return fmt.Errorf("%w: data callback made no progress after %d calls", ErrProgressViolation, stallLimit)
		}
		_, progressed, err := r.invoke("process", inbox, func() (processor.Status, error) {
			// Process reports progress through side effects only; Done
			// here would wrongly satisfy the progress assertion.
			return processor.Pending, r.p.Process(0, inbox)
		})
		if err != nil {
			return err
		}
		if progressed {
			idle = 0
		} else {
			idle++
		}
	}
	return nil
}

func (r *run) driveWatermark(wm stream.Watermark) error {
	for idle := 0; ; idle++ {
		if idle > stallLimit {
			return fmt.Errorf("%w: watermark callback made no progress after %d calls", ErrProgressViolation, stallLimit)
		}
		status, progressed, err := r.invoke("process-watermark", nil, func() (processor.Status, error) {
			return r.p.ProcessWatermark(0, wm)
		})
		if err != nil {
			return err
		}
		if status.IsDone() {
			return nil
		}
		if progressed {
			idle = 0
		}
	}
}

func (r *run) driveComplete() error {
	for idle := 0; ; idle++ {
		if idle > stallLimit {
			return fmt.Errorf("%w: complete made no progress after %d calls", ErrProgressViolation, stallLimit)
		}
		status, progressed, err := r.invoke("complete", nil, func() (processor.Status, error) {
			return r.p.Complete()
		})
		if err != nil {
			return err
		}
		if status.IsDone() {
			return nil
		}
		if progressed {
			idle = 0
		}
	}
}

func (r *run) snapshotCycle() error {
	if !r.h.runSnapshots {
		return nil
	}
	var fresh snapshot.Supplier
	if r.h.substitute {
		fresh = r.newInstance
	}
	replaced, err := r.ctrl.Cycle(r.ctx, r.p, r.out, fresh)
	if err != nil {
		return err
	}
	r.p = replaced
	return nil
}

func (r *run) verifyOutput() error {
	if len(r.actual) != len(r.h.expected) {
		return fmt.Errorf("%w: expected %d items %v, got %d items %v",
			ErrOutputMismatch, len(r.h.expected), r.h.expected, len(r.actual), r.actual)
	}
	for i := range r.h.expected {
		if !r.h.checker(r.h.expected[i], r.actual[i]) {
			return fmt.Errorf("%w: at position %d expected %v, got %v (expected sequence %v, actual sequence %v)",
				ErrOutputMismatch, i, r.h.expected[i], r.actual[i], r.h.expected, r.actual)
		}
	}
	return nil
}
