// Package processor defines the cooperative execution contract between the
// engine and a single processing unit: bounded inboxes and outboxes,
// resumable emission over lazy traversers, and the unit lifecycle state
// machine with its snapshot sub-protocol.
package processor

// Status is the result of a suspension-capable operation. Pending means
// "call me again"; it is flow control, never a failure. Failures travel
// on the error return instead.
type Status int

const (
	// Pending signals that the operation ran out of outbox capacity (or
	// input) and must be re-invoked to make further progress.
	Pending Status = iota
	// Done signals that the operation finished its work.
	Done
)

// IsDone reports whether the status is Done.
func (s Status) IsDone() bool {
	return s == Done
}

func (s Status) String() string {
	if s == Done {
		return "done"
	}
	return "pending"
}
