// Package reconlog is the append-only audit trail of reconciliation runs.
//
// Each run of the engine, whether it deducted, restored, skipped or failed,
// appends one entry. The trail answers "what did order X do to inventory and
// when", and every entry carries the trace and span ids that were active so a
// row can be followed into the distributed trace.
package reconlog

import "time"

type Status string

const (
	StatusApplied Status = "APPLIED"
	// StatusPartial means at least one ingredient could not be adjusted.
	StatusPartial Status = "PARTIAL"
	StatusSkipped Status = "SKIPPED"
	StatusFailed  Status = "FAILED"
)

type Entry struct {
	// RunID identifies one engine invocation.
	RunID string

	OrderID string

	// Kind is the order event that triggered the run ("save" or "cancel").
	Kind string

	Status Status

	// Fingerprint of the deduction set; empty for restorations.
	Fingerprint string

	// Adjustments is a JSON array of the stock changes applied.
	Adjustments string

	// Failures is a JSON array of per-ingredient failure messages.
	Failures string

	TraceID string
	SpanID  string

	At time.Time
}
