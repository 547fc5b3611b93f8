package reconlog

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type TraceInfo struct {
	TraceID string
	SpanID  string
}

// ExtractTraceInfo reads the active span from ctx. Both fields are empty when
// there is no valid span, e.g. in unit tests.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewEntry builds an entry stamped with the trace info found in ctx.
// adjustments and failures are marshalled to JSON; nil marshals as "[]".
func NewEntry(
	ctx context.Context,
	runID, orderID, kind string,
	status Status,
	fingerprint string,
	adjustments any,
	failures []string,
) *Entry {
	ti := ExtractTraceInfo(ctx)

	return &Entry{
		RunID:       runID,
		OrderID:     orderID,
		Kind:        kind,
		Status:      status,
		Fingerprint: fingerprint,
		Adjustments: toJSONArray(adjustments),
		Failures:    toJSONArray(failures),
		TraceID:     ti.TraceID,
		SpanID:      ti.SpanID,
		At:          time.Now().UTC(),
	}
}

func toJSONArray(v any) string {
	if v == nil {
		return "[]"
	}
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return "[]"
	}
	return string(b)
}
