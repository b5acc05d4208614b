package oracle

import (
	"context"

	"github.com/surgiscan/docproc/internal/metrics"
)

// Instrument wraps an oracle so every call is counted by provider,
// operation and outcome. A nil metrics handle returns the oracle
// unwrapped.
func Instrument(o Oracle, m *metrics.Metrics) Oracle {
	if m == nil {
		return o
	}
	return &instrumented{next: o, metrics: m}
}

type instrumented struct {
	next    Oracle
	metrics *metrics.Metrics
}

func (i *instrumented) Name() string { return i.next.Name() }

func (i *instrumented) Classify(ctx context.Context, filePath string) (*Classification, error) {
	cls, err := i.next.Classify(ctx, filePath)
	i.count("classify", err)
	return cls, err
}

func (i *instrumented) ExtractPlainText(ctx context.Context, filePath string) (string, error) {
	text, err := i.next.ExtractPlainText(ctx, filePath)
	i.count("extract_plain_text", err)
	return text, err
}

func (i *instrumented) ExtractSchema(ctx context.Context, filePath string, schema map[string]any) (map[string]any, error) {
	fields, err := i.next.ExtractSchema(ctx, filePath, schema)
	i.count("extract_schema", err)
	return fields, err
}

func (i *instrumented) count(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	i.metrics.OracleCallsTotal.WithLabelValues(i.next.Name(), operation, outcome).Inc()
}
