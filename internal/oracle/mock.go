package oracle

import (
	"context"
	"sync/atomic"
)

const MockName = "mock"

// Mock is a scriptable Oracle for tests. Set the Fn fields to control
// behavior; unset functions return ErrUnavailable.
type Mock struct {
	ClassifyFn         func(ctx context.Context, filePath string) (*Classification, error)
	ExtractPlainTextFn func(ctx context.Context, filePath string) (string, error)
	ExtractSchemaFn    func(ctx context.Context, filePath string, schema map[string]any) (map[string]any, error)

	// Calls counts every oracle invocation across all methods.
	Calls atomic.Int64
}

var _ Oracle = (*Mock)(nil)

func (m *Mock) Name() string { return MockName }

func (m *Mock) Classify(ctx context.Context, filePath string) (*Classification, error) {
	m.Calls.Add(1)
	if m.ClassifyFn == nil {
		return nil, ErrUnavailable
	}
	return m.ClassifyFn(ctx, filePath)
}

func (m *Mock) ExtractPlainText(ctx context.Context, filePath string) (string, error) {
	m.Calls.Add(1)
	if m.ExtractPlainTextFn == nil {
		return "", ErrUnavailable
	}
	return m.ExtractPlainTextFn(ctx, filePath)
}

func (m *Mock) ExtractSchema(ctx context.Context, filePath string, schema map[string]any) (map[string]any, error) {
	m.Calls.Add(1)
	if m.ExtractSchemaFn == nil {
		return nil, ErrUnavailable
	}
	return m.ExtractSchemaFn(ctx, filePath, schema)
}
