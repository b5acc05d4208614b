package processor

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/surgiscan/docproc/internal/detect"
	"github.com/surgiscan/docproc/internal/extract"
	"github.com/surgiscan/docproc/internal/oracle"
	"github.com/surgiscan/docproc/internal/schema"
)

// happyOracle classifies everything as a certificate and returns a
// rich certificate field set.
func happyOracle() *oracle.Mock {
	return &oracle.Mock{
		ClassifyFn: func(context.Context, string) (*oracle.Classification, error) {
			return &oracle.Classification{
				TypesPresent: "certificate_of_fitness",
				PrimaryType:  "certificate_of_fitness",
			}, nil
		},
		ExtractSchemaFn: func(context.Context, string, map[string]any) (map[string]any, error) {
			return map[string]any{
				"initials_and_surname": "J Smith",
				"id_number":            "8001015009087",
				"company_name":         "Acme Mining",
				"examination_date":     "2024-03-01",
			}, nil
		},
	}
}

func newTestProcessor(mock *oracle.Mock, opts Options) *Processor {
	return New(
		detect.NewDetector(mock, nil),
		extract.NewExtractor(mock, nil),
		opts,
	)
}

func TestProcessOneSmart(t *testing.T) {
	p := newTestProcessor(happyOracle(), Options{})
	res := p.ProcessOne(context.Background(), Document{ID: "doc-1", FilePath: "scan.pdf", Filename: "scan.pdf"}, ModeSmart)

	if res.Status != StatusCompleted {
		t.Fatalf("status: got %s, error %q", res.Status, res.Error)
	}
	if res.ExtractedData.Len() != 1 {
		t.Errorf("expected 1 extracted type, got %d", res.ExtractedData.Len())
	}
	if res.PatientInfo.Name != "J Smith" || res.PatientInfo.IDNumber != "8001015009087" {
		t.Errorf("patient info: %+v", res.PatientInfo)
	}
	// One detection call plus one extraction call.
	if res.Summary.APICallsMade != 2 {
		t.Errorf("api calls: got %d, want 2", res.Summary.APICallsMade)
	}
	if res.Summary.ProcessingTime < 0 {
		t.Errorf("processing time: %v", res.Summary.ProcessingTime)
	}
	if res.NeedsValidation {
		t.Error("a confident result with identity fields should not need validation")
	}
}

func TestProcessOneModeCandidates(t *testing.T) {
	tests := []struct {
		mode          Mode
		wantAttempted int
		wantAPICalls  int
	}{
		{ModeFast, len(schema.DefaultDetectionSet()), len(schema.DefaultDetectionSet())},
		{ModeExtractAll, len(schema.AllTypes()), len(schema.AllTypes())},
		{ModeSmart, 1, 2},
	}

	for _, tc := range tests {
		t.Run(string(tc.mode), func(t *testing.T) {
			p := newTestProcessor(happyOracle(), Options{})
			res := p.ProcessOne(context.Background(), Document{ID: "d", FilePath: "f.pdf"}, tc.mode)

			if got := len(res.Summary.DocumentTypesAttempted); got != tc.wantAttempted {
				t.Errorf("attempted: got %d, want %d", got, tc.wantAttempted)
			}
			if res.Summary.APICallsMade != tc.wantAPICalls {
				t.Errorf("api calls: got %d, want %d", res.Summary.APICallsMade, tc.wantAPICalls)
			}
		})
	}
}

func TestProcessOneDetectOnly(t *testing.T) {
	// detect_only differs from smart only in the detection-failure
	// guard; extraction and aggregation still run over the detected
	// types.
	p := newTestProcessor(happyOracle(), Options{})
	res := p.ProcessOne(context.Background(), Document{ID: "d", FilePath: "f.pdf"}, ModeDetectOnly)

	if res.Status != StatusCompleted {
		t.Fatalf("status: %s", res.Status)
	}
	if res.ExtractedData.Len() != 1 {
		t.Errorf("expected 1 extracted type, got %d", res.ExtractedData.Len())
	}
	if res.Confidence == 0 {
		t.Error("expected a non-zero confidence from the extracted fields")
	}
	if res.PatientInfo.Name != "J Smith" {
		t.Errorf("patient info: %+v", res.PatientInfo)
	}
	if res.Summary.APICallsMade != 2 {
		t.Errorf("api calls: got %d, want 2", res.Summary.APICallsMade)
	}
	if len(res.Summary.DocumentTypesAttempted) != 1 {
		t.Errorf("attempted: %v", res.Summary.DocumentTypesAttempted)
	}
}

func TestProcessOneDetectOnlyNoCandidates(t *testing.T) {
	// Force every detection stage to yield nothing is impossible by
	// construction (stage 3 always answers), so the guard is exercised
	// through a detector bypass: an unknown-token classification still
	// falls back to the default set and must not fail.
	mock := &oracle.Mock{
		ClassifyFn: func(context.Context, string) (*oracle.Classification, error) {
			return &oracle.Classification{TypesPresent: "invoice,receipt"}, nil
		},
	}
	p := newTestProcessor(mock, Options{})
	res := p.ProcessOne(context.Background(), Document{ID: "d", FilePath: "f.pdf"}, ModeDetectOnly)

	if res.Status != StatusCompleted {
		t.Fatalf("status: %s (%s)", res.Status, res.Error)
	}
	if got := len(res.Summary.DocumentTypesAttempted); got != len(schema.DefaultDetectionSet()) {
		t.Errorf("attempted: got %d, want default set", got)
	}
}

func TestProcessOneAllOracleFailures(t *testing.T) {
	// Every oracle call fails: detection falls through to the default
	// set, extraction yields nothing, and the document still completes
	// with needsValidation set.
	p := newTestProcessor(&oracle.Mock{}, Options{})
	res := p.ProcessOne(context.Background(), Document{ID: "d", FilePath: "f.pdf"}, ModeSmart)

	if res.Status != StatusCompleted {
		t.Fatalf("status: got %s, want completed", res.Status)
	}
	if !res.ExtractedData.Empty() {
		t.Error("expected empty extraction")
	}
	if res.Confidence != 0.0 {
		t.Errorf("confidence: %v", res.Confidence)
	}
	if !res.NeedsValidation {
		t.Error("empty extraction must need validation")
	}
}

func TestProcessOneTimeout(t *testing.T) {
	mock := &oracle.Mock{
		ClassifyFn: func(ctx context.Context, _ string) (*oracle.Classification, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
		ExtractPlainTextFn: func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	p := newTestProcessor(mock, Options{Timeout: 50 * time.Millisecond})
	res := p.ProcessOne(context.Background(), Document{ID: "d", FilePath: "f.pdf"}, ModeSmart)

	if res.Status != StatusFailed {
		t.Fatalf("status: got %s, want failed", res.Status)
	}
	if !strings.Contains(res.Error, "timed out") {
		t.Errorf("error: %q", res.Error)
	}
}

func TestProcessOneUnknownMode(t *testing.T) {
	p := newTestProcessor(happyOracle(), Options{})
	res := p.ProcessOne(context.Background(), Document{ID: "d", FilePath: "f.pdf"}, Mode("bogus"))

	if res.Status != StatusFailed {
		t.Fatalf("status: got %s, want failed", res.Status)
	}
	if res.Error == "" {
		t.Error("expected a non-empty error message")
	}
}

func TestProcessBatchOrderAndIsolation(t *testing.T) {
	var calls atomic.Int64
	mock := &oracle.Mock{
		ClassifyFn: func(_ context.Context, filePath string) (*oracle.Classification, error) {
			calls.Add(1)
			return &oracle.Classification{TypesPresent: "vision_test"}, nil
		},
		ExtractSchemaFn: func(_ context.Context, filePath string, _ map[string]any) (map[string]any, error) {
			if strings.Contains(filePath, "poison") {
				panic("corrupt file")
			}
			return map[string]any{
				"patient_name": "J Smith",
				"id_number":    "123",
				"test_date":    "2024-03-01",
			}, nil
		},
	}

	p := newTestProcessor(mock, Options{MaxConcurrent: 2})
	docs := make([]Document, 5)
	for i := range docs {
		docs[i] = Document{ID: fmt.Sprintf("doc-%d", i), FilePath: fmt.Sprintf("file-%d.pdf", i)}
	}
	docs[2].FilePath = "poison.pdf"

	results := p.ProcessBatch(context.Background(), docs, ModeSmart)
	p.Cleanup()

	if len(results) != len(docs) {
		t.Fatalf("length: got %d, want %d", len(results), len(docs))
	}
	for i, res := range results {
		if res == nil {
			t.Fatalf("slot %d is nil", i)
		}
		if res.DocumentID != docs[i].ID {
			t.Errorf("slot %d: got %s, want %s", i, res.DocumentID, docs[i].ID)
		}
	}
	if results[2].Status != StatusFailed {
		t.Errorf("poisoned document: got %s, want failed", results[2].Status)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if results[i].Status != StatusCompleted {
			t.Errorf("slot %d: got %s (%s)", i, results[i].Status, results[i].Error)
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(""); err != nil || m != ModeSmart {
		t.Errorf("empty: got %s, %v", m, err)
	}
	if m, err := ParseMode("extract_all"); err != nil || m != ModeExtractAll {
		t.Errorf("extract_all: got %s, %v", m, err)
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
