// Package processor orchestrates the full per-document pipeline: type
// detection, multi-schema extraction, and result aggregation, with a
// bounded worker pool for batches. Results never escape as panics or
// errors; every failure becomes a failed Result.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/surgiscan/docproc/internal/aggregate"
	"github.com/surgiscan/docproc/internal/detect"
	"github.com/surgiscan/docproc/internal/extract"
	"github.com/surgiscan/docproc/internal/metrics"
	"github.com/surgiscan/docproc/internal/schema"
)

const (
	// DefaultTimeout bounds one document's processing end to end.
	DefaultTimeout = 300 * time.Second
	// DefaultMaxConcurrent bounds simultaneous documents in a batch.
	DefaultMaxConcurrent = 10
)

// Options tunes a Processor. Zero values take the defaults above.
type Options struct {
	Timeout       time.Duration
	MaxConcurrent int
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
}

// Document is one unit of batch input.
type Document struct {
	ID       string
	FilePath string
	Filename string
}

// Processor runs the detection and extraction pipeline.
type Processor struct {
	detector      *detect.Detector
	extractor     *extract.Extractor
	timeout       time.Duration
	maxConcurrent int
	logger        *slog.Logger
	metrics       *metrics.Metrics
	wg            sync.WaitGroup
}

// New builds a Processor around the given pipeline stages.
func New(d *detect.Detector, e *extract.Extractor, opts Options) *Processor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{
		detector:      d,
		extractor:     e,
		timeout:       opts.Timeout,
		maxConcurrent: opts.MaxConcurrent,
		logger:        logger.With("component", "processor"),
		metrics:       opts.Metrics,
	}
}

// ProcessOne runs the full pipeline for a single document. It always
// returns a Result: pipeline faults, panics, and timeouts all surface
// as Status == StatusFailed with the failure recorded in Error.
func (p *Processor) ProcessOne(ctx context.Context, doc Document, mode Mode) *Result {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if p.metrics != nil {
		p.metrics.InFlight.Inc()
		defer p.metrics.InFlight.Dec()
	}

	done := make(chan *Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("pipeline panic", "document_id", doc.ID, "panic", r)
				done <- p.failed(doc, mode, start, fmt.Sprintf("internal error: %v", r))
			}
		}()
		done <- p.run(ctx, doc, mode, start)
	}()

	var res *Result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = p.failed(doc, mode, start, fmt.Sprintf("processing timed out after %s", p.timeout))
	}

	res.Summary.ProcessingTime = math.Round(time.Since(start).Seconds()*100) / 100
	if p.metrics != nil {
		p.metrics.DocumentsTotal.WithLabelValues(string(res.Status), string(mode)).Inc()
		p.metrics.ProcessingDuration.WithLabelValues(string(mode)).Observe(res.Summary.ProcessingTime)
	}
	p.logger.Info("document processed",
		"document_id", doc.ID,
		"status", res.Status,
		"mode", mode,
		"confidence", res.Confidence,
		"duration_s", res.Summary.ProcessingTime)
	return res
}

// run executes the pipeline body. Must only be called from ProcessOne,
// which owns the timeout and panic boundary.
func (p *Processor) run(ctx context.Context, doc Document, mode Mode, start time.Time) *Result {
	var candidates []schema.DocumentType
	switch mode {
	case ModeExtractAll:
		candidates = schema.AllTypes()
	case ModeFast:
		candidates = schema.DefaultDetectionSet()
	case ModeSmart, ModeDetectOnly:
		candidates = p.detector.DetectTypes(ctx, doc.FilePath)
	default:
		return p.failed(doc, mode, start, fmt.Sprintf("unknown processing mode %q", mode))
	}

	apiCalls := len(candidates)
	if mode.usesDetector() {
		apiCalls++
	}

	// Detection normally degrades to the default set, so an empty
	// candidate list only happens here; it fails the whole call.
	if mode == ModeDetectOnly && len(candidates) == 0 {
		return p.failed(doc, mode, start, "type detection produced no candidates")
	}

	mapping := p.extractor.Extract(ctx, doc.FilePath, candidates)
	info := aggregate.DerivePatientInfo(mapping)
	confidence := aggregate.CalculateConfidence(mapping)

	return &Result{
		DocumentID:      doc.ID,
		Filename:        doc.Filename,
		Status:          StatusCompleted,
		ExtractedData:   mapping,
		PatientInfo:     info,
		Confidence:      confidence,
		NeedsValidation: aggregate.NeedsValidation(mapping, info, confidence),
		ProcessedAt:     time.Now().UTC(),
		Summary: Summary{
			Mode:                   mode,
			DocumentTypesAttempted: typeStrings(candidates),
			SuccessfulExtractions:  mapping.Len(),
			TotalFieldsExtracted:   mapping.TotalFields(),
			APICallsMade:           apiCalls,
		},
	}
}

// ProcessBatch runs ProcessOne for every document, at most
// maxConcurrent at a time. The returned slice has the same length and
// order as the input; per-document failures occupy their slot instead
// of aborting the batch.
func (p *Processor) ProcessBatch(ctx context.Context, docs []Document, mode Mode) []*Result {
	results := make([]*Result, len(docs))
	sem := make(chan struct{}, p.maxConcurrent)

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		p.wg.Add(1)
		go func(i int, doc Document) {
			defer wg.Done()
			defer p.wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = p.ProcessOne(ctx, doc, mode)
		}(i, doc)
	}
	wg.Wait()

	return results
}

// Cleanup blocks until all in-flight batch work has drained.
func (p *Processor) Cleanup() {
	p.wg.Wait()
}

func (p *Processor) failed(doc Document, mode Mode, start time.Time, msg string) *Result {
	return &Result{
		DocumentID:      doc.ID,
		Filename:        doc.Filename,
		Status:          StatusFailed,
		ExtractedData:   extract.NewMapping(),
		NeedsValidation: true,
		Error:           msg,
		ProcessedAt:     time.Now().UTC(),
		Summary: Summary{
			Mode:           mode,
			ProcessingTime: time.Since(start).Seconds(),
		},
	}
}

func typeStrings(types []schema.DocumentType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
