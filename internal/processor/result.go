package processor

import (
	"time"

	"github.com/surgiscan/docproc/internal/aggregate"
	"github.com/surgiscan/docproc/internal/extract"
)

// Summary captures what one processing attempt cost.
type Summary struct {
	Mode                   Mode     `json:"mode"`
	DocumentTypesAttempted []string `json:"document_types_attempted"`
	SuccessfulExtractions  int      `json:"successful_extractions"`
	TotalFieldsExtracted   int      `json:"total_fields_extracted"`
	// ProcessingTime is wall-clock seconds from call start to end.
	ProcessingTime float64 `json:"processing_time"`
	APICallsMade   int     `json:"api_calls_made"`
}

// Result is the terminal record for one processed document.
type Result struct {
	DocumentID      string                `json:"document_id"`
	Filename        string                `json:"filename"`
	Status          Status                `json:"status"`
	ExtractedData   *extract.Mapping      `json:"extracted_data"`
	Summary         Summary               `json:"processing_summary"`
	PatientInfo     aggregate.PatientInfo `json:"patient_info"`
	Confidence      float64               `json:"confidence"`
	NeedsValidation bool                  `json:"needs_validation"`
	Error           string                `json:"error,omitempty"`
	ProcessedAt     time.Time             `json:"processed_at"`
}
