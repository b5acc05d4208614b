package processor

import "fmt"

// Mode selects how candidate document types are chosen for a file.
type Mode string

const (
	// ModeSmart runs oracle-backed detection, then extracts the
	// detected candidates. The default.
	ModeSmart Mode = "smart"
	// ModeFast skips detection and extracts against the fixed
	// high-frequency type set.
	ModeFast Mode = "fast"
	// ModeExtractAll extracts against every known document type.
	ModeExtractAll Mode = "extract_all"
	// ModeDetectOnly runs the same pipeline as ModeSmart but fails
	// outright when detection yields no candidates instead of
	// degrading.
	ModeDetectOnly Mode = "detect_only"
)

// ParseMode validates a raw mode string. Empty selects ModeSmart.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeSmart, nil
	case ModeSmart, ModeFast, ModeExtractAll, ModeDetectOnly:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown processing mode %q", s)
	}
}

// usesDetector reports whether the mode spends an oracle call on
// detection.
func (m Mode) usesDetector() bool {
	return m == ModeSmart || m == ModeDetectOnly
}

// Status is the lifecycle state of a processed document.
type Status string

const (
	StatusPending            Status = "pending"
	StatusProcessing         Status = "processing"
	StatusCompleted          Status = "completed"
	StatusFailed             Status = "failed"
	StatusValidated          Status = "validated"
	StatusIntegrationPending Status = "integration_pending"
	StatusIntegrated         Status = "integrated"
)
