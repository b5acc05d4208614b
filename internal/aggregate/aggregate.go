// Package aggregate derives document-level results from per-type
// extraction field sets: a consolidated patient record, an overall
// confidence score, and a human-review flag.
package aggregate

import (
	"math"
	"strconv"

	"github.com/surgiscan/docproc/internal/extract"
	"github.com/surgiscan/docproc/internal/schema"
)

// confidenceFloor is the overall score below which a document is
// routed to manual validation.
const confidenceFloor = 0.80

// PatientInfo is the consolidated identity block assembled across all
// extracted document types in a file.
type PatientInfo struct {
	Name                string `json:"name"`
	IDNumber            string `json:"id_number"`
	CompanyName         string `json:"company_name"`
	LastExaminationDate string `json:"last_examination_date"`
}

// Field aliases checked per slot. Identity slots keep the first value
// found in mapping order; the examination date keeps the last so the
// most recently extracted document wins.
var (
	nameKeys    = []string{"patient_name", "name", "initials_and_surname", "employee_name"}
	idKeys      = []string{"id_number", "patient_id"}
	companyKeys = []string{"company_name", "company", "employer_name"}
	dateKeys    = []string{"examination_date", "test_date", "consent_date"}
)

// DerivePatientInfo walks the mapping in insertion order and fills the
// identity slots from whichever document types carry them.
func DerivePatientInfo(m *extract.Mapping) PatientInfo {
	var info PatientInfo
	if m == nil {
		return info
	}

	for _, dt := range m.Types() {
		fields, _ := m.Get(dt)

		if info.Name == "" {
			info.Name = firstString(fields, nameKeys)
		}
		if info.IDNumber == "" {
			info.IDNumber = firstString(fields, idKeys)
		}
		if info.CompanyName == "" {
			info.CompanyName = firstString(fields, companyKeys)
		}
		if date := firstString(fields, dateKeys); date != "" {
			info.LastExaminationDate = date
		}
	}
	return info
}

// CalculateConfidence scores the mapping as the mean per-type field
// coverage, where each type's coverage is the fraction of its expected
// field count that was actually extracted, capped at 1. The result is
// rounded to two decimals; an empty mapping scores 0.
func CalculateConfidence(m *extract.Mapping) float64 {
	if m == nil || m.Empty() {
		return 0.0
	}

	var sum float64
	for _, dt := range m.Types() {
		fields, _ := m.Get(dt)
		coverage := float64(len(fields)) / float64(schema.ExpectedFields(dt))
		sum += math.Min(1.0, coverage)
	}
	avg := sum / float64(m.Len())
	return math.Round(avg*100) / 100
}

// NeedsValidation reports whether the result requires human review:
// nothing was extracted, confidence is below the floor, or either core
// identity field is missing.
func NeedsValidation(m *extract.Mapping, info PatientInfo, confidence float64) bool {
	if m == nil || m.Empty() {
		return true
	}
	if confidence < confidenceFloor {
		return true
	}
	return info.Name == "" || info.IDNumber == ""
}

// firstString returns the first non-empty value among the keys,
// rendered as a string. Oracles occasionally return identifiers as
// numbers; those are coerced rather than dropped. Zero numbers and
// false booleans do not fill a slot.
func firstString(fields extract.FieldSet, keys []string) string {
	for _, k := range keys {
		switch v := fields[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			if v != 0 {
				return strconv.FormatFloat(v, 'f', -1, 64)
			}
		case bool:
			if v {
				return "true"
			}
		}
	}
	return ""
}
