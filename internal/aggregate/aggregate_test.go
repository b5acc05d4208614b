package aggregate

import (
	"math"
	"testing"

	"github.com/surgiscan/docproc/internal/extract"
	"github.com/surgiscan/docproc/internal/schema"
)

func TestDerivePatientInfoFirstWins(t *testing.T) {
	m := extract.NewMapping()
	m.Put(schema.CertificateOfFitness, extract.FieldSet{
		"initials_and_surname": "J Smith",
		"id_number":            "8001015009087",
		"company_name":         "Acme Mining",
	})
	m.Put(schema.VisionTest, extract.FieldSet{
		"patient_name": "John Smith",
		"id_number":    "0000000000000",
	})

	info := DerivePatientInfo(m)
	if info.Name != "J Smith" {
		t.Errorf("name: got %q, want first-seen value", info.Name)
	}
	if info.IDNumber != "8001015009087" {
		t.Errorf("id_number: got %q, want first-seen value", info.IDNumber)
	}
	if info.CompanyName != "Acme Mining" {
		t.Errorf("company_name: got %q", info.CompanyName)
	}
}

func TestDerivePatientInfoDateLastWins(t *testing.T) {
	m := extract.NewMapping()
	m.Put(schema.CertificateOfFitness, extract.FieldSet{
		"patient_name":     "J Smith",
		"examination_date": "2024-01-10",
	})
	m.Put(schema.VisionTest, extract.FieldSet{
		"test_date": "2024-03-05",
	})
	m.Put(schema.ConsentForm, extract.FieldSet{
		"consent_date": "2024-02-20",
	})

	info := DerivePatientInfo(m)
	// Unlike the identity slots, the examination date tracks the last
	// document that carried one.
	if info.LastExaminationDate != "2024-02-20" {
		t.Errorf("last_examination_date: got %q, want value from last type", info.LastExaminationDate)
	}
	if info.Name != "J Smith" {
		t.Errorf("name: got %q", info.Name)
	}
}

func TestDerivePatientInfoCoercesScalars(t *testing.T) {
	m := extract.NewMapping()
	m.Put(schema.VisionTest, extract.FieldSet{
		"patient_name": "J Smith",
		// JSON numbers decode as float64.
		"id_number":    float64(8001015009087),
		"company_name": float64(0),
	})
	m.Put(schema.ConsentForm, extract.FieldSet{
		"company_name": "Acme Mining",
	})

	info := DerivePatientInfo(m)
	if info.IDNumber != "8001015009087" {
		t.Errorf("numeric id_number should be coerced, got %q", info.IDNumber)
	}
	// Zero numbers are empty values and must not block later types.
	if info.CompanyName != "Acme Mining" {
		t.Errorf("company_name: got %q", info.CompanyName)
	}
}

func TestCalculateConfidence(t *testing.T) {
	t.Run("empty mapping scores zero", func(t *testing.T) {
		if got := CalculateConfidence(extract.NewMapping()); got != 0.0 {
			t.Errorf("got %v, want 0.0", got)
		}
		if got := CalculateConfidence(nil); got != 0.0 {
			t.Errorf("nil: got %v, want 0.0", got)
		}
	})

	t.Run("coverage is capped at one", func(t *testing.T) {
		fields := extract.FieldSet{}
		for i := 0; i < schema.ExpectedFields(schema.ConsentForm)+5; i++ {
			fields[string(rune('a'+i))] = "x"
		}
		m := extract.NewMapping()
		m.Put(schema.ConsentForm, fields)
		if got := CalculateConfidence(m); got != 1.0 {
			t.Errorf("got %v, want 1.0", got)
		}
	})

	t.Run("mean across types with rounding", func(t *testing.T) {
		m := extract.NewMapping()
		m.Put(schema.ConsentForm, extract.FieldSet{"a": 1, "b": 2, "c": 3, "d": 4}) // 4/8
		m.Put(schema.VisionTest, extract.FieldSet{"a": 1, "b": 2, "c": 3})          // 3/12
		want := math.Round((0.5+0.25)/2*100) / 100
		if got := CalculateConfidence(m); got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	})
}

func TestNeedsValidation(t *testing.T) {
	full := extract.NewMapping()
	full.Put(schema.CertificateOfFitness, extract.FieldSet{"x": 1})
	info := PatientInfo{Name: "J Smith", IDNumber: "123"}

	tests := []struct {
		name       string
		mapping    *extract.Mapping
		info       PatientInfo
		confidence float64
		want       bool
	}{
		{"empty mapping", extract.NewMapping(), info, 0.95, true},
		{"low confidence", full, info, 0.79, true},
		{"missing name", full, PatientInfo{IDNumber: "123"}, 0.95, true},
		{"missing id", full, PatientInfo{Name: "J Smith"}, 0.95, true},
		{"clean result", full, info, 0.80, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NeedsValidation(tc.mapping, tc.info, tc.confidence); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}
