package schema

// DocumentType identifies one of the supported occupational-health
// document categories. The set is closed and fixed at compile time.
type DocumentType string

const (
	CertificateOfFitness DocumentType = "certificate_of_fitness"
	VisionTest           DocumentType = "vision_test"
	AudiometricTest      DocumentType = "audiometric_test"
	SpirometryReport     DocumentType = "spirometry_report"
	ConsentForm          DocumentType = "consent_form"
	MedicalQuestionnaire DocumentType = "medical_questionnaire"
)

// allTypes lists every document type in registry order. Extraction and
// aggregation iterate types in this order when a fixed ordering is needed.
var allTypes = []DocumentType{
	CertificateOfFitness,
	VisionTest,
	AudiometricTest,
	SpirometryReport,
	ConsentForm,
	MedicalQuestionnaire,
}

var titles = map[DocumentType]string{
	CertificateOfFitness: "Certificate of Fitness",
	VisionTest:           "Vision Test Report",
	AudiometricTest:      "Audiometric Test Results",
	SpirometryReport:     "Spirometry Report",
	ConsentForm:          "Drug Test Consent Form",
	MedicalQuestionnaire: "Medical Questionnaire",
}

// AllTypes returns every supported document type in registry order.
// The returned slice is a copy and safe to mutate.
func AllTypes() []DocumentType {
	out := make([]DocumentType, len(allTypes))
	copy(out, allTypes)
	return out
}

// Parse maps a raw token to a DocumentType. Unknown tokens return false;
// detection discards them silently.
func Parse(s string) (DocumentType, bool) {
	t := DocumentType(s)
	if _, ok := titles[t]; ok {
		return t, true
	}
	return "", false
}

// Title returns the human-readable name for a document type.
func (t DocumentType) Title() string {
	return titles[t]
}

func (t DocumentType) String() string {
	return string(t)
}

// FieldKind is the semantic type of a schema field.
type FieldKind string

const (
	KindString  FieldKind = "string"
	KindBoolean FieldKind = "boolean"
	KindNumber  FieldKind = "number"
	KindInteger FieldKind = "integer"
	KindObject  FieldKind = "object"
	KindList    FieldKind = "list"
)

// Field describes one named field in a document schema.
type Field struct {
	Name        string
	Kind        FieldKind
	Description string

	// Items is the element shape when Kind is KindList.
	Items *Field
	// Properties are the members when Kind is KindObject, or the element
	// members when a list holds objects.
	Properties []Field
}

// FieldSchema is the full extraction schema for one document type.
// Schemas are static configuration; they are never mutated at runtime.
type FieldSchema struct {
	Type   DocumentType
	Title  string
	Fields []Field
}

// JSONSchema renders the field schema as a JSON-Schema object
// (draft 2020-12 subset) used both as the oracle's structured-output
// constraint and for local validation.
func (s FieldSchema) JSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"title":                s.Title,
		"additionalProperties": false,
		"properties":           propsFor(s.Fields),
	}
}

func propsFor(fields []Field) map[string]any {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f.Name] = f.jsonSchema()
	}
	return props
}

func (f Field) jsonSchema() map[string]any {
	switch f.Kind {
	case KindList:
		var items map[string]any
		switch {
		case f.Items != nil:
			items = f.Items.jsonSchema()
		case len(f.Properties) > 0:
			items = map[string]any{
				"type":       "object",
				"properties": propsFor(f.Properties),
			}
		default:
			items = map[string]any{"type": "string"}
		}
		out := map[string]any{
			"type":  "array",
			"items": items,
		}
		if f.Description != "" {
			out["description"] = f.Description
		}
		return out
	case KindObject:
		out := map[string]any{
			"type":       "object",
			"properties": propsFor(f.Properties),
		}
		if f.Description != "" {
			out["description"] = f.Description
		}
		return out
	default:
		out := map[string]any{"type": string(f.Kind)}
		if f.Description != "" {
			out["description"] = f.Description
		}
		return out
	}
}
