package schema

// detectionPatterns holds the lowercase keywords used for lexical
// fallback detection. A document type is a lexical candidate when at
// least two of its keywords appear in the plain-text dump.
var detectionPatterns = map[DocumentType][]string{
	CertificateOfFitness: {
		"certificate of fitness", "medical certificate", "fitness declaration",
		"pre-employment", "periodical", "exit", "medical examination conducted",
	},
	VisionTest: {
		"vision test", "visual acuity", "keystone", "vs-v gt", "eye test",
		"color vision", "field test", "phoria", "stereopsis",
	},
	AudiometricTest: {
		"audiometric", "hearing test", "otoscopic", "decibel", "frequency",
		"left ear", "right ear", "threshold", "noise exposure",
	},
	SpirometryReport: {
		"spirometry", "lung function", "fvc", "fev1", "flow volume",
		"forced vital capacity", "forced expiratory", "spirometer",
	},
	ConsentForm: {
		"consent", "drug test", "urine sample", "test device", "sealed",
		"expiry date", "illicit drugs", "employee signature",
	},
	MedicalQuestionnaire: {
		"questionnaire", "medical history", "medications", "allergies",
		"family history", "health survey", "lifestyle",
	},
}

// PatternsFor returns the detection keywords for a document type.
// The returned slice is a copy and safe to mutate.
func PatternsFor(t DocumentType) []string {
	src := detectionPatterns[t]
	out := make([]string, len(src))
	copy(out, src)
	return out
}
