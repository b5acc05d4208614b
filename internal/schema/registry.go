package schema

import "fmt"

// registry holds the extraction schema for every document type.
// Populated once at init; immutable afterwards.
var registry = map[DocumentType]FieldSchema{}

func init() {
	for _, s := range []FieldSchema{
		certificateOfFitness,
		visionTest,
		audiometricTest,
		spirometryReport,
		consentForm,
		medicalQuestionnaire,
	} {
		registry[s.Type] = s
	}
	for _, t := range allTypes {
		if _, ok := registry[t]; !ok {
			panic(fmt.Sprintf("schema registry missing %s", t))
		}
	}
}

// For returns the extraction schema for a document type.
// Asking for a type outside the closed set is a programming error.
func For(t DocumentType) FieldSchema {
	s, ok := registry[t]
	if !ok {
		panic(fmt.Sprintf("unknown document type %q", t))
	}
	return s
}

// minFields is the minimum number of meaningful fields an extraction
// must produce before it is accepted. Consent forms are short documents
// and get a lower bar.
var minFields = map[DocumentType]int{
	CertificateOfFitness: 3,
	VisionTest:           3,
	AudiometricTest:      3,
	SpirometryReport:     3,
	ConsentForm:          2,
	MedicalQuestionnaire: 3,
}

// MinFields returns the acceptance threshold for a document type.
func MinFields(t DocumentType) int {
	if n, ok := minFields[t]; ok {
		return n
	}
	return 3
}

// expectedFields is how many meaningful fields a complete extraction of
// each type typically yields. Used to normalize confidence scores.
var expectedFields = map[DocumentType]int{
	CertificateOfFitness: 15,
	VisionTest:           12,
	AudiometricTest:      10,
	SpirometryReport:     15,
	ConsentForm:          8,
	MedicalQuestionnaire: 20,
}

// DefaultExpectedFields applies to types absent from the table.
const DefaultExpectedFields = 10

// ExpectedFields returns the expected meaningful field count for a type.
func ExpectedFields(t DocumentType) int {
	if n, ok := expectedFields[t]; ok {
		return n
	}
	return DefaultExpectedFields
}

// DefaultDetectionSet is returned by the detector when both detection
// stages fail. These are the three most common document types.
func DefaultDetectionSet() []DocumentType {
	return []DocumentType{CertificateOfFitness, VisionTest, AudiometricTest}
}

// ClassificationSchema is the lightweight schema used to ask the oracle
// which document types a file contains.
func ClassificationSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"title":                "Document Type Detection",
		"additionalProperties": false,
		"properties": map[string]any{
			"document_types_present": map[string]any{
				"type": "string",
				"description": "List the medical document types you can identify in this file. " +
					"Choose from: certificate_of_fitness, vision_test, audiometric_test, " +
					"spirometry_report, consent_form, medical_questionnaire. " +
					"Format as comma-separated list like: 'certificate_of_fitness, vision_test'",
			},
			"primary_document": map[string]any{
				"type":        "string",
				"description": "The main or most prominent document type in this file",
			},
		},
		"required": []string{"document_types_present", "primary_document"},
	}
}

var certificateOfFitness = FieldSchema{
	Type:  CertificateOfFitness,
	Title: "Certificate of Fitness",
	Fields: []Field{
		{Name: "initials_and_surname", Kind: KindString, Description: "Employee name"},
		{Name: "id_number", Kind: KindString, Description: "ID or employee number"},
		{Name: "company_name", Kind: KindString, Description: "Company name"},
		{Name: "examination_date", Kind: KindString, Description: "Date of examination"},
		{Name: "expiry_date", Kind: KindString, Description: "Certificate expiry date"},
		{Name: "job_title", Kind: KindString, Description: "Employee job title"},
		{Name: "pre_employment", Kind: KindBoolean, Description: "Examination is for pre-employment (true if checked)"},
		{Name: "periodical", Kind: KindBoolean, Description: "Examination is a periodical check (true if checked)"},
		{Name: "exit", Kind: KindBoolean, Description: "Examination is for exit (true if checked)"},
		{Name: "medical_examination_tests", Kind: KindList, Description: "Tests conducted during the medical examination, with status and results",
			Properties: []Field{
				{Name: "test_name", Kind: KindString, Description: "The name of the medical test"},
				{Name: "done", Kind: KindBoolean, Description: "Whether the test was performed (checked vs crossed out)"},
				{Name: "result", Kind: KindString, Description: "The result or outcome of the test"},
			}},
		{Name: "referred_or_follow_up_actions", Kind: KindList, Description: "Actions or recommendations for follow-up or referral",
			Items: &Field{Kind: KindString}},
		{Name: "review_date", Kind: KindString, Description: "The date scheduled for review, if specified"},
		{Name: "restrictions", Kind: KindList, Description: "Restrictions or special conditions applicable to the employee",
			Items: &Field{Kind: KindString}},
		{Name: "medical_fitness_declaration", Kind: KindString, Description: "The outcome of the medical fitness assessment"},
		{Name: "comments", Kind: KindString, Description: "Additional comments or notes from the practitioner"},
		{Name: "signature", Kind: KindString, Description: "Description of the practitioner's signature"},
		{Name: "stamp", Kind: KindString, Description: "Description of the official stamp on the certificate"},
	},
}

var visionTest = FieldSchema{
	Type:  VisionTest,
	Title: "Vision Test Report",
	Fields: []Field{
		{Name: "patient_name", Kind: KindString, Description: "Patient name"},
		{Name: "test_date", Kind: KindString, Description: "Date of vision test"},
		{Name: "occupation", Kind: KindString, Description: "Patient occupation"},
		{Name: "age", Kind: KindString, Description: "Patient age"},
		{Name: "wears_glasses", Kind: KindString, Description: "Does patient wear glasses"},
		{Name: "wears_contacts", Kind: KindString, Description: "Does patient wear contacts"},
		{Name: "vision_correction_type", Kind: KindString, Description: "Distance only, Reading, Multifocals"},
		{Name: "right_eye_acuity", Kind: KindString, Description: "Right eye visual acuity results"},
		{Name: "left_eye_acuity", Kind: KindString, Description: "Left eye visual acuity results"},
		{Name: "both_eyes_acuity", Kind: KindString, Description: "Both eyes visual acuity results"},
		{Name: "color_vision_severe", Kind: KindString, Description: "Severe color vision test result"},
		{Name: "color_vision_mild", Kind: KindString, Description: "Mild color vision test result"},
		{Name: "horizontal_field_test", Kind: KindString, Description: "Horizontal field test results"},
		{Name: "vertical_field_test", Kind: KindString, Description: "Vertical field test results"},
		{Name: "phoria_results", Kind: KindString, Description: "Phoria eye coordination test"},
		{Name: "stereopsis_results", Kind: KindString, Description: "Stereopsis depth perception test"},
		{Name: "contrast_sensitivity", Kind: KindString, Description: "Contrast sensitivity results"},
		{Name: "glare_recovery", Kind: KindString, Description: "Glare recovery test results"},
	},
}

var earThresholdFields = []Field{
	{Name: "freq_500", Kind: KindInteger, Description: "500 Hz threshold"},
	{Name: "freq_1000", Kind: KindInteger, Description: "1000 Hz threshold"},
	{Name: "freq_2000", Kind: KindInteger, Description: "2000 Hz threshold"},
	{Name: "freq_3000", Kind: KindInteger, Description: "3000 Hz threshold"},
	{Name: "freq_4000", Kind: KindInteger, Description: "4000 Hz threshold"},
	{Name: "freq_6000", Kind: KindInteger, Description: "6000 Hz threshold"},
	{Name: "freq_8000", Kind: KindInteger, Description: "8000 Hz threshold"},
	{Name: "sts", Kind: KindInteger, Description: "STS value"},
	{Name: "avg", Kind: KindNumber, Description: "Average threshold"},
}

var audiometricTest = FieldSchema{
	Type:  AudiometricTest,
	Title: "Audiometric Test Results",
	Fields: []Field{
		{Name: "name", Kind: KindString, Description: "Patient name"},
		{Name: "id_number", Kind: KindString, Description: "Patient ID number"},
		{Name: "company", Kind: KindString, Description: "Company name"},
		{Name: "occupation", Kind: KindString, Description: "Patient occupation"},
		{Name: "tested_by", Kind: KindString, Description: "Who conducted the test"},
		{Name: "date_of_test", Kind: KindString, Description: "Test date"},
		{Name: "audio_type", Kind: KindString, Description: "Type of audiometric test"},
		{Name: "noise_exposure", Kind: KindString, Description: "Noise exposure level"},
		{Name: "age", Kind: KindInteger, Description: "Patient age"},
		{Name: "time", Kind: KindString, Description: "Test time"},
		{Name: "exposure_date", Kind: KindString, Description: "Exposure date"},
		{Name: "summary", Kind: KindObject, Description: "Test summary data",
			Properties: []Field{
				{Name: "current_plh", Kind: KindNumber, Description: "Current PLH value"},
				{Name: "previous_plh", Kind: KindNumber, Description: "Previous PLH value"},
				{Name: "curr_prev_diff", Kind: KindNumber, Description: "Difference between current and previous PLH"},
				{Name: "baseline_plh", Kind: KindNumber, Description: "Baseline PLH value"},
				{Name: "bl_shift", Kind: KindNumber, Description: "Baseline shift value"},
			}},
		{Name: "otoscopic_report", Kind: KindObject, Description: "Otoscopic examination findings",
			Properties: []Field{
				{Name: "left_ear", Kind: KindString, Description: "Left ear otoscopic findings"},
				{Name: "right_ear", Kind: KindString, Description: "Right ear otoscopic findings"},
				{Name: "sts_l", Kind: KindInteger, Description: "STS value for left ear"},
				{Name: "sts_r", Kind: KindInteger, Description: "STS value for right ear"},
				{Name: "sts_av", Kind: KindInteger, Description: "Average STS value"},
				{Name: "pass_25db", Kind: KindString, Description: "Pass 25dB test result"},
			}},
		{Name: "left_ear_thresholds", Kind: KindList, Description: "Left ear hearing thresholds",
			Properties: earThresholdFields},
		{Name: "right_ear_thresholds", Kind: KindList, Description: "Right ear hearing thresholds",
			Properties: earThresholdFields},
	},
}

var spirometryReport = FieldSchema{
	Type:  SpirometryReport,
	Title: "Spirometry Report",
	Fields: []Field{
		{Name: "name", Kind: KindString, Description: "Patient name"},
		{Name: "id_number", Kind: KindString, Description: "Patient ID number"},
		{Name: "date_of_birth", Kind: KindString, Description: "Patient date of birth"},
		{Name: "age", Kind: KindInteger, Description: "Patient age"},
		{Name: "gender", Kind: KindString, Description: "Patient gender"},
		{Name: "occupation", Kind: KindString, Description: "Patient occupation"},
		{Name: "company", Kind: KindString, Description: "Company name"},
		{Name: "height_cm", Kind: KindInteger, Description: "Patient height in cm"},
		{Name: "weight_kg", Kind: KindInteger, Description: "Patient weight in kg"},
		{Name: "bmi", Kind: KindNumber, Description: "Body Mass Index"},
		{Name: "ethnic", Kind: KindString, Description: "Patient ethnicity"},
		{Name: "smoking", Kind: KindString, Description: "Smoking history"},
		{Name: "test_date", Kind: KindString, Description: "Test date"},
		{Name: "test_time", Kind: KindString, Description: "Test time"},
		{Name: "operator", Kind: KindString, Description: "Test operator"},
		{Name: "environment", Kind: KindString, Description: "Test environment conditions"},
		{Name: "test_position", Kind: KindString, Description: "Patient position during test"},
		{Name: "spirometry_results", Kind: KindObject, Description: "Spirometry measurements",
			Properties: []Field{
				{Name: "FVC_best_pre", Kind: KindNumber, Description: "Best pre-test FVC value"},
				{Name: "FEV1_best_pre", Kind: KindNumber, Description: "Best pre-test FEV1 value"},
				{Name: "FEV1_percent_best_pre", Kind: KindNumber, Description: "Best pre-test FEV1% value"},
				{Name: "PEFR_best_pre", Kind: KindNumber, Description: "Best pre-test PEFR value"},
				{Name: "FVC_pred", Kind: KindNumber, Description: "Predicted FVC value"},
				{Name: "FEV1_pred", Kind: KindNumber, Description: "Predicted FEV1 value"},
				{Name: "FEV1_percent_pred", Kind: KindNumber, Description: "Predicted FEV1% value"},
				{Name: "PEFR_pred", Kind: KindNumber, Description: "Predicted PEFR value"},
				{Name: "FVC_best_post", Kind: KindNumber, Description: "Best post-test FVC value"},
				{Name: "FEV1_best_post", Kind: KindNumber, Description: "Best post-test FEV1 value"},
				{Name: "FEV1_percent_best_post", Kind: KindNumber, Description: "Best post-test FEV1% value"},
				{Name: "PEFR_best_post", Kind: KindNumber, Description: "Best post-test PEFR value"},
			}},
		{Name: "interpretation", Kind: KindString, Description: "Test interpretation"},
		{Name: "bronchodilator", Kind: KindString, Description: "Bronchodilator information"},
	},
}

var consentForm = FieldSchema{
	Type:  ConsentForm,
	Title: "Drug Test Consent Form",
	Fields: []Field{
		{Name: "patient_name", Kind: KindString, Description: "Patient name"},
		{Name: "id_number", Kind: KindString, Description: "Patient ID number"},
		{Name: "consent_date", Kind: KindString, Description: "Date of consent"},
		{Name: "test_type", Kind: KindString, Description: "Type of drug test"},
		{Name: "medications_disclosed", Kind: KindString, Description: "Medications disclosed by patient"},
		{Name: "sample_confirmation", Kind: KindString, Description: "Confirmation sample is patient's own"},
		{Name: "urine_is_own", Kind: KindString, Description: "Confirmation that urine sample is patient's own"},
		{Name: "test_device_sealed", Kind: KindString, Description: "Confirmation that test device was sealed"},
		{Name: "test_device_expiry_valid", Kind: KindString, Description: "Confirmation that test device expiry was valid"},
		{Name: "test_device_expiry_date", Kind: KindString, Description: "Test device expiry date"},
		{Name: "illicit_drugs_taken", Kind: KindString, Description: "Whether illicit drugs were taken"},
		{Name: "test_conducted_in_presence", Kind: KindString, Description: "Whether test was conducted in patient presence"},
		{Name: "test_result", Kind: KindString, Description: "Test result"},
		{Name: "patient_signature", Kind: KindString, Description: "Patient signature status"},
		{Name: "employee_signature", Kind: KindString, Description: "Employee signature status"},
		{Name: "witness_signature", Kind: KindString, Description: "Witness signature status"},
		{Name: "ohp_signature", Kind: KindString, Description: "OHP signature status"},
	},
}

var medicalQuestionnaire = FieldSchema{
	Type:  MedicalQuestionnaire,
	Title: "Medical Questionnaire",
	Fields: []Field{
		{Name: "company_name", Kind: KindString, Description: "Company name from header"},
		{Name: "employee_name", Kind: KindString, Description: "Employee name"},
		{Name: "initials", Kind: KindString, Description: "Patient initials"},
		{Name: "surname", Kind: KindString, Description: "Patient surname"},
		{Name: "first_names", Kind: KindString, Description: "Patient first names"},
		{Name: "id_number", Kind: KindString, Description: "ID number"},
		{Name: "date_of_birth", Kind: KindString, Description: "Date of birth"},
		{Name: "marital_status", Kind: KindString, Description: "Marital status: Single/Married/Divorced/Widow/Widower"},
		{Name: "position", Kind: KindString, Description: "Job position/title"},
		{Name: "department", Kind: KindString, Description: "Department"},
		{Name: "examination_type", Kind: KindString, Description: "Pre-Employment/Baseline/Transfer/Periodical/Exit/Other"},
		{Name: "heart_disease_or_high_bp", Kind: KindBoolean, Description: "Heart disease or high blood pressure"},
		{Name: "epilepsy_or_convulsions", Kind: KindBoolean, Description: "Epilepsy or convulsions"},
		{Name: "height_cm", Kind: KindString, Description: "Height in cm"},
		{Name: "weight_kg", Kind: KindString, Description: "Weight in kg"},
		{Name: "bmi", Kind: KindString, Description: "BMI value"},
		{Name: "pulse_rate", Kind: KindString, Description: "Pulse rate per minute"},
		{Name: "bp_systolic", Kind: KindString, Description: "Blood pressure systolic"},
		{Name: "bp_diastolic", Kind: KindString, Description: "Blood pressure diastolic"},
		{Name: "vision_far_right", Kind: KindString, Description: "Vision far right eye"},
		{Name: "vision_far_left", Kind: KindString, Description: "Vision far left eye"},
		{Name: "vision_near_right", Kind: KindString, Description: "Vision near right eye"},
		{Name: "vision_near_left", Kind: KindString, Description: "Vision near left eye"},
		{Name: "audio_plh", Kind: KindString, Description: "Audio PLH value"},
		{Name: "spirometry_fvc", Kind: KindString, Description: "Spirometry FVC value"},
		{Name: "spirometry_fvc1", Kind: KindString, Description: "Spirometry FVC1 value"},
		{Name: "spirometry_fvc1_fvc_ratio", Kind: KindString, Description: "FVC1/FVC ratio"},
		{Name: "chest_xrays", Kind: KindString, Description: "Chest X-rays results"},
		{Name: "eyes_clinical_abnormalities", Kind: KindString, Description: "Eyes, clinical abnormalities - Normal/Abnormal"},
		{Name: "ear_nose_throat_hearing", Kind: KindString, Description: "Ear, Nose, Throat including defect of hearing - Normal/Abnormal"},
		{Name: "respiratory_system", Kind: KindString, Description: "Respiratory System - Normal/Abnormal"},
		{Name: "cardiovascular_system", Kind: KindString, Description: "Cardiovascular system including heart size/sound - Normal/Abnormal"},
		{Name: "digestive_system", Kind: KindString, Description: "Digestive System - Normal/Abnormal"},
		{Name: "nervous_system", Kind: KindString, Description: "Nervous System - Normal/Abnormal"},
		{Name: "musculoskeletal_system", Kind: KindString, Description: "Musculoskeletal System - Normal/Abnormal"},
		{Name: "general_examination", Kind: KindString, Description: "General examination - Normal/Abnormal"},
		{Name: "fitness_status", Kind: KindString, Description: "Fitness status"},
		{Name: "restrictions", Kind: KindString, Description: "Restrictions"},
		{Name: "recommendation_comments", Kind: KindString, Description: "Comments from recommendations"},
		{Name: "signature_nurse", Kind: KindString, Description: "Signature of Nurse"},
		{Name: "signature_ohp", Kind: KindString, Description: "Signature of OHP"},
		{Name: "signature_omp", Kind: KindString, Description: "Signature of OMP"},
	},
}
