package validator

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/septivank/rnsync-vitals/internal/apperr"
	"github.com/septivank/rnsync-vitals/tools/timeparser"
)

// PatientInput is the body of a create-patient request
type PatientInput struct {
	Name string `json:"name"`
	Bed  string `json:"bed"`
}

// ReadingInput is the body of an add-reading request.
// Value is a pointer so that 0 is distinguishable from absent.
type ReadingInput struct {
	Metric string   `json:"metric"`
	Value  *float64 `json:"value"`
	Unit   string   `json:"unit"`
}

// FileInput is the body of an add-file request
type FileInput struct {
	FileName   string `json:"file_name"`
	FileType   string `json:"file_type"`
	StorageURL string `json:"storage_url"`
}

// IngestMessage is a sensor reading arriving on the realtime channel or a bridge
type IngestMessage struct {
	PatientID string   `json:"patientId"`
	Metric    string   `json:"metric"`
	Value     *float64 `json:"value"`
	Unit      string   `json:"unit"`
	Timestamp string   `json:"timestamp"`
}

// ValidatePatient checks that both name and bed are present
func ValidatePatient(in PatientInput) error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Bed) == "" {
		return apperr.Validation("Name and bed are required")
	}
	return nil
}

// ValidateReading checks that metric and value are present
func ValidateReading(in ReadingInput) error {
	if strings.TrimSpace(in.Metric) == "" || in.Value == nil {
		return apperr.Validation("Metric and value are required")
	}
	return nil
}

// ValidateFile checks that file_name and storage_url are present
func ValidateFile(in FileInput) error {
	if strings.TrimSpace(in.FileName) == "" || strings.TrimSpace(in.StorageURL) == "" {
		return apperr.Validation("file_name and storage_url are required")
	}
	return nil
}

// Validator handles ingest validation with an injectable clock
type Validator struct {
	now func() time.Time
}

// NewValidator creates a new validator. A nil clock uses time.Now.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// DecodeIngest parses a raw ingest payload
func (v *Validator) DecodeIngest(payload []byte) (IngestMessage, error) {
	var msg IngestMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return IngestMessage{}, apperr.Validation("invalid ingest message: %v", err)
	}
	return msg, nil
}

// ValidateIngest checks required fields and resolves the reading timestamp
func (v *Validator) ValidateIngest(msg IngestMessage) (time.Time, error) {
	if msg.PatientID == "" {
		return time.Time{}, apperr.Validation("patientId is required")
	}
	if msg.Metric == "" {
		return time.Time{}, apperr.Validation("metric is required")
	}
	if msg.Value == nil {
		return time.Time{}, apperr.Validation("value is required")
	}

	timestamp, err := timeparser.ReadingTimestampOrNow(msg.Timestamp, v.now())
	if err != nil {
		return time.Time{}, apperr.Validation("invalid timestamp format: %v", err)
	}
	return timestamp, nil
}
