package validator

import (
	"errors"
	"testing"
	"time"

	"github.com/septivank/rnsync-vitals/internal/apperr"
)

func floatPtr(v float64) *float64 { return &v }

var fixedNow = time.Date(2025, 1, 20, 10, 32, 0, 0, time.UTC)

func TestValidatePatient(t *testing.T) {
	tests := []struct {
		name    string
		in      PatientInput
		wantErr bool
	}{
		{"valid", PatientInput{Name: "Jane", Bed: "ICU-2"}, false},
		{"missing name", PatientInput{Bed: "ICU-2"}, true},
		{"missing bed", PatientInput{Name: "Jane"}, true},
		{"blank name", PatientInput{Name: "  ", Bed: "ICU-2"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePatient(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePatient() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && err.Error() != "Name and bed are required" {
				t.Errorf("unexpected message %q", err.Error())
			}
		})
	}
}

func TestValidateReading_ZeroValueIsPresent(t *testing.T) {
	if err := ValidateReading(ReadingInput{Metric: "hr", Value: floatPtr(0)}); err != nil {
		t.Errorf("Expected zero value to be accepted, got %v", err)
	}
}

func TestValidateReading_Missing(t *testing.T) {
	err := ValidateReading(ReadingInput{Metric: "hr"})
	var validation *apperr.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if validation.Message != "Metric and value are required" {
		t.Errorf("unexpected message %q", validation.Message)
	}

	if err := ValidateReading(ReadingInput{Value: floatPtr(80)}); err == nil {
		t.Error("Expected error for missing metric")
	}
}

func TestValidateFile(t *testing.T) {
	if err := ValidateFile(FileInput{FileName: "xray.png", StorageURL: "s3://bucket/xray.png"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := ValidateFile(FileInput{FileName: "xray.png"})
	if err == nil || err.Error() != "file_name and storage_url are required" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateIngest_ValidData(t *testing.T) {
	v := NewValidator(func() time.Time { return fixedNow })

	msg, err := v.DecodeIngest([]byte(`{"patientId":"p1","metric":"spo2","value":97,"unit":"%","timestamp":"2025-01-20T10:30:00Z"}`))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	timestamp, err := v.ValidateIngest(msg)
	if err != nil {
		t.Fatalf("Expected valid result, got %v", err)
	}

	expected := time.Date(2025, 1, 20, 10, 30, 0, 0, time.UTC)
	if !timestamp.Equal(expected) {
		t.Errorf("Expected timestamp %v, got %v", expected, timestamp)
	}
	if *msg.Value != 97 {
		t.Errorf("Expected value 97, got %f", *msg.Value)
	}
}

func TestValidateIngest_DefaultsTimestampToNow(t *testing.T) {
	v := NewValidator(func() time.Time { return fixedNow })

	timestamp, err := v.ValidateIngest(IngestMessage{PatientID: "p1", Metric: "hr", Value: floatPtr(0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !timestamp.Equal(fixedNow) {
		t.Errorf("Expected %v, got %v", fixedNow, timestamp)
	}
}

func TestValidateIngest_Invalid(t *testing.T) {
	v := NewValidator(func() time.Time { return fixedNow })

	tests := []struct {
		name string
		msg  IngestMessage
		want string
	}{
		{"missing patient", IngestMessage{Metric: "hr", Value: floatPtr(80)}, "patientId is required"},
		{"missing metric", IngestMessage{PatientID: "p1", Value: floatPtr(80)}, "metric is required"},
		{"missing value", IngestMessage{PatientID: "p1", Metric: "hr"}, "value is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ValidateIngest(tt.msg)
			if err == nil || err.Error() != tt.want {
				t.Errorf("Expected %q, got %v", tt.want, err)
			}
		})
	}

	_, err := v.ValidateIngest(IngestMessage{PatientID: "p1", Metric: "hr", Value: floatPtr(80), Timestamp: "yesterday"})
	if apperr.StatusCode(err) != 400 {
		t.Errorf("Expected validation error for bad timestamp, got %v", err)
	}
}

func TestDecodeIngest_Malformed(t *testing.T) {
	v := NewValidator(nil)

	_, err := v.DecodeIngest([]byte(`{"patientId":`))
	if apperr.StatusCode(err) != 400 {
		t.Errorf("Expected validation error, got %v", err)
	}
}
