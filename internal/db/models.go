package db

import (
	"time"
)

// Table names
const (
	TablePatients = "patients"
	TableReadings = "readings"
	TableFiles    = "files"
)

// Patient represents a monitored patient
type Patient struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Bed       string    `json:"bed"`
	CreatedAt time.Time `json:"created_at"`
}

// Reading represents a single vital-sign measurement
type Reading struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
}

// File represents metadata for an externally stored patient document
type File struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patient_id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	StorageURL string    `json:"storage_url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Row returns the column map inserted into the patients table
func (p Patient) Row() map[string]any {
	return map[string]any{
		"id":         p.ID,
		"name":       p.Name,
		"bed":        p.Bed,
		"created_at": p.CreatedAt,
	}
}

// Row returns the column map inserted into the readings table
func (r Reading) Row() map[string]any {
	return map[string]any{
		"id":         r.ID,
		"patient_id": r.PatientID,
		"metric":     r.Metric,
		"value":      r.Value,
		"unit":       r.Unit,
		"timestamp":  r.Timestamp,
	}
}

// Row returns the column map inserted into the files table
func (f File) Row() map[string]any {
	return map[string]any{
		"id":          f.ID,
		"patient_id":  f.PatientID,
		"file_name":   f.FileName,
		"file_type":   f.FileType,
		"storage_url": f.StorageURL,
		"uploaded_at": f.UploadedAt,
	}
}
