package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/septivank/rnsync-vitals/internal/apperr"
	"github.com/septivank/rnsync-vitals/internal/db"
	"github.com/septivank/rnsync-vitals/internal/repository"
	"github.com/septivank/rnsync-vitals/internal/validator"
)

const (
	latestReadingsLimit = 10
	historyLimit        = 100
)

// PatientDetail is a patient with its most recent readings
type PatientDetail struct {
	db.Patient
	LatestReadings []db.Reading `json:"latest_readings"`
}

// PatientService handles patients and their readings
type PatientService struct {
	gateway  repository.Gateway
	notifier ReadingNotifier
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// NewPatientService creates a new patient service. notifier may be nil.
func NewPatientService(gateway repository.Gateway, notifier ReadingNotifier, logger *zap.Logger) *PatientService {
	return &PatientService{
		gateway:  gateway,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// GetAllPatients lists patients, newest first
func (s *PatientService) GetAllPatients(ctx context.Context) (Result, error) {
	rows, err := s.gateway.Select(ctx, db.TablePatients, repository.Query{Order: "created_at.desc"})
	if err != nil {
		return Result{}, fmt.Errorf("failed to list patients: %w", err)
	}

	var patients []db.Patient
	if err := repository.DecodeRows(rows, &patients); err != nil {
		return Result{}, err
	}
	return okList(patients), nil
}

// GetPatientByID returns the patient with its latest readings
func (s *PatientService) GetPatientByID(ctx context.Context, id string) (Result, error) {
	patient, err := s.findPatient(ctx, id)
	if err != nil {
		return Result{}, err
	}

	readings, err := s.LatestReadings(ctx, id)
	if err != nil {
		return Result{}, err
	}

	return ok(PatientDetail{Patient: patient, LatestReadings: readings}), nil
}

// CreatePatient validates input and inserts a new patient
func (s *PatientService) CreatePatient(ctx context.Context, in validator.PatientInput) (Result, error) {
	if err := validator.ValidatePatient(in); err != nil {
		return Result{}, err
	}

	patient := db.Patient{
		ID:        s.newID(),
		Name:      in.Name,
		Bed:       in.Bed,
		CreatedAt: s.now().UTC(),
	}
	if err := s.gateway.Insert(ctx, db.TablePatients, patient.Row()); err != nil {
		return Result{}, fmt.Errorf("failed to insert patient: %w", err)
	}

	s.logger.Info("patient created", zap.String("patient_id", patient.ID))
	return created("Patient created successfully", patient), nil
}

// GetPatientHistory returns up to 100 readings, newest first, optionally
// restricted to one metric
func (s *PatientService) GetPatientHistory(ctx context.Context, id, metric string) (Result, error) {
	if _, err := s.findPatient(ctx, id); err != nil {
		return Result{}, err
	}

	filters := []repository.Filter{repository.Eq("patient_id", id)}
	if metric != "" {
		filters = append(filters, repository.Eq("metric", metric))
	}

	readings, err := s.selectReadings(ctx, repository.Query{
		Order:   "timestamp.desc",
		Limit:   historyLimit,
		Filters: filters,
	})
	if err != nil {
		return Result{}, err
	}
	return okList(readings), nil
}

// AddReading validates input, checks the patient and inserts a reading
func (s *PatientService) AddReading(ctx context.Context, id string, in validator.ReadingInput) (Result, error) {
	if err := validator.ValidateReading(in); err != nil {
		return Result{}, err
	}
	if _, err := s.findPatient(ctx, id); err != nil {
		return Result{}, err
	}

	reading := db.Reading{
		ID:        s.newID(),
		PatientID: id,
		Metric:    in.Metric,
		Value:     *in.Value,
		Unit:      in.Unit,
		Timestamp: s.now().UTC(),
	}
	if err := s.gateway.Insert(ctx, db.TableReadings, reading.Row()); err != nil {
		return Result{}, fmt.Errorf("failed to insert reading: %w", err)
	}

	notify(ctx, s.notifier, reading, s.logger)
	return created("Reading added successfully", reading), nil
}

// LatestReadings returns the 10 most recent readings of a patient
func (s *PatientService) LatestReadings(ctx context.Context, id string) ([]db.Reading, error) {
	return s.selectReadings(ctx, repository.Query{
		Order:   "timestamp.desc",
		Limit:   latestReadingsLimit,
		Filters: []repository.Filter{repository.Eq("patient_id", id)},
	})
}

func (s *PatientService) selectReadings(ctx context.Context, q repository.Query) ([]db.Reading, error) {
	rows, err := s.gateway.Select(ctx, db.TableReadings, q)
	if err != nil {
		return nil, fmt.Errorf("failed to select readings: %w", err)
	}

	var readings []db.Reading
	if err := repository.DecodeRows(rows, &readings); err != nil {
		return nil, err
	}
	return readings, nil
}

func (s *PatientService) findPatient(ctx context.Context, id string) (db.Patient, error) {
	return findPatient(ctx, s.gateway, id)
}

// findPatient is shared by the patient and file services
func findPatient(ctx context.Context, gateway repository.Gateway, id string) (db.Patient, error) {
	rows, err := gateway.Select(ctx, db.TablePatients, repository.Query{
		Filters: []repository.Filter{repository.Eq("id", id)},
	})
	if err != nil {
		return db.Patient{}, fmt.Errorf("failed to look up patient: %w", err)
	}
	if len(rows) == 0 {
		return db.Patient{}, apperr.NotFound("Patient")
	}

	var patients []db.Patient
	if err := repository.DecodeRows(rows[:1], &patients); err != nil {
		return db.Patient{}, err
	}
	return patients[0], nil
}
