package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/septivank/rnsync-vitals/internal/apperr"
	"github.com/septivank/rnsync-vitals/internal/db"
	"github.com/septivank/rnsync-vitals/internal/logging"
	"github.com/septivank/rnsync-vitals/internal/repository"
	"github.com/septivank/rnsync-vitals/internal/validator"
)

// Ack is the reply sent on the realtime channel
type Ack struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// ErrorAck converts an ingest failure into an ack. Validation and lookup
// failures keep their message; anything else is reported as a server error.
func ErrorAck(err error) Ack {
	status := apperr.StatusCode(err)
	if status == http.StatusInternalServerError {
		return Ack{StatusCode: status, Body: "Server Error: " + err.Error()}
	}
	return Ack{StatusCode: status, Body: err.Error()}
}

// IngestService handles the realtime connect, disconnect and ingest transitions
type IngestService struct {
	gateway   repository.Gateway
	validator *validator.Validator
	notifier  ReadingNotifier
	logger    *zap.Logger
	newID     func() string
}

// NewIngestService creates a new ingest service. notifier may be nil.
func NewIngestService(
	gateway repository.Gateway,
	validator *validator.Validator,
	notifier ReadingNotifier,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		gateway:   gateway,
		validator: validator,
		notifier:  notifier,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Connect acknowledges a new realtime connection
func (s *IngestService) Connect(_ context.Context) Ack {
	return Ack{StatusCode: http.StatusOK, Body: "Connected."}
}

// Disconnect acknowledges a closed realtime connection
func (s *IngestService) Disconnect(_ context.Context) Ack {
	return Ack{StatusCode: http.StatusOK, Body: "Disconnected."}
}

// Ingest stores one sensor reading and returns the confirmation ack
func (s *IngestService) Ingest(ctx context.Context, payload []byte) (Ack, error) {
	msg, err := s.validator.DecodeIngest(payload)
	if err != nil {
		return Ack{}, err
	}

	reading, err := s.store(ctx, msg)
	if err != nil {
		return Ack{}, err
	}

	return Ack{
		StatusCode: http.StatusOK,
		Body:       "Data saved for patient: " + reading.PatientID,
	}, nil
}

// HandleMessage ingests a payload delivered by a message bridge
func (s *IngestService) HandleMessage(ctx context.Context, payload []byte) error {
	msg, err := s.validator.DecodeIngest(payload)
	if err != nil {
		return err
	}

	reqLogger := logging.WithRequestID(s.logger, uuid.NewString())
	reqLogger.Debug("processing bridged reading",
		zap.String("patient_id", msg.PatientID),
		zap.String("metric", msg.Metric),
	)

	if _, err := s.store(ctx, msg); err != nil {
		reqLogger.Error("failed to ingest bridged reading", zap.Error(err))
		return err
	}
	return nil
}

func (s *IngestService) store(ctx context.Context, msg validator.IngestMessage) (db.Reading, error) {
	timestamp, err := s.validator.ValidateIngest(msg)
	if err != nil {
		return db.Reading{}, err
	}
	if _, err := findPatient(ctx, s.gateway, msg.PatientID); err != nil {
		return db.Reading{}, err
	}

	reading := db.Reading{
		ID:        s.newID(),
		PatientID: msg.PatientID,
		Metric:    msg.Metric,
		Value:     *msg.Value,
		Unit:      msg.Unit,
		Timestamp: timestamp,
	}
	if err := s.gateway.Insert(ctx, db.TableReadings, reading.Row()); err != nil {
		return db.Reading{}, fmt.Errorf("failed to insert reading: %w", err)
	}

	s.logger.Info("reading ingested",
		zap.String("patient_id", reading.PatientID),
		zap.String("metric", reading.Metric),
		zap.Float64("value", reading.Value),
	)

	notify(ctx, s.notifier, reading, s.logger)
	return reading, nil
}
