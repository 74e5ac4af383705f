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

const defaultFileType = "unknown"

// FileService handles file metadata scoped to a patient
type FileService struct {
	gateway repository.Gateway
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

// NewFileService creates a new file service
func NewFileService(gateway repository.Gateway, logger *zap.Logger) *FileService {
	return &FileService{
		gateway: gateway,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// GetPatientFiles lists a patient's files, newest first
func (s *FileService) GetPatientFiles(ctx context.Context, patientID string) (Result, error) {
	if _, err := findPatient(ctx, s.gateway, patientID); err != nil {
		return Result{}, err
	}

	rows, err := s.gateway.Select(ctx, db.TableFiles, repository.Query{
		Order:   "uploaded_at.desc",
		Filters: []repository.Filter{repository.Eq("patient_id", patientID)},
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to list files: %w", err)
	}

	var files []db.File
	if err := repository.DecodeRows(rows, &files); err != nil {
		return Result{}, err
	}
	return okList(files), nil
}

// GetFileByID returns a single file
func (s *FileService) GetFileByID(ctx context.Context, fileID string) (Result, error) {
	rows, err := s.gateway.Select(ctx, db.TableFiles, repository.Query{
		Filters: []repository.Filter{repository.Eq("id", fileID)},
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to look up file: %w", err)
	}
	if len(rows) == 0 {
		return Result{}, apperr.NotFound("File")
	}

	var files []db.File
	if err := repository.DecodeRows(rows[:1], &files); err != nil {
		return Result{}, err
	}
	return ok(files[0]), nil
}

// AddFile validates input, checks the patient and records file metadata
func (s *FileService) AddFile(ctx context.Context, patientID string, in validator.FileInput) (Result, error) {
	if err := validator.ValidateFile(in); err != nil {
		return Result{}, err
	}
	if _, err := findPatient(ctx, s.gateway, patientID); err != nil {
		return Result{}, err
	}

	fileType := in.FileType
	if fileType == "" {
		fileType = defaultFileType
	}

	file := db.File{
		ID:         s.newID(),
		PatientID:  patientID,
		FileName:   in.FileName,
		FileType:   fileType,
		StorageURL: in.StorageURL,
		UploadedAt: s.now().UTC(),
	}
	if err := s.gateway.Insert(ctx, db.TableFiles, file.Row()); err != nil {
		return Result{}, fmt.Errorf("failed to insert file: %w", err)
	}

	s.logger.Info("file added",
		zap.String("file_id", file.ID),
		zap.String("patient_id", patientID),
	)
	return created("File added successfully", file), nil
}

// DeleteFile is not supported by the datastore gateway
func (s *FileService) DeleteFile(_ context.Context, _ string) (Result, error) {
	return Result{}, apperr.Unsupported("Delete operation not yet supported by the datastore gateway")
}
