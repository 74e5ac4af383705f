package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/septivank/rnsync-vitals/internal/db"
)

// Result is the outcome of a successful service operation. The router wraps
// it into the response envelope.
type Result struct {
	StatusCode int
	Message    string
	Data       any
	Count      *int
}

func ok(data any) Result {
	return Result{StatusCode: 200, Data: data}
}

func okList[T any](items []T) Result {
	count := len(items)
	return Result{StatusCode: 200, Data: items, Count: &count}
}

func created(message string, data any) Result {
	return Result{StatusCode: 201, Message: message, Data: data}
}

// ReadingNotifier is told about every persisted reading
type ReadingNotifier interface {
	NotifyReading(ctx context.Context, reading db.Reading) error
}

// Notifiers fans a reading out to several notifiers
type Notifiers []ReadingNotifier

// NotifyReading calls every notifier and joins their errors
func (n Notifiers) NotifyReading(ctx context.Context, reading db.Reading) error {
	var errs []error
	for _, notifier := range n {
		if notifier == nil {
			continue
		}
		if err := notifier.NotifyReading(ctx, reading); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// notify hands reading to the notifier. Failures are logged, never returned:
// the reading is already persisted.
func notify(ctx context.Context, notifier ReadingNotifier, reading db.Reading, logger *zap.Logger) {
	if notifier == nil {
		return
	}
	if err := notifier.NotifyReading(ctx, reading); err != nil {
		logger.Warn("failed to notify reading",
			zap.Error(err),
			zap.String("patient_id", reading.PatientID),
			zap.String("metric", reading.Metric),
		)
	}
}
