// Package recordstore persists one record per transcription job.
package recordstore

import (
	"context"
	"errors"

	"ai-speech-transcribe-service/internal/models"
	"ai-speech-transcribe-service/internal/service/job"
)

var (
	// ErrNotFound is returned when no record exists for the job.
	ErrNotFound = errors.New("job record not found")
	// ErrAlreadyExists is returned by Put for a job name already recorded.
	ErrAlreadyExists = errors.New("job record already exists")
	// ErrAlreadyRecorded is returned by Complete when the record already
	// holds the same terminal status. Nothing is written.
	ErrAlreadyRecorded = errors.New("job result already recorded")
)

// Store is the job record store. Every method is a single-item operation.
type Store interface {
	// Put writes the initial record. It fails with ErrAlreadyExists if the
	// job name is taken.
	Put(ctx context.Context, rec models.JobRecord) error
	Get(ctx context.Context, jobName string) (*models.JobRecord, error)
	// Complete records a terminal (or latest) status with its transcript or
	// failure reason. A terminal result is written at most once: a record
	// already in the same terminal status returns ErrAlreadyRecorded, one in
	// a different terminal status returns job.ErrStatusRegression.
	Complete(ctx context.Context, jobName string, status job.Status, transcript, reason string) error
	SetTranslation(ctx context.Context, jobName, targetLanguage, text string) error
	SetDerivedText(ctx context.Context, jobName, text string) error
}
