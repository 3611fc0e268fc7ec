// Package stt defines the interface for batch speech-to-text providers.
package stt

import (
	"context"
	"errors"

	"ai-speech-transcribe-service/internal/service/job"
)

// ErrJobNotFound is returned by GetJob when the provider has no job with the
// given reference.
var ErrJobNotFound = errors.New("transcription job not found")

// JobRequest describes a transcription job to start.
type JobRequest struct {
	JobName      string
	Bucket       string
	Key          string
	MediaURI     string // s3://bucket/key
	MediaFormat  string // mp3, wav, flac, ...
	LanguageCode string
	// MaxSpeakers > 0 turns on speaker labelling.
	MaxSpeakers int
}

// JobResult is the provider's view of a job.
type JobResult struct {
	Status        job.Status
	Transcript    string // only set when Status is COMPLETED
	FailureReason string // only set when Status is FAILED
}

// Provider defines the interface for batch transcription services
// (Amazon Transcribe, Google Cloud Speech, ...).
type Provider interface {
	// Name identifies the provider in records, logs and metrics.
	Name() string

	// StartJob submits a job and returns the reference GetJob needs to find
	// it again. For providers that honour caller-chosen names the reference
	// is the job name.
	StartJob(ctx context.Context, req JobRequest) (string, error)

	// GetJob returns the current status. For COMPLETED jobs the transcript
	// text is resolved before returning.
	GetJob(ctx context.Context, ref string) (JobResult, error)
}
