// Package mock provides an in-memory transcription provider for local
// development and tests without cloud credentials. Jobs report QUEUED, then
// IN_PROGRESS, and complete after a configurable number of status checks.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"ai-speech-transcribe-service/internal/service/job"
	"ai-speech-transcribe-service/internal/service/stt"
)

// DefaultTranscripts are handed out to jobs in rotation.
var DefaultTranscripts = []string{
	"I want to cancel my subscription",
	"Yes please go ahead",
	"Can you help me with my account",
	"I've been waiting for over an hour",
	"Thank you very much",
}

// FailureMarker in an object key makes the simulated job fail.
const FailureMarker = "fail"

type simulatedJob struct {
	req        stt.JobRequest
	checks     int
	transcript string
}

// Adapter implements stt.Provider in memory.
type Adapter struct {
	mu            sync.Mutex
	jobs          map[string]*simulatedJob
	completeAfter int
	next          int
}

// New creates a mock provider. Jobs complete on the completeAfter-th status
// check; values below 1 complete on the first check.
func New(completeAfter int) *Adapter {
	if completeAfter < 1 {
		completeAfter = 1
	}
	return &Adapter{
		jobs:          make(map[string]*simulatedJob),
		completeAfter: completeAfter,
	}
}

// Name implements stt.Provider.
func (a *Adapter) Name() string { return "mock" }

// StartJob records the job. Duplicate names are rejected like the real
// service does.
func (a *Adapter) StartJob(ctx context.Context, req stt.JobRequest) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.jobs[req.JobName]; exists {
		return "", fmt.Errorf("mock: job %s already exists", req.JobName)
	}
	a.jobs[req.JobName] = &simulatedJob{
		req:        req,
		transcript: DefaultTranscripts[a.next%len(DefaultTranscripts)],
	}
	a.next++
	return req.JobName, nil
}

// GetJob advances the simulated job by one check.
func (a *Adapter) GetJob(ctx context.Context, ref string) (stt.JobResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	j, ok := a.jobs[ref]
	if !ok {
		return stt.JobResult{}, fmt.Errorf("%w: %s", stt.ErrJobNotFound, ref)
	}
	j.checks++

	switch {
	case j.checks >= a.completeAfter && strings.Contains(j.req.Key, FailureMarker):
		return stt.JobResult{Status: job.StatusFailed, FailureReason: "simulated failure for " + j.req.Key}, nil
	case j.checks >= a.completeAfter:
		return stt.JobResult{Status: job.StatusCompleted, Transcript: j.transcript}, nil
	case j.checks == 1:
		return stt.JobResult{Status: job.StatusQueued}, nil
	default:
		return stt.JobResult{Status: job.StatusInProgress}, nil
	}
}
