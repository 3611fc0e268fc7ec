package recordstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-speech-transcribe-service/internal/models"
	"ai-speech-transcribe-service/internal/service/job"
)

// MemoryStore is an in-process Store for local development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]models.JobRecord
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]models.JobRecord),
		now:     time.Now,
	}
}

func (s *MemoryStore) Put(ctx context.Context, rec models.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.JobName]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, rec.JobName)
	}
	s.records[rec.JobName] = rec
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, jobName string) (*models.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[jobName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobName)
	}
	return &rec, nil
}

func (s *MemoryStore) Complete(ctx context.Context, jobName string, status job.Status, transcript, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[jobName]
	if !ok {
		rec = models.JobRecord{JobName: jobName}
	}
	if rec.Status == status.String() && status.IsTerminal() {
		return fmt.Errorf("%w: %s is %s", ErrAlreadyRecorded, jobName, status)
	}
	if rec.Status != "" {
		if err := job.CheckTransition(job.Status(rec.Status), status); err != nil {
			return fmt.Errorf("%w: %s", err, jobName)
		}
	}
	rec.Status = status.String()
	if transcript != "" {
		rec.Transcript = transcript
	}
	if reason != "" {
		rec.FailureReason = reason
	}
	rec.UpdatedAt = s.now().Unix()
	s.records[jobName] = rec
	return nil
}

func (s *MemoryStore) SetTranslation(ctx context.Context, jobName, targetLanguage, text string) error {
	return s.modify(jobName, func(rec *models.JobRecord) {
		rec.Translation = text
		rec.TargetLanguage = targetLanguage
	})
}

func (s *MemoryStore) SetDerivedText(ctx context.Context, jobName, text string) error {
	return s.modify(jobName, func(rec *models.JobRecord) {
		rec.DerivedText = text
	})
}

func (s *MemoryStore) modify(jobName string, fn func(rec *models.JobRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[jobName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, jobName)
	}
	fn(&rec)
	rec.UpdatedAt = s.now().Unix()
	s.records[jobName] = rec
	return nil
}
