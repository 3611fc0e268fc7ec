// Package transcription implements the request operations: upload audio,
// start a job for a stored file, report job status, and derive a
// translation or generated text from a finished transcript.
package transcription

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-speech-transcribe-service/internal/models"
	"ai-speech-transcribe-service/internal/observability/logging"
	"ai-speech-transcribe-service/internal/observability/metrics"
	"ai-speech-transcribe-service/internal/service/generate"
	"ai-speech-transcribe-service/internal/service/job"
	"ai-speech-transcribe-service/internal/service/stt"
	"ai-speech-transcribe-service/internal/storage/objectstore"
	"ai-speech-transcribe-service/internal/storage/recordstore"
)

var (
	// ErrInvalidInput marks missing or malformed request input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a job with no record.
	ErrNotFound = errors.New("job not found")
	// ErrNotReady marks a job whose transcript is not available yet.
	ErrNotReady = errors.New("transcript not available")
)

const uploadFormat = "wav"

// ObjectStore receives uploaded audio.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	URI(key string) string
}

// Translator translates transcript text.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// EventPublisher publishes job lifecycle events.
type EventPublisher interface {
	PublishStarted(ctx context.Context, event models.JobEvent) error
	PublishCompleted(ctx context.Context, event models.JobEvent) error
}

// Config holds per-operation defaults.
type Config struct {
	Bucket             string
	MediaFormat        string // format of files started by name
	LanguageCode       string // language of files started by name
	UploadLanguageCode string
	// MaxSpeakers > 0 turns on speaker labels for uploads.
	MaxSpeakers    int
	SourceLanguage string
	TargetLanguage string
	PollInterval   time.Duration
	PollTimeout    time.Duration
}

// Dependencies are the external services the operations call.
type Dependencies struct {
	Provider   stt.Provider
	Objects    ObjectStore
	Records    recordstore.Store
	Translator Translator
	Generator  Generator
	Events     EventPublisher
}

// Service runs the transcription operations. It holds no per-request state.
type Service struct {
	provider   stt.Provider
	objects    ObjectStore
	records    recordstore.Store
	translator Translator
	generator  Generator
	events     EventPublisher
	names      *job.NameGenerator
	poller     *job.Poller
	now        func() time.Time
	cfg        Config
	metrics    *metrics.Metrics
}

// New creates a Service.
func New(deps Dependencies, cfg Config) *Service {
	return &Service{
		provider:   deps.Provider,
		objects:    deps.Objects,
		records:    deps.Records,
		translator: deps.Translator,
		generator:  deps.Generator,
		events:     deps.Events,
		names:      job.NewNameGenerator(),
		poller:     job.NewPoller(cfg.PollInterval, cfg.PollTimeout),
		now:        time.Now,
		cfg:        cfg,
		metrics:    metrics.DefaultMetrics,
	}
}

// UploadInput is the decoded upload request.
type UploadInput struct {
	Audio string // base64
	Wait  bool
}

// Upload stores Base64 audio, starts a job on it and records the job as
// IN_PROGRESS. With Wait it polls until the job is terminal or the poll
// timeout passes; on timeout the last seen status is returned.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*models.UploadResponse, error) {
	if strings.TrimSpace(in.Audio) == "" {
		return nil, fmt.Errorf("%w: missing audio", ErrInvalidInput)
	}
	audio, err := base64.StdEncoding.DecodeString(in.Audio)
	if err != nil {
		return nil, fmt.Errorf("%w: decode audio: %v", ErrInvalidInput, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio", ErrInvalidInput)
	}

	key := s.names.ObjectKey(uploadFormat)
	jobName := s.names.Next(job.PrefixUpload)
	logger := logging.WithJob("transcription", jobName)

	if err := s.objects.Put(ctx, key, audio, objectstore.ContentType(uploadFormat)); err != nil {
		return nil, fmt.Errorf("store audio: %w", err)
	}
	s.metrics.RecordAudioUploaded(len(audio))

	ref, err := s.provider.StartJob(ctx, stt.JobRequest{
		JobName:      jobName,
		Bucket:       s.cfg.Bucket,
		Key:          key,
		MediaURI:     s.objects.URI(key),
		MediaFormat:  uploadFormat,
		LanguageCode: s.cfg.UploadLanguageCode,
		MaxSpeakers:  s.cfg.MaxSpeakers,
	})
	if err != nil {
		return nil, fmt.Errorf("start job: %w", err)
	}

	rec := models.JobRecord{
		JobName:      jobName,
		FileName:     key,
		Status:       job.StatusInProgress.String(),
		Timestamp:    s.now().Unix(),
		Provider:     s.provider.Name(),
		ProviderRef:  ref,
		LanguageCode: s.cfg.UploadLanguageCode,
	}
	if err := s.records.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("record job: %w", err)
	}
	s.metrics.RecordJobStarted(s.provider.Name(), "upload")
	s.publishStarted(ctx, rec)

	logger.Info().
		Str("key", key).
		Int("bytes", len(audio)).
		Str("provider", s.provider.Name()).
		Msg("Transcription job started from upload")

	if !in.Wait {
		return &models.UploadResponse{JobName: jobName}, nil
	}

	var last stt.JobResult
	_, err = s.poller.Wait(ctx, func(ctx context.Context) (job.Status, error) {
		res, err := s.provider.GetJob(ctx, ref)
		if err != nil {
			return "", err
		}
		last = res
		return res.Status, nil
	})
	switch {
	case errors.Is(err, job.ErrPollTimeout):
		logger.Warn().Str("status", last.Status.String()).Msg("Gave up waiting for job")
		return &models.UploadResponse{JobName: jobName, Status: last.Status.String()}, nil
	case err != nil:
		return nil, fmt.Errorf("wait for job: %w", err)
	}

	if err := s.finish(ctx, &rec, last); err != nil {
		return nil, err
	}
	resp := &models.UploadResponse{JobName: jobName, Status: last.Status.String()}
	if last.Status == job.StatusCompleted {
		text := last.Transcript
		resp.Text = &text
	} else {
		resp.Reason = last.FailureReason
	}
	return resp, nil
}

// StartFromFile starts a job on an object already in the bucket and records
// it as STARTED.
func (s *Service) StartFromFile(ctx context.Context, fileName string) (*models.StartResponse, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, fmt.Errorf("%w: missing filename", ErrInvalidInput)
	}

	jobName := s.names.Next(job.PrefixStart)
	ref, err := s.provider.StartJob(ctx, stt.JobRequest{
		JobName:      jobName,
		Bucket:       s.cfg.Bucket,
		Key:          fileName,
		MediaURI:     s.objects.URI(fileName),
		MediaFormat:  s.cfg.MediaFormat,
		LanguageCode: s.cfg.LanguageCode,
	})
	if err != nil {
		return nil, fmt.Errorf("start job: %w", err)
	}

	rec := models.JobRecord{
		JobName:      jobName,
		FileName:     fileName,
		Status:       job.StatusStarted.String(),
		Timestamp:    s.now().Unix(),
		Provider:     s.provider.Name(),
		ProviderRef:  ref,
		LanguageCode: s.cfg.LanguageCode,
	}
	if err := s.records.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("record job: %w", err)
	}
	s.metrics.RecordJobStarted(s.provider.Name(), "file")
	s.publishStarted(ctx, rec)

	logger := logging.WithJob("transcription", jobName)
	logger.Info().
		Str("fileName", fileName).
		Str("provider", s.provider.Name()).
		Msg("Transcription job started from file")

	return &models.StartResponse{Message: "Transcription started", JobName: jobName}, nil
}

// Status reports the provider's status for a job. A COMPLETED or FAILED
// result is written to the job record the first time it is seen.
func (s *Service) Status(ctx context.Context, jobName string) (*models.StatusResponse, error) {
	jobName = strings.TrimSpace(jobName)
	if jobName == "" {
		return nil, fmt.Errorf("%w: missing job", ErrInvalidInput)
	}
	logger := logging.WithJob("transcription", jobName)

	ref := jobName
	rec, err := s.records.Get(ctx, jobName)
	switch {
	case err == nil:
		if rec.ProviderRef != "" {
			ref = rec.ProviderRef
		}
	case errors.Is(err, recordstore.ErrNotFound):
		rec = &models.JobRecord{JobName: jobName}
	default:
		logger.Warn().Err(err).Msg("Record lookup failed, querying provider by job name")
		rec = &models.JobRecord{JobName: jobName}
	}

	res, err := s.provider.GetJob(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}

	resp := &models.StatusResponse{Status: res.Status.String()}
	switch res.Status {
	case job.StatusCompleted:
		text := res.Transcript
		resp.Text = &text
	case job.StatusFailed:
		resp.Reason = res.FailureReason
	default:
		return resp, nil
	}

	if err := s.finish(ctx, rec, res); err != nil {
		return nil, err
	}
	return resp, nil
}

// TranslateInput is the decoded translate request.
type TranslateInput struct {
	JobName        string
	TargetLanguage string
	SourceLanguage string
}

// Translate translates a finished transcript and stores the translation on
// the job record.
func (s *Service) Translate(ctx context.Context, in TranslateInput) (*models.TextResponse, error) {
	rec, err := s.transcriptRecord(ctx, in.JobName)
	if err != nil {
		return nil, err
	}

	target := firstNonEmpty(in.TargetLanguage, s.cfg.TargetLanguage)
	source := firstNonEmpty(in.SourceLanguage, s.cfg.SourceLanguage)

	text, err := s.translator.Translate(ctx, rec.Transcript, source, target)
	if err != nil {
		return nil, fmt.Errorf("translate transcript: %w", err)
	}
	if err := s.records.SetTranslation(ctx, rec.JobName, target, text); err != nil {
		return nil, fmt.Errorf("record translation: %w", err)
	}

	logger := logging.WithJob("transcription", rec.JobName)
	logger.Info().
		Str("source", source).
		Str("target", target).
		Msg("Transcript translated")

	return &models.TextResponse{
		Status:         rec.Status,
		JobName:        rec.JobName,
		TargetLanguage: target,
		Text:           text,
	}, nil
}

// Summarize generates text from a finished transcript, by default a summary,
// and stores it on the job record.
func (s *Service) Summarize(ctx context.Context, jobName, instruction string) (*models.TextResponse, error) {
	rec, err := s.transcriptRecord(ctx, jobName)
	if err != nil {
		return nil, err
	}

	text, err := s.generator.Generate(ctx, generate.Prompt(instruction, rec.Transcript))
	if err != nil {
		return nil, fmt.Errorf("generate text: %w", err)
	}
	if err := s.records.SetDerivedText(ctx, rec.JobName, text); err != nil {
		return nil, fmt.Errorf("record derived text: %w", err)
	}

	logger := logging.WithJob("transcription", rec.JobName)
	logger.Info().
		Int("chars", len(text)).
		Msg("Derived text generated")

	return &models.TextResponse{Status: rec.Status, JobName: rec.JobName, Text: text}, nil
}

func (s *Service) transcriptRecord(ctx context.Context, jobName string) (*models.JobRecord, error) {
	jobName = strings.TrimSpace(jobName)
	if jobName == "" {
		return nil, fmt.Errorf("%w: missing job", ErrInvalidInput)
	}

	rec, err := s.records.Get(ctx, jobName)
	if errors.Is(err, recordstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobName)
	}
	if err != nil {
		return nil, fmt.Errorf("load job record: %w", err)
	}
	if rec.Status != job.StatusCompleted.String() || rec.Transcript == "" {
		return nil, fmt.Errorf("%w: job %s is %s", ErrNotReady, jobName, rec.Status)
	}
	return rec, nil
}

// finish writes a terminal result to the record and publishes the completed
// event. Results already on the record are not written again.
func (s *Service) finish(ctx context.Context, rec *models.JobRecord, res stt.JobResult) error {
	if rec.Status == res.Status.String() {
		return nil
	}
	logger := logging.WithJob("transcription", rec.JobName)

	err := s.records.Complete(ctx, rec.JobName, res.Status, res.Transcript, res.FailureReason)
	if errors.Is(err, recordstore.ErrAlreadyRecorded) {
		logger.Debug().Str("status", res.Status.String()).Msg("Result already recorded")
		return nil
	}
	if errors.Is(err, job.ErrStatusRegression) {
		logger.Warn().Err(err).Msg("Record already holds a different terminal status")
		return nil
	}
	if err != nil {
		return fmt.Errorf("record job result: %w", err)
	}

	eventType := models.EventJobCompleted
	if res.Status == job.StatusFailed {
		eventType = models.EventJobFailed
	}
	event := models.JobEvent{
		EventType:     eventType,
		JobName:       rec.JobName,
		FileName:      rec.FileName,
		Status:        res.Status.String(),
		Provider:      s.provider.Name(),
		Text:          res.Transcript,
		FailureReason: res.FailureReason,
		Timestamp:     s.now().Unix(),
	}
	if err := s.events.PublishCompleted(ctx, event); err != nil {
		logger.Error().Err(err).Msg("Failed to publish completed event")
	}

	logger.Info().Str("status", res.Status.String()).Msg("Job finished")
	return nil
}

func (s *Service) publishStarted(ctx context.Context, rec models.JobRecord) {
	event := models.JobEvent{
		EventType: models.EventJobStarted,
		JobName:   rec.JobName,
		FileName:  rec.FileName,
		Status:    rec.Status,
		Provider:  rec.Provider,
		Timestamp: rec.Timestamp,
	}
	if err := s.events.PublishStarted(ctx, event); err != nil {
		logger := logging.WithJob("transcription", rec.JobName)
		logger.Error().Err(err).Msg("Failed to publish started event")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
