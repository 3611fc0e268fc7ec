// Package amazon provides an Amazon Transcribe batch adapter.
package amazon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"

	"ai-speech-transcribe-service/internal/observability/metrics"
	"ai-speech-transcribe-service/internal/service/job"
	"ai-speech-transcribe-service/internal/service/stt"
)

const providerName = "aws"

// maxTranscriptBytes bounds the transcript document read from the result URI.
const maxTranscriptBytes = 32 << 20

// API is the subset of the Transcribe client used by the adapter.
type API interface {
	StartTranscriptionJob(ctx context.Context, in *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, in *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
}

// HTTPDoer fetches the transcript document.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Adapter implements stt.Provider using Amazon Transcribe.
type Adapter struct {
	client  API
	http    HTTPDoer
	metrics *metrics.Metrics
}

// New creates a Transcribe adapter. A nil httpClient uses a client with a
// 30 second timeout.
func New(client API, httpClient HTTPDoer) *Adapter {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Adapter{
		client:  client,
		http:    httpClient,
		metrics: metrics.DefaultMetrics,
	}
}

// Name implements stt.Provider.
func (a *Adapter) Name() string { return providerName }

// StartJob starts a Transcribe job named req.JobName. The job name is the
// reference.
func (a *Adapter) StartJob(ctx context.Context, req stt.JobRequest) (string, error) {
	in := &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(req.JobName),
		Media:                &types.Media{MediaFileUri: aws.String(req.MediaURI)},
		MediaFormat:          types.MediaFormat(req.MediaFormat),
		LanguageCode:         types.LanguageCode(req.LanguageCode),
	}
	if req.MaxSpeakers > 0 {
		in.Settings = &types.Settings{
			ShowSpeakerLabels: aws.Bool(true),
			MaxSpeakerLabels:  aws.Int32(int32(req.MaxSpeakers)),
		}
	}

	start := time.Now()
	_, err := a.client.StartTranscriptionJob(ctx, in)
	a.metrics.RecordUpstreamCall("transcribe", "StartTranscriptionJob", err, time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("start transcription job %s: %w", req.JobName, err)
	}
	return req.JobName, nil
}

// GetJob fetches the job and, when it has completed, downloads the
// transcript document and extracts the first transcript.
func (a *Adapter) GetJob(ctx context.Context, ref string) (stt.JobResult, error) {
	start := time.Now()
	out, err := a.client.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(ref),
	})
	a.metrics.RecordUpstreamCall("transcribe", "GetTranscriptionJob", err, time.Since(start).Seconds())
	if err != nil {
		if isNotFound(err) {
			return stt.JobResult{}, fmt.Errorf("%w: %s", stt.ErrJobNotFound, ref)
		}
		return stt.JobResult{}, fmt.Errorf("get transcription job %s: %w", ref, err)
	}
	if out.TranscriptionJob == nil {
		return stt.JobResult{}, fmt.Errorf("get transcription job %s: empty response", ref)
	}

	tj := out.TranscriptionJob
	status, err := job.ParseStatus(string(tj.TranscriptionJobStatus))
	if err != nil {
		return stt.JobResult{}, err
	}
	a.metrics.RecordJobStatus(providerName, status.String())

	res := stt.JobResult{Status: status}
	switch status {
	case job.StatusCompleted:
		if tj.Transcript == nil || aws.ToString(tj.Transcript.TranscriptFileUri) == "" {
			return stt.JobResult{}, fmt.Errorf("transcription job %s completed without transcript uri", ref)
		}
		text, err := a.fetchTranscript(ctx, aws.ToString(tj.Transcript.TranscriptFileUri))
		if err != nil {
			return stt.JobResult{}, fmt.Errorf("fetch transcript for %s: %w", ref, err)
		}
		res.Transcript = text
	case job.StatusFailed:
		res.FailureReason = aws.ToString(tj.FailureReason)
	}
	return res, nil
}

// transcriptDocument is the part of the Transcribe output JSON we read.
type transcriptDocument struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

func (a *Adapter) fetchTranscript(ctx context.Context, uri string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := a.http.Do(req)
	a.metrics.RecordUpstreamCall("transcribe", "FetchTranscript", err, time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return ParseTranscript(io.LimitReader(resp.Body, maxTranscriptBytes))
}

// ParseTranscript extracts results.transcripts[0].transcript from a
// Transcribe output document.
func ParseTranscript(r io.Reader) (string, error) {
	var doc transcriptDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return "", fmt.Errorf("decode transcript: %w", err)
	}
	if len(doc.Results.Transcripts) == 0 {
		return "", errors.New("transcript document has no transcripts")
	}
	return doc.Results.Transcripts[0].Transcript, nil
}

func isNotFound(err error) bool {
	var badReq *types.BadRequestException
	if errors.As(err, &badReq) {
		return strings.Contains(strings.ToLower(badReq.ErrorMessage()), "couldn't be found")
	}
	var notFound *types.NotFoundException
	return errors.As(err, &notFound)
}
