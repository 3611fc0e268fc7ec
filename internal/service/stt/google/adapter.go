// Package google provides a Google Cloud Speech-to-Text batch adapter.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ai-speech-transcribe-service/internal/observability/metrics"
	"ai-speech-transcribe-service/internal/service/job"
	"ai-speech-transcribe-service/internal/service/stt"
)

const providerName = "google"

// Config holds Google Speech-to-Text recognition configuration.
type Config struct {
	SampleRateHz int
}

// DefaultConfig returns default recognition configuration.
func DefaultConfig() Config {
	return Config{SampleRateHz: 16000}
}

// ObjectReader reads the audio the job refers to. Google cannot read S3
// URIs, so audio is sent inline.
type ObjectReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Recognizer is the subset of long-running recognition used by the adapter.
type Recognizer interface {
	// Start submits the request and returns the operation name.
	Start(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (string, error)
	// Check polls the named operation once. done reports whether the
	// operation finished; opErr is the operation's own failure, err a
	// failure to reach the service.
	Check(ctx context.Context, name string) (resp *speechpb.LongRunningRecognizeResponse, done bool, opErr error, err error)
}

// Adapter implements stt.Provider using Google Cloud Speech-to-Text.
type Adapter struct {
	rec     Recognizer
	objects ObjectReader
	cfg     Config
	metrics *metrics.Metrics
}

// New creates a new Google STT adapter.
func New(rec Recognizer, objects ObjectReader, cfg Config) *Adapter {
	return &Adapter{
		rec:     rec,
		objects: objects,
		cfg:     cfg,
		metrics: metrics.DefaultMetrics,
	}
}

// Name implements stt.Provider.
func (a *Adapter) Name() string { return providerName }

// StartJob reads the object and submits it for long-running recognition.
// The returned reference is the operation name.
func (a *Adapter) StartJob(ctx context.Context, req stt.JobRequest) (string, error) {
	audio, err := a.objects.Get(ctx, req.Key)
	if err != nil {
		return "", fmt.Errorf("read audio %s: %w", req.Key, err)
	}

	rc := &speechpb.RecognitionConfig{
		Encoding:                   parseAudioEncoding(req.MediaFormat),
		LanguageCode:               req.LanguageCode,
		EnableAutomaticPunctuation: true,
	}
	if rc.Encoding != speechpb.RecognitionConfig_ENCODING_UNSPECIFIED && rc.Encoding != speechpb.RecognitionConfig_FLAC {
		rc.SampleRateHertz = int32(a.cfg.SampleRateHz)
	}
	if req.MaxSpeakers > 0 {
		rc.DiarizationConfig = &speechpb.SpeakerDiarizationConfig{
			EnableSpeakerDiarization: true,
			MaxSpeakerCount:          int32(req.MaxSpeakers),
		}
	}

	start := time.Now()
	name, err := a.rec.Start(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: rc,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	a.metrics.RecordUpstreamCall(providerName, "LongRunningRecognize", err, time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("start recognition for %s: %w", req.JobName, err)
	}
	return name, nil
}

// GetJob polls the operation once.
func (a *Adapter) GetJob(ctx context.Context, ref string) (stt.JobResult, error) {
	start := time.Now()
	resp, done, opErr, err := a.rec.Check(ctx, ref)
	a.metrics.RecordUpstreamCall(providerName, "GetOperation", err, time.Since(start).Seconds())
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return stt.JobResult{}, fmt.Errorf("%w: %s", stt.ErrJobNotFound, ref)
		}
		return stt.JobResult{}, fmt.Errorf("poll operation %s: %w", ref, err)
	}

	var res stt.JobResult
	switch {
	case !done:
		res.Status = job.StatusInProgress
	case opErr != nil:
		res.Status = job.StatusFailed
		res.FailureReason = opErr.Error()
		if st, ok := status.FromError(opErr); ok {
			res.FailureReason = st.Message()
		}
	default:
		res.Status = job.StatusCompleted
		res.Transcript = joinTranscript(resp)
	}
	a.metrics.RecordJobStatus(providerName, res.Status.String())
	return res, nil
}

func joinTranscript(resp *speechpb.LongRunningRecognizeResponse) string {
	if resp == nil {
		return ""
	}
	parts := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		if t := strings.TrimSpace(r.Alternatives[0].Transcript); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// parseAudioEncoding maps a media format onto a recognition encoding. WAV
// and unknown formats are left unspecified so the service reads the header.
func parseAudioEncoding(format string) speechpb.RecognitionConfig_AudioEncoding {
	switch strings.ToLower(format) {
	case "flac":
		return speechpb.RecognitionConfig_FLAC
	case "ogg":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "webm":
		return speechpb.RecognitionConfig_WEBM_OPUS
	case "amr":
		return speechpb.RecognitionConfig_AMR
	case "amr-wb":
		return speechpb.RecognitionConfig_AMR_WB
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

// ClientRecognizer adapts *speech.Client to Recognizer.
type ClientRecognizer struct {
	client *speech.Client
}

// NewClientRecognizer creates a Speech client. Requires
// GOOGLE_APPLICATION_CREDENTIALS to be set.
func NewClientRecognizer(ctx context.Context) (*ClientRecognizer, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &ClientRecognizer{client: c}, nil
}

var retryUnavailable = gax.WithRetry(func() gax.Retryer {
	return gax.OnCodes([]codes.Code{codes.Unavailable, codes.DeadlineExceeded}, gax.Backoff{
		Initial:    200 * time.Millisecond,
		Max:        2 * time.Second,
		Multiplier: 2,
	})
})

// Start implements Recognizer.
func (r *ClientRecognizer) Start(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (string, error) {
	op, err := r.client.LongRunningRecognize(ctx, req, retryUnavailable)
	if err != nil {
		return "", err
	}
	return op.Name(), nil
}

// Check implements Recognizer.
func (r *ClientRecognizer) Check(ctx context.Context, name string) (*speechpb.LongRunningRecognizeResponse, bool, error, error) {
	op := r.client.LongRunningRecognizeOperation(name)
	resp, err := op.Poll(ctx, retryUnavailable)
	if err != nil {
		if op.Done() {
			return nil, true, err, nil
		}
		return nil, false, nil, err
	}
	return resp, op.Done(), nil, nil
}

// Close releases the underlying client.
func (r *ClientRecognizer) Close() error {
	if r.client == nil {
		return errors.New("recognizer not initialised")
	}
	return r.client.Close()
}
