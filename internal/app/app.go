package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	awstranslate "github.com/aws/aws-sdk-go-v2/service/translate"
	"github.com/rs/zerolog"

	"ai-speech-transcribe-service/internal/awsclient"
	"ai-speech-transcribe-service/internal/config"
	"ai-speech-transcribe-service/internal/events"
	"ai-speech-transcribe-service/internal/observability/logging"
	"ai-speech-transcribe-service/internal/service/generate"
	"ai-speech-transcribe-service/internal/service/stt"
	"ai-speech-transcribe-service/internal/service/stt/amazon"
	"ai-speech-transcribe-service/internal/service/stt/google"
	"ai-speech-transcribe-service/internal/service/stt/mock"
	"ai-speech-transcribe-service/internal/service/transcription"
	"ai-speech-transcribe-service/internal/service/translate"
	"ai-speech-transcribe-service/internal/storage/objectstore"
	"ai-speech-transcribe-service/internal/storage/recordstore"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config
	Service     *transcription.Service

	publisher *events.Publisher
	closers   []func() error
	ready     atomic.Bool
}

// New constructs the Application and every client it needs from cfg.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	a := &Application{
		Cfg:    cfg,
		Logger: logging.WithComponent("application"),
	}
	appLogger := a.Logger.With().Str("method", "New").Logger()

	awsCfg, err := awsclient.LoadConfig(ctx, cfg.AWS.Region, cfg.AWS.Endpoint)
	if err != nil {
		return nil, err
	}

	objects, err := a.objectStore(ctx, awsCfg)
	if err != nil {
		return nil, err
	}

	provider, err := a.provider(ctx, awsCfg, objects)
	if err != nil {
		a.Shutdown()
		return nil, err
	}

	a.publisher = events.New(&events.Config{
		Brokers:        cfg.Kafka.Brokers,
		TopicStarted:   cfg.Kafka.TopicStarted,
		TopicCompleted: cfg.Kafka.TopicCompleted,
		Principal:      cfg.Kafka.Principal,
		Enabled:        cfg.Kafka.Enabled,
	})
	a.closers = append(a.closers, a.publisher.Close)

	maxSpeakers := 0
	if cfg.STT.ShowSpeakerLabels {
		maxSpeakers = cfg.STT.MaxSpeakerLabels
	}

	a.Service = transcription.New(transcription.Dependencies{
		Provider:   provider,
		Objects:    objects,
		Records:    a.recordStore(awsCfg),
		Translator: translate.New(awstranslate.NewFromConfig(awsCfg)),
		Generator: generate.New(bedrockruntime.NewFromConfig(awsCfg), generate.Config{
			ModelID:     cfg.Generative.ModelID,
			MaxTokens:   cfg.Generative.MaxTokens,
			Temperature: cfg.Generative.Temperature,
		}),
		Events: a.publisher,
	}, transcription.Config{
		Bucket:             cfg.Storage.Bucket,
		MediaFormat:        cfg.STT.MediaFormat,
		LanguageCode:       cfg.STT.LanguageCode,
		UploadLanguageCode: cfg.STT.UploadLanguageCode,
		MaxSpeakers:        maxSpeakers,
		SourceLanguage:     cfg.Translate.SourceLanguage,
		TargetLanguage:     cfg.Translate.TargetLanguage,
		PollInterval:       cfg.Poll.Interval,
		PollTimeout:        cfg.Poll.Timeout,
	})

	appLogger.Info().
		Str("sttProvider", provider.Name()).
		Str("objectStore", cfg.Storage.Backend).
		Str("recordStore", cfg.Records.Backend).
		Str("modelId", cfg.Generative.ModelID).
		Msg("AI Speech Transcribe service application created")
	return a, nil
}

func (a *Application) objectStore(ctx context.Context, awsCfg aws.Config) (objectstore.Store, error) {
	cfg := a.Cfg
	switch cfg.Storage.Backend {
	case "minio":
		return objectstore.NewMinioStore(ctx, objectstore.MinioConfig{
			Endpoint:  cfg.Storage.MinioEndpoint,
			AccessKey: cfg.Storage.MinioAccessKey,
			SecretKey: cfg.Storage.MinioSecretKey,
			UseSSL:    cfg.Storage.MinioUseSSL,
			Bucket:    cfg.Storage.Bucket,
		})
	case "s3", "":
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			// localstack and other emulators need path-style addressing
			o.UsePathStyle = cfg.AWS.Endpoint != ""
		})
		return objectstore.NewS3Store(client, cfg.Storage.Bucket), nil
	default:
		return nil, fmt.Errorf("unknown object store backend %q", cfg.Storage.Backend)
	}
}

func (a *Application) recordStore(awsCfg aws.Config) recordstore.Store {
	if a.Cfg.Records.Backend == "memory" {
		a.Logger.Warn().Msg("Using in-memory record store, records are lost on restart")
		return recordstore.NewMemoryStore()
	}
	return recordstore.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), a.Cfg.Records.Table)
}

func (a *Application) provider(ctx context.Context, awsCfg aws.Config, objects objectstore.Store) (stt.Provider, error) {
	cfg := a.Cfg.STT
	switch cfg.Provider {
	case "google":
		rec, err := google.NewClientRecognizer(ctx)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rec.Close)
		return google.New(rec, objects, google.Config{SampleRateHz: cfg.SampleRateHz}), nil
	case "mock":
		a.Logger.Warn().Msg("Using mock transcription provider")
		return mock.New(cfg.MockCompleteAfter), nil
	case "aws", "":
		return amazon.New(transcribe.NewFromConfig(awsCfg), nil), nil
	default:
		return nil, fmt.Errorf("unknown STT provider %q", cfg.Provider)
	}
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.ready.Store(true)

	a.Logger.Info().
		Str("method", "Start").
		Time("startupTime", a.StartupTime).
		Msg("AI Speech Transcribe service starting")
	return nil
}

// Ready reports whether Start has completed and Shutdown has not begun.
func (a *Application) Ready() bool {
	return a.ready.Load()
}

// Shutdown closes clients in reverse order of creation.
func (a *Application) Shutdown() {
	a.ready.Store(false)
	a.Logger.Info().Str("method", "Shutdown").Msg("AI Speech Transcribe service shutting down")

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Error().Err(err).Msg("Error closing client")
		}
	}
	a.closers = nil
}
