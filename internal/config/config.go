// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	Service       ServiceConfig
	AWS           AWSConfig
	Storage       StorageConfig
	Records       RecordsConfig
	STT           STTConfig
	Translate     TranslateConfig
	Generative    GenerativeConfig
	Poll          PollConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Principal string
	HTTPPort  string
	GRPCPort  string
	Env       string
}

type AWSConfig struct {
	Region   string
	Endpoint string // optional, e.g. localstack
}

type StorageConfig struct {
	Backend        string // s3 | minio
	Bucket         string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
}

type RecordsConfig struct {
	Backend string // dynamodb | memory
	Table   string
}

type STTConfig struct {
	Provider           string // aws | google | mock
	MediaFormat        string
	LanguageCode       string
	UploadLanguageCode string
	ShowSpeakerLabels  bool
	MaxSpeakerLabels   int
	SampleRateHz       int
	MockCompleteAfter  int
}

type TranslateConfig struct {
	SourceLanguage string
	TargetLanguage string
}

type GenerativeConfig struct {
	ModelID     string
	MaxTokens   int
	Temperature float64
}

type PollConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	TopicStarted   string
	TopicCompleted string
	Principal      string
}

type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

// Load reads configuration from environment variables, falling back to
// defaults for unset or unparsable values. In dev a local .env file is read
// first; variables already present in the environment win.
func Load() *Config {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-speech-transcribe")
	env := os.Getenv("ENV")

	logFormat := "json"
	if env == "dev" {
		logFormat = "console"
	}

	return &Config{
		Service: ServiceConfig{
			Principal: principal,
			HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
			GRPCPort:  envOrDefault("GRPC_PORT", "50051"),
			Env:       env,
		},
		AWS: AWSConfig{
			Region:   envOrDefault("AWS_REGION", "ap-southeast-1"),
			Endpoint: os.Getenv("AWS_ENDPOINT_URL"),
		},
		Storage: StorageConfig{
			Backend:        envOrDefault("OBJECT_STORE", "s3"),
			Bucket:         os.Getenv("BUCKET_NAME"),
			MinioEndpoint:  envOrDefault("MINIO_ENDPOINT", "localhost:9000"),
			MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY_ID"),
			MinioSecretKey: os.Getenv("MINIO_SECRET_ACCESS_KEY"),
			MinioUseSSL:    envOrDefaultBool("MINIO_USE_SSL", false),
		},
		Records: RecordsConfig{
			Backend: envOrDefault("RECORD_STORE", "dynamodb"),
			Table:   os.Getenv("TABLE_NAME"),
		},
		STT: STTConfig{
			Provider:           envOrDefault("STT_PROVIDER", "aws"),
			MediaFormat:        envOrDefault("STT_MEDIA_FORMAT", "mp3"),
			LanguageCode:       envOrDefault("STT_LANGUAGE_CODE", "en-US"),
			UploadLanguageCode: envOrDefault("STT_UPLOAD_LANGUAGE_CODE", "zh-CN"),
			ShowSpeakerLabels:  envOrDefaultBool("STT_SHOW_SPEAKER_LABELS", true),
			MaxSpeakerLabels:   envOrDefaultInt("STT_MAX_SPEAKER_LABELS", 10),
			SampleRateHz:       envOrDefaultInt("STT_SAMPLE_RATE_HZ", 16000),
			MockCompleteAfter:  envOrDefaultInt("STT_MOCK_COMPLETE_AFTER", 2),
		},
		Translate: TranslateConfig{
			SourceLanguage: envOrDefault("TRANSLATE_SOURCE_LANGUAGE", "auto"),
			TargetLanguage: envOrDefault("TRANSLATE_TARGET_LANGUAGE", "en"),
		},
		Generative: GenerativeConfig{
			ModelID:     envOrDefault("BEDROCK_MODEL_ID", "amazon.titan-text-express-v1"),
			MaxTokens:   envOrDefaultInt("BEDROCK_MAX_TOKENS", 512),
			Temperature: envOrDefaultFloat("BEDROCK_TEMPERATURE", 0.2),
		},
		Poll: PollConfig{
			Interval: envOrDefaultDuration("POLL_INTERVAL", 5*time.Second),
			Timeout:  envOrDefaultDuration("POLL_TIMEOUT", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Enabled:        envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:        splitList(os.Getenv("KAFKA_BROKERS")),
			TopicStarted:   envOrDefault("KAFKA_TOPIC_STARTED", "transcription.job.started"),
			TopicCompleted: envOrDefault("KAFKA_TOPIC_COMPLETED", "transcription.job.completed"),
			Principal:      envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", logFormat),
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
		},
	}
}

// Validate reports missing settings the handlers cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.Storage.Bucket == "" {
		errs = append(errs, errors.New("BUCKET_NAME must be set"))
	}
	if c.Records.Table == "" && c.Records.Backend == "dynamodb" {
		errs = append(errs, errors.New("TABLE_NAME must be set"))
	}
	if c.Poll.Interval <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
