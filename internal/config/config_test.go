package config

import (
	"os"
	"testing"
	"time"
)

var configEnvVars = []string{
	"SERVICE_PRINCIPAL", "HTTP_PORT", "GRPC_PORT", "LOG_LEVEL", "LOG_FORMAT", "ENV",
	"BUCKET_NAME", "TABLE_NAME", "RECORD_STORE", "OBJECT_STORE",
	"STT_PROVIDER", "STT_LANGUAGE_CODE", "STT_UPLOAD_LANGUAGE_CODE", "STT_MEDIA_FORMAT",
	"STT_SHOW_SPEAKER_LABELS", "STT_MAX_SPEAKER_LABELS",
	"POLL_INTERVAL", "POLL_TIMEOUT",
	"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_PRINCIPAL",
	"BEDROCK_MODEL_ID", "BEDROCK_MAX_TOKENS",
}

func clearEnv() {
	for _, v := range configEnvVars {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv()

	cfg := Load()

	if cfg.Service.Principal != "svc-speech-transcribe" {
		t.Errorf("expected default principal 'svc-speech-transcribe', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "8080" {
		t.Errorf("expected default port '8080', got %s", cfg.Service.HTTPPort)
	}
	if cfg.STT.Provider != "aws" {
		t.Errorf("expected default STT provider 'aws', got %s", cfg.STT.Provider)
	}
	if cfg.STT.LanguageCode != "en-US" {
		t.Errorf("expected default language 'en-US', got %s", cfg.STT.LanguageCode)
	}
	if cfg.STT.UploadLanguageCode != "zh-CN" {
		t.Errorf("expected default upload language 'zh-CN', got %s", cfg.STT.UploadLanguageCode)
	}
	if cfg.STT.MediaFormat != "mp3" {
		t.Errorf("expected default media format 'mp3', got %s", cfg.STT.MediaFormat)
	}
	if !cfg.STT.ShowSpeakerLabels {
		t.Error("expected speaker labels on by default")
	}
	if cfg.STT.MaxSpeakerLabels != 10 {
		t.Errorf("expected default max speakers 10, got %d", cfg.STT.MaxSpeakerLabels)
	}
	if cfg.Poll.Interval != 5*time.Second {
		t.Errorf("expected default poll interval 5s, got %v", cfg.Poll.Interval)
	}
	if cfg.Poll.Timeout != 10*time.Minute {
		t.Errorf("expected default poll timeout 10m, got %v", cfg.Poll.Timeout)
	}
	if cfg.Records.Backend != "dynamodb" {
		t.Errorf("expected default record store 'dynamodb', got %s", cfg.Records.Backend)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
	if cfg.Observability.LogFormat != "json" {
		t.Errorf("expected default log format 'json', got %s", cfg.Observability.LogFormat)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected kafka disabled by default")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv()
	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("HTTP_PORT", "9999")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("STT_PROVIDER", "google")
	os.Setenv("STT_LANGUAGE_CODE", "es-ES")
	os.Setenv("STT_SHOW_SPEAKER_LABELS", "false")
	os.Setenv("STT_MAX_SPEAKER_LABELS", "4")
	os.Setenv("POLL_INTERVAL", "250ms")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092,")
	os.Setenv("BUCKET_NAME", "audio-bucket")
	os.Setenv("TABLE_NAME", "jobs")
	defer clearEnv()

	cfg := Load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "9999" {
		t.Errorf("expected port '9999', got %s", cfg.Service.HTTPPort)
	}
	if cfg.STT.Provider != "google" {
		t.Errorf("expected STT provider 'google', got %s", cfg.STT.Provider)
	}
	if cfg.STT.LanguageCode != "es-ES" {
		t.Errorf("expected language 'es-ES', got %s", cfg.STT.LanguageCode)
	}
	if cfg.STT.ShowSpeakerLabels {
		t.Error("expected speaker labels off")
	}
	if cfg.STT.MaxSpeakerLabels != 4 {
		t.Errorf("expected max speakers 4, got %d", cfg.STT.MaxSpeakerLabels)
	}
	if cfg.Poll.Interval != 250*time.Millisecond {
		t.Errorf("expected poll interval 250ms, got %v", cfg.Poll.Interval)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b2:9092" {
		t.Errorf("expected two trimmed brokers, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Storage.Bucket != "audio-bucket" || cfg.Records.Table != "jobs" {
		t.Errorf("unexpected bucket/table: %s/%s", cfg.Storage.Bucket, cfg.Records.Table)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	clearEnv()
	os.Setenv("STT_MAX_SPEAKER_LABELS", "not-a-number")
	os.Setenv("STT_SHOW_SPEAKER_LABELS", "invalid")
	os.Setenv("POLL_INTERVAL", "invalid")
	os.Setenv("POLL_TIMEOUT", "invalid")
	os.Setenv("BEDROCK_MAX_TOKENS", "invalid")
	defer clearEnv()

	cfg := Load()

	if cfg.STT.MaxSpeakerLabels != 10 {
		t.Errorf("expected default max speakers on invalid input, got %d", cfg.STT.MaxSpeakerLabels)
	}
	if !cfg.STT.ShowSpeakerLabels {
		t.Error("expected default speaker labels on invalid input")
	}
	if cfg.Poll.Interval != 5*time.Second {
		t.Errorf("expected default poll interval on invalid input, got %v", cfg.Poll.Interval)
	}
	if cfg.Poll.Timeout != 10*time.Minute {
		t.Errorf("expected default poll timeout on invalid input, got %v", cfg.Poll.Timeout)
	}
	if cfg.Generative.MaxTokens != 512 {
		t.Errorf("expected default max tokens on invalid input, got %d", cfg.Generative.MaxTokens)
	}
}

func TestLoad_KafkaPrincipal_FallsBackToServicePrincipal(t *testing.T) {
	clearEnv()
	os.Setenv("SERVICE_PRINCIPAL", "my-service")
	defer clearEnv()

	cfg := Load()

	if cfg.Kafka.Principal != "my-service" {
		t.Errorf("expected Kafka principal to fall back to service principal, got %s", cfg.Kafka.Principal)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"complete", func(c *Config) {}, false},
		{"missing bucket", func(c *Config) { c.Storage.Bucket = "" }, true},
		{"missing table", func(c *Config) { c.Records.Table = "" }, true},
		{"missing table with memory store", func(c *Config) {
			c.Records.Table = ""
			c.Records.Backend = "memory"
		}, false},
		{"zero poll interval", func(c *Config) { c.Poll.Interval = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv()
			cfg := Load()
			cfg.Storage.Bucket = "bucket"
			cfg.Records.Table = "table"
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envOrDefaultBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}
