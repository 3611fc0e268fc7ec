package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"ai-speech-transcribe-service/internal/observability/metrics"
)

// MinioConfig holds MinIO connection settings.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// MinioStore implements Store on a MinIO (or other S3-compatible) server.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	metrics *metrics.Metrics
}

// NewMinioStore connects to MinIO and creates the bucket if it is missing.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check minio bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create minio bucket %s: %w", cfg.Bucket, err)
		}
		log.Info().Str("bucket", cfg.Bucket).Msg("MinIO bucket created")
	}

	return &MinioStore{
		client:  client,
		bucket:  cfg.Bucket,
		metrics: metrics.DefaultMetrics,
	}, nil
}

// Put uploads body under key.
func (s *MinioStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	start := time.Now()
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType})
	s.metrics.RecordUpstreamCall("minio", "PutObject", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Get downloads the object stored under key.
func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		s.metrics.RecordUpstreamCall("minio", "GetObject", err, time.Since(start).Seconds())
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	b, err := io.ReadAll(obj)
	s.metrics.RecordUpstreamCall("minio", "GetObject", err, time.Since(start).Seconds())
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return b, nil
}

// URI implements Store.
func (s *MinioStore) URI(key string) string {
	return URI(s.bucket, key)
}
