// Package objectstore stores uploaded audio. S3 is the production backend;
// MinIO serves local development.
package objectstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("object not found")

// Store is an object store holding audio for transcription jobs.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	// URI returns the s3:// URI transcription providers read the object from.
	URI(key string) string
}

// URI formats an s3:// URI.
func URI(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}

// ContentType returns the MIME type used for an audio media format.
func ContentType(format string) string {
	switch format {
	case "wav":
		return "audio/wav"
	case "mp3":
		return "audio/mpeg"
	case "mp4", "m4a":
		return "audio/mp4"
	case "flac":
		return "audio/flac"
	case "ogg":
		return "audio/ogg"
	case "webm":
		return "audio/webm"
	case "amr":
		return "audio/amr"
	default:
		return "application/octet-stream"
	}
}
