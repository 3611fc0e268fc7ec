// Package job provides job naming, the job status enum and the bounded
// status poller.
package job

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Name prefixes used by the handlers.
const (
	PrefixStart  = "transcribe"
	PrefixUpload = "job"
	PrefixAudio  = "audio"
)

// NameGenerator produces job names and object keys of the form
// <prefix>-<unix seconds>-<8 hex>. Transcription job names must be unique
// per account, so the random suffix keeps two requests in the same second
// apart.
type NameGenerator struct {
	now    func() time.Time
	suffix func() string
}

// NewNameGenerator returns a generator using the wall clock.
func NewNameGenerator() *NameGenerator {
	return &NameGenerator{
		now:    time.Now,
		suffix: randomSuffix,
	}
}

// Next returns a new name with the given prefix.
func (g *NameGenerator) Next(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, g.now().Unix(), g.suffix())
}

// ObjectKey returns a new object key for uploaded audio with the given
// file extension.
func (g *NameGenerator) ObjectKey(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return g.Next(PrefixAudio) + "." + ext
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
