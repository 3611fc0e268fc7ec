// Package translate translates transcripts with Amazon Translate.
package translate

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/translate"

	"ai-speech-transcribe-service/internal/observability/metrics"
)

// DefaultChunkBytes keeps each request under the 10,000 byte TranslateText
// limit.
const DefaultChunkBytes = 9000

// AutoDetect lets the service detect the source language.
const AutoDetect = "auto"

// API is the subset of the Translate client used here.
type API interface {
	TranslateText(ctx context.Context, in *translate.TranslateTextInput, optFns ...func(*translate.Options)) (*translate.TranslateTextOutput, error)
}

// Translator translates arbitrarily long text by splitting it into chunks.
type Translator struct {
	client     API
	chunkBytes int
	metrics    *metrics.Metrics
}

// New creates a Translator.
func New(client API) *Translator {
	return &Translator{
		client:     client,
		chunkBytes: DefaultChunkBytes,
		metrics:    metrics.DefaultMetrics,
	}
}

// Translate translates text from source to target. An empty source means
// AutoDetect.
func (t *Translator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if source == "" {
		source = AutoDetect
	}

	chunks, seps := split(text, t.chunkBytes)
	out := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		start := time.Now()
		resp, err := t.client.TranslateText(ctx, &translate.TranslateTextInput{
			Text:               aws.String(chunk),
			SourceLanguageCode: aws.String(source),
			TargetLanguageCode: aws.String(target),
		})
		t.metrics.RecordUpstreamCall("translate", "TranslateText", err, time.Since(start).Seconds())
		if err != nil {
			return "", fmt.Errorf("translate chunk %d/%d: %w", i+1, len(chunks), err)
		}
		out = append(out, aws.ToString(resp.TranslatedText))
	}
	return Join(out, seps), nil
}

// Join concatenates translated chunks. seps[i] is the whitespace removed
// between source chunks i and i+1. Spaces are dropped next to CJK text and a
// space is added after a Latin sentence end that had none in the source.
func Join(parts, seps []string) string {
	var sb strings.Builder
	for i, part := range parts {
		if i > 0 {
			sep := ""
			if i-1 < len(seps) {
				sep = seps[i-1]
			}
			prev, _ := utf8.DecodeLastRuneInString(parts[i-1])
			next, _ := utf8.DecodeRuneInString(part)
			switch {
			case isCJK(prev) || isCJK(next):
				sep = strings.Trim(sep, " \t")
			case sep == "" && strings.ContainsRune(".!?", prev):
				sep = " "
			}
			sb.WriteString(sep)
		}
		sb.WriteString(part)
	}
	return sb.String()
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana) ||
		strings.ContainsRune("。！？，、；：", r)
}

const sentenceEnds = ".!?\n。！？"

// SplitChunks splits text into pieces of at most limit bytes. Pieces end at
// a sentence boundary where possible, then at whitespace, and never inside
// a UTF-8 sequence.
func SplitChunks(text string, limit int) []string {
	chunks, _ := split(text, limit)
	return chunks
}

// split is SplitChunks that also returns the whitespace dropped after each
// chunk but the last.
func split(text string, limit int) (chunks, seps []string) {
	rest := strings.TrimSpace(text)
	for len(rest) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(rest[cut]) {
			cut--
		}
		if cut == 0 {
			_, cut = utf8.DecodeRuneInString(rest)
		}
		window := rest[:cut]

		if i := strings.LastIndexAny(window, sentenceEnds); i > 0 {
			_, size := utf8.DecodeRuneInString(window[i:])
			cut = i + size
		} else if i := strings.LastIndexFunc(window, unicode.IsSpace); i > 0 {
			cut = i
		}

		head := strings.TrimRightFunc(rest[:cut], unicode.IsSpace)
		tail := rest[cut:]
		next := strings.TrimLeftFunc(tail, unicode.IsSpace)
		sep := rest[len(head):cut] + tail[:len(tail)-len(next)]

		if chunk := strings.TrimSpace(head); chunk != "" {
			chunks = append(chunks, chunk)
			seps = append(seps, sep)
		} else if n := len(seps); n > 0 {
			seps[n-1] += sep
		}
		rest = next
	}
	if rest != "" {
		chunks = append(chunks, rest)
	} else if n := len(seps); n > 0 {
		seps = seps[:n-1]
	}
	return chunks, seps
}
