// Package generate produces text from a transcript with Amazon Bedrock.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"ai-speech-transcribe-service/internal/observability/metrics"
)

const anthropicVersion = "bedrock-2023-05-31"

// DefaultInstruction is used when the caller does not supply a prompt.
const DefaultInstruction = "Summarize the following transcript in a few short paragraphs. " +
	"List any decisions and action items at the end."

// ErrEmptyCompletion is returned when the model produced no text.
var ErrEmptyCompletion = errors.New("model returned no text")

// API is the subset of the Bedrock runtime client used here.
type API interface {
	InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Config holds model settings.
type Config struct {
	ModelID     string
	MaxTokens   int
	Temperature float64
}

// Generator invokes a text model. The request and response body format is
// picked from the model id.
type Generator struct {
	client  API
	cfg     Config
	metrics *metrics.Metrics
}

// New creates a Generator.
func New(client API, cfg Config) *Generator {
	return &Generator{
		client:  client,
		cfg:     cfg,
		metrics: metrics.DefaultMetrics,
	}
}

// Prompt combines an instruction with the transcript. An empty instruction
// means DefaultInstruction.
func Prompt(instruction, transcript string) string {
	if strings.TrimSpace(instruction) == "" {
		instruction = DefaultInstruction
	}
	return instruction + "\n\nTranscript:\n" + transcript
}

// Generate sends prompt to the model and returns the completion text.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	codec := codecFor(g.cfg.ModelID)

	body, err := codec.encode(prompt, g.cfg)
	if err != nil {
		return "", fmt.Errorf("encode %s request: %w", g.cfg.ModelID, err)
	}

	start := time.Now()
	out, err := g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.cfg.ModelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	g.metrics.RecordUpstreamCall("bedrock", "InvokeModel", err, time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("invoke model %s: %w", g.cfg.ModelID, err)
	}

	text, err := codec.decode(out.Body)
	if err != nil {
		return "", fmt.Errorf("decode %s response: %w", g.cfg.ModelID, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

type codec interface {
	encode(prompt string, cfg Config) ([]byte, error)
	decode(body []byte) (string, error)
}

func codecFor(modelID string) codec {
	// cross-region inference profiles prefix the vendor, e.g. us.anthropic.*
	if strings.HasPrefix(modelID, "anthropic.") || strings.Contains(modelID, ".anthropic.") {
		return anthropicCodec{}
	}
	return titanCodec{}
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float64            `json:"temperature"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
}

type anthropicCodec struct{}

func (anthropicCodec) encode(prompt string, cfg Config) ([]byte, error) {
	return json.Marshal(anthropicRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        cfg.MaxTokens,
		Temperature:      cfg.Temperature,
		Messages: []anthropicMessage{{
			Role:    "user",
			Content: []anthropicContent{{Type: "text", Text: prompt}},
		}},
	})
}

func (anthropicCodec) decode(body []byte) (string, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	return sb.String(), nil
}

type titanConfig struct {
	MaxTokenCount int     `json:"maxTokenCount"`
	Temperature   float64 `json:"temperature"`
}

type titanRequest struct {
	InputText            string      `json:"inputText"`
	TextGenerationConfig titanConfig `json:"textGenerationConfig"`
}

type titanResponse struct {
	Results []struct {
		OutputText string `json:"outputText"`
	} `json:"results"`
}

type titanCodec struct{}

func (titanCodec) encode(prompt string, cfg Config) ([]byte, error) {
	return json.Marshal(titanRequest{
		InputText: prompt,
		TextGenerationConfig: titanConfig{
			MaxTokenCount: cfg.MaxTokens,
			Temperature:   cfg.Temperature,
		},
	})
}

func (titanCodec) decode(body []byte) (string, error) {
	var resp titanResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return resp.Results[0].OutputText, nil
}
