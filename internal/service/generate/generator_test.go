package generate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBedrock struct {
	in   *bedrockruntime.InvokeModelInput
	body string
	err  error
}

func (f *fakeBedrock) InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestGenerate_Titan(t *testing.T) {
	f := &fakeBedrock{body: `{"results":[{"outputText":"  a short summary \n"}]}`}
	g := New(f, Config{ModelID: "amazon.titan-text-express-v1", MaxTokens: 256, Temperature: 0.2})

	got, err := g.Generate(context.Background(), "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "a short summary", got)

	assert.Equal(t, "amazon.titan-text-express-v1", aws.ToString(f.in.ModelId))
	var req titanRequest
	require.NoError(t, json.Unmarshal(f.in.Body, &req))
	assert.Equal(t, "summarize this", req.InputText)
	assert.Equal(t, 256, req.TextGenerationConfig.MaxTokenCount)
}

func TestGenerate_Anthropic(t *testing.T) {
	f := &fakeBedrock{body: `{"content":[{"type":"text","text":"Summary: "},{"type":"text","text":"done."}]}`}
	g := New(f, Config{ModelID: "us.anthropic.claude-3-haiku-20240307-v1:0", MaxTokens: 512})

	got, err := g.Generate(context.Background(), "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "Summary: done.", got)

	var req anthropicRequest
	require.NoError(t, json.Unmarshal(f.in.Body, &req))
	assert.Equal(t, "bedrock-2023-05-31", req.AnthropicVersion)
	assert.Equal(t, 512, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, "summarize this", req.Messages[0].Content[0].Text)
}

func TestGenerate_EmptyCompletion(t *testing.T) {
	g := New(&fakeBedrock{body: `{"results":[]}`}, Config{ModelID: "amazon.titan-text-lite-v1"})

	_, err := g.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestGenerate_InvokeError(t *testing.T) {
	g := New(&fakeBedrock{err: errors.New("access denied")}, Config{ModelID: "amazon.titan-text-lite-v1"})

	_, err := g.Generate(context.Background(), "x")
	assert.Error(t, err)
}

func TestGenerate_MalformedBody(t *testing.T) {
	g := New(&fakeBedrock{body: `not json`}, Config{ModelID: "anthropic.claude-v2"})

	_, err := g.Generate(context.Background(), "x")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyCompletion)
}

func TestPrompt(t *testing.T) {
	assert.Equal(t, "Translate to pirate.\n\nTranscript:\nhello", Prompt("Translate to pirate.", "hello"))
	assert.Contains(t, Prompt("  ", "hello"), DefaultInstruction)
}
