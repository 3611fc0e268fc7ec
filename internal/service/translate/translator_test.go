package translate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/translate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranslate struct {
	calls []*translate.TranslateTextInput
	err   error
	dict  map[string]string
}

func (f *fakeTranslate) TranslateText(ctx context.Context, in *translate.TranslateTextInput, _ ...func(*translate.Options)) (*translate.TranslateTextOutput, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	text := aws.ToString(in.Text)
	if out, ok := f.dict[text]; ok {
		return &translate.TranslateTextOutput{TranslatedText: aws.String(out)}, nil
	}
	return &translate.TranslateTextOutput{
		TranslatedText: aws.String(strings.ToUpper(text)),
	}, nil
}

func TestTranslate_SingleChunk(t *testing.T) {
	f := &fakeTranslate{}
	tr := New(f)

	got, err := tr.Translate(context.Background(), "hello world", "", "fr")
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD", got)

	require.Len(t, f.calls, 1)
	assert.Equal(t, "auto", aws.ToString(f.calls[0].SourceLanguageCode))
	assert.Equal(t, "fr", aws.ToString(f.calls[0].TargetLanguageCode))
}

func TestTranslate_ChunksLongText(t *testing.T) {
	f := &fakeTranslate{}
	tr := New(f)
	tr.chunkBytes = 20

	got, err := tr.Translate(context.Background(), "First sentence. Second sentence. Third.", "en", "de")
	require.NoError(t, err)
	assert.Equal(t, "FIRST SENTENCE. SECOND SENTENCE. THIRD.", got)
	assert.Len(t, f.calls, 3)
}

func TestTranslate_ChunksIntoCJKHaveNoBoundarySpaces(t *testing.T) {
	f := &fakeTranslate{dict: map[string]string{
		"Hello there.":  "你好。",
		"How are you?":  "你好吗？",
		"Fine, thanks.": "很好，谢谢。",
	}}
	tr := New(f)
	tr.chunkBytes = 14

	got, err := tr.Translate(context.Background(), "Hello there. How are you? Fine, thanks.", "en", "zh")
	require.NoError(t, err)
	assert.Len(t, f.calls, 3)
	assert.Equal(t, "你好。你好吗？很好，谢谢。", got)
}

func TestTranslate_ChunksFromCJKGetSentenceSpaces(t *testing.T) {
	f := &fakeTranslate{dict: map[string]string{
		"你好。": "Hello.",
		"世界。": "World.",
	}}
	tr := New(f)
	tr.chunkBytes = 10

	got, err := tr.Translate(context.Background(), "你好。世界。", "zh", "en")
	require.NoError(t, err)
	assert.Equal(t, "Hello. World.", got)
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		seps  []string
		want  string
	}{
		{"latin keeps source space", []string{"one", "two"}, []string{" "}, "one two"},
		{"newline kept", []string{"One.", "Two."}, []string{"\n"}, "One.\nTwo."},
		{"cjk drops space", []string{"你好。", "世界。"}, []string{" "}, "你好。世界。"},
		{"cjk keeps newline", []string{"你好。", "世界。"}, []string{" \n"}, "你好。\n世界。"},
		{"hard cut stays joined", []string{"abcd", "efgh"}, []string{""}, "abcdefgh"},
		{"space after latin sentence", []string{"Hi.", "Bye."}, []string{""}, "Hi. Bye."},
		{"single", []string{"only"}, nil, "only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Join(tt.parts, tt.seps))
		})
	}
}

func TestSplit_Separators(t *testing.T) {
	chunks, seps := split("One two.  Three four.\nFive.", 12)
	assert.Equal(t, []string{"One two.", "Three four.", "Five."}, chunks)
	assert.Equal(t, []string{"  ", "\n"}, seps)

	chunks, seps = split("abcdefghij", 4)
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, chunks)
	assert.Equal(t, []string{"", ""}, seps)
}

func TestTranslate_Error(t *testing.T) {
	tr := New(&fakeTranslate{err: errors.New("throttled")})

	_, err := tr.Translate(context.Background(), "hello", "en", "fr")
	assert.Error(t, err)
}

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"short", "short text", 100, []string{"short text"}},
		{"empty", "   ", 100, nil},
		{"sentences", "One two. Three four. Five.", 12, []string{"One two.", "Three four.", "Five."}},
		{"whitespace fallback", "alpha beta gamma delta", 11, []string{"alpha beta", "gamma delta"}},
		{"hard cut", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"cjk sentences", "你好。世界。", 10, []string{"你好。", "世界。"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitChunks(tt.text, tt.limit))
		})
	}
}

func TestSplitChunks_RespectsLimitAndRuneBoundaries(t *testing.T) {
	text := strings.Repeat("语音转写", 50)
	for _, chunk := range SplitChunks(text, 10) {
		assert.LessOrEqual(t, len(chunk), 10)
		assert.True(t, utf8.ValidString(chunk), "chunk %q is not valid UTF-8", chunk)
	}
}
