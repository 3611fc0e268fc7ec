package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-speech-transcribe-service/internal/app"
	"ai-speech-transcribe-service/internal/events"
	"ai-speech-transcribe-service/internal/models"
	"ai-speech-transcribe-service/internal/service/stt/mock"
	"ai-speech-transcribe-service/internal/service/transcription"
	"ai-speech-transcribe-service/internal/storage/objectstore"
	"ai-speech-transcribe-service/internal/storage/recordstore"
)

type memObjects struct{ keys []string }

func (m *memObjects) Put(ctx context.Context, key string, body []byte, contentType string) error {
	m.keys = append(m.keys, key)
	return nil
}

func (m *memObjects) URI(key string) string { return objectstore.URI("test-bucket", key) }

func newTestApp(t *testing.T) *app.Application {
	t.Helper()
	svc := transcription.New(transcription.Dependencies{
		Provider: mock.New(2),
		Objects:  &memObjects{},
		Records:  recordstore.NewMemoryStore(),
		Events:   events.New(nil),
	}, transcription.Config{
		Bucket:             "test-bucket",
		MediaFormat:        "mp3",
		LanguageCode:       "en-US",
		UploadLanguageCode: "zh-CN",
		MaxSpeakers:        10,
		PollInterval:       time.Millisecond,
		PollTimeout:        time.Second,
	})
	return &app.Application{Service: svc}
}

func do(r http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	application := newTestApp(t)
	r := NewRouter(application)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/v1/liveness", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/v1/readiness", "").Code)

	require.NoError(t, application.Start())
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/v1/readiness", "").Code)
}

func TestRouter_CORS(t *testing.T) {
	r := NewRouter(newTestApp(t))

	pre := do(r, http.MethodOptions, "/upload", "",
		"Origin", "http://localhost:3000",
		"Access-Control-Request-Method", http.MethodPost,
		"Access-Control-Request-Headers", "Content-Type",
	)
	assert.Equal(t, http.StatusOK, pre.Code)
	assert.Equal(t, "*", pre.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, pre.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Empty(t, pre.Body.String())

	bad := do(r, http.MethodGet, "/start", "", "Origin", "http://localhost:3000")
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Equal(t, "*", bad.Header().Get("Access-Control-Allow-Origin"))

	disallowed := do(r, http.MethodOptions, "/upload", "",
		"Origin", "http://localhost:3000",
		"Access-Control-Request-Method", http.MethodDelete,
	)
	assert.Empty(t, disallowed.Header().Get("Access-Control-Allow-Methods"))
}

func TestRouter_MissingParameters(t *testing.T) {
	r := NewRouter(newTestApp(t))

	tests := []struct {
		name, method, target, body string
	}{
		{"start without filename", http.MethodGet, "/start", ""},
		{"status without job", http.MethodGet, "/status", ""},
		{"upload without body", http.MethodPost, "/upload", ""},
		{"translate without job", http.MethodPost, "/translate", `{}`},
		{"summarize without job", http.MethodPost, "/summarize", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestRouter_StartThenStatus(t *testing.T) {
	r := NewRouter(newTestApp(t))

	rec := do(r, http.MethodGet, "/start?filename=meeting.mp3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var started models.StartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	require.NotEmpty(t, started.JobName)

	rec = do(r, http.MethodGet, "/status?job="+started.JobName, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"QUEUED"}`, rec.Body.String())

	rec = do(r, http.MethodGet, "/status?job="+started.JobName, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status models.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "COMPLETED", status.Status)
	assert.Equal(t, mock.DefaultTranscripts[0], status.GetText())
}

func TestRouter_StartFailingFile(t *testing.T) {
	r := NewRouter(newTestApp(t))

	rec := do(r, http.MethodGet, "/start?filename=fail.mp3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var started models.StartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))

	do(r, http.MethodGet, "/status?job="+started.JobName, "")
	rec = do(r, http.MethodGet, "/status?job="+started.JobName, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status models.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "FAILED", status.Status)
	assert.Contains(t, status.Reason, "fail.mp3")
}

func TestRouter_UploadAndWait(t *testing.T) {
	r := NewRouter(newTestApp(t))

	rec := do(r, http.MethodPost, "/upload", `{"audio":"UklGRg==","wait":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.JobName, "job-"))
	assert.Equal(t, "COMPLETED", resp.Status)
	assert.NotEmpty(t, resp.GetText())
}

func TestRouter_TranslateUnknownJob(t *testing.T) {
	r := NewRouter(newTestApp(t))

	rec := do(r, http.MethodPost, "/translate", `{"jobName":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
