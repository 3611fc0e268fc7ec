package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-speech-transcribe-service/internal/models"
)

func TestClient_UploadAndWait(t *testing.T) {
	var checks atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload":
			var req models.UploadRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "aGVsbG8=", req.Audio)
			writeJSON(w, http.StatusOK, models.UploadResponse{JobName: "job-1"})
		case "/status":
			assert.Equal(t, "job-1", r.URL.Query().Get("job"))
			if checks.Add(1) < 3 {
				writeJSON(w, http.StatusOK, models.StatusResponse{Status: "IN_PROGRESS"})
				return
			}
			writeJSON(w, http.StatusOK, models.StatusResponse{Status: "COMPLETED", Text: strPtr("hello")})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", nil)
	ctx := context.Background()

	up, err := c.Upload(ctx, []byte("hello"), false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", up.JobName)

	var seen []string
	res, err := c.WaitForResult(ctx, up.JobName, time.Millisecond, func(s *models.StatusResponse) {
		seen = append(seen, s.Status)
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", res.GetText())
	assert.Equal(t, []string{"IN_PROGRESS", "IN_PROGRESS", "COMPLETED"}, seen)
}

func TestClient_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid input: missing filename"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Start(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing filename")
	assert.Contains(t, err.Error(), "400")
}
