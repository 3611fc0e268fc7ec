// Package rest exposes the transcription operations over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"ai-speech-transcribe-service/internal/awsclient"
	"ai-speech-transcribe-service/internal/models"
	"ai-speech-transcribe-service/internal/observability/logging"
	"ai-speech-transcribe-service/internal/schema"
	"ai-speech-transcribe-service/internal/service/transcription"
)

// maxBodyBytes covers the API Gateway payload limit with Base64 overhead.
const maxBodyBytes = 16 << 20

const internalErrorMessage = "internal server error"

// Service is the set of operations the handlers call.
type Service interface {
	Upload(ctx context.Context, in transcription.UploadInput) (*models.UploadResponse, error)
	StartFromFile(ctx context.Context, fileName string) (*models.StartResponse, error)
	Status(ctx context.Context, jobName string) (*models.StatusResponse, error)
	Translate(ctx context.Context, in transcription.TranslateInput) (*models.TextResponse, error)
	Summarize(ctx context.Context, jobName, instruction string) (*models.TextResponse, error)
}

// Handler serves the transcription endpoints.
type Handler struct {
	svc       Service
	validator *schema.Validator
}

// NewHandler creates a Handler.
func NewHandler(svc Service, validator *schema.Validator) *Handler {
	return &Handler{svc: svc, validator: validator}
}

// Upload handles POST /upload with a JSON body {"audio": "<base64>", "wait": bool}.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	var req models.UploadRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.svc.Upload(r.Context(), transcription.UploadInput{Audio: req.Audio, Wait: req.Wait})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Start handles GET /start?filename=.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.StartFromFile(r.Context(), r.URL.Query().Get("filename"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Status handles GET /status?job=. A FAILED job is a 200 carrying the
// failure reason.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Status(r.Context(), r.URL.Query().Get("job"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Translate handles POST /translate.
func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	var req models.TranslateRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.svc.Translate(r.Context(), transcription.TranslateInput{
		JobName:        req.JobName,
		TargetLanguage: req.TargetLanguage,
		SourceLanguage: req.SourceLanguage,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Summarize handles POST /summarize.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req models.SummarizeRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.svc.Summarize(r.Context(), req.JobName, req.Prompt)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// decode reads and validates a JSON body. Every failure wraps
// transcription.ErrInvalidInput.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return fmt.Errorf("%w: missing request body", transcription.ErrInvalidInput)
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: missing request body", transcription.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid request body: %v", transcription.ErrInvalidInput, err)
	}

	if err := h.validator.Validate(dst); err != nil {
		return fmt.Errorf("%w: %v", transcription.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := StatusFor(err)

	logger := logging.WithRequest(middleware.GetReqID(r.Context()), r.Method, r.URL.Path)
	if status >= http.StatusInternalServerError {
		evt := logger.Error().Err(err)
		if code := awsclient.ErrorCode(err); code != "" {
			evt = evt.Str("awsErrorCode", code).Bool("clientFault", awsclient.IsClientFault(err))
		}
		evt.Msg("Request failed")
	} else {
		logger.Warn().Err(err).Int("status", status).Msg("Request rejected")
	}

	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

// StatusFor maps an operation error to an HTTP status and the message shown
// to the caller. Upstream failures get a generic message.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, transcription.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, transcription.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, transcription.ErrNotReady):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
