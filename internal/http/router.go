package http

import (
	"net/http"

	"ai-speech-transcribe-service/internal/api/rest"
	"ai-speech-transcribe-service/internal/app"
	"ai-speech-transcribe-service/internal/observability"
	"ai-speech-transcribe-service/internal/observability/metrics"
	"ai-speech-transcribe-service/internal/schema"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(CORS())
	r.Use(observability.Middleware(metrics.DefaultMetrics))
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if !application.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	h := rest.NewHandler(application.Service, schema.New())
	r.Post("/upload", h.Upload)
	r.Get("/start", h.Start)
	r.Get("/status", h.Status)
	r.Post("/translate", h.Translate)
	r.Post("/summarize", h.Summarize)

	return r
}

// CORS allows browser clients from any origin. Preflight requests are
// answered by the middleware and never reach the handlers.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	})
}
