// Command lambda serves the HTTP API from AWS Lambda behind API Gateway.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"ai-speech-transcribe-service/internal/app"
	"ai-speech-transcribe-service/internal/config"
	httpapi "ai-speech-transcribe-service/internal/http"
	"ai-speech-transcribe-service/internal/observability/logging"
)

func main() {
	cfg := config.Load()

	logging.Init(logging.Config{
		Level:   cfg.Observability.LogLevel,
		Format:  "json",
		Service: "ai-speech-transcribe-service",
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// clients are built once per execution environment and reused across
	// invocations
	application, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	adapter := httpadapter.New(httpapi.NewRouter(application))
	lambda.Start(adapter.ProxyWithContext)
}
