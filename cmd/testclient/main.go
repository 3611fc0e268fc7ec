// Command testclient starts a transcription job for an object already in
// the bucket and polls until it finishes.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"ai-speech-transcribe-service/internal/api/rest"
	"ai-speech-transcribe-service/internal/models"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "API base URL")
	fileName := flag.String("file", "sample.mp3", "Object key in the audio bucket")
	interval := flag.Duration("interval", 5*time.Second, "Status poll interval")
	timeout := flag.Duration("timeout", 10*time.Minute, "Give up after")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := rest.NewClient(*server, nil)

	started, err := client.Start(ctx, *fileName)
	if err != nil {
		log.Fatalf("failed to start job: %v", err)
	}
	log.Printf("%s: job_name=%s", started.Message, started.JobName)

	res, err := client.WaitForResult(ctx, started.JobName, *interval, func(s *models.StatusResponse) {
		log.Printf("status=%s", s.Status)
	})
	if err != nil {
		log.Fatalf("failed waiting for job: %v", err)
	}

	if res.Status == "FAILED" {
		log.Fatalf("job failed: %s", res.Reason)
	}
	log.Printf("transcript: %s", res.GetText())
}
