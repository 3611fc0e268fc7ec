// Command audioclient uploads a local WAV file the way the browser client
// does and polls for the transcript.
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"ai-speech-transcribe-service/internal/api/rest"
	"ai-speech-transcribe-service/internal/models"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

func main() {
	audioFile := flag.String("audio", "testdata/sample.wav", "Path to WAV file")
	server := flag.String("server", "http://localhost:8080", "API base URL")
	wait := flag.Bool("wait", false, "Ask the server to wait for the result")
	interval := flag.Duration("interval", 5*time.Second, "Status poll interval")
	timeout := flag.Duration("timeout", 10*time.Minute, "Give up after")
	flag.Parse()

	audio, err := os.ReadFile(*audioFile)
	if err != nil {
		log.Fatalf("Failed to read audio file: %v", err)
	}
	checkWAV(audio)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := rest.NewClient(*server, &http.Client{Timeout: *timeout})

	start := time.Now()
	up, err := client.Upload(ctx, audio, *wait)
	if err != nil {
		log.Fatalf("Upload failed: %v", err)
	}
	log.Printf("Uploaded %d bytes: jobName=%s", len(audio), up.JobName)

	if up.Status == "COMPLETED" || up.Status == "FAILED" {
		report(up.Status, up.GetText(), up.Reason, time.Since(start))
		return
	}

	res, err := client.WaitForResult(ctx, up.JobName, *interval, func(s *models.StatusResponse) {
		log.Printf("Transcribing... status=%s", s.Status)
	})
	if err != nil {
		log.Fatalf("Failed waiting for job: %v", err)
	}
	report(res.Status, res.GetText(), res.Reason, time.Since(start))
}

// checkWAV logs the format of a PCM WAV file and exits on anything else.
func checkWAV(audio []byte) {
	if len(audio) < wavHeaderSize {
		log.Fatal("File too short for a WAV header")
	}
	header := audio[:wavHeaderSize]
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		log.Fatal("Not a valid WAV file")
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])

	log.Printf("WAV file: format=%d channels=%d sampleRate=%d bitsPerSample=%d",
		audioFormat, numChannels, sampleRate, bitsPerSample)

	if audioFormat != 1 { // PCM
		log.Fatal("Only PCM format supported")
	}
}

func report(status, text, reason string, elapsed time.Duration) {
	if status == "FAILED" {
		log.Fatalf("Transcription failed after %v: %s", elapsed, reason)
	}
	log.Printf("Transcription %s after %v: %s", status, elapsed.Round(time.Second), text)
}
