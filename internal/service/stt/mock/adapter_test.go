package mock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ai-speech-transcribe-service/internal/service/job"
	"ai-speech-transcribe-service/internal/service/stt"
)

func TestAdapter_ProgressesToCompleted(t *testing.T) {
	a := New(3)
	ctx := context.Background()

	ref, err := a.StartJob(ctx, stt.JobRequest{JobName: "job-1", Key: "audio.wav"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []job.Status{job.StatusQueued, job.StatusInProgress, job.StatusCompleted}
	for i, w := range want {
		res, err := a.GetJob(ctx, ref)
		if err != nil {
			t.Fatalf("check %d: unexpected error: %v", i, err)
		}
		if res.Status != w {
			t.Errorf("check %d: expected %s, got %s", i, w, res.Status)
		}
		if w == job.StatusCompleted && res.Transcript == "" {
			t.Error("expected transcript on completion")
		}
	}
}

func TestAdapter_FailureMarker(t *testing.T) {
	a := New(1)
	ctx := context.Background()

	ref, _ := a.StartJob(ctx, stt.JobRequest{JobName: "job-1", Key: "will-fail.wav"})
	res, err := a.GetJob(ctx, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != job.StatusFailed {
		t.Errorf("expected FAILED, got %s", res.Status)
	}
	if res.FailureReason == "" {
		t.Error("expected failure reason")
	}
}

func TestAdapter_DuplicateJobName(t *testing.T) {
	a := New(1)
	ctx := context.Background()

	if _, err := a.StartJob(ctx, stt.JobRequest{JobName: "dup"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := a.StartJob(ctx, stt.JobRequest{JobName: "dup"}); err == nil {
		t.Error("expected error for duplicate job name")
	}
}

func TestAdapter_UnknownJob(t *testing.T) {
	a := New(1)

	_, err := a.GetJob(context.Background(), "nope")
	if !errors.Is(err, stt.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestAdapter_TranscriptsRotate(t *testing.T) {
	a := New(1)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < len(DefaultTranscripts); i++ {
		name := string(rune('a' + i))
		ref, _ := a.StartJob(ctx, stt.JobRequest{JobName: name})
		res, _ := a.GetJob(ctx, ref)
		seen[res.Transcript] = true
	}
	if len(seen) != len(DefaultTranscripts) {
		t.Errorf("expected %d distinct transcripts, got %d", len(DefaultTranscripts), len(seen))
	}
}

func TestAdapter_ConcurrentAccess(t *testing.T) {
	a := New(2)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "job-" + string(rune('A'+i))
			ref, err := a.StartJob(ctx, stt.JobRequest{JobName: name})
			if err != nil {
				t.Errorf("start %s: %v", name, err)
				return
			}
			for j := 0; j < 2; j++ {
				if _, err := a.GetJob(ctx, ref); err != nil {
					t.Errorf("get %s: %v", name, err)
				}
			}
		}(i)
	}
	wg.Wait()
}
