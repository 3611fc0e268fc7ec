package job

import (
	"context"
	"errors"
	"time"

	"ai-speech-transcribe-service/internal/observability/metrics"
)

// ErrPollTimeout is returned when the job did not reach a terminal status
// within the poller's timeout. The last observed status is returned with it.
var ErrPollTimeout = errors.New("timed out waiting for job to finish")

// CheckFunc queries the current status of a job.
type CheckFunc func(ctx context.Context) (Status, error)

// Poller repeatedly runs a CheckFunc at a fixed interval until the job is
// terminal, the timeout elapses or the context is cancelled.
type Poller struct {
	Interval time.Duration
	Timeout  time.Duration
	metrics  *metrics.Metrics
}

// NewPoller creates a poller. A zero timeout means the context alone bounds
// the wait.
func NewPoller(interval, timeout time.Duration) *Poller {
	return &Poller{
		Interval: interval,
		Timeout:  timeout,
		metrics:  metrics.DefaultMetrics,
	}
}

// Wait runs check immediately and then once per interval. Errors from check
// end the wait.
func (p *Poller) Wait(parent context.Context, check CheckFunc) (Status, error) {
	ctx := parent
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	var last Status
	for {
		p.metrics.RecordPoll()
		st, err := check(ctx)
		if err != nil {
			if ctx.Err() != nil && parent.Err() == nil {
				p.metrics.RecordPollTimeout()
				return last, ErrPollTimeout
			}
			return last, err
		}
		last = st
		if st.IsTerminal() {
			return st, nil
		}

		select {
		case <-ctx.Done():
			if parent.Err() == nil {
				p.metrics.RecordPollTimeout()
				return last, ErrPollTimeout
			}
			return last, parent.Err()
		case <-ticker.C:
		}
	}
}
