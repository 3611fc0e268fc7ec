package job

import (
	"errors"
	"fmt"
	"strings"
)

// Status is a job status value. Values mirror the transcription service's
// own enum, plus STARTED which the start-by-file handler writes before the
// provider has reported anything.
type Status string

const (
	StatusStarted    Status = "STARTED"
	StatusQueued     Status = "QUEUED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// ErrUnknownStatus is returned by ParseStatus for values outside the enum.
var ErrUnknownStatus = errors.New("unknown job status")

// ErrStatusRegression is returned when an update would move a job out of a
// terminal status.
var ErrStatusRegression = errors.New("job status cannot leave a terminal state")

// ParseStatus maps a provider or stored value onto Status. Matching is
// case-insensitive.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusStarted, StatusQueued, StatusInProgress, StatusCompleted, StatusFailed:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for COMPLETED and FAILED.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CheckTransition validates moving a record from one status to another.
// Any non-terminal status may move anywhere; a terminal status may only be
// rewritten with itself.
func CheckTransition(from, to Status) error {
	if from.IsTerminal() && from != to {
		return fmt.Errorf("%w: %s -> %s", ErrStatusRegression, from, to)
	}
	return nil
}
