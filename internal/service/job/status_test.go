package job

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected Status
		wantErr  bool
	}{
		{"COMPLETED", StatusCompleted, false},
		{"completed", StatusCompleted, false},
		{" IN_PROGRESS ", StatusInProgress, false},
		{"QUEUED", StatusQueued, false},
		{"FAILED", StatusFailed, false},
		{"STARTED", StatusStarted, false},
		{"DONE", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownStatus) {
					t.Errorf("expected ErrUnknownStatus, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("ParseStatus(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusStarted:    false,
		StatusQueued:     false,
		StatusInProgress: false,
		StatusCompleted:  true,
		StatusFailed:     true,
	}
	for st, want := range terminal {
		if st.IsTerminal() != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", st, st.IsTerminal(), want)
		}
	}
}

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		wantErr  bool
	}{
		{StatusStarted, StatusInProgress, false},
		{StatusInProgress, StatusCompleted, false},
		{StatusQueued, StatusFailed, false},
		{StatusCompleted, StatusCompleted, false},
		{StatusCompleted, StatusInProgress, true},
		{StatusFailed, StatusCompleted, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to)
			if tt.wantErr && !errors.Is(err, ErrStatusRegression) {
				t.Errorf("expected ErrStatusRegression, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
