package models

// UploadRequest is the body of POST /upload.
type UploadRequest struct {
	Audio string `json:"audio" validate:"required,base64"`
	Wait  bool   `json:"wait,omitempty"`
}

// UploadResponse is returned by POST /upload. Status and Text are only set
// when the caller asked to wait for the job. Text is non-nil for every
// COMPLETED job, including an empty transcript.
type UploadResponse struct {
	JobName string  `json:"jobName"`
	Status  string  `json:"status,omitempty"`
	Text    *string `json:"text,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}

// GetText returns the transcript or "".
func (r *UploadResponse) GetText() string {
	if r == nil || r.Text == nil {
		return ""
	}
	return *r.Text
}

// StartResponse is returned by GET /start.
type StartResponse struct {
	Message string `json:"message"`
	JobName string `json:"job_name"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Status string  `json:"status"`
	Text   *string `json:"text,omitempty"`
	Reason string  `json:"reason,omitempty"`
}

// GetText returns the transcript or "".
func (r *StatusResponse) GetText() string {
	if r == nil || r.Text == nil {
		return ""
	}
	return *r.Text
}

// TranslateRequest is the body of POST /translate.
type TranslateRequest struct {
	JobName        string `json:"jobName" validate:"required"`
	TargetLanguage string `json:"targetLanguage" validate:"omitempty,min=2,max=10"`
	SourceLanguage string `json:"sourceLanguage" validate:"omitempty,min=2,max=10"`
}

// SummarizeRequest is the body of POST /summarize.
type SummarizeRequest struct {
	JobName string `json:"jobName" validate:"required"`
	Prompt  string `json:"prompt" validate:"omitempty,max=4000"`
}

// TextResponse is returned by the translate and summarize handlers.
type TextResponse struct {
	Status         string `json:"status"`
	JobName        string `json:"jobName"`
	TargetLanguage string `json:"targetLanguage,omitempty"`
	Text           string `json:"text"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
