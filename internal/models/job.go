// Package models defines the persisted job record, the job events and the
// response payloads of the HTTP handlers.
package models

// JobRecord is one row in the record store, keyed by JobName.
type JobRecord struct {
	JobName        string `dynamodbav:"JobName" json:"jobName"`
	FileName       string `dynamodbav:"FileName" json:"fileName"`
	Status         string `dynamodbav:"Status" json:"status"`
	Timestamp      int64  `dynamodbav:"Timestamp,omitempty" json:"timestamp,omitempty"`
	Provider       string `dynamodbav:"Provider,omitempty" json:"provider,omitempty"`
	ProviderRef    string `dynamodbav:"ProviderRef,omitempty" json:"providerRef,omitempty"`
	LanguageCode   string `dynamodbav:"LanguageCode,omitempty" json:"languageCode,omitempty"`
	Transcript     string `dynamodbav:"Transcript,omitempty" json:"transcript,omitempty"`
	FailureReason  string `dynamodbav:"FailureReason,omitempty" json:"failureReason,omitempty"`
	Translation    string `dynamodbav:"Translation,omitempty" json:"translation,omitempty"`
	TargetLanguage string `dynamodbav:"TargetLanguage,omitempty" json:"targetLanguage,omitempty"`
	DerivedText    string `dynamodbav:"DerivedText,omitempty" json:"derivedText,omitempty"`
	UpdatedAt      int64  `dynamodbav:"UpdatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Event types published for job lifecycle changes.
const (
	EventJobStarted   = "transcription.job.started"
	EventJobCompleted = "transcription.job.completed"
	EventJobFailed    = "transcription.job.failed"
)

// JobEvent is published when a job starts or reaches a terminal status.
type JobEvent struct {
	EventType     string `json:"eventType"`
	JobName       string `json:"jobName"`
	FileName      string `json:"fileName,omitempty"`
	Status        string `json:"status"`
	Provider      string `json:"provider,omitempty"`
	Text          string `json:"text,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}
