package domain

import "time"

// VideoJobStatus enumerates the lifecycle of a queued video job.
type VideoJobStatus string

const (
	VideoJobQueued    VideoJobStatus = "QUEUED"
	VideoJobRunning   VideoJobStatus = "RUNNING"
	VideoJobSucceeded VideoJobStatus = "SUCCEEDED"
	VideoJobFailed    VideoJobStatus = "FAILED"
)

// IsTerminal reports whether no further transitions are expected.
func (s VideoJobStatus) IsTerminal() bool {
	return s == VideoJobSucceeded || s == VideoJobFailed
}

// VideoJob is a queued request to render a promotional video. ImageKeys point
// into the file store; the remote provider's own job id never leaves the
// worker.
type VideoJob struct {
	ID           string
	UserID       string
	Status       VideoJobStatus
	ProductName  string
	Script       string
	ImageKeys    []string
	Provider     string
	VideoURL     string
	ErrorReason  string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
