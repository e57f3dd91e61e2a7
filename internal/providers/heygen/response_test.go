package heygen

import (
	"errors"
	"testing"

	"artisanreel/internal/domain"
)

func TestNormalizeStatusShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  domain.GenerationStatus
		url     string
		message string
	}{
		{
			name:   "flat completed",
			body:   `{"status":"completed","video_url":"X"}`,
			status: domain.GenerationCompleted,
			url:    "X",
		},
		{
			name:   "nested completed",
			body:   `{"data":{"status":"completed","video_url":"X"}}`,
			status: domain.GenerationCompleted,
			url:    "X",
		},
		{
			name:    "nested failed with message",
			body:    `{"data":{"status":"failed","error_message":"out of credits"}}`,
			status:  domain.GenerationFailed,
			message: "out of credits",
		},
		{
			name:    "flat failed with error object",
			body:    `{"status":"failed","error":{"code":"40012","message":"avatar not found"}}`,
			status:  domain.GenerationFailed,
			message: "avatar not found",
		},
		{
			name:   "pending",
			body:   `{"data":{"status":"pending"}}`,
			status: domain.GenerationPending,
		},
		{
			name:   "waiting maps to pending",
			body:   `{"status":"waiting"}`,
			status: domain.GenerationPending,
		},
		{
			name:   "unknown keeps processing",
			body:   `{"status":"rendering"}`,
			status: domain.GenerationProcessing,
		},
		{
			name:   "empty data falls back to flat",
			body:   `{"data":{},"status":"processing"}`,
			status: domain.GenerationProcessing,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			job, err := normalizeStatus("vid-1", []byte(tc.body))
			if err != nil {
				t.Fatalf("normalizeStatus: %v", err)
			}
			if job.Status != tc.status {
				t.Fatalf("Status = %q, want %q", job.Status, tc.status)
			}
			if job.ResultURL != tc.url {
				t.Fatalf("ResultURL = %q, want %q", job.ResultURL, tc.url)
			}
			if job.ErrorMessage != tc.message {
				t.Fatalf("ErrorMessage = %q, want %q", job.ErrorMessage, tc.message)
			}
		})
	}
}

func TestNormalizeStatusRejectsUnknownShape(t *testing.T) {
	if _, err := normalizeStatus("vid-1", []byte(`{"data":{"video_url":"X"}}`)); !errors.Is(err, errUnrecognizedShape) {
		t.Fatalf("error = %v, want errUnrecognizedShape", err)
	}
	if _, err := normalizeStatus("vid-1", []byte(`not json`)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestParseSubmissionPrefersNested(t *testing.T) {
	id, err := parseSubmission([]byte(`{"video_id":"flat","data":{"video_id":"nested"}}`))
	if err != nil {
		t.Fatalf("parseSubmission: %v", err)
	}
	if id != "nested" {
		t.Fatalf("id = %q, want nested", id)
	}
}
