package heygen

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"artisanreel/internal/domain"
)

// HeyGen has answered with two layouts: fields nested under "data" and the
// same fields at the top level. Both are decoded into one struct and reduced
// to a domain.GenerationJob here so nothing downstream sees the difference.
type responseFields struct {
	VideoID      string          `json:"video_id"`
	Status       string          `json:"status"`
	VideoURL     string          `json:"video_url"`
	ErrorMessage string          `json:"error_message"`
	Error        json.RawMessage `json:"error"`
}

type responseEnvelope struct {
	responseFields
	Data *responseFields `json:"data"`
}

var errUnrecognizedShape = errors.New("unrecognized response shape")

func decodeEnvelope(raw []byte) (*responseEnvelope, error) {
	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &env, nil
}

// parseSubmission extracts the job id from data.video_id or video_id.
func parseSubmission(raw []byte) (string, error) {
	env, err := decodeEnvelope(raw)
	if err != nil {
		return "", err
	}
	if env.Data != nil {
		if id := strings.TrimSpace(env.Data.VideoID); id != "" {
			return id, nil
		}
	}
	if id := strings.TrimSpace(env.VideoID); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("%w: no video id returned", errUnrecognizedShape)
}

// normalizeStatus maps either status layout onto the canonical job.
func normalizeStatus(jobID string, raw []byte) (*domain.GenerationJob, error) {
	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	fields := env.responseFields
	if env.Data != nil && strings.TrimSpace(env.Data.Status) != "" {
		fields = *env.Data
	}
	if strings.TrimSpace(fields.Status) == "" {
		return nil, fmt.Errorf("%w: no status field", errUnrecognizedShape)
	}
	job := &domain.GenerationJob{
		JobID:        firstNonEmpty(fields.VideoID, jobID),
		Status:       mapStatus(fields.Status),
		ResultURL:    strings.TrimSpace(fields.VideoURL),
		ErrorMessage: firstNonEmpty(fields.ErrorMessage, errorText(fields.Error)),
	}
	return job, nil
}

// mapStatus folds provider vocabulary into the four canonical states. Unknown
// values keep the job polling.
func mapStatus(s string) domain.GenerationStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "completed", "complete", "succeeded", "success":
		return domain.GenerationCompleted
	case "failed", "failure", "error":
		return domain.GenerationFailed
	case "pending", "waiting", "queued":
		return domain.GenerationPending
	default:
		return domain.GenerationProcessing
	}
}

// errorText accepts the error field as a string or as {"message": ...}.
func errorText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return firstNonEmpty(obj.Message, obj.Detail)
	}
	return ""
}
