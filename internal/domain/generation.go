package domain

// GenerationStatus is the canonical state of a remote generation job.
type GenerationStatus string

const (
	GenerationPending    GenerationStatus = "pending"
	GenerationProcessing GenerationStatus = "processing"
	GenerationCompleted  GenerationStatus = "completed"
	GenerationFailed     GenerationStatus = "failed"
)

// IsTerminal reports whether polling should stop.
func (s GenerationStatus) IsTerminal() bool {
	return s == GenerationCompleted || s == GenerationFailed
}

// GenerationJob is one status read of a job owned by a remote provider. The
// provider is the source of truth; nothing here is persisted.
type GenerationJob struct {
	JobID        string
	Status       GenerationStatus
	ResultURL    string
	ErrorMessage string
}
