package repo

import (
	"context"
	"sync"
	"time"

	"artisanreel/internal/domain"
)

// MemoryVideoJobRepository keeps jobs in process. It serves single-process
// deployments where the API runs the worker in-process.
type MemoryVideoJobRepository struct {
	mu         sync.Mutex
	jobs       map[string]*domain.VideoJob
	now        func() time.Time
	staleAfter time.Duration
}

func NewMemoryVideoJobRepository() *MemoryVideoJobRepository {
	return &MemoryVideoJobRepository{
		jobs:       make(map[string]*domain.VideoJob),
		now:        time.Now,
		staleAfter: StaleJobAfter,
	}
}

func (r *MemoryVideoJobRepository) Create(ctx context.Context, job *domain.VideoJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return domain.ErrConflict
	}
	now := r.now().UTC()
	job.Status = domain.VideoJobQueued
	job.CreatedAt = now
	job.UpdatedAt = now
	r.jobs[job.ID] = cloneJob(job)
	return nil
}

func (r *MemoryVideoJobRepository) GetForUser(ctx context.Context, jobID, userID string) (*domain.VideoJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok || job.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return cloneJob(job), nil
}

func (r *MemoryVideoJobRepository) ClaimNext(ctx context.Context) (*domain.VideoJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now().UTC()
	var next *domain.VideoJob
	for _, job := range r.jobs {
		if !claimable(job, now, r.staleAfter) {
			continue
		}
		if next == nil || job.CreatedAt.Before(next.CreatedAt) ||
			(job.CreatedAt.Equal(next.CreatedAt) && job.ID < next.ID) {
			next = job
		}
	}
	if next == nil {
		return nil, domain.ErrNotFound
	}
	next.Status = domain.VideoJobRunning
	next.UpdatedAt = now
	return cloneJob(next), nil
}

func claimable(job *domain.VideoJob, now time.Time, staleAfter time.Duration) bool {
	switch job.Status {
	case domain.VideoJobQueued:
		return true
	case domain.VideoJobRunning:
		return job.UpdatedAt.Before(now.Add(-staleAfter))
	}
	return false
}

func (r *MemoryVideoJobRepository) Finish(ctx context.Context, jobID string, status domain.VideoJobStatus, videoURL, reason, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = status
	job.VideoURL = videoURL
	job.ErrorReason = reason
	job.ErrorMessage = message
	job.UpdatedAt = r.now().UTC()
	return nil
}

func cloneJob(job *domain.VideoJob) *domain.VideoJob {
	out := *job
	out.ImageKeys = append([]string(nil), job.ImageKeys...)
	return &out
}

var _ domain.VideoJobRepository = (*MemoryVideoJobRepository)(nil)
