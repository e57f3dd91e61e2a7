package domain

import (
	"context"
	"time"
)

// KeyValueStore is the storage capability accounts and sessions are built on.
// Get returns ErrNotFound for missing keys. A zero ttl means no expiry.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// PutIfAbsent stores value only when key is missing or expired and
	// reports whether it did.
	PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// VideoJobRepository persists queued video jobs.
type VideoJobRepository interface {
	Create(ctx context.Context, job *VideoJob) error
	GetForUser(ctx context.Context, jobID, userID string) (*VideoJob, error)
	// ClaimNext moves the oldest queued (or stale RUNNING) job to RUNNING
	// and returns it, or ErrNotFound when nothing is claimable.
	ClaimNext(ctx context.Context) (*VideoJob, error)
	Finish(ctx context.Context, jobID string, status VideoJobStatus, videoURL, reason, message string) error
}
