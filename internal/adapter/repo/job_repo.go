package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"artisanreel/internal/domain"
	"artisanreel/internal/infra"
	"artisanreel/internal/sqlinline"
)

// StaleJobAfter is how long a RUNNING job may go without an update before
// ClaimNext hands it to another worker. It must exceed the poll budget.
const StaleJobAfter = 30 * time.Minute

// VideoJobRepositoryPG implements domain.VideoJobRepository on PostgreSQL.
type VideoJobRepositoryPG struct {
	sql        infra.SQLExecutor
	staleAfter time.Duration
}

// NewVideoJobRepository creates a repository backed by marker-tagged queries.
func NewVideoJobRepository(sql infra.SQLExecutor) *VideoJobRepositoryPG {
	return &VideoJobRepositoryPG{sql: sql, staleAfter: StaleJobAfter}
}

// WithStaleAfter overrides StaleJobAfter; non-positive values are ignored.
func (r *VideoJobRepositoryPG) WithStaleAfter(d time.Duration) *VideoJobRepositoryPG {
	if d > 0 {
		r.staleAfter = d
	}
	return r
}

// Create inserts a QUEUED job and fills in its timestamps.
func (r *VideoJobRepositoryPG) Create(ctx context.Context, job *domain.VideoJob) error {
	keys := job.ImageKeys
	if keys == nil {
		keys = []string{}
	}
	rawKeys, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("encode image keys: %w", err)
	}
	var created time.Time
	if err := r.sql.QueryRow(ctx, sqlinline.QInsertVideoJob,
		job.ID,
		job.UserID,
		job.ProductName,
		job.Script,
		rawKeys,
		job.Provider,
	).Scan(&created); err != nil {
		return err
	}
	job.Status = domain.VideoJobQueued
	job.CreatedAt = created
	job.UpdatedAt = created
	return nil
}

// GetForUser fetches a job owned by userID.
func (r *VideoJobRepositoryPG) GetForUser(ctx context.Context, jobID, userID string) (*domain.VideoJob, error) {
	return scanVideoJob(r.sql.QueryRow(ctx, sqlinline.QSelectVideoJob, jobID, userID))
}

// ClaimNext locks the oldest queued job with SKIP LOCKED so several workers
// can share the queue. RUNNING jobs untouched for staleAfter are claimed
// again; their worker is assumed dead.
func (r *VideoJobRepositoryPG) ClaimNext(ctx context.Context) (*domain.VideoJob, error) {
	return scanVideoJob(r.sql.QueryRow(ctx, sqlinline.QWorkerClaimVideoJob, r.staleAfter.Seconds()))
}

// Finish records a terminal status.
func (r *VideoJobRepositoryPG) Finish(ctx context.Context, jobID string, status domain.VideoJobStatus, videoURL, reason, message string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QFinishVideoJob, jobID, string(status), videoURL, reason, message)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanVideoJob(row pgx.Row) (*domain.VideoJob, error) {
	var (
		job     domain.VideoJob
		status  string
		rawKeys []byte
	)
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&status,
		&job.ProductName,
		&job.Script,
		&rawKeys,
		&job.Provider,
		&job.VideoURL,
		&job.ErrorReason,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job.Status = domain.VideoJobStatus(status)
	if len(rawKeys) > 0 {
		if err := json.Unmarshal(rawKeys, &job.ImageKeys); err != nil {
			return nil, fmt.Errorf("decode image keys: %w", err)
		}
	}
	return &job, nil
}

var _ domain.VideoJobRepository = (*VideoJobRepositoryPG)(nil)
