package videojob

import (
	"context"
	"errors"
	"time"

	"artisanreel/internal/domain"
	"artisanreel/internal/infra"
	"artisanreel/internal/providers/video"
)

const (
	defaultIdleInterval = 2 * time.Second
	finishTimeout       = 10 * time.Second

	reasonGeneric = "error"
)

type WorkerOptions struct {
	Repo         domain.VideoJobRepository
	Store        BlobStore
	Generator    video.Generator
	IdleInterval time.Duration
	Logger       *infra.Logger
}

// Worker drains the video queue one job at a time. Several workers may share
// a PostgreSQL-backed queue.
type Worker struct {
	repo      domain.VideoJobRepository
	store     BlobStore
	generator video.Generator
	idle      time.Duration
	logger    *infra.Logger
}

func NewWorker(opts WorkerOptions) *Worker {
	idle := opts.IdleInterval
	if idle <= 0 {
		idle = defaultIdleInterval
	}
	return &Worker{
		repo:      opts.Repo,
		store:     opts.Store,
		generator: opts.Generator,
		idle:      idle,
		logger:    infra.LoggerOrDiscard(opts.Logger),
	}
}

// Run processes jobs until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Msg("videojob: worker started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		processed, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("videojob: failed to claim job")
		}
		if processed {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.idle):
		}
	}
}

// RunOnce claims and processes at most one job. It reports whether a job was
// claimed.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.repo.ClaimNext(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	w.handleJob(ctx, job)
	return true, nil
}

func (w *Worker) handleJob(ctx context.Context, job *domain.VideoJob) {
	log := w.logger.With().Str("job_id", job.ID).Str("user_id", job.UserID).Logger()
	log.Info().Msg("videojob: picked job")

	images := w.loadImages(ctx, job)
	res := w.generator.GenerateVideo(ctx, images, job.Script, job.ProductName)

	status := domain.VideoJobSucceeded
	var reason, message string
	if !res.Success {
		status = domain.VideoJobFailed
		reason, message = failureFields(res)
		log.Warn().Str("reason", reason).Str("message", message).Msg("videojob: job failed")
	} else {
		log.Info().Bool("placeholder", res.Placeholder).Msg("videojob: job succeeded")
	}

	// The job is already RUNNING; record the outcome even when ctx is done.
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()
	if err := w.repo.Finish(finishCtx, job.ID, status, res.VideoURL, reason, message); err != nil {
		log.Error().Err(err).Msg("videojob: update status failed")
	}
}

func (w *Worker) loadImages(ctx context.Context, job *domain.VideoJob) []domain.Image {
	if len(job.ImageKeys) == 0 {
		return nil
	}
	images := make([]domain.Image, 0, len(job.ImageKeys))
	for _, key := range job.ImageKeys {
		if isRemote(key) {
			images = append(images, domain.Image{URL: key})
			continue
		}
		if w.store == nil {
			continue
		}
		data, err := w.store.Read(ctx, key)
		if err != nil {
			w.logger.Warn().Err(err).Str("job_id", job.ID).Str("key", key).Msg("videojob: image unavailable")
			continue
		}
		// Stored uploads travel inline; the public store URL may not be
		// reachable from the provider.
		images = append(images, domain.Image{Data: data, MIME: mimeForKey(key)})
	}
	return images
}

func failureFields(res video.VideoResult) (string, string) {
	if res.Failure == nil {
		return reasonGeneric, res.Error
	}
	return string(res.Failure.Reason), res.Failure.Message
}
