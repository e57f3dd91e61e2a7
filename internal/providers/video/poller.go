package video

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"artisanreel/internal/domain"
	"artisanreel/internal/infra"
)

const (
	DefaultMaxAttempts  = 60
	DefaultPollInterval = 10 * time.Second
)

// Reason classifies why a video could not be produced.
type Reason string

const (
	ReasonJobFailed     Reason = "job-failed"
	ReasonTimeout       Reason = "timeout"
	ReasonQueryError    Reason = "query-error"
	ReasonSubmission    Reason = "submission-error"
	ReasonConfiguration Reason = "configuration-missing"
	ReasonCanceled      Reason = "canceled"
)

var (
	ErrJobFailed  = errors.New(string(ReasonJobFailed))
	ErrTimeout    = errors.New(string(ReasonTimeout))
	ErrQuery      = errors.New(string(ReasonQueryError))
	ErrSubmission = errors.New(string(ReasonSubmission))
	ErrCanceled   = errors.New(string(ReasonCanceled))
)

// Failure is the error half of a terminal result. Only job-failed carries the
// remote message in its text; Cause keeps the underlying error for logs.
type Failure struct {
	Reason  Reason
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Reason == ReasonJobFailed {
		return fmt.Sprintf("%s:%s", f.Reason, f.Message)
	}
	return string(f.Reason)
}

// Is lets callers match a Failure against the Err* sentinels.
func (f *Failure) Is(target error) bool {
	switch f.Reason {
	case ReasonJobFailed:
		return target == ErrJobFailed
	case ReasonTimeout:
		return target == ErrTimeout
	case ReasonQueryError:
		return target == ErrQuery
	case ReasonSubmission:
		return target == ErrSubmission
	case ReasonCanceled:
		return target == ErrCanceled
	case ReasonConfiguration:
		return target == domain.ErrConfigurationMissing
	}
	return false
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// Submitted is the state after the provider accepted a job.
type Submitted struct {
	JobID       string
	SubmittedAt time.Time
}

// Terminal is the outcome of polling: either ResultURL is set or Failure is.
type Terminal struct {
	JobID     string
	ResultURL string
	Failure   *Failure
	Attempts  int
	Elapsed   time.Duration
}

// OK reports whether the job completed with a result.
func (t Terminal) OK() bool {
	return t.Failure == nil
}

// StatusFetcher performs a single status read for a job.
type StatusFetcher interface {
	Status(ctx context.Context, apiKey, jobID string) (*domain.GenerationJob, error)
}

// PollOptions bounds the polling loop. Zero values take the defaults.
type PollOptions struct {
	MaxAttempts int
	Interval    time.Duration
}

func (o PollOptions) withDefaults() PollOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	return o
}

// Poller waits for one remote job to reach a terminal status. A Poller holds
// no per-job state, so one instance may serve concurrent callers.
type Poller struct {
	fetcher StatusFetcher
	logger  *infra.Logger
	tracer  trace.Tracer
	wait    func(ctx context.Context, d time.Duration) error
}

func NewPoller(fetcher StatusFetcher, logger *infra.Logger) *Poller {
	return &Poller{
		fetcher: fetcher,
		logger:  infra.LoggerOrDiscard(logger),
		tracer:  otel.Tracer("artisanreel/providers/video"),
		wait:    sleepContext,
	}
}

// Poll waits Interval, queries once, and repeats until the job completes,
// fails, or MaxAttempts queries have been made. Queries never overlap. A
// failed query only ends the loop when it is the last attempt.
func (p *Poller) Poll(ctx context.Context, sub Submitted, apiKey string, opts PollOptions) Terminal {
	opts = opts.withDefaults()
	start := time.Now()
	result := Terminal{JobID: sub.JobID}
	if sub.JobID == "" {
		result.Failure = &Failure{Reason: ReasonQueryError, Message: "job id is required"}
		return result
	}

	ctx, span := p.tracer.Start(ctx, "video.poll", trace.WithAttributes(
		attribute.String("video.job_id", sub.JobID),
		attribute.Int("video.max_attempts", opts.MaxAttempts),
	))
	defer span.End()

	log := p.logger.With().Str("job_id", sub.JobID).Logger()
	finish := func(attempts int) Terminal {
		result.Attempts = attempts
		result.Elapsed = time.Since(start)
		span.SetAttributes(attribute.Int("video.attempts", attempts))
		if result.Failure != nil {
			span.SetAttributes(attribute.String("video.failure", string(result.Failure.Reason)))
		}
		return result
	}

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			result.Failure = &Failure{Reason: ReasonCanceled, Cause: err}
			return finish(attempt - 1)
		}
		if err := p.wait(ctx, opts.Interval); err != nil {
			result.Failure = &Failure{Reason: ReasonCanceled, Cause: err}
			return finish(attempt - 1)
		}

		job, err := p.fetcher.Status(ctx, apiKey, sub.JobID)
		if err != nil {
			if ctx.Err() != nil {
				result.Failure = &Failure{Reason: ReasonCanceled, Cause: ctx.Err()}
				return finish(attempt)
			}
			log.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", opts.MaxAttempts).Msg("video: status query failed")
			if attempt == opts.MaxAttempts {
				result.Failure = &Failure{Reason: ReasonQueryError, Message: err.Error(), Cause: err}
				return finish(attempt)
			}
			continue
		}

		log.Debug().Int("attempt", attempt).Str("status", string(job.Status)).Msg("video: status checked")
		switch job.Status {
		case domain.GenerationCompleted:
			result.ResultURL = job.ResultURL
			return finish(attempt)
		case domain.GenerationFailed:
			msg := job.ErrorMessage
			if msg == "" {
				msg = "Unknown error"
			}
			result.Failure = &Failure{Reason: ReasonJobFailed, Message: msg}
			return finish(attempt)
		}
	}

	result.Failure = &Failure{Reason: ReasonTimeout}
	return finish(opts.MaxAttempts)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
