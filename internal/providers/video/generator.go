package video

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"artisanreel/internal/domain"
	"artisanreel/internal/infra"
	"artisanreel/internal/infra/credentials"
	"artisanreel/internal/providers/heygen"
)

const placeholderBaseURL = "https://example.com/generated-videos/"

// VideoResult is the caller-facing outcome of GenerateVideo.
type VideoResult struct {
	Success     bool     `json:"success"`
	VideoURL    string   `json:"video_url,omitempty"`
	Error       string   `json:"error,omitempty"`
	Placeholder bool     `json:"placeholder,omitempty"`
	JobID       string   `json:"-"`
	Failure     *Failure `json:"-"`
}

// Generator produces a promotional video for a product.
type Generator interface {
	GenerateVideo(ctx context.Context, images []domain.Image, script, productName string) VideoResult
}

// Provider is the remote job API: one submission call and one status read.
type Provider interface {
	StatusFetcher
	Submit(ctx context.Context, apiKey string, req heygen.SubmitRequest) (string, error)
}

// KeyResolver yields the provider key at call time.
type KeyResolver interface {
	Resolve(ctx context.Context, provider, configured string) (string, error)
}

type ServiceOptions struct {
	Provider    Provider
	APIKey      string
	Credentials KeyResolver
	Poll        PollOptions
	Logger      *infra.Logger
}

// Service runs the Submitted -> Polling -> Terminal workflow against Provider.
type Service struct {
	provider    Provider
	apiKey      string
	credentials KeyResolver
	poller      *Poller
	pollOpts    PollOptions
	logger      *infra.Logger
	tracer      trace.Tracer
}

func NewService(opts ServiceOptions) *Service {
	logger := infra.LoggerOrDiscard(opts.Logger)
	return &Service{
		provider:    opts.Provider,
		apiKey:      strings.TrimSpace(opts.APIKey),
		credentials: opts.Credentials,
		poller:      NewPoller(opts.Provider, logger),
		pollOpts:    opts.Poll.withDefaults(),
		logger:      logger,
		tracer:      otel.Tracer("artisanreel/providers/video"),
	}
}

// GenerateVideo submits a render job and waits for it. Without a key it
// returns a placeholder URL and makes no network call.
func (s *Service) GenerateVideo(ctx context.Context, images []domain.Image, script, productName string) VideoResult {
	ctx, span := s.tracer.Start(ctx, "video.generate", trace.WithAttributes(
		attribute.String("video.product", productName),
		attribute.Int("video.images", len(images)),
	))
	defer span.End()

	apiKey := s.resolveKey(ctx)
	if apiKey == "" || s.provider == nil {
		s.logger.Info().Str("product", productName).Msg("video: no provider credentials, returning placeholder")
		span.SetAttributes(attribute.Bool("video.placeholder", true))
		return VideoResult{Success: true, VideoURL: PlaceholderURL(productName), Placeholder: true}
	}

	sub, failure := s.submit(ctx, apiKey, heygen.SubmitRequest{
		Script:        script,
		BackgroundURL: backgroundFor(images),
	})
	if failure != nil {
		span.SetStatus(codes.Error, failure.Error())
		return failed(failure, "")
	}

	terminal := s.poller.Poll(ctx, sub, apiKey, s.pollOpts)
	log := s.logger.With().Str("job_id", sub.JobID).Int("attempts", terminal.Attempts).Dur("elapsed", terminal.Elapsed).Logger()
	if !terminal.OK() {
		log.Warn().Err(terminal.Failure.Cause).Str("reason", string(terminal.Failure.Reason)).Msg("video: generation failed")
		span.SetStatus(codes.Error, terminal.Failure.Error())
		return failed(terminal.Failure, sub.JobID)
	}
	log.Info().Msg("video: generation completed")
	return VideoResult{Success: true, VideoURL: terminal.ResultURL, JobID: sub.JobID}
}

func (s *Service) submit(ctx context.Context, apiKey string, req heygen.SubmitRequest) (Submitted, *Failure) {
	jobID, err := s.provider.Submit(ctx, apiKey, req)
	if err != nil {
		if ctx.Err() != nil {
			return Submitted{}, &Failure{Reason: ReasonCanceled, Cause: ctx.Err()}
		}
		if errors.Is(err, heygen.ErrMissingAPIKey) {
			return Submitted{}, &Failure{Reason: ReasonConfiguration, Cause: err}
		}
		s.logger.Error().Err(err).Msg("video: submission failed")
		return Submitted{}, &Failure{Reason: ReasonSubmission, Message: err.Error(), Cause: err}
	}
	return Submitted{JobID: jobID, SubmittedAt: time.Now()}, nil
}

func (s *Service) resolveKey(ctx context.Context) string {
	if s.credentials == nil {
		return s.apiKey
	}
	key, err := s.credentials.Resolve(ctx, credentials.ProviderHeyGen, s.apiKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("video: credential lookup failed")
		return s.apiKey
	}
	return strings.TrimSpace(key)
}

func failed(f *Failure, jobID string) VideoResult {
	return VideoResult{Success: false, Error: f.Error(), JobID: jobID, Failure: f}
}

func backgroundFor(images []domain.Image) string {
	if len(images) == 0 {
		return ""
	}
	if u := strings.TrimSpace(images[0].URL); u != "" {
		return u
	}
	return images[0].DataURI()
}

// PlaceholderURL returns a stable https URL derived from the product name.
func PlaceholderURL(productName string) string {
	return placeholderBaseURL + slugify(productName) + ".mp4"
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "product"
	}
	return out
}
