package videojob

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"artisanreel/internal/domain"
	"artisanreel/internal/infra"
)

const (
	providerHeyGen = "heygen"

	defaultMaxImages = 10
)

// BlobStore is the subset of storage.FileStore the queue needs.
type BlobStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
	URL(key string) string
}

// EnqueueInput is one asynchronous video request.
type EnqueueInput struct {
	UserID      string
	ProductName string
	Script      string
	Images      []domain.Image
}

type Options struct {
	Repo      domain.VideoJobRepository
	Store     BlobStore
	MaxImages int
	Logger    *infra.Logger
}

// Service accepts video requests and hands them to the worker through the
// job repository.
type Service struct {
	repo      domain.VideoJobRepository
	store     BlobStore
	maxImages int
	logger    *infra.Logger
	newID     func() string
}

func NewService(opts Options) *Service {
	max := opts.MaxImages
	if max <= 0 {
		max = defaultMaxImages
	}
	return &Service{
		repo:      opts.Repo,
		store:     opts.Store,
		maxImages: max,
		logger:    infra.LoggerOrDiscard(opts.Logger),
		newID:     uuid.NewString,
	}
}

// Enqueue stores the uploaded images and records a QUEUED job. Remote image
// URLs are kept as-is in ImageKeys.
func (s *Service) Enqueue(ctx context.Context, in EnqueueInput) (*domain.VideoJob, error) {
	in.ProductName = strings.TrimSpace(in.ProductName)
	in.Script = strings.TrimSpace(in.Script)
	switch {
	case in.UserID == "":
		return nil, domain.ErrUnauthorized
	case in.ProductName == "":
		return nil, fmt.Errorf("%w: product name is required", domain.ErrInvalidInput)
	case in.Script == "":
		return nil, fmt.Errorf("%w: script is required", domain.ErrInvalidInput)
	case len(in.Images) > s.maxImages:
		return nil, fmt.Errorf("%w: at most %d images are allowed", domain.ErrInvalidInput, s.maxImages)
	}

	job := &domain.VideoJob{
		ID:          s.newID(),
		UserID:      in.UserID,
		ProductName: in.ProductName,
		Script:      in.Script,
		Provider:    providerHeyGen,
	}
	for idx, img := range in.Images {
		if len(img.Data) == 0 {
			if u := strings.TrimSpace(img.URL); u != "" {
				job.ImageKeys = append(job.ImageKeys, u)
			}
			continue
		}
		if s.store == nil {
			return nil, fmt.Errorf("%w: image storage is not configured", domain.ErrConfigurationMissing)
		}
		key, err := s.store.Write(ctx, uploadKey(job.ID, img.MIME, idx), img.Data)
		if err != nil {
			return nil, fmt.Errorf("store image %d: %w", idx+1, err)
		}
		job.ImageKeys = append(job.ImageKeys, key)
	}

	if err := s.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create video job: %w", err)
	}
	s.logger.Info().
		Str("job_id", job.ID).
		Str("user_id", job.UserID).
		Int("images", len(job.ImageKeys)).
		Msg("videojob: queued")
	return job, nil
}

// Get returns the caller's job.
func (s *Service) Get(ctx context.Context, userID, jobID string) (*domain.VideoJob, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetForUser(ctx, jobID, userID)
}

// ImageURLs lists where the job's images can be viewed. Remote images keep
// their URL; stored uploads resolve through the blob store and are omitted
// when it has no public base URL.
func (s *Service) ImageURLs(job *domain.VideoJob) []string {
	urls := make([]string, 0, len(job.ImageKeys))
	for _, key := range job.ImageKeys {
		if isRemote(key) {
			urls = append(urls, key)
			continue
		}
		if s.store == nil {
			continue
		}
		if u := s.store.URL(key); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func uploadKey(jobID, mime string, index int) string {
	ext := extensionForMIME(mime)
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("uploads/videos/%s/image-%02d%s", jobID, index+1, ext)
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}

func isRemote(key string) bool {
	return strings.HasPrefix(key, "https://") || strings.HasPrefix(key, "http://")
}

func mimeForKey(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
