package videojob

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"artisanreel/internal/adapter/repo"
	"artisanreel/internal/domain"
	"artisanreel/internal/providers/video"
	"artisanreel/internal/storage"
)

type recordingGenerator struct {
	mu     sync.Mutex
	calls  int
	images []domain.Image
	script string
	name   string
	result video.VideoResult
}

func (g *recordingGenerator) GenerateVideo(ctx context.Context, images []domain.Image, script, productName string) video.VideoResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.images = images
	g.script = script
	g.name = productName
	return g.result
}

func newStore(t *testing.T) *storage.FileStore {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir(), "https://media.example.com/files")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return store
}

func TestEnqueueValidates(t *testing.T) {
	svc := NewService(Options{Repo: repo.NewMemoryVideoJobRepository(), MaxImages: 1})
	ctx := context.Background()

	cases := []struct {
		in   EnqueueInput
		want error
	}{
		{EnqueueInput{ProductName: "p", Script: "s"}, domain.ErrUnauthorized},
		{EnqueueInput{UserID: "u", Script: "s"}, domain.ErrInvalidInput},
		{EnqueueInput{UserID: "u", ProductName: "p", Script: "  "}, domain.ErrInvalidInput},
		{EnqueueInput{UserID: "u", ProductName: "p", Script: "s", Images: make([]domain.Image, 2)}, domain.ErrInvalidInput},
		{EnqueueInput{UserID: "u", ProductName: "p", Script: "s", Images: []domain.Image{{Data: []byte("x")}}}, domain.ErrConfigurationMissing},
	}
	for i, tc := range cases {
		if _, err := svc.Enqueue(ctx, tc.in); !errors.Is(err, tc.want) {
			t.Errorf("case %d: err = %v, want %v", i, err, tc.want)
		}
	}
}

func TestEnqueueStoresImagesAndWorkerCompletes(t *testing.T) {
	ctx := context.Background()
	jobs := repo.NewMemoryVideoJobRepository()
	store := newStore(t)
	svc := NewService(Options{Repo: jobs, Store: store})

	job, err := svc.Enqueue(ctx, EnqueueInput{
		UserID:      "user-1",
		ProductName: "Clay Mug",
		Script:      "Meet the mug",
		Images: []domain.Image{
			{Data: []byte("png-bytes"), MIME: "image/png"},
			{URL: "https://elsewhere/mug.jpg"},
			{Data: []byte("jpg-bytes"), MIME: "image/jpeg"},
		},
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if job.Status != domain.VideoJobQueued || len(job.ImageKeys) != 3 {
		t.Fatalf("job = %+v", job)
	}
	if job.ImageKeys[0] != "uploads/videos/"+job.ID+"/image-01.png" {
		t.Fatalf("key = %q", job.ImageKeys[0])
	}
	if job.ImageKeys[1] != "https://elsewhere/mug.jpg" {
		t.Fatalf("remote key = %q", job.ImageKeys[1])
	}

	gen := &recordingGenerator{result: video.VideoResult{Success: true, VideoURL: "https://cdn.example.com/v.mp4"}}
	worker := NewWorker(WorkerOptions{Repo: jobs, Store: store, Generator: gen})
	processed, err := worker.RunOnce(ctx)
	if err != nil || !processed {
		t.Fatalf("RunOnce = %v, %v", processed, err)
	}
	if gen.script != "Meet the mug" || gen.name != "Clay Mug" || len(gen.images) != 3 {
		t.Fatalf("generator saw script=%q name=%q images=%d", gen.script, gen.name, len(gen.images))
	}
	if string(gen.images[0].Data) != "png-bytes" || gen.images[0].MIME != "image/png" || gen.images[0].URL != "" {
		t.Fatalf("image = %+v", gen.images[0])
	}
	if gen.images[1].URL != "https://elsewhere/mug.jpg" || len(gen.images[1].Data) != 0 {
		t.Fatalf("remote image = %+v", gen.images[1])
	}
	if gen.images[2].URL != "" || string(gen.images[2].Data) != "jpg-bytes" || gen.images[2].MIME != "image/jpeg" {
		t.Fatalf("stored image = %+v", gen.images[2])
	}

	got, err := svc.Get(ctx, "user-1", job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	urls := svc.ImageURLs(got)
	wantURLs := []string{
		"https://media.example.com/files/uploads/videos/" + job.ID + "/image-01.png",
		"https://elsewhere/mug.jpg",
		"https://media.example.com/files/uploads/videos/" + job.ID + "/image-03.jpg",
	}
	if strings.Join(urls, ",") != strings.Join(wantURLs, ",") {
		t.Fatalf("ImageURLs = %v", urls)
	}
	if got.Status != domain.VideoJobSucceeded || got.VideoURL != "https://cdn.example.com/v.mp4" {
		t.Fatalf("job = %+v", got)
	}

	processed, err = worker.RunOnce(ctx)
	if err != nil || processed {
		t.Fatalf("empty queue RunOnce = %v, %v", processed, err)
	}
}

func TestWorkerRecordsFailureReason(t *testing.T) {
	ctx := context.Background()
	jobs := repo.NewMemoryVideoJobRepository()
	svc := NewService(Options{Repo: jobs})
	job, err := svc.Enqueue(ctx, EnqueueInput{UserID: "u", ProductName: "Rug", Script: "s"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	failure := &video.Failure{Reason: video.ReasonJobFailed, Message: "out of credits"}
	gen := &recordingGenerator{result: video.VideoResult{Error: failure.Error(), Failure: failure}}
	if _, err := NewWorker(WorkerOptions{Repo: jobs, Generator: gen}).RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	got, _ := svc.Get(ctx, "u", job.ID)
	if got.Status != domain.VideoJobFailed || got.ErrorReason != "job-failed" || got.ErrorMessage != "out of credits" {
		t.Fatalf("job = %+v", got)
	}
}

func TestWorkerFinishesAfterCancellation(t *testing.T) {
	jobs := repo.NewMemoryVideoJobRepository()
	svc := NewService(Options{Repo: jobs})
	job, _ := svc.Enqueue(context.Background(), EnqueueInput{UserID: "u", ProductName: "Rug", Script: "s"})

	ctx, cancel := context.WithCancel(context.Background())
	gen := &cancelingGenerator{cancel: cancel}
	if _, err := NewWorker(WorkerOptions{Repo: jobs, Generator: gen}).RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	got, _ := svc.Get(context.Background(), "u", job.ID)
	if got.Status != domain.VideoJobFailed || got.ErrorReason != "canceled" {
		t.Fatalf("job = %+v", got)
	}
}

type cancelingGenerator struct {
	cancel context.CancelFunc
}

func (g *cancelingGenerator) GenerateVideo(ctx context.Context, images []domain.Image, script, productName string) video.VideoResult {
	g.cancel()
	f := &video.Failure{Reason: video.ReasonCanceled, Cause: context.Canceled}
	return video.VideoResult{Error: f.Error(), Failure: f}
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	worker := NewWorker(WorkerOptions{
		Repo:         repo.NewMemoryVideoJobRepository(),
		Generator:    &recordingGenerator{},
		IdleInterval: time.Millisecond,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := worker.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run err = %v", err)
	}
}

func TestGetRejectsMalformedID(t *testing.T) {
	svc := NewService(Options{Repo: repo.NewMemoryVideoJobRepository()})
	if _, err := svc.Get(context.Background(), "u", "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}
