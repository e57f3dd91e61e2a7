package videojob

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"artisanreel/internal/adapter/repo"
	"artisanreel/internal/domain"
	"artisanreel/internal/providers/heygen"
	"artisanreel/internal/providers/video"
)

type submitCapture struct {
	mu          sync.Mutex
	backgrounds []string
}

func (c *submitCapture) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.backgrounds) == 0 {
		return ""
	}
	return c.backgrounds[len(c.backgrounds)-1]
}

func newHeyGenServer(t *testing.T, capture *submitCapture) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/video/generate") {
			var body struct {
				VideoInputs []struct {
					Background struct {
						ImageURL string `json:"image_url"`
					} `json:"background"`
				} `json:"video_inputs"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.VideoInputs) == 0 {
				t.Errorf("decode submit body: %v", err)
			} else {
				capture.mu.Lock()
				capture.backgrounds = append(capture.backgrounds, body.VideoInputs[0].Background.ImageURL)
				capture.mu.Unlock()
			}
			_, _ = io.WriteString(w, `{"data":{"video_id":"vid-1"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"status":"completed","video_url":"https://cdn.example.com/vid-1.mp4"}}`)
	}))
	t.Cleanup(server.Close)
	return server
}

func newHeyGenService(t *testing.T, baseURL string) *video.Service {
	t.Helper()
	client, err := heygen.NewClient(heygen.Options{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("heygen.NewClient: %v", err)
	}
	return video.NewService(video.ServiceOptions{
		Provider: client,
		APIKey:   "key",
		Poll:     video.PollOptions{MaxAttempts: 3, Interval: time.Millisecond},
	})
}

func TestQueuedUploadSubmitsInlineBackground(t *testing.T) {
	ctx := context.Background()
	capture := &submitCapture{}
	gen := newHeyGenService(t, newHeyGenServer(t, capture).URL)
	upload := domain.Image{Data: []byte("\x89PNG\r\n\x1a\nrest"), MIME: "image/png"}

	direct := gen.GenerateVideo(ctx, []domain.Image{upload}, "Meet the mug", "Clay Mug")
	if !direct.Success {
		t.Fatalf("direct result = %+v", direct)
	}
	syncBackground := capture.last()

	jobs := repo.NewMemoryVideoJobRepository()
	store := newStore(t)
	svc := NewService(Options{Repo: jobs, Store: store})
	job, err := svc.Enqueue(ctx, EnqueueInput{UserID: "u", ProductName: "Clay Mug", Script: "Meet the mug", Images: []domain.Image{upload}})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := NewWorker(WorkerOptions{Repo: jobs, Store: store, Generator: gen}).RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	queuedBackground := capture.last()

	if !strings.HasPrefix(queuedBackground, "data:image/png;base64,") {
		t.Fatalf("queued background = %q, want inline data uri", queuedBackground)
	}
	if queuedBackground != syncBackground {
		t.Fatalf("queued background differs from direct submission:\n%q\n%q", queuedBackground, syncBackground)
	}

	got, err := svc.Get(ctx, "u", job.ID)
	if err != nil || got.Status != domain.VideoJobSucceeded {
		t.Fatalf("job = %+v, %v", got, err)
	}
}

func TestQueuedRemoteImageKeepsURL(t *testing.T) {
	ctx := context.Background()
	capture := &submitCapture{}
	gen := newHeyGenService(t, newHeyGenServer(t, capture).URL)

	jobs := repo.NewMemoryVideoJobRepository()
	svc := NewService(Options{Repo: jobs})
	if _, err := svc.Enqueue(ctx, EnqueueInput{UserID: "u", ProductName: "Rug", Script: "s", Images: []domain.Image{{URL: "https://cdn.example.com/rug.jpg"}}}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := NewWorker(WorkerOptions{Repo: jobs, Generator: gen}).RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if got := capture.last(); got != "https://cdn.example.com/rug.jpg" {
		t.Fatalf("background = %q", got)
	}
}
