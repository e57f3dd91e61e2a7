package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"artisanreel/internal/adapter/repo"
	"artisanreel/internal/auth"
	"artisanreel/internal/domain"
	"artisanreel/internal/middleware"
	"artisanreel/internal/providers/content"
	"artisanreel/internal/providers/video"
	"artisanreel/internal/videojob"
)

const testSecret = "handler-test-secret"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeVideo struct {
	mu     sync.Mutex
	images []domain.Image
	script string
	name   string
	result video.VideoResult
}

func (f *fakeVideo) GenerateVideo(ctx context.Context, images []domain.Image, script, productName string) video.VideoResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images, f.script, f.name = images, script, productName
	return f.result
}

func newTestApp(t *testing.T, gen video.Generator) *App {
	t.Helper()
	svc, err := auth.NewService(auth.Options{
		Store:      auth.NewMemoryStore(),
		JWTSecret:  testSecret,
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}
	return &App{
		Logger:  zerolog.New(io.Discard),
		Auth:    svc,
		Content: content.NewStaticGenerator(),
		Video:   gen,
		Jobs:    videojob.NewService(videojob.Options{Repo: repo.NewMemoryVideoJobRepository()}),
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, body string, ctx context.Context) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if ctx != nil {
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t, &fakeVideo{})

	rec := postJSON(t, app.AuthSignUp, `{"name":"Asha","email":"Asha@Example.com","password":"Secret123","confirm_password":"Secret123","user_type":"artisan"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d body=%s", rec.Code, rec.Body)
	}
	state := decode[authState](t, rec)
	if !state.Success || state.User == nil || state.User.Email != "asha@example.com" {
		t.Fatalf("signup state = %+v", state)
	}

	rec = postJSON(t, app.AuthSignIn, `{"email":"asha@example.com","password":"Secret123"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("signin status = %d body=%s", rec.Code, rec.Body)
	}
	state = decode[authState](t, rec)
	if state.Token == "" || state.Message != "Successfully signed in!" {
		t.Fatalf("signin state = %+v", state)
	}

	protected := middleware.AuthJWT(testSecret, app.Auth, zerolog.New(io.Discard))
	call := func(h http.HandlerFunc) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+state.Token)
		rec := httptest.NewRecorder()
		protected(h).ServeHTTP(rec, req)
		return rec
	}

	if rec := call(app.AuthMe); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"name":"Asha"`) {
		t.Fatalf("me = %d %s", rec.Code, rec.Body)
	}
	if rec := call(app.AuthSignOut); rec.Code != http.StatusOK {
		t.Fatalf("signout = %d %s", rec.Code, rec.Body)
	}
	if rec := call(app.AuthMe); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after signout = %d, want 401", rec.Code)
	}
}

func TestAuthSignUpValidationAndConflict(t *testing.T) {
	app := newTestApp(t, &fakeVideo{})

	rec := postJSON(t, app.AuthSignUp, `{"name":"A","email":"nope","password":"short","confirm_password":"x","user_type":"admin"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	state := decode[authState](t, rec)
	if state.Message != "Validation failed" || !strings.Contains(state.Error, "Name must be at least 2 characters") {
		t.Fatalf("state = %+v", state)
	}

	body := `{"name":"Ravi","email":"ravi@example.com","password":"Secret123","confirm_password":"Secret123","user_type":"customer"}`
	if rec := postJSON(t, app.AuthSignUp, body, nil); rec.Code != http.StatusCreated {
		t.Fatalf("first signup = %d", rec.Code)
	}
	rec = postJSON(t, app.AuthSignUp, body, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup = %d", rec.Code)
	}
	if state := decode[authState](t, rec); state.Error != "an account with this email already exists" {
		t.Fatalf("duplicate state = %+v", state)
	}

	rec = postJSON(t, app.AuthSignIn, `{"email":"ravi@example.com","password":"Wrong1234"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password = %d", rec.Code)
	}
}

func TestAuthResetPassword(t *testing.T) {
	app := newTestApp(t, &fakeVideo{})
	rec := postJSON(t, app.AuthResetPassword, `{"email":"ghost@example.com"}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown email = %d", rec.Code)
	}
	_ = postJSON(t, app.AuthSignUp, `{"name":"Mira","email":"mira@example.com","password":"Secret123","confirm_password":"Secret123","user_type":"artisan"}`, nil)
	rec = postJSON(t, app.AuthResetPassword, `{"email":"mira@example.com"}`, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "This is a demo") {
		t.Fatalf("reset = %d %s", rec.Code, rec.Body)
	}
}

func multipartVideoRequest(t *testing.T, fields map[string]string, files ...[]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	for i, data := range files {
		fw, err := mw.CreateFormFile("images", "photo"+string(rune('a'+i))+".png")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = fw.Write(data)
	}
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/v1/videos/generate", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
}

func TestVideosGenerateMultipart(t *testing.T) {
	gen := &fakeVideo{result: video.VideoResult{Success: true, VideoURL: "https://cdn.example.com/v.mp4"}}
	app := newTestApp(t, gen)

	req := multipartVideoRequest(t, map[string]string{"script": "Meet the vase", "product_name": "Blue Vase"}, pngHeader)
	rec := httptest.NewRecorder()
	app.VideosGenerate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	if rec.Body.String() != `{"success":true,"video_url":"https://cdn.example.com/v.mp4"}`+"\n" {
		t.Fatalf("body = %s", rec.Body)
	}
	if gen.script != "Meet the vase" || gen.name != "Blue Vase" || len(gen.images) != 1 || gen.images[0].MIME != "image/png" {
		t.Fatalf("generator saw %+v", gen)
	}
}

func TestVideosGenerateRejectsNonImage(t *testing.T) {
	app := newTestApp(t, &fakeVideo{})
	req := multipartVideoRequest(t, map[string]string{"script": "s", "product_name": "p"}, []byte("plain text, not an image"))
	rec := httptest.NewRecorder()
	app.VideosGenerate(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestVideosGenerateFailures(t *testing.T) {
	tests := []struct {
		name   string
		result video.VideoResult
		status int
		body   string
	}{
		{
			name:   "timeout",
			result: video.VideoResult{Error: "timeout", Failure: &video.Failure{Reason: video.ReasonTimeout}},
			status: http.StatusGatewayTimeout,
			body:   `{"success":false,"error":"timeout"}`,
		},
		{
			name:   "job failed",
			result: video.VideoResult{Error: "job-failed:out of credits", Failure: &video.Failure{Reason: video.ReasonJobFailed, Message: "out of credits"}},
			status: http.StatusBadGateway,
			body:   `{"success":false,"error":"job-failed:out of credits"}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t, &fakeVideo{result: tc.result})
			rec := postJSON(t, app.VideosGenerate, `{"script":"s","product_name":"p","image_urls":["https://x/1.jpg"]}`, nil)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if strings.TrimSpace(rec.Body.String()) != tc.body {
				t.Fatalf("body = %s", rec.Body)
			}
		})
	}
}

func TestVideosGenerateRequiresScript(t *testing.T) {
	app := newTestApp(t, &fakeVideo{})
	rec := postJSON(t, app.VideosGenerate, `{"product_name":"Vase"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var body errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error.Code != "bad_request" || body.Error.Message != "script is required" {
		t.Fatalf("body = %+v", body)
	}
}

func TestVideosEnqueueAndStatus(t *testing.T) {
	app := newTestApp(t, &fakeVideo{})
	ctx := middleware.ContextWithUserID(context.Background(), "user-1")

	rec := postJSON(t, app.VideosEnqueue, `{"script":"s","product_name":"Vase","image_urls":["https://cdn.example.com/vase.jpg"]}`, ctx)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("enqueue = %d %s", rec.Code, rec.Body)
	}
	queued := decode[jobResponse](t, rec)
	if queued.Status != "QUEUED" || rec.Header().Get("Location") != "/v1/videos/"+queued.JobID {
		t.Fatalf("queued = %+v location=%q", queued, rec.Header().Get("Location"))
	}

	status := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/videos/"+queued.JobID, nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("job_id", queued.JobID)
		req = req.WithContext(context.WithValue(middleware.ContextWithUserID(req.Context(), userID), chi.RouteCtxKey, rctx))
		rec := httptest.NewRecorder()
		app.VideoStatus(rec, req)
		return rec
	}

	rec = status("user-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body)
	}
	if dto := decode[videoJobDTO](t, rec); dto.ID != queued.JobID || dto.Status != "QUEUED" || dto.ProductName != "Vase" ||
		len(dto.ImageURLs) != 1 || dto.ImageURLs[0] != "https://cdn.example.com/vase.jpg" {
		t.Fatalf("dto = %+v", dto)
	}
	if rec := status("someone-else"); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign status = %d", rec.Code)
	}
}

func TestContentEndpoints(t *testing.T) {
	app := newTestApp(t, &fakeVideo{})

	rec := postJSON(t, app.ContentGenerate, `{"name":"clay mug","description":"Wheel-thrown stoneware"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate = %d %s", rec.Code, rec.Body)
	}
	generated := decode[content.GeneratedContent](t, rec)
	if generated.Provider != "static" || !strings.Contains(generated.Captions.Short, "Clay Mug") {
		t.Fatalf("generated = %+v", generated)
	}

	if rec := postJSON(t, app.ContentGenerate, `{"name":"mug"}`, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing description = %d", rec.Code)
	}

	payload, _ := json.Marshal(optimizeRequest{Content: generated})
	rec = postJSON(t, app.ContentOptimize, string(payload), nil)
	var optimized struct {
		Posts []content.PlatformPost `json:"posts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &optimized); err != nil || len(optimized.Posts) != 4 {
		t.Fatalf("optimize = %s", rec.Body)
	}
	if optimized.Posts[3].Platform != content.PlatformLinkedIn || optimized.Posts[3].MaxLength != 400 {
		t.Fatalf("linkedin post = %+v", optimized.Posts[3])
	}

	rec = postJSON(t, app.ContentCaptions, `{"topic":"weaving"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("caption validation = %d", rec.Code)
	}
	if state := decode[actionState](t, rec); state.Message != "Validation failed." {
		t.Fatalf("caption state = %+v", state)
	}

	rec = postJSON(t, app.ContentMusic, `{"reel_description":"A potter at work","art_form":"Pottery"}`, nil)
	if state := decode[actionState](t, rec); rec.Code != http.StatusOK || state.Music == nil || len(state.Music.SuggestedMusic) == 0 {
		t.Fatalf("music = %d %s", rec.Code, rec.Body)
	}
}

func TestStatusForMapsDomainErrors(t *testing.T) {
	tests := map[error]int{
		domain.ErrInvalidInput:         http.StatusBadRequest,
		domain.ErrNotFound:             http.StatusNotFound,
		domain.ErrConflict:             http.StatusConflict,
		domain.ErrProviderFailure:      http.StatusBadGateway,
		domain.ErrConfigurationMissing: http.StatusServiceUnavailable,
		io.ErrUnexpectedEOF:            http.StatusInternalServerError,
	}
	for err, want := range tests {
		if got, _ := statusFor(err); got != want {
			t.Errorf("statusFor(%v) = %d, want %d", err, got, want)
		}
	}
}

func TestOpenAPIDocument(t *testing.T) {
	app := newTestApp(t, &fakeVideo{})

	rec := httptest.NewRecorder()
	app.OpenAPIJSON(rec, httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil))
	if rec.Code != http.StatusOK || !json.Valid(rec.Body.Bytes()) {
		t.Fatalf("openapi = %d", rec.Code)
	}
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	app.OpenAPIJSON(rec, req)
	if rec.Code != http.StatusNotModified || rec.Body.Len() != 0 {
		t.Fatalf("conditional openapi = %d len=%d", rec.Code, rec.Body.Len())
	}
}

func TestOpenAPIDocsPointsAtSiblingDocument(t *testing.T) {
	app := newTestApp(t, &fakeVideo{})
	for path, want := range map[string]string{
		"/v1/docs":  `spec-url="/v1/openapi.json"`,
		"/v1/docs/": `spec-url="/v1/openapi.json"`,
		"/docs":     `spec-url="/openapi.json"`,
	} {
		rec := httptest.NewRecorder()
		app.OpenAPIDocs(rec, httptest.NewRequest(http.MethodGet, path, nil))
		body := rec.Body.String()
		if rec.Code != http.StatusOK || !strings.Contains(body, want) || !strings.Contains(body, "<title>Artisan Reel API</title>") {
			t.Errorf("%s: %d %s", path, rec.Code, body)
		}
	}
}
