package heygen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"artisanreel/internal/domain"
	"artisanreel/internal/infra"
)

var (
	// ErrMissingAPIKey indicates a call was attempted without credentials.
	ErrMissingAPIKey = errors.New("heygen: api key is required")
	// ErrSubmission wraps every failure of the job creation call.
	ErrSubmission = errors.New("heygen: submission failed")
	// ErrStatusQuery wraps every failure of a single status read.
	ErrStatusQuery = errors.New("heygen: status query failed")
)

const (
	defaultBaseURL       = "https://api.heygen.com"
	defaultGeneratePath  = "/v2/video/generate"
	defaultStatusPath    = "/v1/video_status.get"
	defaultAvatarID      = "Daisy-inskirt-20220818"
	defaultVoiceID       = "2d5b0e6cf36f460aa7fc47e3eee4ba54"
	defaultBackgroundURL = "https://images.unsplash.com/photo-1558618666-fcd25c85cd64?w=1920&h=1080&fit=crop"

	// Output is always 9:16 vertical for short-form social video.
	VideoWidth  = 1080
	VideoHeight = 1920
)

// Options configures the HeyGen client. Credentials are passed per call so a
// key resolved at request time (env or integration store) can be used.
type Options struct {
	BaseURL      string
	GeneratePath string
	StatusPath   string
	AvatarID     string
	VoiceID      string
	HTTPClient   *http.Client
	Logger       *infra.Logger
}

// Client talks to the HeyGen avatar video API.
type Client struct {
	baseURL      string
	generatePath string
	statusPath   string
	avatarID     string
	voiceID      string
	httpClient   *http.Client
	logger       *infra.Logger
}

// SubmitRequest describes one avatar video to render.
type SubmitRequest struct {
	Script        string
	BackgroundURL string
}

type generateRequest struct {
	VideoInputs []videoInput `json:"video_inputs"`
	Dimension   dimension    `json:"dimension"`
}

type videoInput struct {
	Character         character  `json:"character"`
	Voice             voice      `json:"voice"`
	Background        background `json:"background"`
	BackgroundRemoval bool       `json:"background_remove"`
}

type character struct {
	Type        string `json:"type"`
	AvatarID    string `json:"avatar_id"`
	AvatarStyle string `json:"avatar_style"`
}

type voice struct {
	Type      string `json:"type"`
	InputText string `json:"input_text"`
	VoiceID   string `json:"voice_id"`
}

type background struct {
	Type     string `json:"type"`
	ImageURL string `json:"image_url"`
}

type dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("heygen: invalid base url: %w", err)
	}
	return &Client{
		baseURL:      baseURL,
		generatePath: pathOr(opts.GeneratePath, defaultGeneratePath),
		statusPath:   pathOr(opts.StatusPath, defaultStatusPath),
		avatarID:     firstNonEmpty(opts.AvatarID, defaultAvatarID),
		voiceID:      firstNonEmpty(opts.VoiceID, defaultVoiceID),
		httpClient:   httpClient,
		logger:       infra.LoggerOrDiscard(opts.Logger),
	}, nil
}

// Submit creates a render job and returns the provider's job id. Any failure
// wraps ErrSubmission and is not retried.
func (c *Client) Submit(ctx context.Context, apiKey string, req SubmitRequest) (string, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}
	script := strings.TrimSpace(req.Script)
	if script == "" {
		return "", fmt.Errorf("%w: script is required", ErrSubmission)
	}
	payload := generateRequest{
		VideoInputs: []videoInput{{
			Character: character{Type: "avatar", AvatarID: c.avatarID, AvatarStyle: "normal"},
			Voice:     voice{Type: "text", InputText: script, VoiceID: c.voiceID},
			Background: background{
				Type:     "image",
				ImageURL: firstNonEmpty(req.BackgroundURL, defaultBackgroundURL),
			},
			BackgroundRemoval: true,
		}},
		Dimension: dimension{Width: VideoWidth, Height: VideoHeight},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrSubmission, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.generatePath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrSubmission, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", apiKey)

	raw, status, err := c.do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	if status >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", ErrSubmission, status, truncate(string(raw), 300))
	}
	jobID, err := parseSubmission(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	c.logger.Debug().Str("video_id", jobID).Msg("heygen: video job submitted")
	return jobID, nil
}

// Status performs one status read and returns the normalized job.
func (c *Client) Status(ctx context.Context, apiKey, jobID string) (*domain.GenerationJob, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(jobID) == "" {
		return nil, fmt.Errorf("%w: job id is required", ErrStatusQuery)
	}
	endpoint := c.baseURL + c.statusPath + "?video_id=" + url.QueryEscape(jobID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrStatusQuery, err)
	}
	httpReq.Header.Set("X-Api-Key", apiKey)

	raw, status, err := c.do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatusQuery, err)
	}
	if status >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrStatusQuery, status, truncate(string(raw), 300))
	}
	job, err := normalizeStatus(jobID, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatusQuery, err)
	}
	return job, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return raw, resp.StatusCode, nil
}

func pathOr(path, fallback string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return fallback
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
