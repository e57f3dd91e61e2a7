package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"artisanreel/internal/infra"
)

var (
	// ErrMissingAPIKey is returned before any request is made without a key.
	ErrMissingAPIKey = errors.New("genai: api key is required")
	// ErrEmptyResponse means the model answered without any text part.
	ErrEmptyResponse = errors.New("genai: empty response")
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"
)

// Options controls how the Gemini client is configured.
type Options struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client is a small generateContent wrapper. The key is supplied per call so
// it can be resolved at request time.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
	tracer     trace.Tracer
}

// Part is one piece of a prompt: text or inline bytes.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// TextPart is shorthand for a text-only part.
func TextPart(s string) Part {
	return Part{Text: s}
}

// Request describes one generateContent call. Model overrides the client
// default when set.
type Request struct {
	Model       string
	Parts       []Part
	JSON        bool
	Temperature float64
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	CandidateCount   int     `json:"candidateCount,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; one with a 60s timeout is created.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("genai: invalid base url: %w", err)
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	return &Client{
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     infra.LoggerOrDiscard(opts.Logger),
		tracer:     otel.Tracer("artisanreel/providers/genai"),
	}, nil
}

// Model returns the configured Gemini model identifier.
func (c *Client) Model() string {
	return c.model
}

// GenerateText sends one prompt and returns the first non-empty text part.
func (c *Client) GenerateText(ctx context.Context, apiKey string, req Request) (string, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}
	if len(req.Parts) == 0 {
		return "", errors.New("genai: prompt is required")
	}
	model := firstNonEmpty(req.Model, c.model)

	ctx, span := c.tracer.Start(ctx, "genai.generate_content", trace.WithAttributes(
		attribute.String("genai.model", model),
		attribute.Int("genai.parts", len(req.Parts)),
	))
	defer span.End()

	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: toGeminiParts(req.Parts)}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:    req.Temperature,
			CandidateCount: 1,
		},
	}
	if req.JSON {
		payload.GenerationConfig.ResponseMimeType = "application/json"
	}

	var out geminiGenerateContentResponse
	path := "/models/" + url.PathEscape(model) + ":generateContent"
	if err := c.invokeGemini(ctx, apiKey, path, payload, &out); err != nil {
		span.RecordError(err)
		return "", err
	}
	text := extractText(out)
	if text == "" {
		return "", ErrEmptyResponse
	}
	c.logger.Debug().Str("model", model).Int("chars", len(text)).Msg("genai: content generated")
	return text, nil
}

func (c *Client) invokeGemini(ctx context.Context, apiKey, path string, payload any, out any) error {
	endpoint := c.baseURL + path
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		var apiErr geminiErrorResponse
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		if len(data) > 0 {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

func toGeminiParts(parts []Part) []geminiPart {
	out := make([]geminiPart, 0, len(parts))
	for _, p := range parts {
		if len(p.Data) > 0 {
			out = append(out, geminiPart{InlineData: &geminiInlineData{
				MimeType: firstNonEmpty(p.MIMEType, "image/jpeg"),
				Data:     base64.StdEncoding.EncodeToString(p.Data),
			}})
			continue
		}
		if strings.TrimSpace(p.Text) != "" {
			out = append(out, geminiPart{Text: p.Text})
		}
	}
	return out
}

func extractText(resp geminiGenerateContentResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

// ParseDataURI splits "data:<mime>;base64,<payload>" into its parts.
func ParseDataURI(uri string) (Part, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return Part{}, errors.New("genai: not a data uri")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Part{}, errors.New("genai: malformed data uri")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return Part{}, errors.New("genai: data uri must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Part{}, fmt.Errorf("genai: decode data uri: %w", err)
	}
	return Part{MIMEType: mime, Data: data}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
