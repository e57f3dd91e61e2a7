package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"artisanreel/internal/domain"
	"artisanreel/internal/infra"
	"artisanreel/internal/infra/credentials"
	"artisanreel/internal/providers/genai"
)

// TextModel is the subset of the Gemini client the generator needs.
type TextModel interface {
	GenerateText(ctx context.Context, apiKey string, req genai.Request) (string, error)
}

type GeminiOptions struct {
	Client      TextModel
	APIKey      string
	Credentials KeyResolver
	VisionModel string
	Fallback    Generator
	Logger      *infra.Logger
	OnFallback  func(reason string, err error)
}

// GeminiGenerator writes captions, hashtags and scripts with Gemini and falls
// back to Fallback when no key is available or the call fails.
type GeminiGenerator struct {
	client      TextModel
	apiKey      string
	credentials KeyResolver
	visionModel string
	fallback    Generator
	logger      *infra.Logger
	onFallback  func(reason string, err error)
}

type generatePayload struct {
	Captions    Captions `json:"captions"`
	Hashtags    []string `json:"hashtags"`
	VideoScript string   `json:"videoScript"`
}

type captionPayload struct {
	Captions string `json:"captions"`
}

type musicPayload struct {
	SuggestedMusic []string `json:"suggestedMusic"`
	Reasoning      string   `json:"reasoning"`
}

func NewGeminiGenerator(opts GeminiOptions) (*GeminiGenerator, error) {
	if opts.Client == nil {
		return nil, errors.New("content: gemini client is required")
	}
	fallback := opts.Fallback
	if fallback == nil {
		fallback = NewStaticGenerator()
	}
	return &GeminiGenerator{
		client:      opts.Client,
		apiKey:      strings.TrimSpace(opts.APIKey),
		credentials: opts.Credentials,
		visionModel: coalesce(opts.VisionModel, "gemini-1.5-pro"),
		fallback:    fallback,
		logger:      infra.LoggerOrDiscard(opts.Logger),
		onFallback:  opts.OnFallback,
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, in ProductInput) (*GeneratedContent, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	key := g.resolveKey(ctx)
	if key == "" {
		return g.useFallback(ctx, in, "missing_api_key", nil)
	}
	text, err := g.client.GenerateText(ctx, key, genai.Request{
		Parts:       []genai.Part{genai.TextPart(buildGeneratePrompt(in))},
		Temperature: 0.7,
	})
	if err != nil {
		return g.useFallback(ctx, in, "request_failed", err)
	}

	parsed, err := parseModelPayload[generatePayload](text)
	if err != nil || coalesce(parsed.Captions.Short, parsed.Captions.Medium, parsed.Captions.Long) == "" {
		g.logger.Debug().Err(err).Msg("content: gemini answered free text")
		return freeTextContent(text), nil
	}
	tags := normalizeHashtags(parsed.Hashtags)
	if len(tags) == 0 {
		tags = append([]string(nil), defaultHashtags...)
	}
	return &GeneratedContent{
		Captions: Captions{
			Short:  coalesce(parsed.Captions.Short, truncateRunes(parsed.Captions.Medium, 100)),
			Medium: coalesce(parsed.Captions.Medium, parsed.Captions.Short),
			Long:   coalesce(parsed.Captions.Long, parsed.Captions.Medium, parsed.Captions.Short),
		},
		Hashtags:    tags,
		VideoScript: strings.TrimSpace(parsed.VideoScript),
		Provider:    geminiProviderName,
	}, nil
}

// freeTextContent keeps a non-JSON answer usable by cutting it to each
// caption length.
func freeTextContent(text string) *GeneratedContent {
	text = strings.TrimSpace(text)
	return &GeneratedContent{
		Captions: Captions{
			Short:  truncateRunes(text, 100),
			Medium: truncateRunes(text, 200),
			Long:   truncateRunes(text, 400),
		},
		Hashtags:    append([]string(nil), defaultHashtags...),
		VideoScript: text,
		Provider:    geminiProviderName,
	}
}

func (g *GeminiGenerator) Caption(ctx context.Context, req CaptionRequest) (string, error) {
	if err := validateCaption(req); err != nil {
		return "", err
	}
	media, err := genai.ParseDataURI(req.MediaDataURI)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	key := g.resolveKey(ctx)
	if key == "" {
		g.notifyFallback("missing_api_key", nil)
		return g.fallback.Caption(ctx, req)
	}
	prompt := "You are an expert in writing captions for artisan videos. Based on the attached media and its topic, write one concise, captivating caption that makes viewers want to watch the reel. " +
		`Respond as JSON: {"captions": string}.` + "\nTopic: " + strings.TrimSpace(req.Topic)
	text, err := g.client.GenerateText(ctx, key, genai.Request{
		Model: g.visionModel,
		Parts: []genai.Part{genai.TextPart(prompt), media},
		JSON:  true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: caption: %v", domain.ErrProviderFailure, err)
	}
	if parsed, err := parseModelPayload[captionPayload](text); err == nil && strings.TrimSpace(parsed.Captions) != "" {
		return strings.TrimSpace(parsed.Captions), nil
	}
	return strings.TrimSpace(text), nil
}

func (g *GeminiGenerator) SuggestMusic(ctx context.Context, req MusicRequest) (*MusicSuggestion, error) {
	if err := validateMusic(req); err != nil {
		return nil, err
	}
	key := g.resolveKey(ctx)
	if key == "" {
		g.notifyFallback("missing_api_key", nil)
		return g.fallback.SuggestMusic(ctx, req)
	}
	var sb strings.Builder
	sb.WriteString("You are a music expert who suggests background music for artisan reels. ")
	sb.WriteString("Suggest several options that suit the content and art form and briefly explain why. ")
	sb.WriteString(`Respond strictly as JSON: {"suggestedMusic": string[], "reasoning": string}.`)
	fmt.Fprintf(&sb, "\nReel description: %s\nArt form: %s", strings.TrimSpace(req.ReelDescription), strings.TrimSpace(req.ArtForm))

	text, err := g.client.GenerateText(ctx, key, genai.Request{
		Parts:       []genai.Part{genai.TextPart(sb.String())},
		JSON:        true,
		Temperature: 0.8,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: music: %v", domain.ErrProviderFailure, err)
	}
	parsed, err := parseModelPayload[musicPayload](text)
	if err != nil {
		return nil, fmt.Errorf("%w: music: decode: %v", domain.ErrProviderFailure, err)
	}
	var options []string
	for _, m := range parsed.SuggestedMusic {
		if m = strings.TrimSpace(m); m != "" {
			options = append(options, m)
		}
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: music: no suggestions returned", domain.ErrProviderFailure)
	}
	return &MusicSuggestion{SuggestedMusic: options, Reasoning: strings.TrimSpace(parsed.Reasoning)}, nil
}

// VideoPrompt asks the vision model for shot direction based on the photos.
// Images given only by URL are not sent.
func (g *GeminiGenerator) VideoPrompt(ctx context.Context, images []domain.Image, script, productName string) (string, error) {
	if strings.TrimSpace(productName) == "" {
		return "", fmt.Errorf("%w: product name is required", domain.ErrInvalidInput)
	}
	key := g.resolveKey(ctx)
	if key == "" {
		g.notifyFallback("missing_api_key", nil)
		return g.fallback.VideoPrompt(ctx, images, script, productName)
	}
	parts := []genai.Part{genai.TextPart(buildVideoPrompt(len(images), script, productName))}
	for _, img := range images {
		if len(img.Data) == 0 {
			continue
		}
		parts = append(parts, genai.Part{MIMEType: img.MIME, Data: img.Data})
	}
	text, err := g.client.GenerateText(ctx, key, genai.Request{Model: g.visionModel, Parts: parts})
	if err != nil {
		return "", fmt.Errorf("%w: video prompt: %v", domain.ErrProviderFailure, err)
	}
	return strings.TrimSpace(text), nil
}

func (g *GeminiGenerator) resolveKey(ctx context.Context) string {
	if g.credentials == nil {
		return g.apiKey
	}
	key, err := g.credentials.Resolve(ctx, credentials.ProviderGemini, g.apiKey)
	if err != nil {
		g.logger.Warn().Err(err).Msg("content: credential lookup failed")
		return g.apiKey
	}
	return strings.TrimSpace(key)
}

func (g *GeminiGenerator) useFallback(ctx context.Context, in ProductInput, reason string, err error) (*GeneratedContent, error) {
	g.notifyFallback(reason, err)
	res, ferr := g.fallback.Generate(ctx, in)
	if res != nil {
		res.Provider = staticProviderName
	}
	return res, ferr
}

func (g *GeminiGenerator) notifyFallback(reason string, err error) {
	ev := g.logger.Warn()
	if err == nil {
		ev = g.logger.Debug()
	}
	ev.Err(err).Str("reason", reason).Msg("content: using static fallback")
	if g.onFallback != nil {
		g.onFallback(reason, err)
	}
}

func buildGeneratePrompt(in ProductInput) string {
	sb := &strings.Builder{}
	sb.WriteString("Create engaging social media content for an artisan product.\n\n")
	fmt.Fprintf(sb, "Product: %s\nDescription: %s\nArtisan: %s\nBio: %s\nCategory: %s\n",
		strings.TrimSpace(in.Name), strings.TrimSpace(in.Description), strings.TrimSpace(in.ArtisanName),
		strings.TrimSpace(in.ArtisanBio), strings.TrimSpace(in.Category))
	if in.Price != nil {
		fmt.Fprintf(sb, "Price: $%.2f\n", *in.Price)
	}
	sb.WriteString("\nGenerate:\n")
	sb.WriteString("1. A short caption (under 100 characters) for Instagram and TikTok\n")
	sb.WriteString("2. A medium caption (100-200 characters) for Facebook and LinkedIn\n")
	sb.WriteString("3. A long caption (200-400 characters) for blog posts\n")
	sb.WriteString("4. 10-15 relevant hashtags\n")
	sb.WriteString("5. A video script for a product showcase\n\n")
	sb.WriteString("Keep it authentic and highlight the artisan's story and craftsmanship. Respond as JSON: ")
	sb.WriteString(`{"captions":{"short":string,"medium":string,"long":string},"hashtags":string[],"videoScript":string}`)
	return sb.String()
}

func buildVideoPrompt(imageCount int, script, productName string) string {
	sb := &strings.Builder{}
	sb.WriteString("Analyze these product images and write a detailed, eye-catching prompt for an avatar video generator.\n\n")
	fmt.Fprintf(sb, "Product: %s\nScript: %s\nNumber of images: %d\n\n", strings.TrimSpace(productName), strings.TrimSpace(script), imageCount)
	sb.WriteString("Describe the visual style and mood, camera movements, lighting, color palette, the visual elements to highlight, pacing, and the target audience. ")
	sb.WriteString("Optimise for a vertical social video on Instagram and TikTok. Return only the prompt text.")
	return sb.String()
}

var _ Generator = (*GeminiGenerator)(nil)
