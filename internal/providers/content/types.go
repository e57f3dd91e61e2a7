package content

import (
	"context"

	"artisanreel/internal/domain"
)

const (
	staticProviderName = "static"
	geminiProviderName = "gemini"
)

// ProductInput is what an artisan tells us about a product.
type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ArtisanName string   `json:"artisan_name"`
	ArtisanBio  string   `json:"artisan_bio"`
	Category    string   `json:"category"`
	Price       *float64 `json:"price,omitempty"`
}

type Captions struct {
	Short  string `json:"short"`
	Medium string `json:"medium"`
	Long   string `json:"long"`
}

// GeneratedContent is the social copy for one product.
type GeneratedContent struct {
	Captions    Captions `json:"captions"`
	Hashtags    []string `json:"hashtags"`
	VideoScript string   `json:"video_script,omitempty"`
	Provider    string   `json:"provider"`
}

type CaptionRequest struct {
	Topic        string `json:"topic"`
	MediaDataURI string `json:"media_data_uri"`
}

type MusicRequest struct {
	ReelDescription string `json:"reel_description"`
	ArtForm         string `json:"art_form"`
}

type MusicSuggestion struct {
	SuggestedMusic []string `json:"suggested_music"`
	Reasoning      string   `json:"reasoning"`
}

// Generator produces marketing copy. Implementations validate their inputs
// and wrap domain.ErrInvalidInput when a required field is missing.
type Generator interface {
	Generate(ctx context.Context, input ProductInput) (*GeneratedContent, error)
	Caption(ctx context.Context, req CaptionRequest) (string, error)
	SuggestMusic(ctx context.Context, req MusicRequest) (*MusicSuggestion, error)
	VideoPrompt(ctx context.Context, images []domain.Image, script, productName string) (string, error)
}

// KeyResolver yields the Gemini key at call time.
type KeyResolver interface {
	Resolve(ctx context.Context, provider, configured string) (string, error)
}
