package content

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"artisanreel/internal/domain"
)

// StaticGenerator returns template copy. It backs the Gemini generator when no
// key is configured or the API is unreachable.
type StaticGenerator struct{}

func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{}
}

var staticHashtags = []string{
	"#Handmade",
	"#Artisan",
	"#Craftsmanship",
	"#TraditionalCraft",
	"#SupportLocal",
	"#UniqueDesign",
	"#Handcrafted",
	"#LocalArtisan",
	"#CraftCulture",
	"#ArtisanMade",
	"#TraditionalSkills",
	"#CulturalHeritage",
	"#SustainableCraft",
	"#ArtisanLife",
	"#HandmadeWithLove",
}

func (s *StaticGenerator) Generate(ctx context.Context, in ProductInput) (*GeneratedContent, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	c := cases.Title(language.Und)
	name := c.String(strings.TrimSpace(in.Name))
	artisan := coalesce(in.ArtisanName, "our artisan")

	var long strings.Builder
	fmt.Fprintf(&long, "Introducing our latest creation: %s\n\n", name)
	fmt.Fprintf(&long, "Crafted with meticulous attention to detail by the talented %s, this piece blends traditional techniques with contemporary design. %s\n\n", artisan, strings.TrimSpace(in.Description))
	if bio := strings.TrimSpace(in.ArtisanBio); bio != "" {
		long.WriteString(bio + "\n\n")
	}
	long.WriteString("Every item in our collection is unique and carries the personal touch of its maker. Buying it supports local artisans and keeps traditional craftsmanship alive.\n\n")
	long.WriteString(strings.Join(staticHashtags[:6], " "))

	return &GeneratedContent{
		Captions: Captions{
			Short:  fmt.Sprintf("Handcrafted %s by %s #Handmade #Artisan", name, artisan),
			Medium: fmt.Sprintf("Discover the beauty of handcrafted %s! Made with love and traditional techniques by %s. Each piece tells a story of skill, passion and heritage. #Handmade #Artisan #Craftsmanship", name, artisan),
			Long:   long.String(),
		},
		Hashtags: append([]string(nil), staticHashtags...),
		VideoScript: strings.Join([]string{
			fmt.Sprintf("Opening shot: close-up of the artisan's hands working on %s", name),
			fmt.Sprintf("Narration: \"Meet %s, a master artisan with years of experience\"", artisan),
			"Show: the process of creating the product",
			"Narration: \"Each piece is carefully crafted using traditional techniques\"",
			"Show: the finished product from different angles",
			fmt.Sprintf("Narration: \"The result? A unique %s that tells a story\"", name),
			"Call to action: \"Support local artisans, shop now!\"",
		}, "\n"),
		Provider: staticProviderName,
	}, nil
}

func (s *StaticGenerator) Caption(ctx context.Context, req CaptionRequest) (string, error) {
	if err := validateCaption(req); err != nil {
		return "", err
	}
	return fmt.Sprintf("Watch how %s comes to life, one careful step at a time. #Handmade #Artisan", strings.TrimSpace(req.Topic)), nil
}

func (s *StaticGenerator) SuggestMusic(ctx context.Context, req MusicRequest) (*MusicSuggestion, error) {
	if err := validateMusic(req); err != nil {
		return nil, err
	}
	return &MusicSuggestion{
		SuggestedMusic: []string{
			"Soft acoustic guitar instrumental",
			"Traditional folk melody with light percussion",
			"Warm ambient piano",
		},
		Reasoning: fmt.Sprintf("Gentle, organic sounds keep attention on the %s craft without overpowering the visuals.", strings.ToLower(strings.TrimSpace(req.ArtForm))),
	}, nil
}

func (s *StaticGenerator) VideoPrompt(ctx context.Context, images []domain.Image, script, productName string) (string, error) {
	name := coalesce(productName, "the product")
	return fmt.Sprintf("Warm, cinematic product showcase of %s in soft golden lighting. Slow zoom in on handcrafted details, then a gentle pan across %d angle(s). Earthy color palette, calm pacing, vertical framing for Instagram and TikTok.", name, len(images)), nil
}

var _ Generator = (*StaticGenerator)(nil)
