package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"artisanreel/internal/domain"
)

var defaultHashtags = []string{"#Handmade", "#Artisan", "#Craftsmanship"}

func validateProduct(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: product name is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: product description is required", domain.ErrInvalidInput)
	}
	if in.Price != nil && *in.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

func validateCaption(req CaptionRequest) error {
	if strings.TrimSpace(req.Topic) == "" {
		return fmt.Errorf("%w: topic is required", domain.ErrInvalidInput)
	}
	if !strings.HasPrefix(strings.TrimSpace(req.MediaDataURI), "data:") {
		return fmt.Errorf("%w: media must be a data uri", domain.ErrInvalidInput)
	}
	return nil
}

func validateMusic(req MusicRequest) error {
	if strings.TrimSpace(req.ReelDescription) == "" {
		return fmt.Errorf("%w: reel description is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.ArtForm) == "" {
		return fmt.Errorf("%w: art form is required", domain.ErrInvalidInput)
	}
	return nil
}

// normalizeHashtags trims, prefixes '#' and drops case-insensitive repeats.
func normalizeHashtags(tags []string) []string {
	seen := make(map[string]struct{})
	var result []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		tag = strings.Join(strings.Fields(tag), "")
		if tag == "" || tag == "#" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, tag)
	}
	return result
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

func parseModelPayload[T any](raw string) (T, error) {
	var zero T
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty payload")
	}
	var decoded T
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start < 0 || end < start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
