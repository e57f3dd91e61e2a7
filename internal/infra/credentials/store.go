package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"artisanreel/internal/infra"
	"artisanreel/internal/sqlinline"
)

const (
	ProviderGemini = "gemini"
	ProviderHeyGen = "heygen"
)

// Store reads and writes third-party API keys kept in integration_tokens. It
// backs up the environment when GEMINI_API_KEY or HEYGEN_API_KEY is unset.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// IsSupported reports whether provider is a known integration.
func IsSupported(provider string) bool {
	switch provider {
	case ProviderGemini, ProviderHeyGen:
		return true
	default:
		return false
	}
}

func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderGemini)
}

func (s *Store) HeyGenAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderHeyGen)
}

// Token returns the stored token for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetToken stores key for provider, replacing any previous value.
func (s *Store) SetToken(ctx context.Context, provider, key string) error {
	if !IsSupported(provider) {
		return fmt.Errorf("unsupported provider %q", provider)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%s api key is required", provider)
	}
	raw, err := json.Marshal(map[string]any{"source": "credkey"})
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, key, raw)
	return err
}

// Resolve prefers the configured value and falls back to the stored token.
func (s *Store) Resolve(ctx context.Context, provider, configured string) (string, error) {
	if v := strings.TrimSpace(configured); v != "" {
		return v, nil
	}
	if s == nil || s.sql == nil {
		return "", nil
	}
	return s.Token(ctx, provider)
}
