package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"artisanreel/internal/infra"
	"artisanreel/internal/infra/credentials"
)

var envKeys = map[string]string{
	credentials.ProviderGemini: "GEMINI_API_KEY",
	credentials.ProviderHeyGen: "HEYGEN_API_KEY",
}

func main() {
	_ = godotenv.Load()

	var (
		keyFlag      string
		providerFlag string
		showFlag     bool
	)
	flag.StringVar(&keyFlag, "key", "", "API key for the selected provider (falls back to environment)")
	flag.StringVar(&providerFlag, "provider", credentials.ProviderGemini, "provider to configure (gemini or heygen)")
	flag.BoolVar(&showFlag, "show", false, "print the stored key, masked, instead of writing one")
	flag.Parse()

	provider := strings.TrimSpace(strings.ToLower(providerFlag))
	if provider == "" {
		provider = credentials.ProviderGemini
	}
	if !credentials.IsSupported(provider) {
		fmt.Fprintf(os.Stderr, "unsupported provider %q\n", providerFlag)
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "credkey").Str("provider", provider).Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	if showFlag {
		key, err := store.Token(ctx, provider)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read %s api key: %v\n", provider, err)
			os.Exit(1)
		}
		if key == "" {
			fmt.Printf("no %s API key stored\n", strings.ToUpper(provider))
			return
		}
		fmt.Printf("%s API key: %s\n", strings.ToUpper(provider), mask(key))
		return
	}

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv(envKeys[provider]))
	}
	if key == "" {
		fmt.Fprintf(os.Stderr, "%s API key is required via -key or %s\n", strings.ToUpper(provider), envKeys[provider])
		os.Exit(1)
	}

	if err := store.SetToken(ctx, provider, key); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist %s api key: %v\n", provider, err)
		os.Exit(1)
	}
	fmt.Printf("%s API key stored successfully\n", strings.ToUpper(provider))
}

func mask(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
