package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"artisanreel/internal/adapter/repo"
	"artisanreel/internal/auth"
	"artisanreel/internal/domain"
	"artisanreel/internal/http/handlers"
	"artisanreel/internal/http/httpapi"
	"artisanreel/internal/infra"
	"artisanreel/internal/infra/credentials"
	"artisanreel/internal/infra/geoip"
	"artisanreel/internal/middleware"
	"artisanreel/internal/providers/content"
	"artisanreel/internal/providers/genai"
	"artisanreel/internal/providers/heygen"
	"artisanreel/internal/providers/video"
	"artisanreel/internal/ratelimit"
	"artisanreel/internal/storage"
	"artisanreel/internal/videojob"
)

var supportedLocales = []string{"en", "hi", "bn", "ta", "te", "mr", "gu", "kn", "ml", "pa"}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := infra.InitTracer(ctx, "artisanreel-api", cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise tracing")
	}
	defer shutdownTracer()

	var (
		runner *infra.SQLRunner
		keys   video.KeyResolver
	)
	if cfg.HasDatabase() {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		runner = infra.NewSQLRunner(pool, logger)
		keys = credentials.NewStore(runner)
	} else {
		logger.Warn().Msg("DATABASE_URL not set, accounts and video jobs are kept in memory")
	}

	var rdb *redis.Client
	if cfg.HasRedis() {
		rdb, err = infra.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer rdb.Close()
	}

	authSvc, err := auth.NewService(auth.Options{
		Store:     selectKeyValueStore(runner, rdb),
		JWTSecret: cfg.JWTSecret,
		Logger:    &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure accounts")
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	geminiClient, err := genai.NewClient(genai.Options{
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		HTTPClient: httpClient,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure gemini client")
	}
	contentGen, err := content.NewGeminiGenerator(content.GeminiOptions{
		Client:      geminiClient,
		APIKey:      cfg.GeminiAPIKey,
		Credentials: keys,
		VisionModel: cfg.GeminiVisionModel,
		Logger:      &logger,
		OnFallback: func(reason string, err error) {
			logger.Warn().Err(err).Str("reason", reason).Msg("content: using static copy")
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure content generator")
	}

	videoSvc, err := newVideoService(cfg, keys, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure video provider")
	}

	fileStore, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	var jobRepo domain.VideoJobRepository
	if runner != nil {
		jobRepo = repo.NewVideoJobRepository(runner)
	} else {
		memRepo := repo.NewMemoryVideoJobRepository()
		jobRepo = memRepo
		worker := videojob.NewWorker(videojob.WorkerOptions{
			Repo:      memRepo,
			Store:     fileStore,
			Generator: videoSvc,
			Logger:    &logger,
		})
		go func() {
			_ = worker.Run(ctx)
		}()
	}
	jobs := videojob.NewService(videojob.Options{Repo: jobRepo, Store: fileStore, Logger: &logger})

	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer geo.Close()

	app := &handlers.App{
		Logger:  logger,
		Auth:    authSvc,
		Content: contentGen,
		Video:   videoSvc,
		Jobs:    jobs,
	}

	opts := httpapi.Options{
		JWTSecret:     cfg.JWTSecret,
		CORSOrigins:   cfg.CORSAllowedOrigins,
		Localizer:     middleware.NewLocalizer("en", supportedLocales),
		CountryLookup: geo.Lookup(),
		Revocations:   authSvc,
		StaticDir:     fileStore.BasePath(),
		StaticPrefix:  "static",
		Logger:        logger,
	}
	if rdb != nil {
		opts.Limiter = ratelimit.NewLimiter(rdb, cfg.RateLimitPerMin, "api")
		opts.VideoLimiter = ratelimit.NewLimiter(rdb, cfg.VideoRateLimitPerMin, "video")
	} else {
		opts.Limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitPerMin, "api")
		opts.VideoLimiter = ratelimit.NewMemoryLimiter(cfg.VideoRateLimitPerMin, "video")
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, opts))

	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// selectKeyValueStore prefers PostgreSQL, then Redis, then process memory.
func selectKeyValueStore(runner *infra.SQLRunner, rdb *redis.Client) domain.KeyValueStore {
	switch {
	case runner != nil:
		return auth.NewPostgresStore(runner)
	case rdb != nil:
		return auth.NewRedisStore(rdb, "artisanreel:")
	default:
		return auth.NewMemoryStore()
	}
}

func newVideoService(cfg *infra.Config, keys video.KeyResolver, logger *infra.Logger) (*video.Service, error) {
	client, err := heygen.NewClient(heygen.Options{
		BaseURL:    cfg.HeyGenBaseURL,
		AvatarID:   cfg.HeyGenAvatarID,
		VoiceID:    cfg.HeyGenVoiceID,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return video.NewService(video.ServiceOptions{
		Provider:    client,
		APIKey:      cfg.HeyGenAPIKey,
		Credentials: keys,
		Poll: video.PollOptions{
			MaxAttempts: cfg.VideoPollMaxAttempts,
			Interval:    cfg.VideoPollInterval,
		},
		Logger: logger,
	}), nil
}
