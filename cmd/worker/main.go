package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"artisanreel/internal/adapter/repo"
	"artisanreel/internal/infra"
	"artisanreel/internal/infra/credentials"
	"artisanreel/internal/providers/heygen"
	"artisanreel/internal/providers/video"
	"artisanreel/internal/storage"
	"artisanreel/internal/videojob"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := infra.InitTracer(ctx, "artisanreel-worker", cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to initialise tracing")
	}
	defer shutdownTracer()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	fileStore, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	client, err := heygen.NewClient(heygen.Options{
		BaseURL:    cfg.HeyGenBaseURL,
		AvatarID:   cfg.HeyGenAvatarID,
		VoiceID:    cfg.HeyGenVoiceID,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure heygen client")
	}

	credStore := credentials.NewStore(runner)
	if key, err := credStore.Resolve(ctx, credentials.ProviderHeyGen, cfg.HeyGenAPIKey); err != nil {
		logger.Warn().Err(err).Msg("worker: failed to load heygen api key from store")
	} else if key == "" {
		logger.Warn().Msg("worker: heygen api key missing, jobs will receive placeholder videos")
	}

	generator := video.NewService(video.ServiceOptions{
		Provider:    client,
		APIKey:      cfg.HeyGenAPIKey,
		Credentials: credStore,
		Poll: video.PollOptions{
			MaxAttempts: cfg.VideoPollMaxAttempts,
			Interval:    cfg.VideoPollInterval,
		},
		Logger: &logger,
	})

	// A job held longer than twice the poll budget belongs to a dead worker.
	staleAfter := 2 * time.Duration(cfg.VideoPollMaxAttempts) * cfg.VideoPollInterval
	if staleAfter < repo.StaleJobAfter {
		staleAfter = repo.StaleJobAfter
	}
	worker := videojob.NewWorker(videojob.WorkerOptions{
		Repo:      repo.NewVideoJobRepository(runner).WithStaleAfter(staleAfter),
		Store:     fileStore,
		Generator: generator,
		Logger:    &logger,
	})

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
