package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	backbonenats "sociallink/internal/adapters/backbone/nats"
	"sociallink/internal/adapters/eventbroker/nats"
	"sociallink/internal/adapters/push/webpush"
	"sociallink/internal/adapters/repository/postgres"
	"sociallink/internal/adapters/storage/minio"
	"sociallink/internal/adapters/transcoder/ffmpeg"
	"sociallink/internal/config"
	"sociallink/internal/core/port"
	"sociallink/internal/core/service/cleanup"
	"sociallink/internal/core/service/notification"
	"sociallink/internal/core/service/registry"
	"sociallink/internal/core/service/router"
	"sociallink/internal/core/service/transcode"
	"sync"
	"syscall"
	"time"
)

// drainTimeout is how long in-flight jobs may keep running after a stop signal
const drainTimeout = 30 * time.Second

func main() {

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Leftovers of a previous crash
	purged, err := transcode.PurgeWorkDir(cfg.Transcode.WorkDir, logger)
	if err != nil {
		logger.Error("failed to purge work dir", "error", err)
		os.Exit(1)
	}
	logger.Info("work dir ready", "dir", cfg.Transcode.WorkDir, "purged", purged)

	// Initialize database
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to init database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()
	logger.Info("db connection established")

	minioAdapter, err := minio.NewAdapter(ctx, cfg.Minio, logger)
	if err != nil {
		logger.Error("failed to init minio", "error", err)
		os.Exit(1)
	}
	logger.Info("minio adapter initialized")

	conn, err := nats.Connect(cfg.NATS.URL, cfg.NATS.ConsumerName, logger)
	if err != nil {
		logger.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	// Completion notifications reach API nodes through the backbone
	var backbone port.Backbone
	if cfg.Backbone.Enabled {
		natsBackbone, err := backbonenats.NewBackbone(ctx, conn, cfg.Backbone, logger)
		if err != nil {
			logger.Error("failed to init backbone", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := natsBackbone.Close(context.Background()); err != nil {
				logger.Error("failed to clear backbone membership", "error", err)
			}
		}()
		backbone = natsBackbone
	}

	var pusher port.PushSender
	if webpush.Enabled(cfg.Push) {
		pusher = webpush.NewSender(cfg.Push, nil, logger)
	}

	// Initialize repositories
	unitOfWork := postgres.NewUnitOfWork(db)

	// Initialize services
	eventRouter, err := router.NewEventRouter(registry.NewRegistry(), postgres.NewSqlFriendRepository(db), backbone, logger)
	if err != nil {
		logger.Error("failed to init event router", "error", err)
		os.Exit(1)
	}
	notificationService := notification.NewNotificationService(unitOfWork, eventRouter, pusher, cfg.Push.FrontendURL, logger)
	processor, err := transcode.NewProcessor(minioAdapter, ffmpeg.NewTranscoder(cfg.Transcode.FFmpegPath, nil, logger), cfg.Transcode, logger)
	if err != nil {
		logger.Error("failed to init media processor", "error", err)
		os.Exit(1)
	}
	worker := transcode.NewWorker(unitOfWork, minioAdapter, processor, notificationService, logger)

	// Initialize NATS consumer
	natsConsumer, err := nats.NewNATSConsumer(conn, cfg.NATS, logger)
	if err != nil {
		logger.Error("failed to create NATS consumer", "error", err)
		os.Exit(1)
	}
	logger.Info("NATS consumer initialized")

	// Jobs outlive the signal so they can finish during the drain
	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()

	if err := natsConsumer.Subscribe(workCtx, worker); err != nil {
		logger.Error("failed to subscribe to NATS", "error", err)
		os.Exit(1)
	}
	logger.Info("NATS subscription active")

	var wg sync.WaitGroup
	cleanupService := cleanup.NewCleanupService(unitOfWork, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		initCleanupTask(ctx, cleanupService, cfg.Transcode, logger)
	}()

	// Wait for termination signal
	<-ctx.Done()
	logger.Info("gracefully shutting down video processing service")

	closed := make(chan error, 1)
	go func() {
		closed <- natsConsumer.Close()
	}()

	select {
	case err = <-closed:
	case <-time.After(drainTimeout):
		logger.Warn("shutdown timeout exceeded, interrupting in-flight jobs")
		cancelWork()
		err = <-closed
	}
	if err != nil {
		logger.Error("failed to close NATS consumer during shutdown", "error", err)
	}

	wg.Wait()
	logger.Info("video processing service shutdown complete")
}

func initCleanupTask(ctx context.Context, service port.CleanupService, cfg config.TranscodeConfig, logger *slog.Logger) {
	ticker := time.NewTicker(cfg.CleanupEvery)
	defer ticker.Stop()

	logger.Info("cleanup task initialized", "interval", cfg.CleanupEvery, "stalledAfter", cfg.StalledAfter)

	for {
		select {
		case <-ticker.C:
			logger.Info("cleanup task starting")
			if _, err := service.FailStalledMedia(ctx, time.Now().Add(-cfg.StalledAfter)); err != nil {
				logger.Error("failed to cleanup stalled media", "error", err)
			} else {
				logger.Info("cleanup task completed successfully")
			}
		case <-ctx.Done():
			logger.Info("cleanup task stopped")
			return
		}
	}
}
