package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	authjwt "sociallink/internal/adapters/auth/jwt"
	backbonenats "sociallink/internal/adapters/backbone/nats"
	"sociallink/internal/adapters/eventbroker/nats"
	"sociallink/internal/adapters/handlers/http/chi"
	mediahandler "sociallink/internal/adapters/handlers/http/chi/v1/media"
	notificationhandler "sociallink/internal/adapters/handlers/http/chi/v1/notification"
	"sociallink/internal/adapters/handlers/ws"
	"sociallink/internal/adapters/push/webpush"
	"sociallink/internal/adapters/repository/postgres"
	"sociallink/internal/adapters/storage/minio"
	"sociallink/internal/adapters/transcoder/ffmpeg"
	"sociallink/internal/config"
	"sociallink/internal/core/port"
	"sociallink/internal/core/service/dispatch"
	"sociallink/internal/core/service/media"
	"sociallink/internal/core/service/notification"
	"sociallink/internal/core/service/presence"
	"sociallink/internal/core/service/registry"
	"sociallink/internal/core/service/router"
	"sociallink/internal/core/service/transcode"
	"sync"
	"syscall"
	"time"

	natsgo "github.com/nats-io/nats.go"
)

func main() {

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

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

	//storage
	minioAdapter, err := minio.NewAdapter(ctx, cfg.Minio, logger)
	if err != nil {
		logger.Error("failed to init minio", "error", err)
		os.Exit(1)
	}

	//nats is shared by the job queue and the backbone
	var conn *natsgo.Conn
	if cfg.NATS.Enabled || cfg.Backbone.Enabled {
		conn, err = nats.Connect(cfg.NATS.URL, "sociallink-api", logger)
		if err != nil {
			logger.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer conn.Close()
	}

	var backbone port.Backbone
	var natsBackbone *backbonenats.Backbone
	if cfg.Backbone.Enabled {
		natsBackbone, err = backbonenats.NewBackbone(ctx, conn, cfg.Backbone, logger)
		if err != nil {
			logger.Error("failed to init backbone", "error", err)
			os.Exit(1)
		}
		backbone = natsBackbone
		logger.Info("realtime backbone enabled", "node", natsBackbone.NodeID())
	}

	var queue port.JobQueue
	if cfg.NATS.Enabled {
		publisher, err := nats.NewPublisher(ctx, conn, cfg.NATS, logger)
		if err != nil {
			logger.Error("failed to init job queue", "error", err)
			os.Exit(1)
		}
		queue = publisher
	} else {
		logger.Warn("job queue disabled, videos are transcoded inline")
	}

	var pusher port.PushSender
	if webpush.Enabled(cfg.Push) {
		pusher = webpush.NewSender(cfg.Push, nil, logger)
	} else {
		logger.Warn("VAPID keys missing, web push disabled")
	}

	//repositories
	unitOfWork := postgres.NewUnitOfWork(db)
	friendRepo := postgres.NewSqlFriendRepository(db)

	//realtime
	connections := registry.NewRegistry()
	eventRouter, err := router.NewEventRouter(connections, friendRepo, backbone, logger)
	if err != nil {
		logger.Error("failed to init event router", "error", err)
		os.Exit(1)
	}
	presenceService := presence.NewPresenceService(connections, eventRouter, friendRepo, logger)
	notificationService := notification.NewNotificationService(unitOfWork, eventRouter, pusher, cfg.Push.FrontendURL, logger)
	dispatcher, err := dispatch.NewDispatcher(unitOfWork, eventRouter, presenceService, notificationService, logger)
	if err != nil {
		logger.Error("failed to init dispatcher", "error", err)
		os.Exit(1)
	}

	//media
	processor, err := transcode.NewProcessor(minioAdapter, ffmpeg.NewTranscoder(cfg.Transcode.FFmpegPath, nil, logger), cfg.Transcode, logger)
	if err != nil {
		logger.Error("failed to init media processor", "error", err)
		os.Exit(1)
	}
	mediaService := media.NewMediaService(unitOfWork, minioAdapter, queue, processor, cfg.Upload, logger)

	//http
	authenticator, err := authjwt.NewAuthenticator(cfg.Auth.JWTSecret)
	if err != nil {
		logger.Error("failed to init authenticator", "error", err)
		os.Exit(1)
	}
	handlers := chi.Handlers{
		Notification: notificationhandler.NewNotificationHandlerV1(notificationService, logger),
		Media:        mediahandler.NewMediaHandlerV1(mediaService, cfg.Upload.MaxSize, logger),
		Realtime:     ws.NewHandler(authenticator, presenceService, dispatcher, cfg.Realtime, logger),
	}

	httpRouter := chi.NewRouter(logger, authenticator, handlers, cfg.Env.Env, cfg.Realtime.AllowedOrigins)
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: httpRouter,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		servErr := server.ListenAndServe()
		if servErr != nil && !errors.Is(servErr, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", servErr)
			stop()
		}
	}()

	//wait for context cancel
	<-ctx.Done()
	logger.Info("gracefully shutting down app")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	} else {
		logger.Info("server gracefully shutdown complete")
	}

	if natsBackbone != nil {
		if err := natsBackbone.Close(shutdownCtx); err != nil {
			logger.Error("failed to clear backbone membership", "error", err)
		}
	}

	wg.Wait()
	logger.Info("app shutdown complete")

}
