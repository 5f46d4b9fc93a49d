package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"b0ase/cache"
	"b0ase/config"
	"b0ase/database"
	"b0ase/events"
	"b0ase/handlers"
	"b0ase/jobs"
	"b0ase/logger"
	"b0ase/mailer"
	"b0ase/middleware"
	"b0ase/pages"
	"b0ase/storage"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lg, err := logger.Init(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := database.Init(cfg.DatabaseURL, lg); err != nil {
		lg.Fatal("failed to initialize database", zap.Error(err))
	}

	// Optional integrations stay off when unconfigured
	var rdb *cache.Cache
	if cfg.Redis.Enabled() {
		rdb, err = cache.New(cfg.Redis)
		if err != nil {
			lg.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
	} else {
		lg.Warn("redis not configured; logout revocation and gig caching are disabled")
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.Kafka.Enabled() {
		publisher = events.NewKafkaPublisher(cfg.Kafka)
	}
	defer publisher.Close()

	var mail mailer.Mailer = mailer.Nop{}
	if cfg.SMTP.Enabled() {
		mail = mailer.NewSMTPMailer(cfg.SMTP)
	} else {
		lg.Warn("smtp not configured; emails will not be sent")
	}

	var uploads storage.Uploader
	if cfg.S3.Enabled() {
		s3, err := storage.NewS3Uploader(context.Background(), cfg.S3)
		if err != nil {
			lg.Fatal("failed to configure object storage", zap.Error(err))
		}
		uploads = s3
	}

	// A nil *cache.Cache must not become a non-nil interface
	var revoked middleware.RevocationStore
	if rdb != nil {
		revoked = rdb
	}
	auth := middleware.NewAuth(cfg.JWTSecret, cfg.JWTExpiration, database.GetDB(), revoked)

	scheduler := jobs.NewScheduler(database.GetDB(), lg, cfg.StaleInvitationAge)
	if err := scheduler.Start(cfg.InviteSweepSchedule); err != nil {
		lg.Fatal("failed to start scheduler", zap.Error(err))
	}

	site, err := pages.NewHandler()
	if err != nil {
		lg.Fatal("failed to parse page templates", zap.Error(err))
	}

	deps := &handlers.Deps{
		Config:  cfg,
		DB:      database.GetDB(),
		Auth:    auth,
		Cache:   rdb,
		Events:  publisher,
		Mailer:  mail,
		Uploads: uploads,
		Log:     lg,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handlers.NewRouter(deps, site),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		lg.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Error("server shutdown", zap.Error(err))
	}
	select {
	case <-scheduler.Stop().Done():
	case <-ctx.Done():
		lg.Warn("scheduler did not stop in time")
	}
}
