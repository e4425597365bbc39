package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pairdiary/internal/auth"
	"pairdiary/internal/config"
	"pairdiary/internal/db"
	"pairdiary/internal/entry"
	httpx "pairdiary/internal/http"
	"pairdiary/internal/notion"
	"pairdiary/internal/profile"
	"pairdiary/internal/storage"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, _ := config.Load()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	notionClient := notion.NewClient(notion.ClientOptions{
		BaseURL:   cfg.NotionBaseURL,
		UserAgent: "pairdiary",
	})

	var uploader entry.Uploader
	if cfg.ImagesEnabled() {
		s3up, err := storage.NewS3Uploader(context.Background(), storage.S3Config{
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			logger.Fatal("s3 uploader", zap.Error(err))
		}
		uploader = s3up
	} else {
		logger.Warn("blob storage not configured, embedded images will be dropped")
	}

	resolver := &profile.Resolver{DB: gdb}
	svc := entry.NewService(notionClient, resolver, uploader, logger)

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	r := httpx.NewRouter(svc, resolver, jwtSvc)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
