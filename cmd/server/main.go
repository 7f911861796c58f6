package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"everlasting-kin/internal/config"
	"everlasting-kin/internal/database"
	"everlasting-kin/internal/router"
	"everlasting-kin/internal/session"
	"everlasting-kin/internal/storage"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	var sessions session.Store = session.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rs, err := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("[FATAL] redis: %v", err)
		}
		sessions = rs
		log.Println("[session] Using Redis at", cfg.RedisAddr)
	}
	defer sessions.Close()

	// A nil interface, not a nil *MinioStore, so uploads answer 503.
	var photos storage.PhotoStore
	if cfg.MinIO.Endpoint != "" {
		ms, err := storage.NewMinioStore(cfg.MinIO)
		if err != nil {
			log.Fatalf("[FATAL] minio: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = ms.EnsureBucket(ctx)
		cancel()
		if err != nil {
			log.Fatalf("[FATAL] minio: %v", err)
		}
		photos = ms
	} else {
		log.Println("[WARN] MINIO_ENDPOINT not set, record photo upload is disabled.")
	}

	app := router.New(cfg, sessions, photos)

	go func() {
		log.Println("Server listening on port:", cfg.HTTPPort)
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("[WARN] shutdown: %v", err)
	}
	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
