package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cadencehq/cadence/internal/backup"
	"github.com/cadencehq/cadence/internal/database"
	"github.com/cadencehq/cadence/internal/email"
	"github.com/cadencehq/cadence/internal/logging"
	"github.com/cadencehq/cadence/internal/motivation"
	"github.com/cadencehq/cadence/internal/push"
	"github.com/cadencehq/cadence/internal/server"
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	logger := logging.Setup(os.Getenv("CADENCE_LOG_LEVEL"))

	port := env("CADENCE_PORT", "8080")
	dbPath := env("CADENCE_DB_PATH", "cadence.db")

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("POSTMARK_SERVER_TOKEN"),
		env("POSTMARK_FROM_EMAIL", "noreply@cadence.app"),
	)

	gen := motivation.NewGeminiClient(
		os.Getenv("GEMINI_API_KEY"),
		env("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"),
	)

	backupCfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("CADENCE_S3_ENDPOINT"),
			Bucket:    os.Getenv("CADENCE_S3_BUCKET"),
			Region:    env("CADENCE_S3_REGION", "auto"),
			AccessKey: os.Getenv("CADENCE_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("CADENCE_S3_SECRET_KEY"),
		},
		DBPath:        dbPath,
		Passphrase:    os.Getenv("CADENCE_BACKUP_PASSPHRASE"),
		ScheduleHour:  envInt("CADENCE_BACKUP_HOUR", 3),
		RetentionDays: envInt("CADENCE_BACKUP_RETENTION_DAYS", 30),
	}

	pushCfg := push.Config{
		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
	}

	srv := server.New(db, emailClient, gen, backupCfg, pushCfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if mgr := srv.BackupManager(); mgr.Enabled() {
		mgr.Start(ctx)
		defer mgr.Stop()
		logger.Info("backup manager started", "hour", backupCfg.ScheduleHour)
	}
	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(ctx)
		defer sched.Stop()
		logger.Info("reminder scheduler started")
	}

	// Periodic cleanup of expired sessions, codes, and rate-limit state
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("cleanup sessions", "error", err)
				} else if n > 0 {
					logger.Info("cleaned up expired sessions", "count", n)
				}
				if _, err := srv.VerificationStore().DeleteExpired(); err != nil {
					logger.Error("cleanup verification codes", "error", err)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Cadence running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
