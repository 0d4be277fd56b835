package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"funding_digest/internal/config"
	"funding_digest/internal/db"
	"funding_digest/internal/logger"
	"funding_digest/internal/server"
)

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file with secrets")
	flag.Parse()

	logger.Init()
	defer logger.Log.Info("Application stopped")

	cfg := config.Default()
	if err := cfg.LoadEnv(*envFile); err != nil {
		logger.Log.Fatalf("Env load error: %v", err)
	}
	if cfg.DatabaseURL == "" {
		logger.Log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatalf("DB connection error: %v", err)
	}
	defer database.Close()
	if err := database.Migrate(ctx); err != nil {
		logger.Log.Fatalf("DB migration error: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.NewServer(database).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Log.Infof("Starting HTTP server on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down...")
	ctxShutdown, cancelShutdown := context.WithTimeout(ctx, 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Log.Fatalf("Forced shutdown: %v", err)
	}
}
