package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"funding_digest/internal/config"
	"funding_digest/internal/db"
	"funding_digest/internal/digest"
	"funding_digest/internal/fetcher"
	"funding_digest/internal/logger"
	"funding_digest/internal/pipeline"
	"funding_digest/internal/vocab"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON run configuration")
	envFile := flag.String("env", ".env", "optional dotenv file with secrets")
	once := flag.Bool("once", false, "run a single digest even when a schedule is configured")
	flag.Parse()

	logger.Init()
	defer logger.Log.Info("Application stopped")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(*configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Log.WithField("path", *configPath).Info("Config file not found, using defaults")
		cfg = config.Default()
	case err != nil:
		logger.Log.Fatalf("Config load error: %v", err)
	}
	if err := cfg.LoadEnv(*envFile); err != nil {
		logger.Log.Fatalf("Env load error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Log.Fatalf("Invalid config: %v", err)
	}

	v, err := vocab.Load(cfg.VocabularyFile)
	if err != nil {
		logger.Log.Fatalf("Vocabulary load error: %v", err)
	}

	presenters := pipeline.Presenters{digest.NewConsole(os.Stdout)}
	if cfg.SMTP.Enabled() {
		presenters = append(presenters, digest.NewMailer(cfg.SMTP))
	} else {
		logger.Log.Info("SMTP not configured, mail delivery disabled")
	}
	if cfg.DatabaseURL != "" {
		database, err := db.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Log.Fatalf("DB connection error: %v", err)
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			logger.Log.Fatalf("DB migration error: %v", err)
		}
		presenters = append(presenters, database)
	}

	client := fetcher.NewClient(time.Duration(cfg.FetchTimeout)*time.Second, cfg.SummaryRunes)
	p, err := pipeline.New(cfg, v, client, presenters)
	if err != nil {
		logger.Log.Fatalf("Pipeline setup error: %v", err)
	}

	if cfg.Schedule == "" || *once {
		if _, err := p.Run(ctx); err != nil {
			logger.Log.Errorf("Digest run failed: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := p.Schedule(ctx, cfg.Schedule); err != nil {
		logger.Log.Fatalf("Scheduler error: %v", err)
	}
}
