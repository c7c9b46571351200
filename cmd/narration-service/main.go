// main package for the narration-service
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/narration-service/internal/audio"
	"github.com/book-expert/narration-service/internal/book"
	"github.com/book-expert/narration-service/internal/config"
	"github.com/book-expert/narration-service/internal/core"
	"github.com/book-expert/narration-service/internal/objectstore"
	"github.com/book-expert/narration-service/internal/server"
	"github.com/book-expert/narration-service/internal/speech"
	"github.com/book-expert/narration-service/internal/vision"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "narration-service-bootstrap.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create bootstrap logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return serve(cfg, finalLog)
}

func serve(cfg *config.Config, log *logger.Logger) error {
	store, err := buildStore(cfg)
	if err != nil {
		return err
	}

	visionClient := vision.NewClient(vision.ClientOptions{
		BaseURL:   cfg.Vision.BaseURL,
		APIKey:    cfg.Vision.APIKey,
		Model:     cfg.Vision.Model,
		MaxTokens: cfg.Vision.MaxTokens,
		Timeout:   time.Duration(cfg.Vision.TimeoutSeconds) * time.Second,
	})
	analyzer := vision.NewAnalyzer(visionClient, cfg.Vision.Workers, log)

	ttsClient := speech.NewClient(cfg.TTS.BaseURL, time.Duration(cfg.TTS.TimeoutSeconds)*time.Second)
	voices := speech.VoiceMap{
		Narrator: cfg.Voices.Narrator,
		Child:    cfg.Voices.Child,
		Male:     cfg.Voices.Male,
		Female:   cfg.Voices.Female,
	}

	pipeline := audio.NewPipeline(ttsClient, store, voices, log)
	books := book.NewRepo(store, log)

	gin.SetMode(gin.ReleaseMode)

	srv := server.New(analyzer, pipeline, books, ttsClient, log)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		shutdownErr := httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil {
			log.Error("HTTP server shutdown failed: %v", shutdownErr)
		}
	}()

	log.System("Narration-Service listening on %s (storage backend: %s)", httpServer.Addr, cfg.Storage.Backend)

	err = httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// buildStore selects the object storage backend from configuration. The
// backend name is validated during config loading.
func buildStore(cfg *config.Config) (core.ObjectStore, error) {
	if cfg.Storage.Backend == config.BackendNATS {
		natsConnection, err := nats.Connect(cfg.Storage.NATSURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS at '%s': %w", cfg.Storage.NATSURL, err)
		}

		jetstreamContext, err := natsConnection.JetStream()
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream context: %w", err)
		}

		store, err := objectstore.NewNats(jetstreamContext, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create NATS object store: %w", err)
		}

		return store, nil
	}

	return objectstore.NewCos(objectstore.CosConfig{
		Bucket:        cfg.Storage.Bucket,
		Region:        cfg.Storage.Region,
		Endpoint:      cfg.Storage.Endpoint,
		SecretID:      cfg.Storage.SecretID,
		SecretKey:     cfg.Storage.SecretKey,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	}), nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
