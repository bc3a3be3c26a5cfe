// Command scribe runs the audio transcription job service: an HTTP API over
// a bounded FIFO queue, a single worker driving the WhisperX and pyannote
// sidecars, and webhook delivery of finished results.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skillsenselab/scribe/api"
	"github.com/skillsenselab/scribe/config"
	"github.com/skillsenselab/scribe/diarization"
	"github.com/skillsenselab/scribe/diarization/pyannote"
	"github.com/skillsenselab/scribe/logger"
	"github.com/skillsenselab/scribe/resilience"
	"github.com/skillsenselab/scribe/scribe"
	"github.com/skillsenselab/scribe/server"
	"github.com/skillsenselab/scribe/transcription/whisperx"
	"github.com/skillsenselab/scribe/util"
	"github.com/skillsenselab/scribe/version"
)

const serviceName = "scribe"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scribe: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.Logging)
	log := logger.WithComponent("main")
	log.Info("Starting scribe", logger.Fields(
		"version", version.Short(),
		"queue_size", cfg.Queue.MaxSize,
		"engine", cfg.Engine.BaseURL,
		"diarization", cfg.Diarization.Enabled,
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := whisperx.NewEngine(cfg.Engine)
	if err := warmUp(ctx, engine, log); err != nil {
		return err
	}

	var diarizer diarization.Provider
	if cfg.Diarization.Enabled {
		diarizer = pyannote.NewProvider(cfg.Diarization.Pyannote)
		if !diarizer.IsAvailable(ctx) {
			// Diarization degrades gracefully; jobs still transcribe.
			log.Warn("diarization engine unavailable at startup", logger.Fields(
				"base_url", cfg.Diarization.Pyannote.BaseURL,
			))
		}
	}

	queue := scribe.NewQueue(cfg.Queue.MaxSize)
	store := scribe.NewStore(cfg.Queue.RetentionDuration(), cfg.Queue.CleanupBatch)
	stats := scribe.NewStatsCollector()
	dispatcher := scribe.NewDispatcher(cfg.Webhook.TimeoutDuration())

	worker := scribe.NewWorker(queue, store, stats, engine, engine, diarizer, dispatcher, scribe.WorkerConfig{
		JobTimeout: cfg.Queue.RequestTimeoutDuration(),
		FaultPause: cfg.Queue.FaultPauseDuration(),
	})
	go worker.Run(context.Background())

	svc := scribe.NewService(queue, store, stats, worker, engine, diarizer)

	srv := server.New(cfg.Server, logger.GetGlobalLogger())
	srv.ApplyMiddleware()
	srv.RegisterDefaultEndpoints(serviceName)

	authSecret := ""
	if cfg.Auth.Enabled {
		authSecret = cfg.Auth.Secret
		log.Info("API authentication enabled", logger.Fields(
			"secret", util.MaskSecret(cfg.Auth.Secret, 4),
		))
	}
	api.Register(srv.GinEngine(), api.NewHandler(svc), authSecret)

	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("Shutdown signal received")

	// Stop admission first, let the worker drain the queue, then flush
	// webhooks and close the listener.
	queue.Close()
	select {
	case <-worker.Done():
	case <-time.After(cfg.Queue.RequestTimeoutDuration() + 5*time.Second):
		log.Warn("worker did not drain before deadline")
	}
	dispatcher.Wait()

	if err := srv.Stop(context.Background()); err != nil {
		return err
	}
	log.Info("Shutdown complete")
	return nil
}

// warmUp waits for the recognition sidecar to come up, retrying with
// backoff. The service refuses to start without it.
func warmUp(ctx context.Context, engine *whisperx.Engine, log *logger.Logger) error {
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = 5
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		log.Warn("transcription engine not ready, retrying", logger.Fields(
			"attempt", attempt,
			"backoff", backoff.String(),
		))
	}

	err := resilience.RetryFunc(ctx, cfg, func() error {
		if !engine.IsAvailable(ctx) {
			return errors.New("transcription engine unavailable")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("transcription engine did not become available: %w", err)
	}
	log.Info("Transcription engine ready")
	return nil
}
