package main

import (
	"chispa/api"
	"chispa/auth"
	"chispa/contract"
	"chispa/media"
	"chispa/moderation"
	"chispa/observability"
	"chispa/projection"
	"chispa/repositories"
	"chispa/runtime"
	"chispa/services"
	"chispa/sink"
	"chispa/storage"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes every component and owns the shutdown sequence, so the
// deferred cleanups always execute before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage: BadgerDB documents, Bluge index, blob directory
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(config.IndexFilepath))
	if err != nil {
		return fmt.Errorf("index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = writer.Close()
	}()

	blobs := storage.NewDiskBlobStore(config.UploadsFilepath, log)

	// 3. Moderation from the embedded dictionaries
	censored, err := moderation.LoadEmbedded()
	if err != nil {
		return fmt.Errorf("loading censored words: %w", err)
	}
	log.Info("Moderation loaded", "languages", censored.Languages, "words", len(censored.Words))
	moderator, err := moderation.NewModerator(censored.Words, config.ModerationCharReplacement)
	if err != nil {
		return fmt.Errorf("building moderator: %w", err)
	}

	// 4. Repositories, permanent sinks and the orchestrator
	index := repositories.NewMessageIndex(writer, log)
	timeline := projection.NewTimeline(config.TimelineSize)
	orchestrator := runtime.NewOrchestrator(log,
		repositories.NewConversationRepository(db, log),
		repositories.NewMessageRepository(db, log, config.LimitMessages),
		&moderator,
		media.NewUploader(blobs, log),
		runtime.NewRegistry(),
		[]contract.EventSink{sink.NewSearchSink(index, log), timeline},
		runtime.Config{
			EventBuffer:       config.EventBufferSize,
			SinkTimeout:       config.SinkTimeout,
			RestartInterval:   config.RestartInterval,
			TelemetryInterval: config.TelemetryInterval,
		},
	)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Start the engine and the monitor
	if err = orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("orchestrator failed to start: %w", err)
	}
	monitor := observability.NewMonitor(log)
	go monitor.Run(ctx, orchestrator.TelemetryEvents())

	// 7. HTTP server
	tokens := auth.NewTokenManager(config.JWTKey, config.TokenDuration)
	server := api.NewServer(
		services.NewChatService(orchestrator, index, log),
		services.NewAccountService(repositories.NewUserRepository(db), tokens),
		tokens, blobs, monitor, log,
	)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address)
		if err := server.Listen(address); err != nil {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 8. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final cleanup
	if err = server.Shutdown(); err != nil {
		log.Warn("HTTP shutdown failed", "error", err)
	}
	orchestrator.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
