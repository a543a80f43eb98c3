/*
Package main is the entry point for the AI assistant chat server.

It is responsible for loading configuration, initializing the global logging
system, connecting to Postgres and object storage, starting the chat engine,
and gracefully handling operating system interrupt signals (SIGINT, SIGTERM)
to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/ai"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/chat"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/db"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/storage"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/configs"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/handler"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/logx"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/pow"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("pow_difficulty", cfg.PowDifficulty).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to Postgres and run pending migrations
	pool, err := db.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to connect to database")
	}
	defer pool.Close()

	queries := db.New(pool)

	// Object storage for message attachments
	attachments, err := storage.NewAttachmentService(storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize attachment storage")
	}

	// Chat engine with its model-query collaborator
	modelClient := ai.NewClient(cfg.AIBaseURL, cfg.AIAPIKey)
	chatServer := chat.NewServer(queries, modelClient)

	deps := &handler.AppDeps{
		Config:  cfg,
		DB:      queries,
		Chat:    chatServer,
		Storage: attachments,
		Pow:     pow.NewPoWManager(cfg.PowDifficulty),
	}

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler.Router(deps),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Chat server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	chatServer.Shutdown()

	logx.Info("Server gracefully stopped.")
}
