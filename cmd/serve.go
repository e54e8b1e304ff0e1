package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gentaxai/gentax/api"
	"github.com/gentaxai/gentax/internal/chat"
	"github.com/gentaxai/gentax/internal/config"
	"github.com/gentaxai/gentax/internal/knowledge"
	"github.com/gentaxai/gentax/internal/llm"
	"github.com/gentaxai/gentax/internal/log"
	"github.com/gentaxai/gentax/internal/session"
)

var serveJSONLogs bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveJSONLogs, "json-logs", false, "emit logs as JSON")
	rootCmd.AddCommand(serveCmd)
}

// runServe wires the full service and blocks until SIGINT/SIGTERM.
func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := config.CheckRequiredEnv(); err != nil {
		return err
	}

	logger := log.New(log.Config{Level: slog.LevelInfo, JSON: serveJSONLogs})
	logger.Info("starting gentax", "version", Version, "model", cfg.FullModelName())

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// A corrupt session file is fatal: starting anyway would overwrite
	// recoverable history on the first persist.
	sessions, err := session.Open(cfg.SessionsFile, logger)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	logger.Info("session store ready", "path", cfg.SessionsFile, "sessions", sessions.Len())

	kb := knowledge.NewStore(cfg.KnowledgeDir, logger)
	if err := kb.Load(); err != nil {
		// Missing or empty knowledge base is not fatal; retrieval simply
		// returns nothing and answers go out without citations.
		logger.Warn("knowledge base unavailable", "dir", cfg.KnowledgeDir, "error", err)
	} else {
		sources, chunks, _ := kb.Stats()
		logger.Info("knowledge base loaded", "sources", sources, "chunks", chunks)
	}

	completer, err := llm.New(ctx, llm.Config{
		Model:       cfg.FullModelName(),
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("initializing LLM client: %w", err)
	}

	svc, err := chat.New(chat.Config{
		Sessions:    sessions,
		Retriever:   kb,
		Completer:   completer,
		Logger:      logger,
		DefaultTopK: cfg.TopK,
	})
	if err != nil {
		return fmt.Errorf("creating chat service: %w", err)
	}

	server, err := api.NewServer(api.ServerConfig{
		Logger:    logger,
		Chat:      svc,
		StaticDir: cfg.StaticDir,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := server.Run(ctx, cfg.Addr()); err != nil {
		return fmt.Errorf("HTTP server: %w", err)
	}

	// Flush any in-memory exchanges that landed between persists.
	if err := sessions.Persist(); err != nil {
		logger.Warn("final session persist failed", "error", err)
	}
	return nil
}
