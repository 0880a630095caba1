package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"helix/internal/chat"
	"helix/internal/config"
	"helix/internal/llm"
	"helix/internal/logging"
	"helix/internal/notify"
	"helix/internal/search"
	"helix/internal/sequence"
	"helix/internal/server"
	"helix/internal/store"
	"helix/internal/tools"
)

// serveCmd runs the HTTP API with the WebSocket notification hub.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Helix HTTP API",
	Long: `Starts the Helix HTTP server.

Endpoints:
  POST   /chat                      - run a chat turn
  POST   /sessions                  - create a session
  DELETE /sessions/{id}             - delete a session
  GET    /sessions/{id}/sequence    - read the current sequence
  GET    /sessions/{id}/messages    - read the transcript
  GET    /ws                        - live sequence updates (WebSocket)
  GET    /health                    - liveness probe`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logging.Initialize(workspace); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.CloseAll()

	searchTimeout, err := cfg.SearchTimeout()
	if err != nil {
		return fmt.Errorf("invalid search timeout: %w", err)
	}
	shutdownTimeout, err := cfg.ShutdownTimeout()
	if err != nil {
		return fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	st, err := store.New(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	client, err := llm.NewClient(cfg)
	if err != nil {
		return err
	}

	var searcher tools.Searcher
	if cfg.Search.APIKey != "" {
		searcher = search.NewClient(cfg.Search.APIKey, cfg.Search.BaseURL, searchTimeout)
	} else {
		logger.Warn("no search API key configured, search operations disabled")
	}

	hub := notify.NewHub(cfg.Server.AllowedOrigin)
	defer hub.Close()

	gen := sequence.NewGenerator(st, client, hub)
	dispatcher := tools.NewDispatcher(tools.NewCatalog(gen, searcher, st))

	phrasings := chat.NewPhrasings(cfg.Prompts.TemplatesPath)
	if cfg.Prompts.TemplatesPath != "" {
		if err := phrasings.Watch(ctx); err != nil {
			logger.Warn("phrasing template watch failed", zap.Error(err))
		}
	}

	orch := chat.NewOrchestrator(st, client, dispatcher, phrasings)
	handler := server.NewHandler(st, orch, hub)

	srv := server.New(handler.Router(cfg.Server.AllowedOrigin), cfg.Server.Port, shutdownTimeout)

	logger.Info("helix server starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.Bool("search_enabled", searcher != nil))
	logging.Server("listening on port %d", cfg.Server.Port)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("helix server stopped")
	return nil
}

// loadConfig resolves the config path from the flag or the workspace default.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath(workspace)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	// Keep the database inside the workspace unless an absolute path was
	// configured.
	if !filepath.IsAbs(cfg.Storage.DatabasePath) {
		cfg.Storage.DatabasePath = filepath.Join(workspace, cfg.Storage.DatabasePath)
	}
	if _, statErr := os.Stat(path); statErr == nil && logger != nil {
		logger.Debug("loaded config file", zap.String("path", path))
	}
	return cfg, nil
}
