package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mindprep/mindprep/internal/attendance"
	"github.com/mindprep/mindprep/internal/credential"
	"github.com/mindprep/mindprep/internal/gemini"
	"github.com/mindprep/mindprep/internal/kv"
	"github.com/mindprep/mindprep/internal/notes"
	"github.com/mindprep/mindprep/internal/platform/config"
	"github.com/mindprep/mindprep/internal/quiz"
	"github.com/mindprep/mindprep/internal/quota"
	"github.com/mindprep/mindprep/internal/topics"
	"github.com/mindprep/mindprep/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	store, cleanup, err := openStore(ctx, cfg.Store)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer cleanup()
	slog.Info("store ready", "backend", cfg.Store.Backend)

	tree, err := loadTopics(cfg.TopicsPath)
	if err != nil {
		slog.Error("failed to load topics", "path", cfg.TopicsPath, "error", err)
		os.Exit(1)
	}

	vault, err := credential.NewVault(store, cfg.Device.Secret)
	if err != nil {
		slog.Error("failed to init credential vault", "error", err)
		os.Exit(1)
	}

	geminiOpts := []gemini.Option{gemini.WithModel(cfg.Gemini.Model)}
	if cfg.Gemini.BaseURL != "" {
		geminiOpts = append(geminiOpts, gemini.WithBaseURL(cfg.Gemini.BaseURL))
	}
	client := gemini.NewClient(vault, geminiOpts...)

	controller := quiz.NewController(quiz.NewHistoryStore(store))
	if err := controller.LoadHistory(ctx); err != nil {
		slog.Error("failed to load attempt history", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(web.Config{
		Tree:       tree,
		Controller: controller,
		Generator:  client,
		Ledger:     quota.NewLedger(store, quota.WithLimit(cfg.Quiz.DailyLimit)),
		Notes:      notes.NewBook(store),
		Calendar:   attendance.NewCalendar(store),
		Vault:      vault,
		BatchSize:  cfg.Quiz.BatchSize,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger(cfg config.LogConfig) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// openStore builds the configured persistence backend. The returned cleanup
// closes whatever the backend holds open.
func openStore(ctx context.Context, cfg config.StoreConfig) (kv.Store, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case "memory":
		return kv.NewMemoryStore(), noop, nil

	case "file":
		store, err := kv.NewFileStore(cfg.FilePath)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case "redis":
		store, err := kv.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				slog.Warn("closing redis", "error", err)
			}
		}, nil

	case "postgres":
		pool, err := kv.NewPostgresPool(ctx, cfg.PostgresURL, cfg.MaxConns, cfg.MinConns)
		if err != nil {
			return nil, noop, err
		}
		store, err := kv.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		return store, pool.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func loadTopics(path string) (*topics.Tree, error) {
	if path == "" {
		return topics.DefaultTree(), nil
	}
	return topics.LoadDir(path)
}
