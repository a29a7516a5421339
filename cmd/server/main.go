package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rowanfalk/schemakg"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := schemakg.DefaultConfig()
	if *configPath != "" {
		loaded, err := schemakg.LoadConfig(*configPath)
		if err != nil {
			slog.Error("loading config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Override from environment variables.
	if v := os.Getenv("SCHEMAKG_SNAPSHOT_PATH"); v != "" {
		cfg.SnapshotPath = v
	}
	if v := os.Getenv("SCHEMAKG_VOCAB_PATH"); v != "" {
		cfg.VocabPath = v
	}
	if v := os.Getenv("SCHEMAKG_CHAT_PROVIDER"); v != "" {
		cfg.Chat.Provider = v
	}
	if v := os.Getenv("SCHEMAKG_CHAT_MODEL"); v != "" {
		cfg.Chat.Model = v
	}
	if v := os.Getenv("SCHEMAKG_CHAT_BASE_URL"); v != "" {
		cfg.Chat.BaseURL = v
	}
	if v := os.Getenv("SCHEMAKG_CHAT_API_KEY"); v != "" {
		cfg.Chat.APIKey = v
	}

	apiKey := os.Getenv("SCHEMAKG_API_KEY")
	corsOrigins := os.Getenv("SCHEMAKG_CORS_ORIGINS")

	builder, err := schemakg.New(cfg)
	if err != nil {
		slog.Error("creating builder", "error", err)
		os.Exit(1)
	}
	defer builder.Close()

	h := newHandler(builder)
	mux := http.NewServeMux()

	mux.HandleFunc("POST /texts", h.handleAddText)
	mux.HandleFunc("POST /ingest", h.handleIngest)
	mux.HandleFunc("POST /query", h.handleQuery)
	mux.HandleFunc("GET /entities", h.handleListEntities)
	mux.HandleFunc("GET /entities/{name}", h.handleFindEntity)
	mux.HandleFunc("GET /relations", h.handleListRelations)
	mux.HandleFunc("GET /export/jsonld", h.handleExportJSONLD)
	mux.HandleFunc("GET /export/turtle", h.handleExportTurtle)
	mux.HandleFunc("POST /snapshot", h.handleSaveSnapshot)
	mux.HandleFunc("GET /stats", h.handleStats)
	mux.HandleFunc("GET /health", h.handleHealth)

	// Middleware chain: recovery -> cors -> auth -> logging -> mux
	var handler http.Handler = mux
	handler = logMiddleware(handler)
	handler = authMiddleware(apiKey, handler)
	handler = corsMiddleware(corsOrigins, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // ingest of large documents can be long
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
