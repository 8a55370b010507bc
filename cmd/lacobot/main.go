package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lacopro/lacobot/internal/cache"
	"github.com/lacopro/lacobot/internal/catalog"
	"github.com/lacopro/lacobot/internal/chat"
	"github.com/lacopro/lacobot/internal/config"
	"github.com/lacopro/lacobot/internal/conversation"
	"github.com/lacopro/lacobot/internal/groq"
	"github.com/lacopro/lacobot/internal/httpapi"
	"github.com/lacopro/lacobot/internal/memory"
	"github.com/lacopro/lacobot/internal/observability"
	"github.com/lacopro/lacobot/internal/prompt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	log.Printf("GROQ_API_KEY: %s", setOrNot(cfg.GroqAPIKey))
	log.Printf("DATABASE_URL: %s", setOrNot(cfg.DatabaseURL))

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	ctx := context.Background()

	memStore := memory.NewFileStore(cfg.MemoryFile)
	mem := memory.NewManager(ctx, memStore)
	mem.SetFlushHook(func(err error) {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.MemoryFlushes.WithLabelValues(status).Inc()
	})

	var source catalog.Source
	if cfg.DatabaseURL != "" {
		pg, err := catalog.NewPostgresSource(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("catalog source init failed, continuing without catalog: %v", err)
		} else {
			defer pg.Close()
			source = pg
		}
	} else {
		log.Printf("DATABASE_URL not set, catalog disabled")
	}

	cat := catalog.New(source)
	prompts := prompt.NewBuilder(cfg.WebsiteURL)
	if count, err := cat.Reload(ctx); err != nil {
		if !errors.Is(err, catalog.ErrNotConfigured) {
			log.Printf("initial catalog load failed: %v", err)
		}
	} else {
		prompts.Rebuild(cat.Products())
		metrics.CatalogProducts.Set(float64(count))
		log.Printf("loaded %d products into the system prompt", count)
	}

	upstream := groq.NewClient(groq.Config{
		URL:         cfg.GroqAPIURL,
		APIKey:      cfg.GroqAPIKey,
		Model:       cfg.GroqModel,
		Temperature: cfg.GroqTemperature,
		Timeout:     cfg.UpstreamTimeout,
	})

	orchestrator := chat.NewOrchestrator(
		prompts,
		prompt.Greeting,
		prompt.RateLimitFallback,
		conversation.NewStore(),
		mem,
		cache.New(cfg.CacheMaxSize),
		upstream,
		metrics,
		cfg.ChatWindow,
	)

	api := httpapi.New(cfg, orchestrator, cat, prompts, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	mem.StartFlusher(runCtx, cfg.MemoryFlushInterval)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	if err := mem.Flush(shutdownCtx); err != nil {
		log.Printf("final memory flush failed: %v", err)
	}

	log.Printf("shutdown complete")
}

func setOrNot(v string) string {
	if v == "" {
		return "not set"
	}
	return "set"
}
