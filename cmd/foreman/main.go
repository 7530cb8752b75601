package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ent0n29/foreman/internal/agent"
	"github.com/ent0n29/foreman/internal/config"
	"github.com/ent0n29/foreman/internal/hosting"
	"github.com/ent0n29/foreman/internal/httpapi"
	"github.com/ent0n29/foreman/internal/observability"
	"github.com/ent0n29/foreman/internal/orchestrator"
	"github.com/ent0n29/foreman/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	var (
		store     tasks.Store
		storeMode string
	)
	if cfg.DatabaseURL != "" {
		pg, err := tasks.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("task store init failed: %v", err)
		}
		store = pg
		storeMode = "postgres"
	} else {
		store = tasks.NewMemoryStore()
		storeMode = "in-memory"
	}
	defer store.Close()
	log.Printf("task store: %s", storeMode)

	agentClient, err := agent.New(agent.Config{
		Mode:    cfg.AgentMode,
		BaseURL: cfg.AgentBaseURL,
		Token:   cfg.AgentToken,
	})
	if err != nil {
		log.Fatalf("agent client init failed: %v", err)
	}
	if cfg.AgentBaseURL == "" && !strings.EqualFold(cfg.AgentMode, "http") {
		log.Printf("agent client: mock (no AGENT_BASE_URL configured)")
	}

	hostingClient, err := newHostingClient(ctx, cfg)
	if err != nil {
		log.Fatalf("hosting client init failed: %v", err)
	}

	broker := tasks.NewBroker()
	service := orchestrator.NewService(store, agentClient, hostingClient, broker, metrics)
	reconciler := orchestrator.NewReconciler(store, agentClient, broker, metrics, cfg.ReconcileInterval)

	api := httpapi.New(service, broker, metrics, storeMode)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	reconciler.Start(runCtx)
	log.Printf("reconciler running every %s", cfg.ReconcileInterval)

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

	log.Printf("shutdown complete")
}

func newHostingClient(ctx context.Context, cfg config.Config) (hosting.Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.HostingMode))
	switch mode {
	case "github":
		return hosting.NewGitHubClient(ctx, cfg.GitHubToken, cfg.GitHubBaseBranch)
	case "mock":
		log.Printf("hosting client: mock")
		return hosting.NewMockClient(), nil
	default: // auto
		if cfg.GitHubToken != "" {
			return hosting.NewGitHubClient(ctx, cfg.GitHubToken, cfg.GitHubBaseBranch)
		}
		log.Printf("hosting client: mock (no GITHUB_TOKEN configured)")
		return hosting.NewMockClient(), nil
	}
}
