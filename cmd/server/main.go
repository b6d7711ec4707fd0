package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isitobservable/git-doctor-mcp/pkg/config"
	"github.com/isitobservable/git-doctor-mcp/pkg/discovery"
	"github.com/isitobservable/git-doctor-mcp/pkg/gitcmd"
	"github.com/isitobservable/git-doctor-mcp/pkg/githubapi"
	mcpserver "github.com/isitobservable/git-doctor-mcp/pkg/mcp"
	"github.com/isitobservable/git-doctor-mcp/pkg/probes"
	"github.com/isitobservable/git-doctor-mcp/pkg/telemetry"
	"github.com/isitobservable/git-doctor-mcp/pkg/tools"
)

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	config.SetupLogging(cfg.LogLevel)

	slog.Info("starting mcp-git-doctor server", "port", cfg.Port, "token_present", cfg.GitHubToken != "")

	// Initialize OpenTelemetry tracer
	tracerShutdown, err := telemetry.InitTracer(context.Background())
	if err != nil {
		slog.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}

	// Initialize external-facing clients
	gitRunner := gitcmd.New()
	hub, err := githubapi.New(cfg.GitHubAPIURL, cfg.GitHubWebURL, cfg.GitHubToken, cfg.ToolTimeout)
	if err != nil {
		slog.Error("failed to create GitHub client", "error", err)
		os.Exit(1)
	}
	probeMgr := probes.NewManager(cfg.ProbeDirPrefix)

	// Create tool registry
	registry := tools.NewRegistry()

	base := tools.BaseTool{Cfg: cfg, Git: gitRunner, Hub: hub, Probes: probeMgr}

	// Register API-only tools (always available; they report their own
	// missing-credential errors)
	registry.Register(&tools.DiagnoseSetupTool{BaseTool: base})
	registry.Register(&tools.GetFileTool{BaseTool: base})
	registry.Register(&tools.CreateFileTool{BaseTool: base})

	// Create MCP server
	srv := mcpserver.NewServer(registry)

	// Git-dependent tool names for conditional registration
	gitToolNames := []string{"test_simple_clone", "fix_git_setup"}

	// Environment discovery with onChange callback: the clone and fix
	// tools appear only while a git binary is on PATH
	disc := discovery.New(gitRunner, func(features discovery.Features) {
		if features.HasGit {
			registry.Register(&tools.CloneProbeTool{BaseTool: base})
			registry.Register(&tools.FixSetupTool{BaseTool: base})
		} else {
			for _, name := range gitToolNames {
				registry.Unregister(name)
			}
		}

		// Re-sync tools with MCP server
		srv.SyncTools()
	})

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	probeMgr.Start(ctx)
	disc.Start(ctx)

	// Health check endpoints
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	healthMux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !disc.IsReady() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, "not ready: initial environment discovery pending")
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	// Start health check server on a separate port
	go func() {
		healthAddr := fmt.Sprintf(":%d", cfg.Port+1)
		slog.Info("health check server listening", "addr", healthAddr)
		if err := http.ListenAndServe(healthAddr, healthMux); err != nil && err != http.ErrServerClosed {
			slog.Error("health server error", "error", err)
		}
	}()

	// Start MCP Streamable HTTP server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := srv.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("MCP server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("server ready", "port", cfg.Port)

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	// Flush pending OTel spans before exit
	if err := tracerShutdown(shutdownCtx); err != nil {
		slog.Error("tracer shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
