package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all environment-driven settings for the server.
//
// GitHubToken is deliberately optional: tools that need it degrade to a
// MISSING_CREDENTIAL error instead of preventing startup, so the agent
// can still run the diagnostic and be told how to fix its setup.
type Config struct {
	GitHubToken string `env:"GITHUB_TOKEN"`

	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	// GitHubAPIURL and GitHubWebURL are overridable for tests and for
	// GitHub Enterprise hosts.
	GitHubAPIURL string `env:"GITHUB_API_URL,default=https://api.github.com/"`
	GitHubWebURL string `env:"GITHUB_WEB_URL,default=https://github.com"`

	DefaultBranch string `env:"DEFAULT_BRANCH,default=main"`

	ToolTimeout  time.Duration `env:"TOOL_TIMEOUT,default=10s"`
	CloneTimeout time.Duration `env:"CLONE_TIMEOUT,default=30s"`

	// Identity written by fix_git_setup when none is configured.
	GitIdentityName  string `env:"GIT_IDENTITY_NAME,default=AI Agent"`
	GitIdentityEmail string `env:"GIT_IDENTITY_EMAIL,default=ai-agent@example.com"`

	// Prefix for clone probe directories under the system temp dir.
	ProbeDirPrefix string `env:"PROBE_DIR_PREFIX,default=clone_test_"`
}

func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	if cfg.ToolTimeout <= 0 {
		return nil, fmt.Errorf("TOOL_TIMEOUT must be positive, got %s", cfg.ToolTimeout)
	}
	if cfg.CloneTimeout <= 0 {
		return nil, fmt.Errorf("CLONE_TIMEOUT must be positive, got %s", cfg.CloneTimeout)
	}
	return &cfg, nil
}

// SetupLogging initializes the global slog logger with JSON output at the specified level.
func SetupLogging(level string) {
	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn", "warning":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
}
