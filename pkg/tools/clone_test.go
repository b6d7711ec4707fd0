package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isitobservable/git-doctor-mcp/pkg/gitcmd"
	"github.com/isitobservable/git-doctor-mcp/pkg/githubapi"
	"github.com/isitobservable/git-doctor-mcp/pkg/types"
)

// writeMinimalRepo lays down the layout git itself treats as a
// repository, so structure verification passes without shelling out.
func writeMinimalRepo(t *testing.T, dest string) {
	t.Helper()
	gitDir := filepath.Join(dest, ".git")
	require.NoError(t, os.MkdirAll(filepath.Join(gitDir, "objects"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(gitDir, "refs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "config"), []byte("[core]\n\trepositoryformatversion = 0\n"), 0o644))
}

func cloneReport(t *testing.T, resp *StandardResponse) *types.CloneTestReport {
	t.Helper()
	report, ok := resp.Data.(*types.CloneTestReport)
	require.True(t, ok)
	return report
}

func findCheck(t *testing.T, report *types.CloneTestReport, method string) types.CloneCheck {
	t.Helper()
	for _, c := range report.Tests {
		if c.Method == method {
			return c
		}
	}
	t.Fatalf("no %q sub-test in %+v", method, report.Tests)
	return types.CloneCheck{}
}

func TestClone_missingToken(t *testing.T) {
	base, g, h, _ := newBase(t)
	base.Cfg.GitHubToken = ""
	tool := &CloneProbeTool{BaseTool: base}

	_, err := tool.Run(context.Background(), map[string]interface{}{
		"repository_url": "https://github.com/acme/widgets",
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeMissingCredential, mcpErrFrom(t, err).Code)
	assert.Zero(t, g.calls, "no subprocess may run without a token")
	assert.Zero(t, h.calls, "no API call may run without a token")
}

func TestClone_invalidURL(t *testing.T) {
	base, g, h, _ := newBase(t)
	tool := &CloneProbeTool{BaseTool: base}

	_, err := tool.Run(context.Background(), map[string]interface{}{
		"repository_url": "not-a-url",
	})
	require.Error(t, err)

	mcpErr := mcpErrFrom(t, err)
	assert.Equal(t, types.ErrCodeInvalidURL, mcpErr.Code)
	assert.Contains(t, mcpErr.Message, "not-a-url")
	assert.Equal(t, tool.Name(), mcpErr.Tool)
	assert.Zero(t, g.calls)
	assert.Zero(t, h.calls)
}

func TestClone_success(t *testing.T) {
	base, g, h, p := newBase(t)
	g.cloneFn = func(ctx context.Context, url, dest string) error {
		writeMinimalRepo(t, dest)
		return nil
	}
	h.repo = &githubapi.Repo{FullName: "acme/widgets", Private: true}
	tool := &CloneProbeTool{BaseTool: base}

	resp, err := tool.Run(context.Background(), map[string]interface{}{
		"repository_url": "https://github.com/acme/widgets",
	})
	require.NoError(t, err)

	report := cloneReport(t, resp)
	assert.Equal(t, types.StatusSuccess, report.Status)
	assert.Equal(t, "acme/widgets", report.Repository)

	assert.Equal(t, types.StatusSuccess, findCheck(t, report, "Token in URL").Status)
	assert.Equal(t, types.StatusSuccess, findCheck(t, report, "Repository structure").Status)
	api := findCheck(t, report, "API Access")
	assert.Equal(t, types.StatusSuccess, api.Status)
	assert.Contains(t, api.Message, "private: true")

	// Token embedded as userinfo, host taken from config.
	assert.Equal(t, "https://sekrit-token@github.com/acme/widgets.git", g.cloneURL)

	require.Len(t, p.acquired, 1)
	assert.Equal(t, p.acquired, p.released, "probe dir must be released")
}

func TestClone_failureRedactsTokenAndIsTerminal(t *testing.T) {
	base, g, h, p := newBase(t)
	g.cloneFn = func(ctx context.Context, url, dest string) error {
		return &gitcmd.CommandError{
			Args:     []string{"clone"},
			ExitCode: 128,
			Stderr:   fmt.Sprintf("fatal: could not read from 'https://%s@github.com'", base.Cfg.GitHubToken),
			Stdout:   "Cloning into 'widgets'...",
		}
	}
	h.repoErr = &types.MCPError{Code: types.ErrCodeNotFound, Message: "not found or no access"}
	tool := &CloneProbeTool{BaseTool: base}

	resp, err := tool.Run(context.Background(), map[string]interface{}{
		"repository_url": "https://github.com/acme/widgets",
	})
	require.NoError(t, err)

	report := cloneReport(t, resp)
	assert.Equal(t, types.StatusError, report.Status, "status must be terminal, never 'testing'")

	clone := findCheck(t, report, "Token in URL")
	assert.Equal(t, types.StatusFailed, clone.Status)
	assert.NotContains(t, clone.Error, base.Cfg.GitHubToken)
	assert.Contains(t, clone.Error, "***")

	api := findCheck(t, report, "API Access")
	assert.Equal(t, types.StatusFailed, api.Status)
	assert.Equal(t, "repository not found or no access", api.Error)

	assert.Equal(t, p.acquired, p.released)
}

func TestClone_timeout(t *testing.T) {
	base, g, h, p := newBase(t)
	g.cloneFn = func(ctx context.Context, url, dest string) error {
		return fmt.Errorf("git clone: %w", context.DeadlineExceeded)
	}
	h.repo = &githubapi.Repo{FullName: "acme/widgets"}
	tool := &CloneProbeTool{BaseTool: base}

	resp, err := tool.Run(context.Background(), map[string]interface{}{
		"repository_url": "https://github.com/acme/widgets",
	})
	require.NoError(t, err)

	report := cloneReport(t, resp)
	clone := findCheck(t, report, "Token in URL")
	assert.Equal(t, types.StatusTimeout, clone.Status)
	assert.Contains(t, clone.Error, "timed out")
	assert.Equal(t, p.acquired, p.released)
}

func TestClone_cleanupFailureIsWarning(t *testing.T) {
	base, g, h, p := newBase(t)
	g.cloneFn = func(ctx context.Context, url, dest string) error {
		writeMinimalRepo(t, dest)
		return nil
	}
	h.repo = &githubapi.Repo{FullName: "acme/widgets"}
	p.releaseErr = fmt.Errorf("device busy")
	tool := &CloneProbeTool{BaseTool: base}

	resp, err := tool.Run(context.Background(), map[string]interface{}{
		"repository_url": "https://github.com/acme/widgets",
	})
	require.NoError(t, err)

	report := cloneReport(t, resp)
	assert.Equal(t, types.StatusSuccess, report.Status, "cleanup trouble must not change the result")

	cleanup := findCheck(t, report, "Cleanup")
	assert.Equal(t, types.StatusWarning, cleanup.Status)
	assert.Contains(t, cleanup.Message, "device busy")
}
