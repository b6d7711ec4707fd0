package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isitobservable/git-doctor-mcp/pkg/types"
)

func fixReport(t *testing.T, resp *StandardResponse) *types.FixReport {
	t.Helper()
	report, ok := resp.Data.(*types.FixReport)
	require.True(t, ok)
	return report
}

func TestFix_appliesAllFixes(t *testing.T) {
	base, g, _, _ := newBase(t)
	g.helper = "osxkeychain"
	tool := &FixSetupTool{BaseTool: base}

	resp, err := tool.Run(context.Background(), nil)
	require.NoError(t, err)

	report := fixReport(t, resp)
	assert.Equal(t, types.StatusSuccess, report.Status)
	require.Len(t, report.FixesApplied, 3)
	assert.Contains(t, report.FixesApplied[0], "user.name and user.email")
	assert.Contains(t, report.FixesApplied[1], "osxkeychain")
	assert.Contains(t, report.FixesApplied[2], "Cleared cached credentials")

	assert.Equal(t, base.Cfg.GitIdentityName, g.globals["user.name"])
	assert.Equal(t, base.Cfg.GitIdentityEmail, g.globals["user.email"])
	assert.Equal(t, "osxkeychain", g.globals["credential.helper"])
}

func TestFix_noHelperSkipsSilently(t *testing.T) {
	base, g, _, _ := newBase(t)
	g.helper = ""
	tool := &FixSetupTool{BaseTool: base}

	resp, err := tool.Run(context.Background(), nil)
	require.NoError(t, err)

	report := fixReport(t, resp)
	require.Len(t, report.FixesApplied, 2, "absent helper produces no line at all")
	for _, line := range report.FixesApplied {
		assert.NotContains(t, line, "credential helper")
	}
}

func TestFix_identityFailureDoesNotStopOtherFixes(t *testing.T) {
	base, g, _, _ := newBase(t)
	g.setErr = errors.New("exit status 1")
	tool := &FixSetupTool{BaseTool: base}

	resp, err := tool.Run(context.Background(), nil)
	require.NoError(t, err, "a failed step must not fail the tool")

	report := fixReport(t, resp)
	assert.Equal(t, types.StatusSuccess, report.Status)

	joined := strings.Join(report.FixesApplied, "\n")
	assert.Contains(t, joined, types.MarkerFail+" Could not set Git config")
	assert.Contains(t, joined, "Cleared cached credentials", "later steps still run")
}

func TestFix_rejectFailureIsWarning(t *testing.T) {
	base, g, _, _ := newBase(t)
	g.rejectErr = errors.New("exit status 1")
	tool := &FixSetupTool{BaseTool: base}

	resp, err := tool.Run(context.Background(), nil)
	require.NoError(t, err)

	report := fixReport(t, resp)
	joined := strings.Join(report.FixesApplied, "\n")
	assert.Contains(t, joined, types.MarkerWarn+" Could not clear credentials")
}

func TestFix_rejectTargetsConfiguredHost(t *testing.T) {
	base, _, _, _ := newBase(t)
	base.Cfg.GitHubWebURL = "https://github.example.com"
	tool := &FixSetupTool{BaseTool: base}

	assert.Equal(t, "github.example.com", tool.hostName())
}
