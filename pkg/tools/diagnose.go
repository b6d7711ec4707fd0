package tools

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/isitobservable/git-doctor-mcp/pkg/gitcmd"
	"github.com/isitobservable/git-doctor-mcp/pkg/types"
)

// gitProbeTimeout bounds the git --version check so a wedged binary
// cannot stall the whole diagnostic.
const gitProbeTimeout = 5 * time.Second

// --- diagnose_git_setup ---

type DiagnoseSetupTool struct{ BaseTool }

func (t *DiagnoseSetupTool) Name() string { return "diagnose_git_setup" }
func (t *DiagnoseSetupTool) Description() string {
	return "Run five environment checks (git binary, GitHub token, git identity, temp dir access, network) and report findings with remediation suggestions"
}
func (t *DiagnoseSetupTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// Run executes the checks in a fixed order with fault isolation: a
// failing check records its line and the rest still run, so one pass
// surfaces as many problems as possible. Status reflects that the
// diagnostic completed, not that every check passed.
func (t *DiagnoseSetupTool) Run(ctx context.Context, _ map[string]interface{}) (*StandardResponse, error) {
	report := &types.DiagnosticReport{
		Status:          types.StatusSuccess,
		Checks:          []string{},
		Recommendations: []string{},
	}

	t.checkGitBinary(ctx, report)
	t.checkToken(ctx, report)
	t.checkIdentity(ctx, report)
	t.checkTempDir(report)
	t.checkNetwork(ctx, report)

	return NewResponse(t.Name(), report), nil
}

func (t *DiagnoseSetupTool) checkGitBinary(ctx context.Context, report *types.DiagnosticReport) {
	vctx, cancel := context.WithTimeout(ctx, gitProbeTimeout)
	defer cancel()

	version, err := t.Git.Version(vctx)
	switch gitcmd.ErrorCode(err) {
	case "":
		report.Checks = append(report.Checks, fmt.Sprintf("%s Git installed: %s", types.MarkerOK, version))
	case types.ErrCodeProcessNotFound:
		report.Checks = append(report.Checks, types.MarkerFail+" Git not found")
		report.Recommendations = append(report.Recommendations, "Install Git from https://git-scm.com/")
	case types.ErrCodeProcessTimeout:
		report.Checks = append(report.Checks, types.MarkerFail+" Git command timed out")
	default:
		report.Checks = append(report.Checks, types.MarkerFail+" Git not working properly")
		report.Recommendations = append(report.Recommendations, "Install Git: brew install git (macOS) or apt install git (Ubuntu)")
	}
}

func (t *DiagnoseSetupTool) checkToken(ctx context.Context, report *types.DiagnosticReport) {
	if t.Cfg.GitHubToken == "" {
		report.Checks = append(report.Checks, types.MarkerFail+" GITHUB_TOKEN not found")
		report.Recommendations = append(report.Recommendations,
			"Set GITHUB_TOKEN in the server environment with a valid GitHub Personal Access Token")
		return
	}

	login, err := t.Hub.AuthenticatedUser(ctx)
	if err != nil {
		if mcpErr, ok := err.(*types.MCPError); ok && mcpErr.Code == types.ErrCodeHTTPError {
			report.Checks = append(report.Checks, fmt.Sprintf("%s GitHub API access failed: %s", types.MarkerFail, mcpErr.Message))
		} else {
			report.Checks = append(report.Checks, fmt.Sprintf("%s GitHub API test failed: %v", types.MarkerFail, err))
		}
		report.Recommendations = append(report.Recommendations, "Check if GitHub token is valid and has repo scope")
		return
	}
	report.Checks = append(report.Checks, fmt.Sprintf("%s GitHub API access verified for user: %s", types.MarkerOK, login))
}

// checkIdentity reads both global identity keys; each missing key gets
// its own recommendation but the check stays a single entry.
func (t *DiagnoseSetupTool) checkIdentity(ctx context.Context, report *types.DiagnosticReport) {
	gctx, cancel := context.WithTimeout(ctx, gitProbeTimeout)
	defer cancel()

	name, nameErr := t.Git.ConfigGetGlobal(gctx, "user.name")
	email, emailErr := t.Git.ConfigGetGlobal(gctx, "user.email")

	hasName := nameErr == nil && name != ""
	hasEmail := emailErr == nil && email != ""

	switch {
	case hasName && hasEmail:
		report.Checks = append(report.Checks, fmt.Sprintf("%s Git identity: user.name=%s, user.email=%s", types.MarkerOK, name, email))
	case hasName:
		report.Checks = append(report.Checks, types.MarkerWarn+" Git user.email not set globally")
	case hasEmail:
		report.Checks = append(report.Checks, types.MarkerWarn+" Git user.name not set globally")
	default:
		report.Checks = append(report.Checks, types.MarkerWarn+" Git user.name and user.email not set globally")
	}
	if !hasName {
		report.Recommendations = append(report.Recommendations, "Run: git config --global user.name 'Your Name'")
	}
	if !hasEmail {
		report.Recommendations = append(report.Recommendations, "Run: git config --global user.email 'your.email@example.com'")
	}
}

func (t *DiagnoseSetupTool) checkTempDir(report *types.DiagnosticReport) {
	dir, err := t.Probes.Acquire()
	if err != nil {
		report.Checks = append(report.Checks, fmt.Sprintf("%s Cannot create temporary directories: %v", types.MarkerFail, err))
		report.Recommendations = append(report.Recommendations, "Check file system permissions")
		return
	}
	if err := t.Probes.Release(dir); err != nil {
		report.Checks = append(report.Checks, fmt.Sprintf("%s Created but could not remove temporary directory: %v", types.MarkerWarn, err))
		report.Recommendations = append(report.Recommendations, "Check file system permissions")
		return
	}
	report.Checks = append(report.Checks, types.MarkerOK+" Can create and remove temporary directories")
}

func (t *DiagnoseSetupTool) checkNetwork(ctx context.Context, report *types.DiagnosticReport) {
	status, err := t.Hub.CheckWebReachable(ctx)
	switch {
	case err != nil:
		report.Checks = append(report.Checks, fmt.Sprintf("%s Network connectivity issue: %v", types.MarkerFail, err))
		report.Recommendations = append(report.Recommendations, "Check internet connection and firewall settings")
	case status != http.StatusOK:
		report.Checks = append(report.Checks, fmt.Sprintf("%s GitHub not accessible: %d", types.MarkerFail, status))
	default:
		report.Checks = append(report.Checks, types.MarkerOK+" Network access to GitHub")
	}
}
