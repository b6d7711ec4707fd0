package tools

import (
	"context"
	"fmt"
	"net/url"

	"github.com/isitobservable/git-doctor-mcp/pkg/types"
)

// --- fix_git_setup ---

type FixSetupTool struct{ BaseTool }

func (t *FixSetupTool) Name() string { return "fix_git_setup" }
func (t *FixSetupTool) Description() string {
	return "Apply common git setup fixes: set a default global identity, configure a detected credential helper, and purge cached GitHub credentials"
}
func (t *FixSetupTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// Run applies each fix independently and best-effort; a failed step is
// recorded in its own line and the remaining steps still run. Every
// step is safe to repeat.
func (t *FixSetupTool) Run(ctx context.Context, _ map[string]interface{}) (*StandardResponse, error) {
	report := &types.FixReport{
		Status:       types.StatusSuccess,
		FixesApplied: []string{},
		Message:      "Applied common Git fixes",
	}

	t.fixIdentity(ctx, report)
	t.fixCredentialHelper(ctx, report)
	t.fixCachedCredentials(ctx, report)

	return NewResponse(t.Name(), report), nil
}

func (t *FixSetupTool) fixIdentity(ctx context.Context, report *types.FixReport) {
	if err := t.Git.ConfigSetGlobal(ctx, "user.name", t.Cfg.GitIdentityName); err != nil {
		report.FixesApplied = append(report.FixesApplied,
			fmt.Sprintf("%s Could not set Git config: %v", types.MarkerFail, err))
		return
	}
	if err := t.Git.ConfigSetGlobal(ctx, "user.email", t.Cfg.GitIdentityEmail); err != nil {
		report.FixesApplied = append(report.FixesApplied,
			fmt.Sprintf("%s Could not set Git config: %v", types.MarkerFail, err))
		return
	}
	report.FixesApplied = append(report.FixesApplied, types.MarkerOK+" Set Git user.name and user.email")
}

func (t *FixSetupTool) fixCredentialHelper(ctx context.Context, report *types.FixReport) {
	helper, found := t.Git.CredentialHelper()
	if !found {
		return
	}
	if err := t.Git.ConfigSetGlobal(ctx, "credential.helper", helper); err != nil {
		report.FixesApplied = append(report.FixesApplied,
			fmt.Sprintf("%s Could not set credential helper: %v", types.MarkerWarn, err))
		return
	}
	report.FixesApplied = append(report.FixesApplied,
		fmt.Sprintf("%s Set Git credential helper: %s", types.MarkerOK, helper))
}

func (t *FixSetupTool) fixCachedCredentials(ctx context.Context, report *types.FixReport) {
	if err := t.Git.CredentialReject(ctx, "https", t.hostName()); err != nil {
		report.FixesApplied = append(report.FixesApplied,
			fmt.Sprintf("%s Could not clear credentials: %v", types.MarkerWarn, err))
		return
	}
	report.FixesApplied = append(report.FixesApplied, types.MarkerOK+" Cleared cached credentials")
}

func (t *FixSetupTool) hostName() string {
	if u, err := url.Parse(t.Cfg.GitHubWebURL); err == nil && u.Host != "" {
		return u.Host
	}
	return "github.com"
}
