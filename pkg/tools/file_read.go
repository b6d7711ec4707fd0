package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/isitobservable/git-doctor-mcp/pkg/repourl"
	"github.com/isitobservable/git-doctor-mcp/pkg/types"
)

// --- get_github_file ---

type GetFileTool struct{ BaseTool }

func (t *GetFileTool) Name() string { return "get_github_file" }
func (t *GetFileTool) Description() string {
	return "Read a file's content from a GitHub repository via the REST API, without cloning"
}
func (t *GetFileTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"repository_url": map[string]interface{}{
				"type":        "string",
				"description": "GitHub repository URL (e.g., https://github.com/owner/repo)",
			},
			"file_path": map[string]interface{}{
				"type":        "string",
				"description": "Path of the file inside the repository",
			},
			"branch": map[string]interface{}{
				"type":        "string",
				"description": "Branch to read from (defaults to the repository default branch)",
			},
		},
		"required": []string{"repository_url", "file_path"},
	}
}

func (t *GetFileTool) Run(ctx context.Context, args map[string]interface{}) (*StandardResponse, error) {
	if t.Cfg.GitHubToken == "" {
		return nil, &types.MCPError{
			Code:       types.ErrCodeMissingCredential,
			Message:    "GitHub token not found",
			Tool:       t.Name(),
			Suggestion: "get a token from https://github.com/settings/tokens with 'repo' scope and set GITHUB_TOKEN",
		}
	}

	rawURL := getStringArg(args, "repository_url", "")
	filePath := getStringArg(args, "file_path", "")
	branch := getStringArg(args, "branch", t.Cfg.DefaultBranch)

	if filePath == "" {
		return nil, &types.MCPError{
			Code:    types.ErrCodeInvalidInput,
			Message: "file_path is required",
			Tool:    t.Name(),
		}
	}

	id, err := repourl.Parse(rawURL)
	if err != nil {
		return nil, toolError(t.Name(), err)
	}

	// The branch qualifier is only sent when it differs from the default.
	ref := ""
	if branch != t.Cfg.DefaultBranch {
		ref = branch
	}

	file, err := t.Hub.GetFile(ctx, id, filePath, ref)
	if err != nil {
		var mcpErr *types.MCPError
		if errors.As(err, &mcpErr) && mcpErr.Code == types.ErrCodeNotFound {
			return nil, &types.MCPError{
				Code:       types.ErrCodeNotFound,
				Message:    fmt.Sprintf("file not found: %s in %s", filePath, id),
				Tool:       t.Name(),
				Suggestion: "check the file path and branch name",
			}
		}
		return nil, toolError(t.Name(), err)
	}

	return NewResponse(t.Name(), &types.FileContent{
		Status:     types.StatusSuccess,
		Repository: id.String(),
		FilePath:   filePath,
		Branch:     branch,
		Size:       file.Size,
		Content:    file.Content,
		SHA:        file.SHA,
		Message:    fmt.Sprintf("successfully read %s from %s", filePath, id),
	}), nil
}

// toolError stamps the tool name onto an MCPError, or wraps anything
// else as an internal fault so the agent always gets a structured record.
func toolError(tool string, err error) error {
	var mcpErr *types.MCPError
	if errors.As(err, &mcpErr) {
		mcpErr.Tool = tool
		return mcpErr
	}
	return &types.MCPError{
		Code:    types.ErrCodeInternalError,
		Message: fmt.Sprintf("unexpected error: %v", err),
		Tool:    tool,
	}
}
