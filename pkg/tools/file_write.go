package tools

import (
	"context"
	"fmt"

	"github.com/isitobservable/git-doctor-mcp/pkg/repourl"
	"github.com/isitobservable/git-doctor-mcp/pkg/types"
)

const defaultCommitMessage = "AI Agent: Created file"

// --- create_file_via_api ---

type CreateFileTool struct{ BaseTool }

func (t *CreateFileTool) Name() string { return "create_file_via_api" }
func (t *CreateFileTool) Description() string {
	return "Create or update a file in a GitHub repository through the REST API (fallback when cloning is not possible)"
}
func (t *CreateFileTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"repository_url": map[string]interface{}{
				"type":        "string",
				"description": "GitHub repository URL (e.g., https://github.com/owner/repo)",
			},
			"file_path": map[string]interface{}{
				"type":        "string",
				"description": "Path of the file to create or update",
			},
			"file_content": map[string]interface{}{
				"type":        "string",
				"description": "Full content the file should have",
			},
			"commit_message": map[string]interface{}{
				"type":        "string",
				"description": "Commit message for the change",
			},
			"branch": map[string]interface{}{
				"type":        "string",
				"description": "Branch to commit to (defaults to the repository default branch)",
			},
		},
		"required": []string{"repository_url", "file_path", "file_content"},
	}
}

// Run writes the file via the contents endpoint. Overwrites of existing
// files work: the client fetches the current blob SHA first and sends
// it with the update.
func (t *CreateFileTool) Run(ctx context.Context, args map[string]interface{}) (*StandardResponse, error) {
	if t.Cfg.GitHubToken == "" {
		return nil, &types.MCPError{
			Code:       types.ErrCodeMissingCredential,
			Message:    "GitHub token not found",
			Tool:       t.Name(),
			Suggestion: "set GITHUB_TOKEN in the server environment",
		}
	}

	rawURL := getStringArg(args, "repository_url", "")
	filePath := getStringArg(args, "file_path", "")
	content := getStringArg(args, "file_content", "")
	message := getStringArg(args, "commit_message", defaultCommitMessage)
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

	ref := ""
	if branch != t.Cfg.DefaultBranch {
		ref = branch
	}

	commitSHA, updated, err := t.Hub.PutFile(ctx, id, filePath, []byte(content), message, ref)
	if err != nil {
		return nil, toolError(t.Name(), err)
	}

	verb := "created"
	if updated {
		verb = "updated"
	}
	return NewResponse(t.Name(), &types.FileWriteResult{
		Status:     types.StatusSuccess,
		Repository: id.String(),
		FilePath:   filePath,
		CommitSHA:  commitSHA,
		Updated:    updated,
		Message:    fmt.Sprintf("successfully %s %s using GitHub API", verb, filePath),
	}), nil
}
