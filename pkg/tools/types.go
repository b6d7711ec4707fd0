package tools

import (
	"context"
	"time"

	"github.com/isitobservable/git-doctor-mcp/pkg/config"
	"github.com/isitobservable/git-doctor-mcp/pkg/githubapi"
	"github.com/isitobservable/git-doctor-mcp/pkg/repourl"
)

type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]interface{}
	Run(ctx context.Context, args map[string]interface{}) (*StandardResponse, error)
}

type StandardResponse struct {
	Timestamp string      `json:"timestamp"`
	Tool      string      `json:"tool"`
	Data      interface{} `json:"data"`
}

func NewResponse(toolName string, data interface{}) *StandardResponse {
	return &StandardResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Tool:      toolName,
		Data:      data,
	}
}

// GitRunner is the subset of the git subprocess runner the tools use.
type GitRunner interface {
	Installed() (string, bool)
	Version(ctx context.Context) (string, error)
	Clone(ctx context.Context, url, dest string) error
	ConfigGetGlobal(ctx context.Context, key string) (string, error)
	ConfigSetGlobal(ctx context.Context, key, value string) error
	CredentialHelper() (string, bool)
	CredentialReject(ctx context.Context, protocol, host string) error
}

// GitHub is the subset of the hosted API client the tools use.
type GitHub interface {
	AuthenticatedUser(ctx context.Context) (string, error)
	Repository(ctx context.Context, id repourl.Identity) (*githubapi.Repo, error)
	GetFile(ctx context.Context, id repourl.Identity, path, ref string) (*githubapi.File, error)
	PutFile(ctx context.Context, id repourl.Identity, path string, content []byte, message, ref string) (string, bool, error)
	CheckWebReachable(ctx context.Context) (int, error)
}

// ProbeDirs allocates and releases temporary probe directories.
type ProbeDirs interface {
	Acquire() (string, error)
	Release(dir string) error
}

type BaseTool struct {
	Cfg    *config.Config
	Git    GitRunner
	Hub    GitHub
	Probes ProbeDirs
}

func getStringArg(args map[string]interface{}, key string, defaultVal string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return defaultVal
}
