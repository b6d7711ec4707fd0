// Package githubapi wraps the GitHub REST API for the diagnostic tools:
// identity lookup, repository metadata, and per-file contents access.
package githubapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v84/github"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/isitobservable/git-doctor-mcp/pkg/repourl"
	"github.com/isitobservable/git-doctor-mcp/pkg/types"
)

// maxErrorSnippet bounds how much of an API error body is echoed back
// to the agent.
const maxErrorSnippet = 200

type Client struct {
	gh     *github.Client
	web    *http.Client
	webURL string
}

// New builds a client against apiURL (trailing slash required by the
// underlying library) authenticated with token. Outgoing requests are
// traced via otelhttp and bounded by timeout.
func New(apiURL, webURL, token string, timeout time.Duration) (*Client, error) {
	hc := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	gh := github.NewClient(hc)
	if token != "" {
		gh = gh.WithAuthToken(token)
	}

	base, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("parsing API URL %q: %w", apiURL, err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	gh.BaseURL = base

	return &Client{gh: gh, web: hc, webURL: webURL}, nil
}

// AuthenticatedUser resolves the login of the token's user.
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	user, resp, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return "", apiError(resp, err)
	}
	return user.GetLogin(), nil
}

// Repo is the subset of repository metadata the tools report on.
type Repo struct {
	FullName string
	Private  bool
}

// Repository fetches metadata for the repository. A 404 maps to
// NOT_FOUND so callers can report "not found or no access" distinctly.
func (c *Client) Repository(ctx context.Context, id repourl.Identity) (*Repo, error) {
	r, resp, err := c.gh.Repositories.Get(ctx, id.Owner, id.Name)
	if err != nil {
		return nil, apiError(resp, err)
	}
	return &Repo{FullName: r.GetFullName(), Private: r.GetPrivate()}, nil
}

// File is a single file's decoded content plus metadata.
type File struct {
	Content string
	SHA     string
	Size    int
}

// GetFile reads one file from the repository's contents endpoint. The
// ref is only sent when non-empty (callers omit it for the default
// branch). Base64 payloads are decoded by the client library.
func (c *Client) GetFile(ctx context.Context, id repourl.Identity, path, ref string) (*File, error) {
	var opts *github.RepositoryContentGetOptions
	if ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: ref}
	}

	fc, _, resp, err := c.gh.Repositories.GetContents(ctx, id.Owner, id.Name, path, opts)
	if err != nil {
		return nil, apiError(resp, err)
	}
	if fc == nil {
		return nil, &types.MCPError{
			Code:    types.ErrCodeInvalidInput,
			Message: fmt.Sprintf("%s is a directory, not a file", path),
		}
	}

	content, err := fc.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decoding content of %s: %w", path, err)
	}
	return &File{Content: content, SHA: fc.GetSHA(), Size: fc.GetSize()}, nil
}

// PutFile creates or updates a file through the contents endpoint. It
// first looks up the current blob SHA for the path so that overwrites
// carry the SHA the API requires; without it the API rejects updates to
// existing files. Returns the resulting commit SHA and whether an
// existing file was updated.
func (c *Client) PutFile(ctx context.Context, id repourl.Identity, path string, content []byte, message, ref string) (string, bool, error) {
	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		Content: content,
	}
	if ref != "" {
		opts.Branch = github.Ptr(ref)
	}

	existing, err := c.GetFile(ctx, id, path, ref)
	switch {
	case err == nil:
		opts.SHA = github.Ptr(existing.SHA)
	case IsNotFound(err):
		// New file; no prior SHA to send.
	default:
		return "", false, err
	}

	var written *github.RepositoryContentResponse
	var resp *github.Response
	if opts.SHA != nil {
		written, resp, err = c.gh.Repositories.UpdateFile(ctx, id.Owner, id.Name, path, opts)
	} else {
		written, resp, err = c.gh.Repositories.CreateFile(ctx, id.Owner, id.Name, path, opts)
	}
	if err != nil {
		return "", false, apiError(resp, err)
	}
	return written.Commit.GetSHA(), opts.SHA != nil, nil
}

// CheckWebReachable performs a plain GET of the hosting service's web
// endpoint and returns the status code.
func (c *Client) CheckWebReachable(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.webURL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.web.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// IsNotFound reports whether err is the NOT_FOUND mapping of a 404.
func IsNotFound(err error) bool {
	mcpErr, ok := err.(*types.MCPError)
	return ok && mcpErr.Code == types.ErrCodeNotFound
}

// apiError converts a go-github error into the agent-facing taxonomy:
// 404 becomes NOT_FOUND, any other non-2xx becomes HTTP_ERROR with the
// status code and a truncated detail snippet.
func apiError(resp *github.Response, err error) error {
	if resp == nil {
		return fmt.Errorf("github api: %w", err)
	}
	detail := err.Error()
	if len(detail) > maxErrorSnippet {
		detail = detail[:maxErrorSnippet]
	}
	if resp.StatusCode == http.StatusNotFound {
		return &types.MCPError{
			Code:    types.ErrCodeNotFound,
			Message: "not found or no access",
			Detail:  detail,
		}
	}
	return &types.MCPError{
		Code:    types.ErrCodeHTTPError,
		Message: fmt.Sprintf("GitHub API error: %d", resp.StatusCode),
		Detail:  detail,
	}
}
