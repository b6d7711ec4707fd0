package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/isitobservable/git-doctor-mcp/pkg/config"
	"github.com/isitobservable/git-doctor-mcp/pkg/githubapi"
	"github.com/isitobservable/git-doctor-mcp/pkg/repourl"
	"github.com/isitobservable/git-doctor-mcp/pkg/types"
)

// fakeGit counts invocations so tests can assert that fast-fail paths
// never reach a subprocess.
type fakeGit struct {
	calls int

	version    string
	versionErr error

	cloneFn  func(ctx context.Context, url, dest string) error
	cloneURL string

	globals   map[string]string
	setErr    error
	helper    string
	rejectErr error
}

func (f *fakeGit) Installed() (string, bool) { return "/usr/bin/git", true }

func (f *fakeGit) Version(ctx context.Context) (string, error) {
	f.calls++
	return f.version, f.versionErr
}

func (f *fakeGit) Clone(ctx context.Context, url, dest string) error {
	f.calls++
	f.cloneURL = url
	if f.cloneFn != nil {
		return f.cloneFn(ctx, url, dest)
	}
	return nil
}

func (f *fakeGit) ConfigGetGlobal(ctx context.Context, key string) (string, error) {
	f.calls++
	if v, ok := f.globals[key]; ok {
		return v, nil
	}
	return "", errors.New("exit status 1")
}

func (f *fakeGit) ConfigSetGlobal(ctx context.Context, key, value string) error {
	f.calls++
	if f.setErr != nil {
		return f.setErr
	}
	if f.globals == nil {
		f.globals = map[string]string{}
	}
	f.globals[key] = value
	return nil
}

func (f *fakeGit) CredentialHelper() (string, bool) { return f.helper, f.helper != "" }

func (f *fakeGit) CredentialReject(ctx context.Context, protocol, host string) error {
	f.calls++
	return f.rejectErr
}

type fakeHub struct {
	calls int

	user    string
	userErr error

	repo    *githubapi.Repo
	repoErr error

	file    *githubapi.File
	fileErr error
	gotRef  string

	commitSHA string
	updated   bool
	putErr    error
	putRef    string
	putMsg    string

	webStatus int
	webErr    error
}

func (f *fakeHub) AuthenticatedUser(ctx context.Context) (string, error) {
	f.calls++
	return f.user, f.userErr
}

func (f *fakeHub) Repository(ctx context.Context, id repourl.Identity) (*githubapi.Repo, error) {
	f.calls++
	return f.repo, f.repoErr
}

func (f *fakeHub) GetFile(ctx context.Context, id repourl.Identity, path, ref string) (*githubapi.File, error) {
	f.calls++
	f.gotRef = ref
	return f.file, f.fileErr
}

func (f *fakeHub) PutFile(ctx context.Context, id repourl.Identity, path string, content []byte, message, ref string) (string, bool, error) {
	f.calls++
	f.putMsg = message
	f.putRef = ref
	return f.commitSHA, f.updated, f.putErr
}

func (f *fakeHub) CheckWebReachable(ctx context.Context) (int, error) {
	f.calls++
	return f.webStatus, f.webErr
}

// fakeProbes hands out real temp dirs so clone stubs can create files
// in them, while tracking the acquire/release balance.
type fakeProbes struct {
	t          *testing.T
	acquireErr error
	releaseErr error

	acquired []string
	released []string
}

func (f *fakeProbes) Acquire() (string, error) {
	if f.acquireErr != nil {
		return "", f.acquireErr
	}
	dir := filepath.Join(f.t.TempDir(), "probe")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		f.t.Fatal(err)
	}
	f.acquired = append(f.acquired, dir)
	return dir, nil
}

func (f *fakeProbes) Release(dir string) error {
	f.released = append(f.released, dir)
	if f.releaseErr != nil {
		return f.releaseErr
	}
	return os.RemoveAll(dir)
}

func testConfig() *config.Config {
	return &config.Config{
		GitHubToken:      "sekrit-token",
		GitHubAPIURL:     "https://api.github.com/",
		GitHubWebURL:     "https://github.com",
		DefaultBranch:    "main",
		ToolTimeout:      5 * time.Second,
		CloneTimeout:     5 * time.Second,
		GitIdentityName:  "AI Agent",
		GitIdentityEmail: "ai-agent@example.com",
		ProbeDirPrefix:   "clone_test_",
	}
}

func newBase(t *testing.T) (BaseTool, *fakeGit, *fakeHub, *fakeProbes) {
	g := &fakeGit{version: "git version 2.44.0"}
	h := &fakeHub{user: "octocat", webStatus: 200}
	p := &fakeProbes{t: t}
	return BaseTool{Cfg: testConfig(), Git: g, Hub: h, Probes: p}, g, h, p
}

func mcpErrFrom(t *testing.T, err error) *types.MCPError {
	t.Helper()
	var mcpErr *types.MCPError
	if !errors.As(err, &mcpErr) {
		t.Fatalf("expected *types.MCPError, got %T: %v", err, err)
	}
	return mcpErr
}
