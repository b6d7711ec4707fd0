// Package gitcmd invokes the git binary as a subprocess, capturing exit
// code, stdout and stderr, with cancellation via context deadlines.
package gitcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/isitobservable/git-doctor-mcp/pkg/types"
)

// credentialHelpers are probed in order; the first binary found on PATH
// wins. Names follow git's helper binary convention.
var credentialHelpers = []string{
	"git-credential-osxkeychain",
	"git-credential-manager",
	"git-credential-libsecret",
	"git-credential-cache",
}

// CommandError is returned when git exits nonzero. It keeps both output
// streams so callers can surface them in diagnostics.
type CommandError struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("git %s: exit status %d: %s",
		strings.Join(e.Args, " "), e.ExitCode, strings.TrimSpace(e.Stderr))
}

// Runner executes git subcommands. The zero value is not usable; use New.
type Runner struct {
	bin string
}

func New() *Runner {
	return &Runner{bin: "git"}
}

// Installed reports whether the git binary is on PATH, and its location.
func (r *Runner) Installed() (string, bool) {
	path, err := exec.LookPath(r.bin)
	return path, err == nil
}

// Version returns the output of git --version, trimmed.
func (r *Runner) Version(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "", "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Clone clones url into dest. The caller bounds the operation with a
// context deadline; a deadline hit is classified as PROCESS_TIMEOUT by
// ErrorCode. The url may carry userinfo credentials and must never be
// logged by callers.
func (r *Runner) Clone(ctx context.Context, url, dest string) error {
	_, err := r.run(ctx, "", "clone", url, dest)
	return err
}

// ConfigGetGlobal reads a key from git's global configuration. A key
// that is unset yields an empty string and a nil error only when git
// itself distinguishes it; git exits 1 for unset keys, so callers get a
// CommandError and should treat it as absence.
func (r *Runner) ConfigGetGlobal(ctx context.Context, key string) (string, error) {
	out, err := r.run(ctx, "", "config", "--global", key)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ConfigSetGlobal writes a key in git's global configuration.
func (r *Runner) ConfigSetGlobal(ctx context.Context, key, value string) error {
	_, err := r.run(ctx, "", "config", "--global", key, value)
	return err
}

// CredentialHelper probes PATH for a known credential helper binary and
// returns its short name (the value git config credential.helper takes).
func (r *Runner) CredentialHelper() (string, bool) {
	for _, bin := range credentialHelpers {
		if _, err := exec.LookPath(bin); err == nil {
			return strings.TrimPrefix(bin, "git-credential-"), true
		}
	}
	return "", false
}

// CredentialReject purges any cached credential for protocol/host via
// git credential reject, which reads the target from stdin.
func (r *Runner) CredentialReject(ctx context.Context, protocol, host string) error {
	stdin := fmt.Sprintf("protocol=%s\nhost=%s\n\n", protocol, host)
	_, err := r.run(ctx, stdin, "credential", "reject")
	return err
}

// run executes git with the given arguments, returning captured stdout.
// Nothing is written to the process's own stdio.
func (r *Runner) run(ctx context.Context, stdin string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return stdout.String(), fmt.Errorf("git %s: %w", strings.Join(args, " "), context.DeadlineExceeded)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.String(), &CommandError{
			Args:     args,
			ExitCode: exitErr.ExitCode(),
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}
	}

	// Covers exec.ErrNotFound wrapped in *exec.Error.
	return stdout.String(), fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
}

// ErrorCode maps a Runner error to the agent-facing fault taxonomy.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, exec.ErrNotFound):
		return types.ErrCodeProcessNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return types.ErrCodeProcessTimeout
	default:
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			return types.ErrCodeProcessFailed
		}
		return types.ErrCodeInternalError
	}
}
