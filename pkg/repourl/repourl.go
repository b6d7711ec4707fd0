// Package repourl extracts the owner/name pair from user-supplied
// GitHub repository URLs.
package repourl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/isitobservable/git-doctor-mcp/pkg/types"
)

// Identity is the (owner, name) pair a repository URL resolves to.
type Identity struct {
	Owner string
	Name  string
}

func (id Identity) String() string {
	return id.Owner + "/" + id.Name
}

// Matches "github.com/<owner>/<name>" with an optional trailing ".git"
// and/or slash, after the protocol scheme has been stripped.
var urlPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)

// Parse extracts the repository identity from raw. It tolerates an
// http:// or https:// prefix and a trailing .git or slash. A string
// that does not name an owner and repository fails with INVALID_URL.
func Parse(raw string) (Identity, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")

	m := urlPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return Identity{}, &types.MCPError{
			Code:       types.ErrCodeInvalidURL,
			Message:    fmt.Sprintf("invalid GitHub URL format: %s", raw),
			Suggestion: "use format: https://github.com/owner/repo",
		}
	}
	return Identity{Owner: m[1], Name: m[2]}, nil
}
