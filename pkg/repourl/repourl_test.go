package repourl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isitobservable/git-doctor-mcp/pkg/types"
)

func TestParse_validForms(t *testing.T) {
	want := Identity{Owner: "acme", Name: "widgets"}

	for _, raw := range []string{
		"https://github.com/acme/widgets",
		"http://github.com/acme/widgets",
		"github.com/acme/widgets",
		"https://github.com/acme/widgets.git",
		"https://github.com/acme/widgets/",
		"https://github.com/acme/widgets.git/",
		"github.com/acme/widgets.git",
	} {
		got, err := Parse(raw)
		require.NoError(t, err, "input %q", raw)
		assert.Equal(t, want, got, "input %q", raw)
	}
}

func TestParse_ownerWithDots(t *testing.T) {
	got, err := Parse("https://github.com/my.org-1/repo_x.y")
	require.NoError(t, err)
	assert.Equal(t, Identity{Owner: "my.org-1", Name: "repo_x.y"}, got)
}

func TestParse_malformed(t *testing.T) {
	for _, raw := range []string{
		"not-a-url",
		"",
		"https://github.com/onlyowner",
		"https://gitlab.com/acme/widgets",
		"github.com/",
	} {
		_, err := Parse(raw)
		require.Error(t, err, "input %q", raw)

		mcpErr, ok := err.(*types.MCPError)
		require.True(t, ok, "input %q", raw)
		assert.Equal(t, types.ErrCodeInvalidURL, mcpErr.Code)
		assert.Contains(t, mcpErr.Message, "invalid GitHub URL format")
	}
}

func TestParse_errorEchoesInput(t *testing.T) {
	_, err := Parse("not-a-url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-a-url")
}

func TestIdentityString(t *testing.T) {
	assert.Equal(t, "acme/widgets", Identity{Owner: "acme", Name: "widgets"}.String())
}
