package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_registerGetUnregister(t *testing.T) {
	base, _, _, _ := newBase(t)
	r := NewRegistry()

	r.Register(&DiagnoseSetupTool{BaseTool: base})
	r.Register(&CloneProbeTool{BaseTool: base})

	tool, ok := r.Get("test_simple_clone")
	require.True(t, ok)
	assert.Equal(t, "test_simple_clone", tool.Name())

	r.Unregister("test_simple_clone")
	_, ok = r.Get("test_simple_clone")
	assert.False(t, ok)

	_, ok = r.Get("diagnose_git_setup")
	assert.True(t, ok)
}

func TestRegistry_listIsSorted(t *testing.T) {
	base, _, _, _ := newBase(t)
	r := NewRegistry()

	r.Register(&GetFileTool{BaseTool: base})
	r.Register(&CreateFileTool{BaseTool: base})
	r.Register(&FixSetupTool{BaseTool: base})
	r.Register(&DiagnoseSetupTool{BaseTool: base})

	var names []string
	for _, tool := range r.List() {
		names = append(names, tool.Name())
	}
	assert.Equal(t, []string{
		"create_file_via_api",
		"diagnose_git_setup",
		"fix_git_setup",
		"get_github_file",
	}, names)
}
