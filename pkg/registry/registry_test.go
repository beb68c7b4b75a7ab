package registry

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad(t *testing.T) {
	g := &Graph{
		Version: "1",
		Entry:   "identify_machine",
		Nodes: []Activity{
			{ID: "identify_machine", TaskType: "identify-machine", Workflows: []string{"documentation"}},
		},
		Workflows: map[string][]string{"documentation": {"identify_machine", "retrieve_knowledge", "generate_answer"}},
	}

	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, Save(path, g))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, g, loaded)

	a, ok := loaded.Activity("identify_machine")
	require.True(t, ok)
	assert.Equal(t, "identify-machine", a.TaskType)

	_, ok = loaded.Activity("missing")
	assert.False(t, ok)
}

func TestWrite_Indented(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, &Graph{Entry: "identify_machine"}))
	assert.Contains(t, buf.String(), "\n  \"entry\": \"identify_machine\"")
}

func TestLoadRegistry_Missing(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
