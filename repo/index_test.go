package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByNameIndexesAndSupportsPrefixWalk(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "maya_plugin_a", "1.0.0", "name: maya_plugin_a\nversion: \"1.0.0\"\n")
	writePkg(t, root, "maya_plugin_b", "1.0.0", "name: maya_plugin_b\nversion: \"1.0.0\"\n")
	writePkg(t, root, "houdini", "1.0.0", "name: houdini\nversion: \"1.0.0\"\n")

	s := New(Config{}, nil)
	entries, _, err := s.Scan(context.Background(), Root{Path: root})
	require.NoError(t, err)

	idx := s.ByName(entries)
	assert.Equal(t, 3, idx.Len())

	got, ok := idx.Get("houdini")
	require.True(t, ok)
	require.Len(t, got, 1)

	var prefixed []string
	idx.WalkPrefix("maya_", func(name string, entries []Entry) bool {
		prefixed = append(prefixed, name)
		return false
	})
	assert.ElementsMatch(t, []string{"maya_plugin_a", "maya_plugin_b"}, prefixed)
}
