package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loonghao/rez-next/cache"
)

func writePkg(t *testing.T, root, name, ver, body string) {
	t.Helper()
	dir := filepath.Join(root, name, ver)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.yaml"), []byte(body), 0o644))
}

func TestScanOrderingAndDedup(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "alpha", "1.0.0", "name: alpha\nversion: \"1.0.0\"\n")
	writePkg(t, root, "alpha", "2.0.0", "name: alpha\nversion: \"2.0.0\"\n")
	writePkg(t, root, "beta", "1.0.0", "name: beta\nversion: \"1.0.0\"\n")

	s := New(Config{}, nil)
	entries, report, err := s.Scan(context.Background(), Root{Path: root})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 3, report.PackagesFound)

	assert.Equal(t, "alpha", entries[0].Package.Name)
	assert.Equal(t, "2.0.0", entries[0].Package.Version.String())
	assert.Equal(t, "alpha", entries[1].Package.Name)
	assert.Equal(t, "1.0.0", entries[1].Package.Version.String())
	assert.Equal(t, "beta", entries[2].Package.Name)
}

func TestScanTwiceIsDeterministic(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "alpha", "1.0.0", "name: alpha\nversion: \"1.0.0\"\n")
	writePkg(t, root, "alpha", "2.0.0", "name: alpha\nversion: \"2.0.0\"\n")

	s := New(Config{}, nil)
	e1, _, err := s.Scan(context.Background(), Root{Path: root})
	require.NoError(t, err)
	e2, _, err := s.Scan(context.Background(), Root{Path: root})
	require.NoError(t, err)

	require.Equal(t, len(e1), len(e2))
	for i := range e1 {
		assert.Equal(t, e1[i].Package.Name, e2[i].Package.Name)
		assert.Equal(t, e1[i].Package.Version.String(), e2[i].Package.Version.String())
	}
}

func TestScanConsultsCache(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "alpha", "1.0.0", "name: alpha\nversion: \"1.0.0\"\n")

	c := cache.New(cache.Config{})
	s := New(Config{}, c)

	_, r1, err := s.Scan(context.Background(), Root{Path: root})
	require.NoError(t, err)
	assert.Equal(t, 0, r1.CacheHits)
	assert.Equal(t, 1, r1.CacheMisses)

	_, r2, err := s.Scan(context.Background(), Root{Path: root})
	require.NoError(t, err)
	assert.Equal(t, 1, r2.CacheHits)
	assert.Equal(t, 0, r2.CacheMisses)
}

func TestScanAllMasksByPriority(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writePkg(t, rootA, "alpha", "1.0.0", "name: alpha\nversion: \"1.0.0\"\ndescription: from A\n")
	writePkg(t, rootB, "alpha", "1.0.0", "name: alpha\nversion: \"1.0.0\"\ndescription: from B\n")

	s := New(Config{}, nil)
	entries, _, err := s.ScanAll(context.Background(), []Root{
		{Path: rootA, Priority: 0},
		{Path: rootB, Priority: 1},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "from A", entries[0].Package.Description)
}

func TestScanSkipsInvalidPackageButContinues(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "alpha", "1.0.0", "name: alpha\nversion: \"1.0.0\"\n")
	writePkg(t, root, "badname", "1.0.0", "name: nomatch\nversion: \"1.0.0\"\n")

	s := New(Config{}, nil)
	entries, report, err := s.Scan(context.Background(), Root{Path: root})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alpha", entries[0].Package.Name)
	require.Len(t, report.ParseErrors, 1)
}

func TestScanMaxDepthStopsShortOfVersionDirectories(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "alpha", "1.0.0", "name: alpha\nversion: \"1.0.0\"\n")

	// root -> alpha (depth 1) -> 1.0.0 (depth 2). A MaxDepth of 1 stops
	// enumeration before it ever lists the version directory, so no
	// package definition is found.
	s := New(Config{MaxDepth: 1}, nil)
	entries, _, err := s.Scan(context.Background(), Root{Path: root})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScanMaxDepthAllowsOrdinaryTwoLevelLayout(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "alpha", "1.0.0", "name: alpha\nversion: \"1.0.0\"\n")

	s := New(Config{MaxDepth: 2}, nil)
	entries, _, err := s.Scan(context.Background(), Root{Path: root})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alpha", entries[0].Package.Name)
}

func TestPeakConcurrencyBoundedByConfig(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 10; i++ {
		writePkg(t, root, "pkg"+string(rune('a'+i)), "1.0.0", "name: pkg"+string(rune('a'+i))+"\nversion: \"1.0.0\"\n")
	}
	s := New(Config{Concurrency: 3}, nil)
	_, report, err := s.Scan(context.Background(), Root{Path: root})
	require.NoError(t, err)
	assert.LessOrEqual(t, report.PeakConcurrency, 3)
}
