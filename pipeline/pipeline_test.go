package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loonghao/rez-next/cache"
	"github.com/loonghao/rez-next/repo"
	"github.com/loonghao/rez-next/solver"
)

func writePkg(t *testing.T, root, name, ver, body string) {
	t.Helper()
	dir := filepath.Join(root, name, ver)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.yaml"), []byte(body), 0o644))
}

func newTestPipeline() *Pipeline {
	return New(Config{}, cache.Config{})
}

func TestRunResolvesAndBuildsContext(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "app", "1.0.0", "name: app\nversion: \"1.0.0\"\nrequires:\n  - \"lib-1.0.0\"\n")
	writePkg(t, root, "lib", "1.0.0", "name: lib\nversion: \"1.0.0\"\n"+
		"commands:\n  - setenv: [\"LIB_ROOT\", \"/opt/lib\"]\n")

	p := newTestPipeline()
	res, err := p.Run(context.Background(), Request{
		Requirements: []string{"app"},
		Roots:        []repo.Root{{Path: root}},
	})
	require.NoError(t, err)
	require.Len(t, res.ResolvedSet.Entries, 2)
	assert.Equal(t, solver.StatusSolved, res.Report.Solve.Status)
	assert.False(t, res.Report.ContextCached)
	assert.NotZero(t, res.Context.Fingerprint)
}

func TestRunReusesCachedContextOnSecondCall(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "app", "1.0.0", "name: app\nversion: \"1.0.0\"\n")

	p := newTestPipeline()
	req := Request{Requirements: []string{"app"}, Roots: []repo.Root{{Path: root}}}

	first, err := p.Run(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Report.ContextCached)

	second, err := p.Run(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Report.ContextCached)
	assert.Equal(t, first.Context.Fingerprint, second.Context.Fingerprint)
}

func TestRunReportsUnsolvableMissingPackage(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "app", "1.0.0", "name: app\nversion: \"1.0.0\"\nrequires:\n  - \"nope-1\"\n")

	p := newTestPipeline()
	_, err := p.Run(context.Background(), Request{
		Requirements: []string{"app"},
		Roots:        []repo.Root{{Path: root}},
	})
	require.Error(t, err)
}

func TestRunRejectsMalformedRequirement(t *testing.T) {
	p := newTestPipeline()
	_, err := p.Run(context.Background(), Request{
		Requirements: []string{"???not-a-requirement"},
		Roots:        []repo.Root{{Path: t.TempDir()}},
	})
	require.Error(t, err)
}
