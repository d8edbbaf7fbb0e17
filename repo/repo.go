// Package repo implements the Repository Scanner (C3): concurrent
// directory enumeration and package-definition parsing over a repository
// root laid out as <root>/<name>/<version>/package.<ext>.
//
// The two-phase shape (enumerate, then parse with a bounded worker pool)
// is grounded on the teacher's pkgtree package, which walks a source tree
// concurrently and reports per-path errors without aborting the whole
// walk; this package applies that to package repositories (§4.3), walking
// down to the version directories within a configurable depth, and adds a
// cache consult ahead of every parse.
package repo

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/karrick/godirwalk"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/loonghao/rez-next/cache"
	"github.com/loonghao/rez-next/internal/errs"
	"github.com/loonghao/rez-next/internal/logx"
	"github.com/loonghao/rez-next/pkgmodel"
	"github.com/loonghao/rez-next/version"
)

// Root is one configured repository location. Priority orders masking when
// the same (name, version) is found under more than one Root: lower
// Priority values are consulted first and mask later roots (§4.3).
type Root struct {
	Path     string
	Priority int
}

// Config bounds the scanner's concurrency and parsing behavior.
type Config struct {
	MaxFanout      int // directory entries considered per level; 0 = unbounded
	MaxDepth       int // recursion depth from the repository root; 0 = unbounded
	Concurrency    int64
	MmapThreshold  int64 // files at or above this size are memory-mapped
	Logger         *logrus.Logger
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
	if c.MmapThreshold <= 0 {
		c.MmapThreshold = 64 * 1024
	}
	return c
}

// Entry is one discovered package found on disk, with the path of its
// definition file and the root (path and priority) it was found under.
type Entry struct {
	Package     pkgmodel.Package
	Path        string
	RootPath    string
	RootPriority int
}

// Scanner discovers packages under a set of Roots, consulting a Cache for
// already-parsed entries.
type Scanner struct {
	cfg   Config
	cache *cache.Cache
	l     *logrus.Logger
}

func New(cfg Config, c *cache.Cache) *Scanner {
	return &Scanner{cfg: cfg.withDefaults(), cache: c, l: logx.Or(cfg.Logger)}
}

// ByName returns a radix-tree index of the given entries (typically a
// ScanAll/Scan result), letting a caller do an efficient exact or prefix
// lookup by package name (e.g. every "maya_*" package) without a second
// linear scan.
func (s *Scanner) ByName(entries []Entry) *nameIndex {
	return buildNameIndex(entries)
}

// ScanAll scans every root and merges the results, applying root-priority
// masking: when two roots both contain (name, version), the lower-priority
// (earlier-configured) root wins and the other is dropped silently.
func (s *Scanner) ScanAll(ctx context.Context, roots []Root) ([]Entry, Report, error) {
	sorted := append([]Root(nil), roots...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	seen := make(map[string]bool) // name + "@" + version
	var merged []Entry
	var report Report

	for _, root := range sorted {
		entries, rpt, err := s.Scan(ctx, root)
		report.merge(rpt)
		if err != nil {
			report.RootErrors = append(report.RootErrors, RootError{Root: root.Path, Err: err})
			continue // fatal for this root only (§4.3)
		}
		for _, e := range entries {
			key := e.Package.Name + "@" + e.Package.Version.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, e)
		}
	}

	sortEntries(merged)
	return merged, report, nil
}

// Scan scans a single root, returning entries in (name ascending, version
// descending) order (§4.3).
func (s *Scanner) Scan(ctx context.Context, root Root) ([]Entry, Report, error) {
	report := Report{}

	tuples, enumElapsed, err := s.enumerate(ctx, root.Path)
	report.EnumerateElapsed = enumElapsed
	if err != nil {
		return nil, report, errs.Wrap(errs.KindIoError, err, "enumerating repository root").AtPath(root.Path)
	}

	entries, parseElapsed := s.parseAll(ctx, root, tuples, &report)
	report.ParseElapsed = parseElapsed
	report.PackagesFound = len(entries)

	sortEntries(entries)
	return entries, report, nil
}

// dirTuple is one (name, version-directory) pair discovered during
// enumeration.
type dirTuple struct {
	name       string
	versionDir string
}

// enumerate walks root concurrently via godirwalk, collecting one dirTuple
// per version directory found (§4.3: "recursively collect ... bounded by a
// configured maximum directory fanout and recursion depth"). A directory is
// a version directory once it directly holds a probed package definition
// file; every directory above it is walked looking for one, down to at most
// cfg.MaxDepth levels from root. The ordinary root/name/version layout is
// just the depth-2 case of this; a repository that groups packages under
// extra directories (root/group/name/version, and deeper) is walked the
// same way, bounded by the same MaxDepth. A semaphore bounds how many
// directories are probed concurrently; errgroup propagates the first fatal
// error and cancels the rest.
func (s *Scanner) enumerate(ctx context.Context, root string) ([]dirTuple, elapsed, error) {
	start := now()

	sem := semaphore.NewWeighted(s.cfg.Concurrency)
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var out []dirTuple

	var walk func(dir string, depth int) error
	walk = func(dir string, depth int) error {
		if hasPackageDefinition(dir) {
			mu.Lock()
			out = append(out, dirTuple{name: filepath.Base(filepath.Dir(dir)), versionDir: dir})
			mu.Unlock()
			return nil
		}
		if s.cfg.MaxDepth > 0 && depth >= s.cfg.MaxDepth {
			return nil
		}

		subdirs, err := listDirs(dir, s.cfg.MaxFanout)
		if err != nil {
			if logx.Enabled(s.l, logrus.WarnLevel) {
				s.l.WithFields(logrus.Fields{"dir": dir, "error": err}).Warn("repo: skipping unreadable directory")
			}
			return nil
		}
		for _, sd := range subdirs {
			sd := sd
			g.Go(func() error {
				if err := sem.Acquire(gctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)
				return walk(sd, depth+1)
			})
		}
		return nil
	}

	if err := walk(root, 0); err != nil {
		return nil, since(start), err
	}
	if err := g.Wait(); err != nil {
		return nil, since(start), err
	}
	return out, since(start), nil
}

// hasPackageDefinition reports whether dir directly contains a package
// definition file under any of pkgmodel.ProbeExtensions, marking it a
// version directory rather than an intermediate grouping directory.
func hasPackageDefinition(dir string) bool {
	for _, ext := range pkgmodel.ProbeExtensions {
		if _, err := os.Stat(filepath.Join(dir, pkgmodel.DefinitionFileName+ext)); err == nil {
			return true
		}
	}
	return false
}

// listDirs returns the immediate subdirectories of dir, truncated to
// maxFanout entries if maxFanout > 0 (§4.3's "bounded by a configured
// maximum directory fanout").
func listDirs(dir string, maxFanout int) ([]string, error) {
	dirents, err := godirwalk.ReadDirents(dir, nil)
	if err != nil {
		return nil, err
	}
	sort.Sort(dirents)

	var out []string
	for _, de := range dirents {
		if !de.IsDir() {
			continue
		}
		out = append(out, filepath.Join(dir, de.Name()))
		if maxFanout > 0 && len(out) >= maxFanout {
			break
		}
	}
	return out, nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Package.Name != entries[j].Package.Name {
			return entries[i].Package.Name < entries[j].Package.Name
		}
		return version.Less(entries[j].Package.Version, entries[i].Package.Version) // descending
	})
}
