package repo

import "time"

// elapsed is a plain time.Duration alias kept distinct for readability at
// call sites that accumulate scan timings.
type elapsed = time.Duration

func now() time.Time       { return time.Now() }
func since(t time.Time) elapsed { return time.Since(t) }

// RootError records a fatal enumeration failure for one repository root
// (§4.3: "fatal for that root but not for sibling roots").
type RootError struct {
	Root string
	Err  error
}

// Report accumulates the scan metrics named in §4.3: peak concurrency,
// per-phase elapsed time, mmap count, and cache hit/miss counts.
type Report struct {
	PackagesFound    int
	EnumerateElapsed elapsed
	ParseElapsed     elapsed
	PeakConcurrency  int
	MmapCount        int
	CacheHits        int
	CacheMisses      int
	ParseErrors      []ParseError
	RootErrors       []RootError
}

// ParseError records a non-fatal per-package parse failure (§4.3: "logged
// to the scan report and does not abort enumeration").
type ParseError struct {
	Path string
	Err  error
}

// merge folds another root's report into the aggregate produced by
// ScanAll, summing counters and taking the max of PeakConcurrency.
func (r *Report) merge(other Report) {
	r.PackagesFound += other.PackagesFound
	r.EnumerateElapsed += other.EnumerateElapsed
	r.ParseElapsed += other.ParseElapsed
	if other.PeakConcurrency > r.PeakConcurrency {
		r.PeakConcurrency = other.PeakConcurrency
	}
	r.MmapCount += other.MmapCount
	r.CacheHits += other.CacheHits
	r.CacheMisses += other.CacheMisses
	r.ParseErrors = append(r.ParseErrors, other.ParseErrors...)
	r.RootErrors = append(r.RootErrors, other.RootErrors...)
}
