package repo

import (
	"sync"

	"github.com/armon/go-radix"
)

// nameIndex is a mutex-guarded radix tree mapping package name -> its
// Entries (one per discovered version), letting a caller do an efficient
// prefix lookup ("every package named tool_*") over a completed scan
// without a second linear pass.
//
// This is the teacher's gps/typed_radix.go wrapping of armon/go-radix,
// generalized from a single pathDeducer value per key to a slice of
// Entries per key (a scan may, and often does, find several versions of
// one name).
type nameIndex struct {
	mu sync.RWMutex
	t  *radix.Tree
}

func newNameIndex() *nameIndex {
	return &nameIndex{t: radix.New()}
}

func (idx *nameIndex) add(e Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if v, ok := idx.t.Get(e.Package.Name); ok {
		idx.t.Insert(e.Package.Name, append(v.([]Entry), e))
		return
	}
	idx.t.Insert(e.Package.Name, []Entry{e})
}

// Get returns every entry found for an exact name.
func (idx *nameIndex) Get(name string) ([]Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	v, ok := idx.t.Get(name)
	if !ok {
		return nil, false
	}
	return v.([]Entry), true
}

// WalkPrefix visits every (name, entries) pair whose name starts with
// prefix, in ascending name order (armon/go-radix's own walk order).
func (idx *nameIndex) WalkPrefix(prefix string, fn func(name string, entries []Entry) bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	idx.t.WalkPrefix(prefix, func(s string, v interface{}) bool {
		return fn(s, v.([]Entry))
	})
}

// Len reports the number of distinct package names indexed.
func (idx *nameIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.t.Len()
}

func buildNameIndex(entries []Entry) *nameIndex {
	idx := newNameIndex()
	for _, e := range entries {
		idx.add(e)
	}
	return idx
}
