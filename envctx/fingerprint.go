package envctx

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/loonghao/rez-next/solver"
)

// schemaTag is mixed into every fingerprint so a future change to the
// canonical serialization (or to this package's Op shape) can't silently
// collide with fingerprints computed under an older schema.
const schemaTag = "envctx/v1"

// Fingerprint computes the 64-bit non-cryptographic digest named in §4.6:
// a hash over the canonical serialization of the ResolvedSet's sorted
// (name, version, variant-index) tuples plus the schema tag. Two
// ResolvedSets with the same fingerprint must produce byte-identical
// contexts (§4.6, tested per §8), which holds here because canonicalSet
// is a pure function of exactly those tuples and Build's interpretation is
// deterministic given the same package set in the same order.
func Fingerprint(rs solver.ResolvedSet) uint64 {
	return xxhash.Sum64String(canonicalSet(rs) + "|" + schemaTag)
}

func canonicalSet(rs solver.ResolvedSet) string {
	tuples := make([]string, 0, len(rs.Entries))
	for _, e := range rs.Entries {
		tuples = append(tuples, e.Package.Name+"="+e.Package.Version.String()+"/"+strconv.Itoa(e.Variant))
	}
	sort.Strings(tuples)
	return strings.Join(tuples, ";")
}
