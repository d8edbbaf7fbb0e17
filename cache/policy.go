package cache

import "time"

// Policy selects which entry an eviction pass removes when a tier is over
// capacity (§3: "pluggable eviction policies").
type Policy uint8

const (
	PolicyLRU Policy = iota
	PolicyLFU
	PolicyFIFO
	PolicyTTL
)

func (p Policy) String() string {
	switch p {
	case PolicyLRU:
		return "lru"
	case PolicyLFU:
		return "lfu"
	case PolicyFIFO:
		return "fifo"
	case PolicyTTL:
		return "ttl"
	default:
		return "unknown"
	}
}

// TTL is the expiry duration consulted by PolicyTTL. Entries older than TTL
// (measured from InsertedAt) are evicted ahead of any other candidate.
var TTL = 30 * time.Minute

// worse reports whether candidate a is a better eviction target than b under
// policy p (i.e. a should be evicted before b).
func worse(p Policy, now time.Time, aKey string, a *Entry, bKey string, b *Entry) bool {
	switch p {
	case PolicyLFU:
		if a.AccessCount != b.AccessCount {
			return a.AccessCount < b.AccessCount
		}
		return a.LastAccessAt.Before(b.LastAccessAt)
	case PolicyFIFO:
		return a.InsertedAt.Before(b.InsertedAt)
	case PolicyTTL:
		aExpired := now.Sub(a.InsertedAt) >= TTL
		bExpired := now.Sub(b.InsertedAt) >= TTL
		if aExpired != bExpired {
			return aExpired
		}
		return a.InsertedAt.Before(b.InsertedAt)
	case PolicyLRU:
		fallthrough
	default:
		return a.LastAccessAt.Before(b.LastAccessAt)
	}
}
