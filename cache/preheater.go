package cache

import (
	"sort"
	"sync"
	"time"
)

// preheater tracks recently observed keys in a bounded ring buffer and, on
// a background tick, re-touches keys that are still warm-tier resident but
// look likely to be asked for again soon — an opportunistic promotion pass
// that runs ahead of the next Get rather than reacting to it.
type preheater struct {
	c       *Cache
	ring    []string
	seen    map[string]int
	head    int
	mu      sync.Mutex
	tickDur time.Duration
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func newPreheater(c *Cache, bufSize int) *preheater {
	return &preheater{
		c:       c,
		ring:    make([]string, bufSize),
		seen:    make(map[string]int, bufSize),
		tickDur: 500 * time.Millisecond,
	}
}

// observe records a key access into the ring buffer, evicting the oldest
// slot's key from the frequency table when the buffer wraps.
func (p *preheater) observe(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if old := p.ring[p.head]; old != "" {
		p.seen[old]--
		if p.seen[old] <= 0 {
			delete(p.seen, old)
		}
	}
	p.ring[p.head] = key
	p.seen[key]++
	p.head = (p.head + 1) % len(p.ring)
}

// candidates returns keys observed more than once in the current ring
// buffer window, most frequent first, without mutating state.
func (p *preheater) candidates() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.seen))
	for k, n := range p.seen {
		if n > 1 {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if p.seen[out[i]] != p.seen[out[j]] {
			return p.seen[out[i]] > p.seen[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

func (p *preheater) start() (stop func()) {
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	go p.run()
	return func() {
		close(p.stopCh)
		<-p.doneCh
	}
}

func (p *preheater) run() {
	defer close(p.doneCh)
	t := time.NewTicker(p.tickDur)
	defer t.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-t.C:
			for _, key := range p.candidates() {
				if e, ok := p.c.warm.get(key); ok && e.AccessCount >= p.c.cfg.PromotionThreshold {
					p.c.promote(key, e)
				}
			}
		}
	}
}
