package cache

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loonghao/rez-next/internal/logx"
)

// adjustment is one journal entry: a change the tuner made to the cache's
// tunables, plus the stats snapshot taken just before making it, so a
// later tick can decide whether the change helped and roll it back if not.
type adjustment struct {
	at            time.Time
	prevHotCap    int
	prevPromoThr  uint64
	statsBefore   Stats
}

// tuner periodically inspects hit-rate trends and nudges HotCapacity and
// PromotionThreshold. Every change is journaled; if the next tick's hit
// rate is worse than the tick before the change, the tuner rolls back to
// the journaled previous values rather than continuing to hunt blindly.
type tuner struct {
	c        *Cache
	mu       sync.Mutex
	journal  []adjustment
	lastHitRate float64
	tickDur  time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func newTuner(c *Cache) *tuner {
	return &tuner{c: c, tickDur: 5 * time.Second}
}

func (t *tuner) start() (stop func()) {
	t.stopCh = make(chan struct{})
	t.doneCh = make(chan struct{})
	go t.run()
	return func() {
		close(t.stopCh)
		<-t.doneCh
	}
}

func (t *tuner) run() {
	defer close(t.doneCh)
	ticker := time.NewTicker(t.tickDur)
	defer ticker.Stop()
	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

func (t *tuner) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.c.Stats()
	rate := hitRate(snap)

	if len(t.journal) > 0 {
		last := t.journal[len(t.journal)-1]
		if rate < hitRate(last.statsBefore) {
			t.c.cfg.HotCapacity = last.prevHotCap
			t.c.cfg.PromotionThreshold = last.prevPromoThr
			if logx.Enabled(t.c.l, logrus.InfoLevel) {
				t.c.l.WithFields(logrus.Fields{"hot_capacity": last.prevHotCap, "promotion_threshold": last.prevPromoThr}).
					Info("cache: tuner rolled back last adjustment")
			}
			t.journal = t.journal[:len(t.journal)-1]
			t.lastHitRate = rate
			return
		}
	}

	if rate < t.lastHitRate && t.lastHitRate > 0 {
		t.journal = append(t.journal, adjustment{
			at: time.Now(), prevHotCap: t.c.cfg.HotCapacity, prevPromoThr: t.c.cfg.PromotionThreshold,
			statsBefore: snap,
		})
		t.c.cfg.HotCapacity = t.c.cfg.HotCapacity + t.c.cfg.HotCapacity/10 + 1
		if t.c.cfg.PromotionThreshold > 1 {
			t.c.cfg.PromotionThreshold--
		}
	}
	t.lastHitRate = rate
}

func hitRate(s Stats) float64 {
	total := s.HotHits + s.HotMisses + s.WarmHits + s.WarmMisses
	if total == 0 {
		return 0
	}
	return float64(s.HotHits+s.WarmHits) / float64(total)
}
