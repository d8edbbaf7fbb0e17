package cache

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loonghao/rez-next/internal/logx"
)

// Config fixes a Cache's capacities, eviction policy, and promotion
// threshold (§3). All fields have workable zero-value defaults applied by
// New.
type Config struct {
	HotCapacity         int
	WarmCapacity        int
	Policy              Policy
	PromotionThreshold  uint64 // warm accesses before promotion to hot
	PreheaterBufferSize int
	Logger              *logrus.Logger
}

func (c Config) withDefaults() Config {
	if c.HotCapacity <= 0 {
		c.HotCapacity = 4096
	}
	if c.WarmCapacity <= 0 {
		c.WarmCapacity = 65536
	}
	if c.PromotionThreshold == 0 {
		c.PromotionThreshold = 2
	}
	if c.PreheaterBufferSize <= 0 {
		c.PreheaterBufferSize = 256
	}
	return c
}

// Cache is the two-tier (hot + warm) cache described in §3. Reads consult
// hot first, then warm (promoting on sufficient warm-tier access); writes
// land in hot and demote hot's eviction candidate into warm rather than
// discarding it outright, following §3's "demoted, not dropped" phrasing.
type Cache struct {
	cfg  Config
	hot  *shardedMap
	warm *warmTier
	cnt  counters
	l    *logrus.Logger

	preheater *preheater
	tuner     *tuner
}

// New constructs a Cache. Background tasks (preheater, tuner) are not
// started until Start is called.
func New(cfg Config) *Cache {
	cfg = cfg.withDefaults()
	c := &Cache{
		cfg:  cfg,
		hot:  newShardedMap(),
		warm: newWarmTier(cfg.WarmCapacity),
		l:    logx.Or(cfg.Logger),
	}
	c.preheater = newPreheater(c, cfg.PreheaterBufferSize)
	c.tuner = newTuner(c)
	return c
}

// Start launches the preheater and adaptive tuner background goroutines.
// Callers own the returned stop function and must call it to avoid leaking
// goroutines.
func (c *Cache) Start() (stop func()) {
	stopPre := c.preheater.start()
	stopTune := c.tuner.start()
	return func() {
		stopPre()
		stopTune()
	}
}

// Get looks up key, consulting hot then warm. A warm hit that crosses
// PromotionThreshold accesses is promoted into hot.
func (c *Cache) Get(key string) (interface{}, bool) {
	if e, ok := c.hot.get(key); ok {
		c.cnt.hotHits.Add(1)
		c.preheater.observe(key)
		return e.Value, true
	}
	c.cnt.hotMisses.Add(1)

	if e, ok := c.warm.get(key); ok {
		c.cnt.warmHits.Add(1)
		c.preheater.observe(key)
		if e.AccessCount >= c.cfg.PromotionThreshold {
			c.promote(key, e)
		}
		return e.Value, true
	}
	c.cnt.warmMisses.Add(1)
	return nil, false
}

// Put inserts key into the hot tier, demoting hot's current eviction
// candidate into warm if hot is now over capacity.
func (c *Cache) Put(key string, value interface{}, size int64) {
	now := time.Now()
	e := &Entry{Value: value, Size: size, InsertedAt: now, LastAccessAt: now, Tier: TierHot}
	c.hot.put(key, e)

	if c.hot.len() <= c.cfg.HotCapacity {
		return
	}
	victimKey, victim, ok := c.hot.evictionCandidate(c.cfg.Policy)
	if !ok || victimKey == key {
		return
	}
	c.hot.delete(victimKey)
	victim.Tier = TierWarm
	c.cnt.demotions.Add(1)
	if evKey, evicted := c.warm.put(victimKey, victim, c.cfg.Policy); evicted {
		c.cnt.evictions.Add(1)
		if logx.Enabled(c.l, logrus.DebugLevel) {
			c.l.WithFields(logrus.Fields{"key": evKey, "policy": c.cfg.Policy}).Debug("cache: warm tier evicted entry")
		}
	}
}

func (c *Cache) promote(key string, e *Entry) {
	c.warm.delete(key)
	e.Tier = TierHot
	c.hot.put(key, e)
	c.cnt.promotions.Add(1)
	if logx.Enabled(c.l, logrus.DebugLevel) {
		c.l.WithFields(logrus.Fields{"key": key}).Debug("cache: promoted warm entry to hot")
	}
}

// Invalidate removes key from both tiers.
func (c *Cache) Invalidate(key string) {
	c.hot.delete(key)
	c.warm.delete(key)
}

// Clear empties both tiers and resets size counters (hit/miss/eviction
// counters are cumulative and are not reset).
func (c *Cache) Clear() {
	c.hot.clear()
	c.warm.clear()
}

// Stats returns an immutable snapshot of the cache's counters.
func (c *Cache) Stats() Stats {
	return Stats{
		HotHits:    c.cnt.hotHits.Load(),
		HotMisses:  c.cnt.hotMisses.Load(),
		WarmHits:   c.cnt.warmHits.Load(),
		WarmMisses: c.cnt.warmMisses.Load(),
		Promotions: c.cnt.promotions.Load(),
		Demotions:  c.cnt.demotions.Load(),
		Evictions:  c.cnt.evictions.Load(),
		HotSize:    c.hot.len(),
		WarmSize:   c.warm.len(),
	}
}
