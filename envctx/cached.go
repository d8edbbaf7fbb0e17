package envctx

import (
	"fmt"

	"github.com/loonghao/rez-next/cache"
	"github.com/loonghao/rez-next/solver"
)

// BuildCached implements §4.6's caching contract: consult the cache by
// fingerprint first; on miss, interpret, store, and return.
func BuildCached(c *cache.Cache, rs solver.ResolvedSet) Context {
	fp := Fingerprint(rs)
	key := fmt.Sprintf("envctx:%d", fp)

	if c != nil {
		if v, ok := c.Get(key); ok {
			if ctx, ok := v.(Context); ok {
				return ctx
			}
		}
	}

	ctx := Build(rs)
	if c != nil {
		c.Put(key, ctx, int64(len(ctx.Ops)))
	}
	return ctx
}

// Codec adapts Context to cache.Codec so a warm tier holding built
// contexts can be persisted through Cache.SaveWarm/LoadWarm.
type Codec struct{}

func (Codec) Encode(v interface{}) ([]byte, error) {
	ctx, ok := v.(Context)
	if !ok {
		return nil, fmt.Errorf("envctx.Codec: unexpected value type %T", v)
	}
	return ctx.MarshalBinary()
}

func (Codec) Decode(b []byte) (interface{}, error) {
	var ctx Context
	if err := ctx.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return ctx, nil
}
