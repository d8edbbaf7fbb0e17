package cache

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	flock "github.com/theckman/go-flock"

	"github.com/loonghao/rez-next/internal/logx"
)

// magic and layoutVersion identify the on-disk format (§6.5):
// [magic u32][version u16][entry-count u32] (entry){entry-count}, each
// entry [key-len u32][key bytes][value-len u32][value bytes][meta u64].
const (
	magic          uint32 = 0x52455A43 // "REZC"
	layoutVersion  uint16 = 1
)

// Codec converts a cache value to and from the bytes stored in the value
// slot of the §6.5 layout. Callers supply one since Cache.Value is an
// opaque interface{}; the cache package itself has no business knowing how
// to serialize a pkgmodel.Package or an envctx.Context.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(b []byte) (interface{}, error)
}

// SaveWarm persists the warm tier to path using the §6.5 layout, holding an
// exclusive file lock (github.com/theckman/go-flock, grounded on the
// teacher's vendored but unused dependency of the same name) for the
// duration of the write so a concurrent process never observes a partial
// file.
func (c *Cache) SaveWarm(path string, codec Codec) error {
	fl := flock.NewFlock(path + ".lock")
	if err := fl.Lock(); err != nil {
		return err
	}
	defer fl.Unlock()

	var buf bytes.Buffer
	var entries []struct {
		key string
		e   *Entry
	}
	c.warm.mu.RLock()
	for k, e := range c.warm.entries {
		entries = append(entries, struct {
			key string
			e   *Entry
		}{k, e})
	}
	c.warm.mu.RUnlock()

	var body bytes.Buffer
	var written uint32
	for _, item := range entries {
		valBytes, err := codec.Encode(item.e.Value)
		if err != nil {
			if logx.Enabled(c.l, logrus.WarnLevel) {
				c.l.WithFields(logrus.Fields{"key": item.key, "error": err}).Warn("cache: skipping entry with unencodable value")
			}
			continue
		}
		keyBytes := []byte(item.key)
		_ = binary.Write(&body, binary.LittleEndian, uint32(len(keyBytes)))
		body.Write(keyBytes)
		_ = binary.Write(&body, binary.LittleEndian, uint32(len(valBytes)))
		body.Write(valBytes)
		_ = binary.Write(&body, binary.LittleEndian, item.e.AccessCount)
		written++
	}

	_ = binary.Write(&buf, binary.LittleEndian, magic)
	_ = binary.Write(&buf, binary.LittleEndian, layoutVersion)
	_ = binary.Write(&buf, binary.LittleEndian, written)
	buf.Write(body.Bytes())

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// LoadWarm reads a §6.5 persisted file back into the warm tier. Persistence
// is best-effort (§6.5): a corrupt or unreadable file is logged and
// discarded, never returned as a fatal error.
func (c *Cache) LoadWarm(path string, codec Codec) {
	fl := flock.NewFlock(path + ".lock")
	if err := fl.Lock(); err != nil {
		c.warnCorrupt(path, err)
		return
	}
	defer fl.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		c.warnCorrupt(path, err)
		return
	}
	if err := c.decodeWarm(data, codec); err != nil {
		c.warnCorrupt(path, err)
	}
}

func (c *Cache) decodeWarm(data []byte, codec Codec) error {
	r := bytes.NewReader(data)
	var gotMagic uint32
	var gotVersion uint16
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &gotMagic); err != nil {
		return err
	}
	if gotMagic != magic {
		return errInvalidMagic
	}
	if err := binary.Read(r, binary.LittleEndian, &gotVersion); err != nil {
		return err
	}
	if gotVersion != layoutVersion {
		return errUnsupportedVersion
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return err
	}

	for i := uint32(0); i < count; i++ {
		key, err := readChunk(r)
		if err != nil {
			return err
		}
		val, err := readChunk(r)
		if err != nil {
			return err
		}
		var meta uint64
		if err := binary.Read(r, binary.LittleEndian, &meta); err != nil {
			return err
		}
		decoded, err := codec.Decode(val)
		if err != nil {
			continue
		}
		c.warm.put(string(key), &Entry{Value: decoded, AccessCount: meta, Tier: TierWarm}, c.cfg.Policy)
	}
	return nil
}

func readChunk(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *Cache) warnCorrupt(path string, err error) {
	if logx.Enabled(c.l, logrus.WarnLevel) {
		c.l.WithFields(logrus.Fields{"path": path, "error": err}).Warn("cache: discarding corrupt or unreadable persisted file")
	}
}

type persistError string

func (e persistError) Error() string { return string(e) }

const (
	errInvalidMagic       = persistError("cache: invalid magic number in persisted file")
	errUnsupportedVersion = persistError("cache: unsupported persisted file layout version")
)
