package envctx

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/loonghao/rez-next/pkgmodel"
)

// §12.6 (supplemented from original_source/): Context gains
// MarshalBinary/UnmarshalBinary using the same length-prefixed layout
// §6.5 defines for persisted cache entries, so a built Context can be
// cached (and later reloaded) through Cache.SaveWarm/LoadWarm via a
// cache.Codec adapter without a second serialization format.

const ctxMagic uint32 = 0x52455A58 // "REZX"
const ctxVersion uint16 = 1

// MarshalBinary encodes c's operation list, fingerprint, and creation
// time. The originating ResolvedSet is not re-serialized: it is
// reconstructed by the caller from the fingerprint's cache key, consistent
// with §4.6's fingerprint-keyed caching contract.
func (c Context) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, ctxMagic)
	_ = binary.Write(&buf, binary.LittleEndian, ctxVersion)
	_ = binary.Write(&buf, binary.LittleEndian, c.Fingerprint)
	_ = binary.Write(&buf, binary.LittleEndian, c.CreatedAt.UnixNano())
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(c.Ops)))
	for _, op := range c.Ops {
		writeChunk(&buf, []byte{byte(opCode(op.Kind))})
		writeChunk(&buf, []byte(op.Name))
		writeChunk(&buf, []byte(op.Value))
		writeChunk(&buf, []byte(op.Separator))
		writeChunk(&buf, []byte(op.Message))
		writeChunk(&buf, []byte(op.Path))
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a []byte previously produced by MarshalBinary.
// The ResolvedSet field is left zero-valued; callers that need it look it
// up by Fingerprint through the pipeline's own bookkeeping.
func (c *Context) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	var magic uint32
	var ver uint16
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return err
	}
	if magic != ctxMagic {
		return errors.New("envctx: invalid magic number")
	}
	if err := binary.Read(r, binary.LittleEndian, &ver); err != nil {
		return err
	}
	if ver != ctxVersion {
		return errors.New("envctx: unsupported context layout version")
	}
	var fp uint64
	var nanos int64
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &fp); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &nanos); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return err
	}
	c.Fingerprint = fp
	c.CreatedAt = time.Unix(0, nanos)
	c.Ops = make([]Op, 0, count)
	for i := uint32(0); i < count; i++ {
		kindByte, err := readChunk(r)
		if err != nil {
			return err
		}
		name, err := readChunk(r)
		if err != nil {
			return err
		}
		value, err := readChunk(r)
		if err != nil {
			return err
		}
		sep, err := readChunk(r)
		if err != nil {
			return err
		}
		msg, err := readChunk(r)
		if err != nil {
			return err
		}
		path, err := readChunk(r)
		if err != nil {
			return err
		}
		if len(kindByte) != 1 {
			return errors.New("envctx: malformed op kind byte")
		}
		c.Ops = append(c.Ops, Op{
			Kind:      kindFromCode(kindByte[0]),
			Name:      string(name),
			Value:     string(value),
			Separator: string(sep),
			Message:   string(msg),
			Path:      string(path),
		})
	}
	return nil
}

func writeChunk(buf *bytes.Buffer, b []byte) {
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(b)))
	buf.Write(b)
}

func readChunk(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func opCode(k pkgmodel.CommandOp) byte {
	switch k {
	case pkgmodel.OpSetenv:
		return 0
	case pkgmodel.OpUnsetenv:
		return 1
	case pkgmodel.OpPrependenv:
		return 2
	case pkgmodel.OpAppendenv:
		return 3
	case pkgmodel.OpAlias:
		return 4
	case pkgmodel.OpInfo:
		return 5
	case pkgmodel.OpSource:
		return 6
	default:
		return 255
	}
}

func kindFromCode(b byte) pkgmodel.CommandOp {
	switch b {
	case 0:
		return pkgmodel.OpSetenv
	case 1:
		return pkgmodel.OpUnsetenv
	case 2:
		return pkgmodel.OpPrependenv
	case 3:
		return pkgmodel.OpAppendenv
	case 4:
		return pkgmodel.OpAlias
	case 5:
		return pkgmodel.OpInfo
	case 6:
		return pkgmodel.OpSource
	default:
		return ""
	}
}
