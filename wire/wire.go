// Package wire provides the little-endian byte packer and unpacker
// shared by the HCI, ATT, and SMP codecs. It mirrors the role of the
// `structbuf::Packer`/`Unpacker` types referenced throughout the
// original implementation: a flat byte-cursor pair, branch-free to use
// from decoders that prefix-decode a common header before dispatching
// on it.
package wire

import "encoding/binary"

// Packer accumulates a little-endian byte buffer. The zero value is
// usable; Bytes reports the accumulated content at any point.
type Packer struct {
	b []byte
}

// NewPacker returns a Packer with capacity hint n.
func NewPacker(n int) *Packer { return &Packer{b: make([]byte, 0, n)} }

func (p *Packer) U8(v uint8) { p.b = append(p.b, v) }

func (p *Packer) Bool(v bool) {
	if v {
		p.U8(1)
		return
	}
	p.U8(0)
}

func (p *Packer) I8(v int8)    { p.U8(uint8(v)) }
func (p *Packer) U16(v uint16) { p.b = binary.LittleEndian.AppendUint16(p.b, v) }
func (p *Packer) U24(v uint32) {
	p.b = append(p.b, byte(v), byte(v>>8), byte(v>>16))
}
func (p *Packer) U32(v uint32) { p.b = binary.LittleEndian.AppendUint32(p.b, v) }
func (p *Packer) U64(v uint64) { p.b = binary.LittleEndian.AppendUint64(p.b, v) }
func (p *Packer) Raw(v []byte) { p.b = append(p.b, v...) }

// Bytes returns the packed buffer built so far.
func (p *Packer) Bytes() []byte { return p.b }

// Len returns the number of bytes packed so far.
func (p *Packer) Len() int { return len(p.b) }

// Unpacker reads sequentially from a little-endian byte buffer.
// Reading past the end of the buffer sets Valid to false and returns
// the zero value for the requested type, so a chain of reads can be
// performed branch-free and checked once at the end.
type Unpacker struct {
	b     []byte
	off   int
	Valid bool
}

// NewUnpacker wraps b for sequential little-endian reads.
func NewUnpacker(b []byte) *Unpacker { return &Unpacker{b: b, Valid: true} }

func (u *Unpacker) take(n int) []byte {
	if !u.Valid || u.off+n > len(u.b) {
		u.Valid = false
		return nil
	}
	v := u.b[u.off : u.off+n]
	u.off += n
	return v
}

func (u *Unpacker) U8() uint8 {
	v := u.take(1)
	if v == nil {
		return 0
	}
	return v[0]
}

func (u *Unpacker) Bool() bool { return u.U8() != 0 }
func (u *Unpacker) I8() int8   { return int8(u.U8()) }

func (u *Unpacker) U16() uint16 {
	v := u.take(2)
	if v == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(v)
}

func (u *Unpacker) U24() uint32 {
	v := u.take(3)
	if v == nil {
		return 0
	}
	return uint32(v[0]) | uint32(v[1])<<8 | uint32(v[2])<<16
}

func (u *Unpacker) U32() uint32 {
	v := u.take(4)
	if v == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(v)
}

func (u *Unpacker) U64() uint64 {
	v := u.take(8)
	if v == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(v)
}

// Raw returns the next n bytes, or nil (and marks u invalid) if fewer
// than n bytes remain.
func (u *Unpacker) Raw(n int) []byte { return u.take(n) }

// Remaining returns every byte not yet consumed.
func (u *Unpacker) Remaining() []byte {
	if !u.Valid || u.off > len(u.b) {
		return nil
	}
	return u.b[u.off:]
}

// Len returns the number of bytes not yet consumed.
func (u *Unpacker) Len() int { return len(u.b) - u.off }
