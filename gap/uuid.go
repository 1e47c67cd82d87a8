// Package gap holds the types shared by the HCI advertising layer and
// the GATT schema: the Bluetooth UUID representation and its three
// mutually-exclusive projections ([Vol 3] Part B, Section 2.5.1).
package gap

import (
	"encoding/binary"
	"fmt"
)

// baseSuffix is the low 12 bytes of the canonical Bluetooth Base UUID,
// 0000xxxx-0000-1000-8000-00805F9B34FB, i.e. everything after the
// 32-bit assigned-number field.
var baseSuffix = [12]byte{0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0x80, 0x5F, 0x9B, 0x34, 0xFB}

// Uuid is a 16-, 32-, or 128-bit Bluetooth UUID, held internally as its
// full 128-bit big-endian byte representation. The zero value is not a
// valid Uuid; every constructor rejects an all-zero value, so a Uuid
// variable can never represent the reserved zero UUID.
type Uuid struct {
	b     [16]byte // big-endian 128-bit value
	valid bool
}

// New builds a Uuid from its 128-bit big-endian byte representation.
// Returns false if the value is all-zero.
func New(be [16]byte) (Uuid, bool) {
	if be == ([16]byte{}) {
		return Uuid{}, false
	}
	return Uuid{b: be, valid: true}, true
}

// Uuid16 builds the 16-bit Bluetooth SIG UUID v, i.e.
// 0000vvvv-0000-1000-8000-00805F9B34FB. Panics if v is zero.
func Uuid16(v uint16) Uuid {
	if v == 0 {
		panic("gap: zero 16-bit UUID")
	}
	var b [16]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(v))
	copy(b[4:], baseSuffix[:])
	return Uuid{b: b, valid: true}
}

// Uuid32 builds the 32-bit Bluetooth SIG UUID v, i.e.
// vvvvvvvv-0000-1000-8000-00805F9B34FB. Panics if v is zero.
func Uuid32(v uint32) Uuid {
	if v == 0 {
		panic("gap: zero 32-bit UUID")
	}
	var b [16]byte
	binary.BigEndian.PutUint32(b[0:4], v)
	copy(b[4:], baseSuffix[:])
	return Uuid{b: b, valid: true}
}

// IsZero reports whether u is the unconstructed zero value.
func (u Uuid) IsZero() bool { return !u.valid }

// hasBaseSuffix reports whether u's low 96 bits equal the canonical
// Bluetooth Base UUID suffix.
func (u Uuid) hasBaseSuffix() bool {
	return [12]byte(u.b[4:16]) == baseSuffix
}

// As16 returns the 16-bit SIG projection and true iff u's low 96 bits
// equal the canonical Base UUID suffix, the high 16 bits of the 32-bit
// assigned-number field are zero, and the resulting value is non-zero.
func (u Uuid) As16() (uint16, bool) {
	if !u.valid || !u.hasBaseSuffix() || u.b[0] != 0 || u.b[1] != 0 {
		return 0, false
	}
	v := binary.BigEndian.Uint16(u.b[2:4])
	return v, v != 0
}

// As32 returns the 32-bit SIG projection and true iff u's low 96 bits
// equal the canonical Base UUID suffix and the assigned-number field
// exceeds 0xFFFF (otherwise it is representable as a 16-bit UUID).
func (u Uuid) As32() (uint32, bool) {
	if !u.valid || !u.hasBaseSuffix() {
		return 0, false
	}
	v := binary.BigEndian.Uint32(u.b[0:4])
	return v, v > 0xFFFF
}

// As128 returns the raw 128-bit big-endian value and true iff u is not
// representable as a 16- or 32-bit SIG UUID.
func (u Uuid) As128() (be [16]byte, ok bool) {
	if _, is16 := u.As16(); is16 {
		return [16]byte{}, false
	}
	if _, is32 := u.As32(); is32 {
		return [16]byte{}, false
	}
	return u.b, true
}

// Equal reports whether u and v are the same UUID.
func (u Uuid) Equal(v Uuid) bool { return u.valid == v.valid && u.b == v.b }

// AppendLE appends the little-endian wire encoding of u (2, 4, or 16
// bytes depending on its shortest representation) to dst and returns
// the extended slice.
func (u Uuid) AppendLE(dst []byte) []byte {
	if v, ok := u.As16(); ok {
		return binary.LittleEndian.AppendUint16(dst, v)
	}
	if v, ok := u.As32(); ok {
		return binary.LittleEndian.AppendUint32(dst, v)
	}
	le := reverse16(u.b)
	return append(dst, le[:]...)
}

// Len returns the wire length of u's shortest representation: 2, 4, or
// 16.
func (u Uuid) Len() int {
	if _, ok := u.As16(); ok {
		return 2
	}
	if _, ok := u.As32(); ok {
		return 4
	}
	return 16
}

// Parse decodes a little-endian UUID of length 2, 4, or 16 bytes, as
// carried on the wire in ATT/GATT PDUs.
func Parse(le []byte) (Uuid, error) {
	switch len(le) {
	case 2:
		return Uuid16(binary.LittleEndian.Uint16(le)), nil
	case 4:
		return Uuid32(binary.LittleEndian.Uint32(le)), nil
	case 16:
		var leArr [16]byte
		copy(leArr[:], le)
		u, ok := New(reverse16(leArr))
		if !ok {
			return Uuid{}, fmt.Errorf("gap: zero 128-bit UUID")
		}
		return u, nil
	default:
		return Uuid{}, fmt.Errorf("gap: invalid UUID length %d", len(le))
	}
}

func reverse16(b [16]byte) [16]byte {
	var r [16]byte
	for i := range b {
		r[i] = b[15-i]
	}
	return r
}

// String renders u in the conventional dashed form for 128-bit values,
// or as a short hex literal for the 16-/32-bit projections.
func (u Uuid) String() string {
	if v, ok := u.As16(); ok {
		return fmt.Sprintf("%#04x", v)
	}
	if v, ok := u.As32(); ok {
		return fmt.Sprintf("%#08x", v)
	}
	b := u.b
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		binary.BigEndian.Uint32(b[0:4]), binary.BigEndian.Uint16(b[4:6]),
		binary.BigEndian.Uint16(b[6:8]), binary.BigEndian.Uint16(b[8:10]),
		b[10:16])
}
