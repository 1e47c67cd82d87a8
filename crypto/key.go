package crypto

import "encoding/binary"

// Key is a 128-bit AES key used as the CMAC key in a toolbox function.
type Key [16]byte

// NewKey builds a Key from a big-endian u128.
func NewKey(hi, lo uint64) Key {
	var k Key
	binary.BigEndian.PutUint64(k[:8], hi)
	binary.BigEndian.PutUint64(k[8:], lo)
	return k
}

// DHKey is the 256-bit ECDH shared secret (the X coordinate of the
// shared point), used only as input to f5.
type DHKey [32]byte

// MacKey is the session MAC key produced by f5, consumed only by f6.
type MacKey Key

// LTK is the Long Term Key produced by f5.
type LTK Key
