package hci

import (
	"fmt"

	"github.com/nimblebt/burble/crypto"
)

// Addr6 is a 6-byte Bluetooth device address in little-endian wire/memory
// order, i.e. byte 0 is the address's least significant octet — the order
// used everywhere in this stack except inside the crypto toolbox, which
// wants address-type-prefixed big-endian ([crypto.Addr]).
type Addr6 [6]byte

// AddrKind distinguishes a public address from a random one ([Vol 6] Part
// B, Section 1.3).
type AddrKind uint8

const (
	AddrPublic AddrKind = 0x00
	AddrRandom AddrKind = 0x01
)

func (k AddrKind) String() string {
	if k == AddrRandom {
		return "random"
	}
	return "public"
}

// ToToolbox converts a into the 7-byte address-type-prefixed big-endian
// representation the f5/f6 toolbox functions require.
func (a Addr6) ToToolbox(kind AddrKind) crypto.Addr {
	return crypto.AddrFromLE(kind == AddrRandom, [6]byte(a))
}

// String renders a in the conventional colon-separated hex form, most
// significant octet first.
func (a Addr6) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[5], a[4], a[3], a[2], a[1], a[0])
}

// IsZero reports whether a is the all-zero address.
func (a Addr6) IsZero() bool { return a == Addr6{} }
