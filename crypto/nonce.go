package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
)

// Nonce is a 128-bit random value used in the Confirm/Check value
// derivations ([Vol 3] Part H, Section 2.3.5.6).
type Nonce [16]byte

// NewNonce draws a non-zero 128-bit nonce from the OS CSPRNG.
//
// Panics if the CSPRNG is broken: a failure here means the platform
// cannot be trusted to produce any secret material, and continuing
// would silently weaken every key derived afterward.
func NewNonce() Nonce {
	var n Nonce
	for {
		if _, err := rand.Read(n[:]); err != nil {
			panic("crypto: OS CSPRNG failure: " + err.Error())
		}
		if n != ([16]byte{}) {
			return n
		}
	}
}

// F4 generates the LE Secure Connections confirm value
// ([Vol 3] Part H, Section 2.2.6): Confirm = AES-CMAC_N(U || V || Z).
func (n Nonce) F4(u, v PublicKeyX, z byte) Confirm {
	return Confirm(aesCMAC(n[:], u[:], v[:], []byte{z}))
}

// G2 generates the LE Secure Connections numeric comparison value
// ([Vol 3] Part H, Section 2.2.9): NumCompare = AES-CMAC_N1(U || V || N2) mod 1e6.
func (n Nonce) G2(n2 Nonce, u, v PublicKeyX) NumCompare {
	sum := aesCMAC(n[:], u[:], v[:], n2[:])
	// The low-order 32 bits of the MAC, taken as the last 4 bytes.
	val := binary.BigEndian.Uint32(sum[12:])
	return NumCompare(val % 1_000_000)
}

// Confirm is the value produced by Nonce.F4.
type Confirm [16]byte

// Equal reports whether c equals other, in time independent of where
// the first differing byte occurs. Never use == on a Confirm value.
func (c Confirm) Equal(other Confirm) bool {
	return subtle.ConstantTimeCompare(c[:], other[:]) == 1
}

// NumCompare is the six-digit decimal numeric-comparison value
// produced by Nonce.G2.
type NumCompare uint32
