package crypto

import "crypto/subtle"

// f5Salt is the fixed salt used to derive the f5 intermediate key T
// ([Vol 3] Part H, Section 2.2.7).
var f5Salt = Key{
	0x6C, 0x88, 0x83, 0x91, 0xAA, 0xF5, 0xA5, 0x38,
	0x60, 0x37, 0x0B, 0xDB, 0x5A, 0x60, 0x83, 0xBE,
}

// f5KeyID is the ASCII string "btle" used as the fixed key ID input to
// f5 ([Vol 3] Part H, Section 2.2.7).
var f5KeyID = [4]byte{0x62, 0x74, 0x6c, 0x65}

// f5Length is the fixed Length field (256, the output key length in
// bits) appended to each f5 CMAC input, big-endian.
var f5Length = [2]byte{0x01, 0x00}

// F5 derives the MacKey and LTK from a DH shared secret and the
// pairing nonces/addresses ([Vol 3] Part H, Section 2.2.7).
func F5(dh DHKey, n1, n2 Nonce, a1, a2 Addr) (MacKey, LTK) {
	t := aesCMAC(f5Salt[:], dh[:])
	counter0 := []byte{0x00}
	counter1 := []byte{0x01}
	mk := aesCMAC(t[:], counter0, f5KeyID[:], n1[:], n2[:], a1[:], a2[:], f5Length[:])
	ltk := aesCMAC(t[:], counter1, f5KeyID[:], n1[:], n2[:], a1[:], a2[:], f5Length[:])
	return MacKey(mk), LTK(ltk)
}

// F6 generates the LE Secure Connections check value
// ([Vol 3] Part H, Section 2.2.8):
// Check = AES-CMAC_MacKey(N1 || N2 || R || IOcap || A1 || A2).
func F6(mk MacKey, n1, n2 Nonce, r [16]byte, ioCap IoCap, a1, a2 Addr) Check {
	return Check(aesCMAC(mk[:], n1[:], n2[:], r[:], ioCap[:], a1[:], a2[:]))
}

// Check is the value produced by F6.
type Check [16]byte

// Equal reports whether c equals other in constant time. Never use ==
// on a Check value.
func (c Check) Equal(other Check) bool {
	return subtle.ConstantTimeCompare(c[:], other[:]) == 1
}

// Equal reports whether k equals other in constant time. Never use ==
// on an LTK value.
func (k LTK) Equal(other LTK) bool {
	return subtle.ConstantTimeCompare(k[:], other[:]) == 1
}
