package crypto

import (
	"crypto/aes"

	"github.com/aead/cmac"
)

// DatabaseHash computes the GATT database hash ([Vol 3] Part G, Section
// 7.3): AES-CMAC-128 with an all-zero key over the concatenation the
// caller builds from the hashable attributes (see gatt/hash.go), in
// ascending handle order.
func DatabaseHash(concatenated []byte) [16]byte {
	var zeroKey [16]byte
	return aesCMAC(zeroKey[:], concatenated)
}

// aesCMAC computes AES-CMAC-128 over msg using key, per NIST SP 800-38B.
// key must be 16 bytes. Panics if key is malformed, which never happens
// for the fixed-size keys used by this package.
func aesCMAC(key []byte, msg ...[]byte) [16]byte {
	block, err := aes.NewCipher(key)
	if err != nil {
		panic(err)
	}
	h, err := cmac.New(block)
	if err != nil {
		panic(err)
	}
	for _, m := range msg {
		h.Write(m)
	}
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}
