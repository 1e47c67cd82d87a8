package crypto

import (
	"crypto"
	"crypto/elliptic"
	"crypto/rand"

	"github.com/pkg/errors"
	ecdh "github.com/wsddn/go-ecdh"
)

// ErrInvalidPublicKey is returned by KeyPair.ECDH when the peer's
// public key does not lie on the P-256 curve.
var ErrInvalidPublicKey = errors.New("crypto: invalid P-256 public key")

func p256() ecdh.ECDH { return ecdh.NewEllipticECDH(elliptic.P256()) }

// PublicKeyX is a 256-bit public key X coordinate in big-endian byte
// order, as used by the f4, f5, and g2 functions.
type PublicKeyX [32]byte

// PublicXY is an uncompressed P-256 public key: the 32-byte X
// coordinate followed by the 32-byte Y coordinate, both big-endian.
type PublicXY [64]byte

// KeyPair is an ephemeral P-256 key pair generated for one pairing
// session.
type KeyPair struct {
	priv   crypto.PrivateKey
	Public PublicXY
}

// GenerateKeyPair creates a new ephemeral P-256 key pair from the OS
// CSPRNG.
func GenerateKeyPair() (*KeyPair, error) {
	e := p256()
	priv, pub, err := e.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "crypto: generate P-256 key pair")
	}
	raw := e.Marshal(pub) // uncompressed point: 0x04 || X || Y
	var kp KeyPair
	kp.priv = priv
	copy(kp.Public[:], raw[1:])
	return &kp, nil
}

// ECDH computes the P-256 Diffie-Hellman shared secret with peer,
// returning the X coordinate of the resulting point ([Vol 3] Part H,
// Section 2.3.5.6, "DHKey"). Returns ErrInvalidPublicKey if peer is not
// a valid point on the curve.
func (kp *KeyPair) ECDH(peer PublicXY) (PublicKeyX, error) {
	e := p256()
	raw := make([]byte, 0, 65)
	raw = append(raw, 0x04)
	raw = append(raw, peer[:]...)
	pub, ok := e.Unmarshal(raw)
	if !ok {
		return PublicKeyX{}, ErrInvalidPublicKey
	}
	secret, err := e.GenerateSharedSecret(kp.priv, pub)
	if err != nil {
		return PublicKeyX{}, errors.Wrap(err, "crypto: ECDH")
	}
	var x PublicKeyX
	// GenerateSharedSecret returns the X coordinate with leading zero
	// bytes stripped; right-align it into the fixed-width result.
	copy(x[len(x)-len(secret):], secret)
	return x, nil
}
