package crypto

import (
	"encoding/binary"
	"testing"
)

// u256 builds a 32-byte big-endian PublicKeyX from two 128-bit halves,
// each given as two u64 big-endian words.
func u256(hiHi, hiLo, loHi, loLo uint64) PublicKeyX {
	var x PublicKeyX
	binary.BigEndian.PutUint64(x[0:8], hiHi)
	binary.BigEndian.PutUint64(x[8:16], hiLo)
	binary.BigEndian.PutUint64(x[16:24], loHi)
	binary.BigEndian.PutUint64(x[24:32], loLo)
	return x
}

func nonce128(hi, lo uint64) Nonce {
	var n Nonce
	binary.BigEndian.PutUint64(n[0:8], hi)
	binary.BigEndian.PutUint64(n[8:16], lo)
	return n
}

func key128(hi, lo uint64) [16]byte {
	var k [16]byte
	binary.BigEndian.PutUint64(k[0:8], hi)
	binary.BigEndian.PutUint64(k[8:16], lo)
	return k
}

// TestF4 checks the S1 test vector from the specification's D.2 section.
func TestF4(t *testing.T) {
	u := u256(0x20b003d2_f297be2c, 0x5e2c83a7_e9f9a5b9, 0xeff49111_acf4fddb, 0xcc030148_0e359de6)
	v := u256(0x55188b3d_32f6bb9a, 0x900afcfb_eed4e72a, 0x59cb9ac2_f19d7cfb, 0x6b4fdd49_f47fc5fd)
	n := nonce128(0xd5cb8454_d177733e, 0xffffb2ec_712baeab)

	got := n.F4(u, v, 0x00)
	want := Confirm(key128(0xf2c916f1_07a9bd1c, 0xf1eda1be_a974872d))
	if !got.Equal(want) {
		t.Errorf("F4 = %x, want %x", got, want)
	}
}

// TestG2 checks the S2 test vector.
func TestG2(t *testing.T) {
	u := u256(0x20b003d2_f297be2c, 0x5e2c83a7_e9f9a5b9, 0xeff49111_acf4fddb, 0xcc030148_0e359de6)
	v := u256(0x55188b3d_32f6bb9a, 0x900afcfb_eed4e72a, 0x59cb9ac2_f19d7cfb, 0x6b4fdd49_f47fc5fd)
	n := nonce128(0xd5cb8454_d177733e, 0xffffb2ec_712baeab)
	y := nonce128(0xa6e8e7cc_25a75f6e, 0x216583f7_ff3dc4cf)

	got := n.G2(y, u, v)
	const want NumCompare = 0x2f9ed5ba % 1_000_000
	if got != want {
		t.Errorf("G2 = %06d, want %06d", got, want)
	}
}

// TestF6 checks the S3 test vector.
func TestF6(t *testing.T) {
	mk := MacKey(key128(0x2965f176_a1084a02, 0xfd3f6a20_ce636e20))
	n1 := nonce128(0xd5cb8454_d177733e, 0xffffb2ec_712baeab)
	n2 := nonce128(0xa6e8e7cc_25a75f6e, 0x216583f7_ff3dc4cf)
	r := key128(0x12a3343b_b453bb54, 0x08da42d2_0c2d0fc8)
	ioCap := IoCap{0x01, 0x01, 0x02}
	a1 := Addr{0x00, 0x56, 0x12, 0x37, 0x37, 0xbf, 0xce}
	a2 := Addr{0x00, 0xa7, 0x13, 0x70, 0x2d, 0xcf, 0xc1}

	got := F6(mk, n1, n2, r, ioCap, a1, a2)
	want := Check(key128(0xe3c47398_9cd0e8c5, 0xd26c0b09_da958f61))
	if !got.Equal(want) {
		t.Errorf("F6 = %x, want %x", got, want)
	}
}

func TestNonceNonZeroAndRandom(t *testing.T) {
	a, b := NewNonce(), NewNonce()
	if a == (Nonce{}) || b == (Nonce{}) {
		t.Fatal("nonce must never be zero")
	}
	if a == b {
		t.Fatal("two independently generated nonces must differ")
	}
}

func TestAddrFromLE(t *testing.T) {
	le := [6]byte{0xce, 0xbf, 0x37, 0x37, 0x12, 0x56}
	got := AddrFromLE(false, le)
	want := Addr{0x00, 0x56, 0x12, 0x37, 0x37, 0xbf, 0xce}
	if got != want {
		t.Errorf("AddrFromLE = %x, want %x", got, want)
	}
	if got2 := AddrFromLE(true, le); got2[0] != 1 {
		t.Errorf("AddrFromLE random flag not set")
	}
}

func TestECDHRoundTrip(t *testing.T) {
	a, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	sa, err := a.ECDH(b.Public)
	if err != nil {
		t.Fatal(err)
	}
	sb, err := b.ECDH(a.Public)
	if err != nil {
		t.Fatal(err)
	}
	if sa != sb {
		t.Fatal("ECDH shared secrets do not match")
	}
}

func TestECDHInvalidPeer(t *testing.T) {
	a, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	var bogus PublicXY // all-zero is not a valid curve point
	if _, err := a.ECDH(bogus); err == nil {
		t.Fatal("expected ErrInvalidPublicKey for an invalid peer point")
	}
}
