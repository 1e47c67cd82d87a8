package smp

import (
	"github.com/nimblebt/burble/crypto"
	"github.com/nimblebt/burble/wire"
)

// PairingFeatures is the body shared by the Pairing Request and
// Pairing Response PDUs ([Vol 3] Part H, Section 3.5.1/3.5.2).
type PairingFeatures struct {
	IOCap          IOCapability
	OOBDataPresent bool
	AuthReq        AuthReq
	MaxEncKeySize  uint8
	InitKeyDist    KeyDist
	RespKeyDist    KeyDist
}

func (f PairingFeatures) encode(code Code) []byte {
	p := wire.NewPacker(7)
	p.U8(byte(code))
	p.U8(byte(f.IOCap))
	p.Bool(f.OOBDataPresent)
	p.U8(byte(f.AuthReq))
	p.U8(f.MaxEncKeySize)
	p.U8(byte(f.InitKeyDist))
	p.U8(byte(f.RespKeyDist))
	return p.Bytes()
}

func decodePairingFeatures(body []byte) (PairingFeatures, bool) {
	u := wire.NewUnpacker(body)
	f := PairingFeatures{
		IOCap:          IOCapability(u.U8()),
		OOBDataPresent: u.Bool(),
		AuthReq:        AuthReq(u.U8()),
		MaxEncKeySize:  u.U8(),
		InitKeyDist:    KeyDist(u.U8()),
		RespKeyDist:    KeyDist(u.U8()),
	}
	return f, u.Valid
}

func encodePublicKey(pk crypto.PublicXY) []byte {
	p := wire.NewPacker(65)
	p.U8(byte(CodePublicKey))
	p.Raw(pk[:])
	return p.Bytes()
}

func decodePublicKey(body []byte) (crypto.PublicXY, bool) {
	if len(body) != 64 {
		return crypto.PublicXY{}, false
	}
	var pk crypto.PublicXY
	copy(pk[:], body)
	return pk, true
}

func encodeConfirm(c crypto.Confirm) []byte {
	p := wire.NewPacker(17)
	p.U8(byte(CodePairingConfirm))
	p.Raw(c[:])
	return p.Bytes()
}

func decodeConfirm(body []byte) (crypto.Confirm, bool) {
	if len(body) != 16 {
		return crypto.Confirm{}, false
	}
	var c crypto.Confirm
	copy(c[:], body)
	return c, true
}

func encodeRandom(n crypto.Nonce) []byte {
	p := wire.NewPacker(17)
	p.U8(byte(CodePairingRandom))
	p.Raw(n[:])
	return p.Bytes()
}

func decodeRandom(body []byte) (crypto.Nonce, bool) {
	if len(body) != 16 {
		return crypto.Nonce{}, false
	}
	var n crypto.Nonce
	copy(n[:], body)
	return n, true
}

func encodeDHKeyCheck(c crypto.Check) []byte {
	p := wire.NewPacker(17)
	p.U8(byte(CodeDHKeyCheck))
	p.Raw(c[:])
	return p.Bytes()
}

func decodeDHKeyCheck(body []byte) (crypto.Check, bool) {
	if len(body) != 16 {
		return crypto.Check{}, false
	}
	var c crypto.Check
	copy(c[:], body)
	return c, true
}

func encodePairingFailed(r Reason) []byte {
	return []byte{byte(CodePairingFailed), byte(r)}
}
