package crypto

// Addr is the 56-bit device address representation used only inside
// the toolbox's f5 and f6 functions ([Vol 3] Part H, Section 2.2.7 and
// 2.2.8): a single address-type byte (1 for random, 0 for public)
// followed by the 6-byte address in big-endian order.
//
// This is distinct from the 6-byte little-endian wire/in-memory
// representation used everywhere else in the stack (hci.Addr6); the
// conversion happens only at the boundary where an address is fed into
// f5/f6.
type Addr [7]byte

// AddrFromLE builds a toolbox Addr from the 6-byte little-endian
// address representation used on the wire and in hci.Addr6.
func AddrFromLE(isRandom bool, le [6]byte) Addr {
	var a Addr
	if isRandom {
		a[0] = 1
	}
	for i := 0; i < 6; i++ {
		a[1+i] = le[5-i]
	}
	return a
}

// IoCap is the concatenated AuthReq, OOB data flag, and IO capability
// parameters consumed by f6 ([Vol 3] Part H, Section 2.2.8).
type IoCap [3]byte

// NewIoCap builds an IoCap from its three component fields.
func NewIoCap(authReq uint8, oobDataPresent bool, ioCapability uint8) IoCap {
	var oob uint8
	if oobDataPresent {
		oob = 1
	}
	return IoCap{authReq, oob, ioCapability}
}
