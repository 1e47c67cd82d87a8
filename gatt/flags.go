package gatt

import "github.com/nimblebt/burble/att"

// Do not re-order the bit flags below; they are organized to match the
// characteristic properties octet ([Vol 3] Part G, Section 3.3.1.1).

// Prop holds a characteristic's declared properties.
type Prop uint8

const (
	PropBroadcast   Prop = 1 << iota // Broadcast
	PropRead                        // Read
	PropWriteCmd                    // Write Without Response
	PropWrite                       // Write
	PropNotify                      // Notify
	PropIndicate                    // Indicate
	PropSignedWrite                 // Authenticated Signed Writes
	PropExtProps                    // Characteristic Extended Properties bit is set
)

func (p Prop) Has(bit Prop) bool { return p&bit != 0 }

// ExtProp holds the Characteristic Extended Properties descriptor
// value ([Vol 3] Part G, Section 3.3.3.1).
type ExtProp uint16

const (
	ExtPropReliableWrite ExtProp = 1 << iota
	ExtPropWritableAux
)

func (p ExtProp) Has(bit ExtProp) bool { return p&bit != 0 }

// Access is the direction of an attribute PDU operation.
type Access uint8

const (
	AccessRead Access = 1 << iota
	AccessWrite
)

// Perms is the permission policy for a single attribute: whether it
// may be read and/or written, and the minimum security level each
// direction requires ([Vol 3] Part F, Section 10.3.1). A zero Perms
// permits neither direction.
type Perms struct {
	readable, writable bool
	readSec, writeSec  att.SecurityLevel
}

// ReadOnly permits reads at sec or above and denies writes.
func ReadOnly(sec att.SecurityLevel) Perms {
	return Perms{readable: true, readSec: sec}
}

// WriteOnly permits writes at sec or above and denies reads.
func WriteOnly(sec att.SecurityLevel) Perms {
	return Perms{writable: true, writeSec: sec}
}

// ReadWrite permits both directions, each gated by its own minimum
// security level.
func ReadWrite(readSec, writeSec att.SecurityLevel) Perms {
	return Perms{readable: true, writable: true, readSec: readSec, writeSec: writeSec}
}

// test checks whether ac is permitted at security level sec, returning
// the ATT error code to report if not ([Vol 3] Part F, Section 3.4.4.7
// and Section 10.3.1).
func (p Perms) test(ac Access, sec att.SecurityLevel) (att.ErrorCode, bool) {
	switch ac {
	case AccessRead:
		if !p.readable {
			return att.ErrReadNotPermitted, false
		}
		if sec < p.readSec {
			return securityErrorCode(p.readSec, sec), false
		}
	case AccessWrite:
		if !p.writable {
			return att.ErrWriteNotPermitted, false
		}
		if sec < p.writeSec {
			return securityErrorCode(p.writeSec, sec), false
		}
	}
	return 0, true
}

// securityErrorCode picks the ATT error that best describes why sec
// fails to satisfy the required level want ([Vol 3] Part F, Section 4).
func securityErrorCode(want, sec att.SecurityLevel) att.ErrorCode {
	if sec == att.SecurityNone {
		return att.ErrInsuffEncryption
	}
	return att.ErrAuthentication
}
