package smp

// Code is an SMP PDU code ([Vol 3] Part H, Section 3.3).
type Code uint8

const (
	CodePairingRequest             Code = 0x01
	CodePairingResponse            Code = 0x02
	CodePairingConfirm             Code = 0x03
	CodePairingRandom              Code = 0x04
	CodePairingFailed              Code = 0x05
	CodeEncryptionInformation      Code = 0x06
	CodeMasterIdentification       Code = 0x07
	CodeIdentityInformation        Code = 0x08
	CodeIdentityAddressInformation Code = 0x09
	CodeSigningInformation         Code = 0x0A
	CodeSecurityRequest            Code = 0x0B
	CodePublicKey                  Code = 0x0C
	CodeDHKeyCheck                 Code = 0x0D
	CodeKeypressNotification       Code = 0x0E
)

// IOCapability is the local input/output capability advertised during
// feature exchange ([Vol 3] Part H, Section 2.3.2, Table 2.5).
type IOCapability uint8

const (
	IOCapDisplayOnly     IOCapability = 0x00
	IOCapDisplayYesNo    IOCapability = 0x01
	IOCapKeyboardOnly    IOCapability = 0x02
	IOCapNoInputNoOutput IOCapability = 0x03
	IOCapKeyboardDisplay IOCapability = 0x04
)

// AuthReq is the bitmask carried in a Pairing Request/Response
// ([Vol 3] Part H, Section 3.5.1, Table 3.3).
type AuthReq uint8

const (
	AuthReqBondingFlag AuthReq = 0x01
	AuthReqMITM        AuthReq = 0x04
	AuthReqSC          AuthReq = 0x08
	AuthReqKeypress    AuthReq = 0x10
	AuthReqCT2         AuthReq = 0x20
)

func (a AuthReq) Has(bit AuthReq) bool { return a&bit != 0 }

// KeyDist is the key distribution bitmask carried in a Pairing
// Request/Response ([Vol 3] Part H, Section 3.6.1).
type KeyDist uint8

const (
	KeyDistEncKey  KeyDist = 0x01
	KeyDistIdKey   KeyDist = 0x02
	KeyDistSign    KeyDist = 0x04
	KeyDistLinkKey KeyDist = 0x08
)

// Reason is the one-byte code carried by a Pairing Failed PDU
// ([Vol 3] Part H, Section 3.5.5, Table 3.7).
type Reason uint8

const (
	ReasonPasskeyEntryFailed         Reason = 0x01
	ReasonOOBNotAvailable            Reason = 0x02
	ReasonAuthenticationRequirements Reason = 0x03
	ReasonConfirmValueFailed         Reason = 0x04
	ReasonPairingNotSupported        Reason = 0x05
	ReasonEncryptionKeySize          Reason = 0x06
	ReasonCommandNotSupported        Reason = 0x07
	ReasonUnspecifiedReason          Reason = 0x08
	ReasonRepeatedAttempts           Reason = 0x09
	ReasonInvalidParameters          Reason = 0x0A
	ReasonDHKeyCheckFailed           Reason = 0x0B
	ReasonNumericComparisonFailed    Reason = 0x0C
)
