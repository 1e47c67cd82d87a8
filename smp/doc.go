// Package smp implements LE Secure Connections pairing (C1's
// consumer): the Security Manager Protocol state machine that drives
// the crypto toolbox's Public Key / Confirm / Random / DHKey Check
// exchange to completion and produces the bonded Long Term Key used to
// encrypt the link ([Vol 3] Part H).
//
// Only the LE Secure Connections Just Works and Numeric Comparison
// association models are implemented; Passkey Entry and Out of Band
// both require input/output channels this package does not own, so a
// feature negotiation that resolves to either fails pairing (the
// Pairing Failed PDU sent carries ReasonUnspecifiedReason) rather than
// silently downgrading.
package smp
