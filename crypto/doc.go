// Package crypto implements the Bluetooth LE Secure Connections
// cryptographic toolbox ([Vol 3] Part H, Section 2.2): AES-CMAC key
// derivation chained over P-256 ECDH shared secrets.
//
// Every function here is pure: no I/O, no shared mutable state beyond
// the caller-supplied key material, so the package is trivially safe
// for concurrent use.
package crypto
