// Package transport defines the boundary between the host stack and
// the USB HCI transport it runs over ([Vol 4] Part B). Submitting
// commands, receiving events, and moving ACL data are the transport's
// job; everything above this interface — command/event correlation,
// L2CAP framing, ATT, GATT, SMP — is transport-agnostic.
//
// USB transfer submission and buffer pool management are explicitly
// out of scope for the host stack itself: Transport is the seam where
// a concrete implementation (see transport/usbhci for a Linux
// usbdevfs-backed one) takes over that responsibility.
package transport

import "context"

// Transport is the contract the HCI host (package hci) requires of its
// USB collaborator.
type Transport interface {
	// SubmitCommand sends one complete HCI command packet: opcode,
	// parameter length, and parameters. cmd must be at most 258 bytes
	// (3-byte header + 255-byte parameter limit).
	SubmitCommand(ctx context.Context, cmd []byte) error

	// RecvEvent blocks until one complete HCI event packet (event code,
	// parameter length, parameters; up to 257 bytes) is available.
	RecvEvent(ctx context.Context) ([]byte, error)

	// SendACL writes one complete ACL data packet (4-byte header plus
	// payload) to the controller.
	SendACL(ctx context.Context, pkt []byte) error

	// RecvACL blocks until one complete ACL data packet is available.
	RecvACL(ctx context.Context) ([]byte, error)

	// Reset performs a transport-level reset, used by the host at
	// startup before issuing the HCI Reset command.
	Reset(ctx context.Context) error

	// Close releases the transport's resources. RecvEvent/RecvACL
	// callers blocked in a read must return a terminal error.
	Close() error
}
