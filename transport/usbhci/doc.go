// Package usbhci is a Linux usbdevfs-backed implementation of
// transport.Transport, the concrete collaborator behind the interface
// the HCI host depends on. It talks to the three fixed endpoints the
// Bluetooth USB Transport Layer specification mandates for an HCI
// controller: the control endpoint for commands, an interrupt IN
// endpoint for events, and a pair of bulk endpoints for ACL data.
//
// This is a thin reference transport, not a hardened one: URB
// submission, buffer pooling, and isochronous (SCO/ISO) endpoints are
// out of scope, so every transfer blocks the calling goroutine for its
// usbdevfs ioctl's duration. Production use should replace RecvEvent's
// and RecvACL's polling loop with real asynchronous URB submission.
package usbhci
