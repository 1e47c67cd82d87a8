package usbhci

import (
	"context"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nimblebt/burble/transport"
)

// pollInterval bounds how long a single blocking usbdevfs ioctl waits
// before this package re-checks ctx — the closest this thin reference
// transport gets to real URB cancellation, which needs async
// USBDEVFS_SUBMITURB/REAPURB plumbing this package doesn't implement.
const pollInterval = 200 * time.Millisecond

// Endpoints describes the four fixed endpoint addresses an HCI
// USB dongle exposes on its primary interface ([Vol 4] Part B,
// Section 2).
type Endpoints struct {
	Interface int
	EventIn   uint8 // interrupt IN, for HCI events
	ACLIn     uint8 // bulk IN, for controller-to-host ACL data
	ACLOut    uint8 // bulk OUT, for host-to-controller ACL data
}

// Config names the device this Transport opens and its endpoint
// layout.
type Config struct {
	Bus, Device int
	Endpoints   Endpoints
}

// Transport is a transport.Transport implementation over a Linux
// usbdevfs character device.
type Transport struct {
	fd  int
	cfg Config
	log *logrus.Entry
}

var _ transport.Transport = (*Transport)(nil)

// Open claims cfg's interface on the named bus/device and returns a
// ready Transport. The caller must call Close when done.
func Open(cfg Config, log *logrus.Entry) (*Transport, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	fd, err := openDevice(cfg.Bus, cfg.Device)
	if err != nil {
		return nil, err
	}
	if err := claimInterface(fd, cfg.Endpoints.Interface); err != nil {
		syscall.Close(fd)
		return nil, errors.Wrap(err, "usbhci: claim interface")
	}
	if err := setInterfaceAlt(fd, cfg.Endpoints.Interface, 0); err != nil {
		releaseInterface(fd, cfg.Endpoints.Interface)
		syscall.Close(fd)
		return nil, errors.Wrap(err, "usbhci: set interface altsetting")
	}
	return &Transport{fd: fd, cfg: cfg, log: log.WithField("bus", cfg.Bus).WithField("dev", cfg.Device)}, nil
}

// SubmitCommand sends cmd over the control endpoint, per the
// Bluetooth USB Transport Layer's command transfer (bmRequestType =
// Host-to-device | Class | Interface, bRequest/wValue/wIndex all 0).
func (t *Transport) SubmitCommand(ctx context.Context, cmd []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	const bmRequestTypeHCICommand = 0x20
	_, err := controlTransfer(t.fd, bmRequestTypeHCICommand, 0, 0, uint16(t.cfg.Endpoints.Interface), uint32(pollInterval/time.Millisecond), cmd)
	if err != nil {
		return errors.Wrap(err, "usbhci: submit command")
	}
	return nil
}

// RecvEvent reads one HCI event from the interrupt IN endpoint,
// retrying short-timeout reads until data arrives or ctx is done.
func (t *Transport) RecvEvent(ctx context.Context) ([]byte, error) {
	return t.recv(ctx, t.cfg.Endpoints.EventIn)
}

// SendACL writes pkt to the bulk OUT endpoint.
func (t *Transport) SendACL(ctx context.Context, pkt []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := bulkTransfer(t.fd, t.cfg.Endpoints.ACLOut, uint32(pollInterval/time.Millisecond), pkt)
	if err != nil {
		return errors.Wrap(err, "usbhci: send ACL")
	}
	return nil
}

// RecvACL reads one ACL packet from the bulk IN endpoint.
func (t *Transport) RecvACL(ctx context.Context) ([]byte, error) {
	return t.recv(ctx, t.cfg.Endpoints.ACLIn)
}

// recv polls endpoint with pollInterval-bounded reads into a
// maximum-size buffer until it sees data or ctx ends, matching the
// blocking event_recv()/acl_in() semantics the host layer expects.
func (t *Transport) recv(ctx context.Context, endpoint uint8) ([]byte, error) {
	buf := make([]byte, 1024)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := bulkTransfer(t.fd, endpoint, uint32(pollInterval/time.Millisecond), buf)
		if err == nil {
			return append([]byte(nil), buf[:n]...), nil
		}
		if errors.Cause(err) == syscall.ETIMEDOUT || errors.Cause(err) == syscall.EAGAIN {
			continue
		}
		return nil, errors.Wrap(err, "usbhci: recv")
	}
}

// Reset issues USBDEVFS_RESET, the transport-level reset the host
// performs before sending the HCI Reset command.
func (t *Transport) Reset(ctx context.Context) error {
	if err := resetDevice(t.fd); err != nil {
		return errors.Wrap(err, "usbhci: reset device")
	}
	return nil
}

// Close releases the claimed interface and the device file descriptor.
func (t *Transport) Close() error {
	_ = releaseInterface(t.fd, t.cfg.Endpoints.Interface)
	return syscall.Close(t.fd)
}
