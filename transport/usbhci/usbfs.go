package usbhci

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const devfsRoot = "/dev/bus/usb"

// openDevice opens the usbdevfs character device for a given bus and
// device number, e.g. /dev/bus/usb/001/004.
func openDevice(bus, device int) (int, error) {
	path := fmt.Sprintf("%s/%03d/%03d", devfsRoot, bus, device)
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return -1, errors.Wrapf(err, "usbhci: open %s", path)
	}
	return fd, nil
}

func ioctlArg(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func ioctlArgRet(fd int, req uintptr, arg unsafe.Pointer) (int, error) {
	n, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return int(n), errno
	}
	return int(n), nil
}

func claimInterface(fd, iface int) error {
	n := uint32(iface)
	return ioctlArg(fd, ctlUSBDevfsClaimInterface, unsafe.Pointer(&n))
}

func releaseInterface(fd, iface int) error {
	n := uint32(iface)
	return ioctlArg(fd, ctlUSBDevfsReleaseInterface, unsafe.Pointer(&n))
}

func setInterfaceAlt(fd, iface, altSetting int) error {
	req := usbdevfsSetInterface{Interface: uint32(iface), AltSetting: uint32(altSetting)}
	return ioctlArg(fd, ctlUSBDevfsSetInterface, unsafe.Pointer(&req))
}

func resetDevice(fd int) error {
	return ioctlArg(fd, ctlUSBDevfsReset, nil)
}

// controlTransfer issues a USB control transfer (used for HCI command
// packets, per the Bluetooth USB Transport Layer spec). payload is the
// command bytes for an OUT transfer (requestType bit 7 clear).
func controlTransfer(fd int, requestType, request uint8, value, index uint16, timeoutMS uint32, payload []byte) (int, error) {
	req := usbdevfsCtrlTransfer{
		RequestType: requestType,
		Request:     request,
		Value:       value,
		Index:       index,
		Length:      uint16(len(payload)),
		Timeout:     timeoutMS,
		Data:        slicePtr(payload),
	}
	n, err := ioctlArgRet(fd, ctlUSBDevfsControl, unsafe.Pointer(&req))
	if err != nil {
		return n, errors.Wrap(err, "usbhci: control transfer")
	}
	return n, nil
}

// bulkTransfer issues a USB bulk (or, per the USB spec, interrupt —
// usbdevfs multiplexes both through USBDEVFS_BULK) transfer against
// endpoint. buf is read from for an OUT endpoint, written to for an IN
// endpoint; its length is always the transfer length requested.
func bulkTransfer(fd int, endpoint uint8, timeoutMS uint32, buf []byte) (int, error) {
	req := usbdevfsBulkTransfer{
		Endpoint: uint32(endpoint),
		Length:   uint32(len(buf)),
		Timeout:  timeoutMS,
		Data:     slicePtr(buf),
	}
	n, err := ioctlArgRet(fd, ctlUSBDevfsBulk, unsafe.Pointer(&req))
	if err != nil {
		return n, errors.Wrap(err, "usbhci: bulk transfer")
	}
	return n, nil
}
