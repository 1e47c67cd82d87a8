package usbhci

// usbdevfs ioctl request codes and argument structs, from
// /usr/include/linux/usbdevice_fs.h. Only the handful this package's
// three fixed HCI endpoints (control for commands, interrupt-in for
// events, bulk in/out for ACL data) actually issues are defined.

import (
	"unsafe"

	ioctl "github.com/daedaluz/goioctl"
)

const maxDriverName = 255

var (
	ctlUSBDevfsControl          = uintptr(ioctl.IOWR('U', 0, unsafe.Sizeof(usbdevfsCtrlTransfer{})))
	ctlUSBDevfsBulk             = uintptr(ioctl.IOWR('U', 2, unsafe.Sizeof(usbdevfsBulkTransfer{})))
	ctlUSBDevfsSetInterface     = uintptr(ioctl.IOR('U', 4, unsafe.Sizeof(usbdevfsSetInterface{})))
	ctlUSBDevfsSetConfiguration = uintptr(ioctl.IOR('U', 5, unsafe.Sizeof(uint32(0))))
	ctlUSBDevfsGetDriver        = uintptr(ioctl.IOW('U', 8, unsafe.Sizeof(usbdevfsGetDriver{})))
	ctlUSBDevfsClaimInterface   = uintptr(ioctl.IOR('U', 15, unsafe.Sizeof(uint32(0))))
	ctlUSBDevfsReleaseInterface = uintptr(ioctl.IOR('U', 16, unsafe.Sizeof(uint32(0))))
	ctlUSBDevfsReset            = uintptr(ioctl.IO('U', 20))
)

type usbdevfsCtrlTransfer struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Length      uint16
	Timeout     uint32
	Data        uintptr
}

type usbdevfsBulkTransfer struct {
	Endpoint uint32
	Length   uint32
	Timeout  uint32
	Data     uintptr
}

type usbdevfsSetInterface struct {
	Interface  uint32
	AltSetting uint32
}

type usbdevfsGetDriver struct {
	Interface uint32
	Driver    [maxDriverName + 1]byte
}

func slicePtr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}
