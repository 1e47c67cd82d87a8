package usbhci

import "testing"

// TestIOCTLNumbers checks this package's ioctl opcodes against the
// fixed values Linux's usbdevice_fs.h defines for them, so a typo in
// the request number ('U', nr) or the argument struct's size can't
// silently produce the wrong ioctl.
func TestIOCTLNumbers(t *testing.T) {
	cases := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"USBDEVFS_CONTROL", ctlUSBDevfsControl, 0xC0185500},
		{"USBDEVFS_BULK", ctlUSBDevfsBulk, 0xC0185502},
		{"USBDEVFS_SETINTERFACE", ctlUSBDevfsSetInterface, 0x80085504},
		{"USBDEVFS_SETCONFIGURATION", ctlUSBDevfsSetConfiguration, 0x80045505},
		{"USBDEVFS_GETDRIVER", ctlUSBDevfsGetDriver, 0x41045508},
		{"USBDEVFS_CLAIMINTERFACE", ctlUSBDevfsClaimInterface, 0x8004550F},
		{"USBDEVFS_RELEASEINTERFACE", ctlUSBDevfsReleaseInterface, 0x80045510},
		{"USBDEVFS_RESET", ctlUSBDevfsReset, 0x00005514},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s = %#.8x, want %#.8x", c.name, c.got, c.want)
		}
	}
}
