package hci

// Status is an HCI command/event status byte ([Vol 1] Part F, Section
// 1.3). Zero means success; any other value is a controller error code.
type Status uint8

const (
	StatusSuccess                  Status = 0x00
	StatusUnknownCommand           Status = 0x01
	StatusUnknownConnID            Status = 0x02
	StatusHardwareFailure          Status = 0x03
	StatusPageTimeout              Status = 0x04
	StatusAuthFailure              Status = 0x05
	StatusPinOrKeyMissing          Status = 0x06
	StatusMemoryCapacityExceeded   Status = 0x07
	StatusConnTimeout              Status = 0x08
	StatusConnLimitExceeded        Status = 0x09
	StatusCommandDisallowed        Status = 0x0C
	StatusConnRejectedResources    Status = 0x0D
	StatusInvalidCommandParameters Status = 0x12
	StatusRemoteUserTerminatedConn Status = 0x13
	StatusConnTerminatedLocalHost  Status = 0x16
	StatusUnsupportedRemoteFeature Status = 0x1A
	StatusUnspecifiedError         Status = 0x1F
	StatusLMPResponseTimeout       Status = 0x22
	StatusInstantPassed            Status = 0x28
	StatusPairingNotSupported      Status = 0x29
	StatusControllerBusy           Status = 0x3A
	StatusConnFailedToEstablish    Status = 0x3E
)

// IsOK reports whether s indicates success.
func (s Status) IsOK() bool { return s == StatusSuccess }

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unspecified Error"
}

var statusNames = map[Status]string{
	StatusSuccess:                  "Success",
	StatusUnknownCommand:           "Unknown HCI Command",
	StatusUnknownConnID:            "Unknown Connection Identifier",
	StatusHardwareFailure:          "Hardware Failure",
	StatusPageTimeout:              "Page Timeout",
	StatusAuthFailure:              "Authentication Failure",
	StatusPinOrKeyMissing:          "PIN or Key Missing",
	StatusMemoryCapacityExceeded:   "Memory Capacity Exceeded",
	StatusConnTimeout:              "Connection Timeout",
	StatusConnLimitExceeded:        "Connection Limit Exceeded",
	StatusCommandDisallowed:        "Command Disallowed",
	StatusConnRejectedResources:    "Connection Rejected due to Limited Resources",
	StatusInvalidCommandParameters: "Invalid HCI Command Parameters",
	StatusRemoteUserTerminatedConn: "Remote User Terminated Connection",
	StatusConnTerminatedLocalHost:  "Connection Terminated By Local Host",
	StatusUnsupportedRemoteFeature: "Unsupported Remote Feature",
	StatusUnspecifiedError:         "Unspecified Error",
	StatusLMPResponseTimeout:       "LMP Response Timeout / LL Response Timeout",
	StatusInstantPassed:            "Instant Passed",
	StatusPairingNotSupported:      "Pairing With Unit Key Not Supported",
	StatusControllerBusy:           "Controller Busy",
	StatusConnFailedToEstablish:    "Connection Failed to be Established",
}
