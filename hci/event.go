package hci

// EventCode is an HCI event code ([Vol 4] Part E, Section 5.4.4).
type EventCode uint8

const (
	EvtDisconnectionComplete    EventCode = 0x05
	EvtEncryptionChange         EventCode = 0x08
	EvtReadRemoteVersionComplete EventCode = 0x0C
	EvtCommandComplete          EventCode = 0x0E
	EvtCommandStatus            EventCode = 0x0F
	EvtHardwareError            EventCode = 0x10
	EvtNumberOfCompletedPackets EventCode = 0x13
	EvtEncryptionKeyRefresh     EventCode = 0x30
	EvtLEMeta                   EventCode = 0x3E
)

// SubEventCode identifies an LE Meta Event subevent ([Vol 4] Part E,
// Section 7.7.65).
type SubEventCode uint8

const (
	SubEvtConnectionComplete        SubEventCode = 0x01
	SubEvtAdvertisingReport          SubEventCode = 0x02
	SubEvtConnectionUpdateComplete   SubEventCode = 0x03
	SubEvtReadRemoteFeaturesComplete SubEventCode = 0x04
	SubEvtLongTermKeyRequest         SubEventCode = 0x05
	SubEvtEnhancedConnectionComplete SubEventCode = 0x0A
	SubEvtPHYUpdateComplete          SubEventCode = 0x0C
	SubEvtExtendedAdvertisingReport  SubEventCode = 0x0D
	SubEvtAdvertisingSetTerminated   SubEventCode = 0x12
)

func (e EventCode) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "Unknown Event"
}

var eventNames = map[EventCode]string{
	EvtDisconnectionComplete:     "Disconnection Complete",
	EvtEncryptionChange:          "Encryption Change",
	EvtReadRemoteVersionComplete: "Read Remote Version Information Complete",
	EvtCommandComplete:           "Command Complete",
	EvtCommandStatus:             "Command Status",
	EvtHardwareError:             "Hardware Error",
	EvtNumberOfCompletedPackets:  "Number Of Completed Packets",
	EvtEncryptionKeyRefresh:      "Encryption Key Refresh Complete",
	EvtLEMeta:                    "LE Meta Event",
}

func (s SubEventCode) String() string {
	if name, ok := subEventNames[s]; ok {
		return name
	}
	return "Unknown LE Subevent"
}

var subEventNames = map[SubEventCode]string{
	SubEvtConnectionComplete:         "LE Connection Complete",
	SubEvtAdvertisingReport:          "LE Advertising Report",
	SubEvtConnectionUpdateComplete:   "LE Connection Update Complete",
	SubEvtReadRemoteFeaturesComplete: "LE Read Remote Features Complete",
	SubEvtLongTermKeyRequest:         "LE Long Term Key Request",
	SubEvtEnhancedConnectionComplete: "LE Enhanced Connection Complete",
	SubEvtPHYUpdateComplete:          "LE PHY Update Complete",
	SubEvtExtendedAdvertisingReport:  "LE Extended Advertising Report",
	SubEvtAdvertisingSetTerminated:   "LE Advertising Set Terminated",
}

// Event is one decoded HCI event packet header plus its undecoded
// parameter bytes. For EvtLEMeta, SubEvent carries the subevent code and
// Params starts immediately after it.
type Event struct {
	Code    EventCode
	SubEvent SubEventCode
	Params  []byte
}

// ConnHandle is a 12-bit connection handle ([Vol 4] Part E, Section
// 5.4.2), carried in a 16-bit field on the wire.
type ConnHandle uint16

// DecodeEvent parses one HCI event packet (event code, parameter total
// length, parameters) as delivered whole by transport.Transport.RecvEvent.
func DecodeEvent(pkt []byte) (Event, bool) {
	if len(pkt) < 2 {
		return Event{}, false
	}
	code := EventCode(pkt[0])
	plen := int(pkt[1])
	if len(pkt) != 2+plen {
		return Event{}, false
	}
	params := pkt[2:]
	ev := Event{Code: code, Params: params}
	if code == EvtLEMeta {
		if len(params) < 1 {
			return Event{}, false
		}
		ev.SubEvent = SubEventCode(params[0])
		ev.Params = params[1:]
	}
	return ev, true
}

// CommandCompleteParams is the fixed prefix of every Command Complete
// event ([Vol 4] Part E, Section 7.7.14): the host's command quota, the
// opcode it completes, and the command's own return parameters.
type CommandCompleteParams struct {
	NumHCICommandPackets uint8
	Opcode               Opcode
	ReturnParams         []byte
}

// DecodeCommandComplete parses the Command Complete fixed prefix out of
// an already-dispatched event's Params.
func DecodeCommandComplete(params []byte) (CommandCompleteParams, bool) {
	if len(params) < 3 {
		return CommandCompleteParams{}, false
	}
	return CommandCompleteParams{
		NumHCICommandPackets: params[0],
		Opcode:               Opcode(uint16(params[1]) | uint16(params[2])<<8),
		ReturnParams:         params[3:],
	}, true
}

// CommandStatusParams is the body of a Command Status event ([Vol 4] Part
// E, Section 7.7.15).
type CommandStatusParams struct {
	Status               Status
	NumHCICommandPackets uint8
	Opcode               Opcode
}

// DecodeCommandStatus parses a Command Status event's Params.
func DecodeCommandStatus(params []byte) (CommandStatusParams, bool) {
	if len(params) != 4 {
		return CommandStatusParams{}, false
	}
	return CommandStatusParams{
		Status:               Status(params[0]),
		NumHCICommandPackets: params[1],
		Opcode:               Opcode(uint16(params[2]) | uint16(params[3])<<8),
	}, true
}
