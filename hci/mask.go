package hci

// EventMask is the triple of bitmasks that together gate which events the
// controller may report: the classic event mask, its page 2 extension,
// and the LE event mask ([Vol 4] Part E, Sections 7.3.1, 7.3.69, 7.8.1).
type EventMask struct {
	Page1 uint64
	Page2 uint64
	LE    uint64
}

// Classic event mask bits (page 1) this stack cares about.
const (
	EvtMaskDisconnectionComplete    = 1 << 4
	EvtMaskEncryptionChange         = 1 << 7
	EvtMaskReadRemoteVersionComplete = 1 << 11
	EvtMaskHardwareError            = 1 << 15
	EvtMaskNumberOfCompletedPackets = 1 << 18
	EvtMaskEncryptionKeyRefresh     = 1 << 47
	EvtMaskLEMeta                   = 1 << 61
)

// LE event mask bits ([Vol 4] Part E, Section 7.8.1).
const (
	LEEvtMaskConnectionComplete        = 1 << 0
	LEEvtMaskAdvertisingReport         = 1 << 1
	LEEvtMaskConnectionUpdateComplete  = 1 << 2
	LEEvtMaskReadRemoteFeaturesComplete = 1 << 3
	LEEvtMaskLongTermKeyRequest        = 1 << 4
	LEEvtMaskEnhancedConnectionComplete = 1 << 9
	LEEvtMaskPHYUpdateComplete         = 1 << 11
	LEEvtMaskExtendedAdvertisingReport = 1 << 12
	LEEvtMaskAdvertisingSetTerminated  = 1 << 17
)

// DefaultEventMask is the mask this stack requests at startup: every
// event and LE subevent it knows how to route, and nothing else.
func DefaultEventMask() EventMask {
	return EventMask{
		Page1: EvtMaskDisconnectionComplete | EvtMaskEncryptionChange |
			EvtMaskReadRemoteVersionComplete | EvtMaskHardwareError |
			EvtMaskNumberOfCompletedPackets | EvtMaskEncryptionKeyRefresh |
			EvtMaskLEMeta,
		Page2: 0,
		LE: LEEvtMaskConnectionComplete | LEEvtMaskAdvertisingReport |
			LEEvtMaskConnectionUpdateComplete | LEEvtMaskReadRemoteFeaturesComplete |
			LEEvtMaskLongTermKeyRequest | LEEvtMaskEnhancedConnectionComplete |
			LEEvtMaskPHYUpdateComplete | LEEvtMaskExtendedAdvertisingReport |
			LEEvtMaskAdvertisingSetTerminated,
	}
}

// SetBit sets bit in the mask page identified by which ("page1", "page2",
// or "le"), returning the updated mask. Unknown page names are a no-op,
// since the mask is always built from the named constants above rather
// than from user input.
func (m EventMask) SetBit(which string, bit uint64) EventMask {
	switch which {
	case "page1":
		m.Page1 |= bit
	case "page2":
		m.Page2 |= bit
	case "le":
		m.LE |= bit
	}
	return m
}
