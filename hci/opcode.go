package hci

// OGF is an HCI Opcode Group Field.
type OGF uint8

// Opcode group fields used by this stack ([Vol 4] Part E, Section 5.4.1).
const (
	OGFLinkControl OGF = 0x01
	OGFHostCtl     OGF = 0x03
	OGFInfoParam   OGF = 0x04
	OGFStatusParam OGF = 0x05
	OGFLECtl       OGF = 0x08
	OGFVendor      OGF = 0x3F
)

// Opcode is a 16-bit HCI command opcode, (OGF<<10)|OCF.
type Opcode uint16

// MakeOpcode builds an Opcode from its group and command fields.
func MakeOpcode(ogf OGF, ocf uint16) Opcode {
	return Opcode(uint16(ogf)<<10 | ocf&0x03FF)
}

// OGF returns the opcode's group field.
func (op Opcode) OGF() OGF { return OGF(uint16(op) >> 10) }

// OCF returns the opcode's command field.
func (op Opcode) OCF() uint16 { return uint16(op) & 0x03FF }

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "Unknown"
}

// Opcodes supported by this stack, grouped by OGF per [Vol 4] Part E,
// Section 7.
const (
	OpDisconnect Opcode = Opcode(uint16(OGFLinkControl)<<10 | 0x0006)

	OpReset               Opcode = Opcode(uint16(OGFHostCtl)<<10 | 0x0003)
	OpSetEventMask        Opcode = Opcode(uint16(OGFHostCtl)<<10 | 0x0001)
	OpSetEventMaskPage2   Opcode = Opcode(uint16(OGFHostCtl)<<10 | 0x0063)
	OpWriteLEHostSupport  Opcode = Opcode(uint16(OGFHostCtl)<<10 | 0x006D)
	OpWriteSimplePairMode Opcode = Opcode(uint16(OGFHostCtl)<<10 | 0x0056)

	OpReadBDAddr       Opcode = Opcode(uint16(OGFInfoParam)<<10 | 0x0009)
	OpReadLocalVersion Opcode = Opcode(uint16(OGFInfoParam)<<10 | 0x0001)

	OpReadRSSI Opcode = Opcode(uint16(OGFStatusParam)<<10 | 0x0005)

	OpLESetEventMask              Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x0001)
	OpLEReadBufferSize            Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x0002)
	OpLEReadBufferSizeV2          Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x0060)
	OpLESetAdvertisingParameters  Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x0006)
	OpLESetAdvertisingData        Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x0008)
	OpLESetScanResponseData       Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x0009)
	OpLESetAdvertiseEnable        Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x000A)
	OpLESetScanParameters         Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x000B)
	OpLESetScanEnable             Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x000C)
	OpLECreateConn                Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x000D)
	OpLECreateConnCancel          Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x000E)
	OpLEConnUpdate                Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x0013)
	OpLELongTermKeyRequestReply   Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x001A)
	OpLELTKRequestNegativeReply   Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x001B)
	OpLEReadLocalP256PublicKey    Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x0025)
	OpLEGenerateDHKey             Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x0026)
	OpLESetExtendedAdvParameters  Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x0036)
	OpLESetExtendedAdvData        Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x0037)
	OpLESetExtendedScanResponse   Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x0038)
	OpLESetExtendedAdvEnable      Opcode = Opcode(uint16(OGFLECtl)<<10 | 0x0039)
)

var opcodeNames = map[Opcode]string{
	OpDisconnect:                 "Disconnect",
	OpReset:                      "Reset",
	OpSetEventMask:               "Set Event Mask",
	OpSetEventMaskPage2:          "Set Event Mask Page 2",
	OpWriteLEHostSupport:         "Write LE Host Support",
	OpWriteSimplePairMode:        "Write Simple Pairing Mode",
	OpReadBDAddr:                 "Read BD_ADDR",
	OpReadLocalVersion:           "Read Local Version Information",
	OpReadRSSI:                   "Read RSSI",
	OpLESetEventMask:             "LE Set Event Mask",
	OpLEReadBufferSize:           "LE Read Buffer Size",
	OpLEReadBufferSizeV2:         "LE Read Buffer Size V2",
	OpLESetAdvertisingParameters: "LE Set Advertising Parameters",
	OpLESetAdvertisingData:       "LE Set Advertising Data",
	OpLESetScanResponseData:      "LE Set Scan Response Data",
	OpLESetAdvertiseEnable:       "LE Set Advertise Enable",
	OpLESetScanParameters:        "LE Set Scan Parameters",
	OpLESetScanEnable:            "LE Set Scan Enable",
	OpLECreateConn:               "LE Create Connection",
	OpLECreateConnCancel:         "LE Create Connection Cancel",
	OpLEConnUpdate:               "LE Connection Update",
	OpLELongTermKeyRequestReply:  "LE Long Term Key Request Reply",
	OpLELTKRequestNegativeReply:  "LE Long Term Key Request Negative Reply",
	OpLEReadLocalP256PublicKey:   "LE Read Local P-256 Public Key",
	OpLEGenerateDHKey:            "LE Generate DHKey",
	OpLESetExtendedAdvParameters: "LE Set Extended Advertising Parameters",
	OpLESetExtendedAdvData:       "LE Set Extended Advertising Data",
	OpLESetExtendedScanResponse:  "LE Set Extended Scan Response Data",
	OpLESetExtendedAdvEnable:     "LE Set Extended Advertising Enable",
}
