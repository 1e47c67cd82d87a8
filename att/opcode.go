// Package att implements the Attribute Protocol PDU format and the
// per-connection bearer that pairs it with L2CAP fixed-channel framing
// (C4): request/response dispatch, MTU negotiation, and the attribute
// handle-range walks (Find Information, Find By Type, Read By Type,
// Read By Group Type) the GATT layer is built on.
package att

// Opcode is an ATT PDU method code ([Vol 3] Part F, Section 3.4.8).
type Opcode uint8

const (
	OpError           Opcode = 0x01
	OpMTUReq          Opcode = 0x02
	OpMTUResp         Opcode = 0x03
	OpFindInfoReq     Opcode = 0x04
	OpFindInfoResp    Opcode = 0x05
	OpFindByTypeReq   Opcode = 0x06
	OpFindByTypeResp  Opcode = 0x07
	OpReadByTypeReq   Opcode = 0x08
	OpReadByTypeResp  Opcode = 0x09
	OpReadReq         Opcode = 0x0A
	OpReadResp        Opcode = 0x0B
	OpReadBlobReq     Opcode = 0x0C
	OpReadBlobResp    Opcode = 0x0D
	OpReadMultiReq    Opcode = 0x0E
	OpReadMultiResp   Opcode = 0x0F
	OpReadByGroupReq  Opcode = 0x10
	OpReadByGroupResp Opcode = 0x11
	OpWriteReq        Opcode = 0x12
	OpWriteResp       Opcode = 0x13
	OpWriteCmd        Opcode = 0x52
	OpPrepWriteReq    Opcode = 0x16
	OpPrepWriteResp   Opcode = 0x17
	OpExecWriteReq    Opcode = 0x18
	OpExecWriteResp   Opcode = 0x19
	OpHandleNotify    Opcode = 0x1B
	OpHandleInd       Opcode = 0x1D
	OpHandleCnf       Opcode = 0x1E
	OpSignedWriteCmd  Opcode = 0xD2
)

// ErrorCode is an ATT error code ([Vol 3] Part F, Section 3.4.1.1).
type ErrorCode uint8

const (
	ErrInvalidHandle     ErrorCode = 0x01
	ErrReadNotPermitted  ErrorCode = 0x02
	ErrWriteNotPermitted ErrorCode = 0x03
	ErrInvalidPDU        ErrorCode = 0x04
	ErrAuthentication    ErrorCode = 0x05
	ErrReqNotSupported   ErrorCode = 0x06
	ErrInvalidOffset     ErrorCode = 0x07
	ErrAuthorization     ErrorCode = 0x08
	ErrPrepQueueFull     ErrorCode = 0x09
	ErrAttrNotFound      ErrorCode = 0x0A
	ErrAttrNotLong       ErrorCode = 0x0B
	ErrInsuffEncKeySize  ErrorCode = 0x0C
	ErrInvalAttrValueLen ErrorCode = 0x0D
	ErrUnlikely          ErrorCode = 0x0E
	ErrInsuffEncryption  ErrorCode = 0x0F
	ErrUnsupportedGrpTyp ErrorCode = 0x10
	ErrInsuffResources   ErrorCode = 0x11
)

// respFor maps a request opcode to its successful response opcode.
var respFor = map[Opcode]Opcode{
	OpMTUReq:         OpMTUResp,
	OpFindInfoReq:    OpFindInfoResp,
	OpFindByTypeReq:  OpFindByTypeResp,
	OpReadByTypeReq:  OpReadByTypeResp,
	OpReadReq:        OpReadResp,
	OpReadBlobReq:    OpReadBlobResp,
	OpReadMultiReq:   OpReadMultiResp,
	OpReadByGroupReq: OpReadByGroupResp,
	OpWriteReq:       OpWriteResp,
	OpPrepWriteReq:   OpPrepWriteResp,
	OpExecWriteReq:   OpExecWriteResp,
}

// ErrorResponse encodes an Error Response PDU ([Vol 3] Part F, Section
// 3.4.1.1).
func ErrorResponse(reqOpcode Opcode, handle uint16, code ErrorCode) []byte {
	return []byte{byte(OpError), byte(reqOpcode), byte(handle), byte(handle >> 8), byte(code)}
}
