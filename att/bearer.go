package att

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nimblebt/burble/gap"
)

// ConnHandle identifies one L2CAP/ATT bearer. Registry keys its
// per-connection map on this; callers translate from their transport's
// own connection handle type at the boundary.
type ConnHandle uint16

// SecurityLevel is the achieved security level of a bearer's link,
// checked against an attribute's required access mode by the GATT
// layer before satisfying a read or write ([Vol 3] Part C, Section
// 10.2).
type SecurityLevel uint8

const (
	SecurityNone SecurityLevel = iota
	SecurityUnauthenticatedEncryption
	SecurityAuthenticatedEncryption
	SecurityAuthenticatedLESC
)

// HandleRange is an inclusive [Start, End] attribute handle range.
type HandleRange struct{ Start, End uint16 }

// InfoEntry is one Find Information response entry: a handle and its
// attribute type UUID.
type InfoEntry struct {
	Handle uint16
	Type   gap.Uuid
}

// TypeEntry is one Read By Type response entry: a handle and the value
// at that handle (possibly truncated to fit the PDU).
type TypeEntry struct {
	Handle uint16
	Value  []byte
}

// GroupEntry is one Read By Group Type response entry: a handle range
// and the group's defining value (e.g. a service UUID).
type GroupEntry struct {
	Range HandleRange
	Value []byte
}

// Server is the GATT-layer contract the bearer dispatches decoded ATT
// requests to. The read and write methods receive the bearer's achieved
// security level so permission checks happen exactly once, at the GATT
// schema; FindInformation and FindByType take no security level.
type Server interface {
	FindInformation(start, end uint16) []InfoEntry
	FindByType(start, end uint16, attrType gap.Uuid, value []byte) []HandleRange
	ReadByType(start, end uint16, attrType gap.Uuid, sec SecurityLevel) ([]TypeEntry, ErrorCode, uint16)
	ReadByGroupType(start, end uint16, groupType gap.Uuid, sec SecurityLevel) ([]GroupEntry, ErrorCode, uint16)
	Read(handle uint16, offset uint16, sec SecurityLevel) ([]byte, ErrorCode)
	Write(handle uint16, value []byte, sec SecurityLevel, noResponse bool) ErrorCode
}

// Sender is what the bearer needs from the transport to move framed
// PDUs for one connection: an L2CAP fixed-channel send on the ATT CID.
type Sender interface {
	Send(ctx context.Context, connHandle ConnHandle, pdu []byte) error
}

// transactionTimeout is the ATT transaction timeout ([Vol 3] Part F,
// Section 3.3.3). No timer in this package uses it: an unanswered
// request is never timed out, and no bearer is torn down or marked
// unusable on that account.
const transactionTimeout = 30 * time.Second

// defaultMTU is the minimum (and default, pre-negotiation) ATT MTU
// ([Vol 3] Part F, Section 3.4.2.2).
const defaultMTU = 23

// Bearer is the per-connection ATT state: negotiated MTU and achieved
// security level, plus dispatch of inbound request PDUs to Server.
// Generalizes the teacher's single global *l2cap (one bearer assumed)
// into a per-connection registry.
type Bearer struct {
	connHandle ConnHandle
	srv        Server
	sender     Sender
	log        *logrus.Entry

	mu  sync.Mutex
	mtu uint16
	sec SecurityLevel
}

func newBearer(connHandle ConnHandle, srv Server, sender Sender, log *logrus.Entry) *Bearer {
	return &Bearer{connHandle: connHandle, srv: srv, sender: sender, log: log, mtu: defaultMTU}
}

// SetSecurityLevel updates the bearer's achieved security level, e.g.
// after SMP pairing completes.
func (b *Bearer) SetSecurityLevel(sec SecurityLevel) {
	b.mu.Lock()
	b.sec = sec
	b.mu.Unlock()
}

func (b *Bearer) securityLevel() SecurityLevel {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sec
}

func (b *Bearer) mtuValue() uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mtu
}

// Notify sends a Handle Value Notification for handle, truncated to
// fit the negotiated MTU.
func (b *Bearer) Notify(ctx context.Context, handle uint16, value []byte) error {
	w := newMTUWriter(b.mtuValue())
	w.WriteByte(byte(OpHandleNotify))
	w.WriteUint16(handle)
	n := w.Writeable(0, value)
	w.Write(value[:n])
	return b.sender.Send(ctx, b.connHandle, w.Bytes())
}

// Indicate sends a Handle Value Indication for handle, truncated to fit
// the negotiated MTU. The bearer does not track outstanding indications:
// a further Indicate is not held back until the peer's Handle Value
// Confirmation arrives ([Vol 3] Part F, Section 3.4.7.2).
func (b *Bearer) Indicate(ctx context.Context, handle uint16, value []byte) error {
	w := newMTUWriter(b.mtuValue())
	w.WriteByte(byte(OpHandleInd))
	w.WriteUint16(handle)
	n := w.Writeable(0, value)
	w.Write(value[:n])
	return b.sender.Send(ctx, b.connHandle, w.Bytes())
}

// HandleRequest dispatches one inbound ATT PDU and returns the response
// PDU to send, or nil for commands/confirmations that expect none.
func (b *Bearer) HandleRequest(pdu []byte) []byte {
	if len(pdu) == 0 {
		return nil
	}
	op, body := Opcode(pdu[0]), pdu[1:]
	switch op {
	case OpMTUReq:
		return b.handleMTU(body)
	case OpFindInfoReq:
		return b.handleFindInfo(body)
	case OpFindByTypeReq:
		return b.handleFindByType(body)
	case OpReadByTypeReq:
		return b.handleReadByType(body)
	case OpReadReq, OpReadBlobReq:
		return b.handleRead(op, body)
	case OpReadByGroupReq:
		return b.handleReadByGroup(body)
	case OpWriteReq, OpWriteCmd:
		return b.handleWrite(op, body)
	case OpHandleCnf:
		return nil
	default:
		return ErrorResponse(op, 0, ErrReqNotSupported)
	}
}

func (b *Bearer) handleMTU(body []byte) []byte {
	if len(body) < 2 {
		return ErrorResponse(OpMTUReq, 0, ErrInvalidPDU)
	}
	client := uint16(body[0]) | uint16(body[1])<<8
	b.mu.Lock()
	if client < defaultMTU {
		client = defaultMTU
	}
	b.mtu = client
	mtu := b.mtu
	b.mu.Unlock()
	return []byte{byte(OpMTUResp), byte(mtu), byte(mtu >> 8)}
}

func readHandleRange(b []byte) (start, end uint16) {
	return uint16(b[0]) | uint16(b[1])<<8, uint16(b[2]) | uint16(b[3])<<8
}

func (b *Bearer) handleFindInfo(body []byte) []byte {
	if len(body) < 4 {
		return ErrorResponse(OpFindInfoReq, 0, ErrInvalidPDU)
	}
	start, end := readHandleRange(body)
	entries := b.srv.FindInformation(start, end)
	if len(entries) == 0 {
		return ErrorResponse(OpFindInfoReq, start, ErrAttrNotFound)
	}

	w := newMTUWriter(b.mtuValue())
	w.WriteByte(byte(OpFindInfoResp))
	format := byte(0x01)
	if l, _ := entries[0].Type.As16(); l == 0 {
		if _, ok := entries[0].Type.As32(); !ok {
			format = 0x02
		}
	}
	w.WriteByte(format)
	uuidLen := 2
	if format == 0x02 {
		uuidLen = 16
	}
	for _, e := range entries {
		if e.Type.Len() != uuidLen {
			break
		}
		w.Chunk()
		w.WriteUint16(e.Handle)
		w.WriteUUID(e.Type)
		if !w.Commit() {
			break
		}
	}
	return w.Bytes()
}

func (b *Bearer) handleFindByType(body []byte) []byte {
	if len(body) < 6 {
		return ErrorResponse(OpFindByTypeReq, 0, ErrInvalidPDU)
	}
	start, end := readHandleRange(body)
	attrType, err := gap.Parse(body[4:6])
	if err != nil {
		return ErrorResponse(OpFindByTypeReq, start, ErrInvalidPDU)
	}
	ranges := b.srv.FindByType(start, end, attrType, body[6:])
	if len(ranges) == 0 {
		return ErrorResponse(OpFindByTypeReq, start, ErrAttrNotFound)
	}
	w := newMTUWriter(b.mtuValue())
	w.WriteByte(byte(OpFindByTypeResp))
	for _, r := range ranges {
		w.Chunk()
		w.WriteUint16(r.Start)
		w.WriteUint16(r.End)
		if !w.Commit() {
			break
		}
	}
	return w.Bytes()
}

func (b *Bearer) handleReadByType(body []byte) []byte {
	if len(body) < 6 {
		return ErrorResponse(OpReadByTypeReq, 0, ErrInvalidPDU)
	}
	start, end := readHandleRange(body)
	attrType, err := gap.Parse(body[4:])
	if err != nil {
		return ErrorResponse(OpReadByTypeReq, start, ErrInvalidPDU)
	}
	entries, ec, errHandle := b.srv.ReadByType(start, end, attrType, b.securityLevel())
	if ec != 0 {
		return ErrorResponse(OpReadByTypeReq, errHandle, ec)
	}
	if len(entries) == 0 {
		return ErrorResponse(OpReadByTypeReq, start, ErrAttrNotFound)
	}
	w := newMTUWriter(b.mtuValue())
	w.WriteByte(byte(OpReadByTypeResp))
	valLen := -1
	for _, e := range entries {
		if valLen == -1 {
			valLen = len(e.Value)
			w.WriteByte(byte(valLen + 2))
		}
		if len(e.Value) != valLen {
			break
		}
		w.Chunk()
		w.WriteUint16(e.Handle)
		w.Write(e.Value)
		if !w.Commit() {
			break
		}
	}
	return w.Bytes()
}

func (b *Bearer) handleRead(op Opcode, body []byte) []byte {
	if len(body) < 2 {
		return ErrorResponse(op, 0, ErrInvalidPDU)
	}
	handle := uint16(body[0]) | uint16(body[1])<<8
	var offset uint16
	if op == OpReadBlobReq {
		if len(body) < 4 {
			return ErrorResponse(op, handle, ErrInvalidPDU)
		}
		offset = uint16(body[2]) | uint16(body[3])<<8
	}
	value, ec := b.srv.Read(handle, offset, b.securityLevel())
	if ec != 0 {
		return ErrorResponse(op, handle, ec)
	}
	w := newMTUWriter(b.mtuValue())
	w.WriteByte(byte(respFor[op]))
	n := w.Writeable(0, value)
	w.Write(value[:n])
	return w.Bytes()
}

func (b *Bearer) handleReadByGroup(body []byte) []byte {
	if len(body) < 6 {
		return ErrorResponse(OpReadByGroupReq, 0, ErrInvalidPDU)
	}
	start, end := readHandleRange(body)
	groupType, err := gap.Parse(body[4:])
	if err != nil {
		return ErrorResponse(OpReadByGroupReq, start, ErrInvalidPDU)
	}
	groups, ec, errHandle := b.srv.ReadByGroupType(start, end, groupType, b.securityLevel())
	if ec != 0 {
		return ErrorResponse(OpReadByGroupReq, errHandle, ec)
	}
	if len(groups) == 0 {
		return ErrorResponse(OpReadByGroupReq, start, ErrAttrNotFound)
	}
	w := newMTUWriter(b.mtuValue())
	w.WriteByte(byte(OpReadByGroupResp))
	valLen := -1
	for _, g := range groups {
		if valLen == -1 {
			valLen = len(g.Value)
			w.WriteByte(byte(valLen + 4))
		}
		if len(g.Value) != valLen {
			break
		}
		w.Chunk()
		w.WriteUint16(g.Range.Start)
		w.WriteUint16(g.Range.End)
		w.Write(g.Value)
		if !w.Commit() {
			break
		}
	}
	return w.Bytes()
}

func (b *Bearer) handleWrite(op Opcode, body []byte) []byte {
	if len(body) < 2 {
		if op == OpWriteCmd {
			return nil
		}
		return ErrorResponse(op, 0, ErrInvalidPDU)
	}
	handle := uint16(body[0]) | uint16(body[1])<<8
	noResponse := op == OpWriteCmd
	ec := b.srv.Write(handle, body[2:], b.securityLevel(), noResponse)
	if noResponse {
		return nil
	}
	if ec != 0 {
		return ErrorResponse(op, handle, ec)
	}
	return []byte{byte(OpWriteResp)}
}
