package hci

import (
	"context"

	"github.com/nimblebt/burble/wire"
)

// ConnParams is the subset of LE Create Connection parameters this
// stack exposes to callers ([Vol 4] Part E, Section 7.8.12).
type ConnParams struct {
	ScanInterval       uint16
	ScanWindow         uint16
	FilterPolicy       uint8
	PeerAddrType       uint8
	PeerAddr           Addr6
	OwnAddrType        uint8
	ConnIntervalMin    uint16
	ConnIntervalMax    uint16
	ConnLatency        uint16
	SupervisionTimeout uint16
	MinCELen           uint16
	MaxCELen           uint16
}

// CreateConnection issues LE Create Connection. The connection result
// arrives asynchronously as an LE Connection Complete / Enhanced
// Connection Complete event, routed to ChanManager/SecDb/AdvManager by
// the Router — this call only confirms the controller accepted the
// request (LE Create Connection has no command-complete return
// parameters of its own; success is reported via Command Status).
func (h *Host) CreateConnection(ctx context.Context, p ConnParams) error {
	pk := wire.NewPacker(25)
	pk.U16(p.ScanInterval)
	pk.U16(p.ScanWindow)
	pk.U8(p.FilterPolicy)
	pk.U8(p.PeerAddrType)
	pk.Raw(p.PeerAddr[:])
	pk.U8(p.OwnAddrType)
	pk.U16(p.ConnIntervalMin)
	pk.U16(p.ConnIntervalMax)
	pk.U16(p.ConnLatency)
	pk.U16(p.SupervisionTimeout)
	pk.U16(p.MinCELen)
	pk.U16(p.MaxCELen)
	_, err := h.Exec(ctx, OpLECreateConn, pk.Bytes())
	return err
}

// Disconnect issues Disconnect for an established connection handle.
func (h *Host) Disconnect(ctx context.Context, handle ConnHandle, reason Status) error {
	pk := wire.NewPacker(3)
	pk.U16(uint16(handle))
	pk.U8(uint8(reason))
	_, err := h.Exec(ctx, OpDisconnect, pk.Bytes())
	return err
}

// ConnectionComplete is the decoded body shared by LE Connection
// Complete and LE Enhanced Connection Complete subevents ([Vol 4] Part
// E, Sections 7.7.65.1 and 7.7.65.10); the enhanced variant's extra
// local/peer resolvable-address fields are ignored here since nothing
// in this stack's peer-identity model depends on them.
type ConnectionComplete struct {
	Status             Status
	Handle             ConnHandle
	Role               uint8 // 0 = central, 1 = peripheral
	PeerAddrType       uint8
	PeerAddr           Addr6
	ConnInterval       uint16
	ConnLatency        uint16
	SupervisionTimeout uint16
	MasterClockAcc     uint8
}

// IsPeripheral reports whether this host was acting as the peripheral
// (advertiser) in the completed connection — the role test the
// AdvManager filter uses to decide whether an LE ConnectionComplete
// applies to it, per spec.md §4.3.
func (c ConnectionComplete) IsPeripheral() bool { return c.Role == 1 }

// DecodeConnectionComplete parses an LE Connection Complete subevent's
// Params.
func DecodeConnectionComplete(params []byte) (ConnectionComplete, bool) {
	u := wire.NewUnpacker(params)
	cc := ConnectionComplete{
		Status: Status(u.U8()),
		Handle: ConnHandle(u.U16()),
		Role:   u.U8(),
	}
	cc.PeerAddrType = u.U8()
	copy(cc.PeerAddr[:], u.Raw(6))
	cc.ConnInterval = u.U16()
	cc.ConnLatency = u.U16()
	cc.SupervisionTimeout = u.U16()
	cc.MasterClockAcc = u.U8()
	return cc, u.Valid
}

// DecodeEnhancedConnectionComplete parses an LE Enhanced Connection
// Complete subevent's Params, discarding the local/peer resolvable
// private address fields that the plain form lacks.
func DecodeEnhancedConnectionComplete(params []byte) (ConnectionComplete, bool) {
	u := wire.NewUnpacker(params)
	cc := ConnectionComplete{
		Status: Status(u.U8()),
		Handle: ConnHandle(u.U16()),
		Role:   u.U8(),
	}
	cc.PeerAddrType = u.U8()
	copy(cc.PeerAddr[:], u.Raw(6))
	u.Raw(6) // local resolvable private address
	u.Raw(6) // peer resolvable private address
	cc.ConnInterval = u.U16()
	cc.ConnLatency = u.U16()
	cc.SupervisionTimeout = u.U16()
	cc.MasterClockAcc = u.U8()
	return cc, u.Valid
}

// DisconnectionComplete is the decoded body of a Disconnection Complete
// event ([Vol 4] Part E, Section 7.7.5).
type DisconnectionComplete struct {
	Status Status
	Handle ConnHandle
	Reason Status
}

func DecodeDisconnectionComplete(params []byte) (DisconnectionComplete, bool) {
	u := wire.NewUnpacker(params)
	d := DisconnectionComplete{
		Status: Status(u.U8()),
		Handle: ConnHandle(u.U16()),
		Reason: Status(u.U8()),
	}
	return d, u.Valid
}

// LongTermKeyRequest is the decoded body of an LE Long Term Key Request
// subevent ([Vol 4] Part E, Section 7.7.65.5).
type LongTermKeyRequest struct {
	Handle               ConnHandle
	RandomNumber         uint64
	EncryptedDiversifier uint16
}

func DecodeLongTermKeyRequest(params []byte) (LongTermKeyRequest, bool) {
	u := wire.NewUnpacker(params)
	r := LongTermKeyRequest{
		Handle:               ConnHandle(u.U16()),
		RandomNumber:         u.U64(),
		EncryptedDiversifier: u.U16(),
	}
	return r, u.Valid
}

// LongTermKeyRequestReply replies to an LE Long Term Key Request with
// the key to use.
func (h *Host) LongTermKeyRequestReply(ctx context.Context, handle ConnHandle, ltk [16]byte) error {
	pk := wire.NewPacker(18)
	pk.U16(uint16(handle))
	pk.Raw(ltk[:])
	_, err := h.Exec(ctx, OpLELongTermKeyRequestReply, pk.Bytes())
	return err
}

// LongTermKeyRequestNegativeReply rejects an LE Long Term Key Request,
// e.g. because no key is on file for this peer.
func (h *Host) LongTermKeyRequestNegativeReply(ctx context.Context, handle ConnHandle) error {
	pk := wire.NewPacker(2)
	pk.U16(uint16(handle))
	_, err := h.Exec(ctx, OpLELTKRequestNegativeReply, pk.Bytes())
	return err
}
