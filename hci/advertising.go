package hci

import (
	"context"

	"github.com/nimblebt/burble/wire"
)

// AdvParams is the LE Set Advertising Parameters command body ([Vol 4]
// Part E, Section 7.8.5).
type AdvParams struct {
	IntervalMin    uint16
	IntervalMax    uint16
	Type           uint8
	OwnAddrType    uint8
	DirectAddrType uint8
	DirectAddr     Addr6
	ChannelMap     uint8
	FilterPolicy   uint8
}

// SetAdvertisingParameters issues LE Set Advertising Parameters.
func (h *Host) SetAdvertisingParameters(ctx context.Context, p AdvParams) error {
	pk := wire.NewPacker(15)
	pk.U16(p.IntervalMin)
	pk.U16(p.IntervalMax)
	pk.U8(p.Type)
	pk.U8(p.OwnAddrType)
	pk.U8(p.DirectAddrType)
	pk.Raw(p.DirectAddr[:])
	pk.U8(p.ChannelMap)
	pk.U8(p.FilterPolicy)
	_, err := h.Exec(ctx, OpLESetAdvertisingParameters, pk.Bytes())
	return err
}

// SetAdvertisingData issues LE Set Advertising Data with an AD
// structure payload of up to 31 bytes.
func (h *Host) SetAdvertisingData(ctx context.Context, data []byte) error {
	return h.setAdvData(ctx, OpLESetAdvertisingData, data)
}

// SetScanResponseData issues LE Set Scan Response Data.
func (h *Host) SetScanResponseData(ctx context.Context, data []byte) error {
	return h.setAdvData(ctx, OpLESetScanResponseData, data)
}

func (h *Host) setAdvData(ctx context.Context, op Opcode, data []byte) error {
	var buf [31]byte
	n := copy(buf[:], data)
	pk := wire.NewPacker(32)
	pk.U8(uint8(n))
	pk.Raw(buf[:])
	_, err := h.Exec(ctx, op, pk.Bytes())
	return err
}

// SetAdvertiseEnable issues LE Set Advertising Enable.
func (h *Host) SetAdvertiseEnable(ctx context.Context, enable bool) error {
	pk := wire.NewPacker(1)
	pk.Bool(enable)
	_, err := h.Exec(ctx, OpLESetAdvertiseEnable, pk.Bytes())
	return err
}

// ExtAdvParams is the LE Set Extended Advertising Parameters command
// body ([Vol 4] Part E, Section 7.8.53), used by extended advertising
// sets.
type ExtAdvParams struct {
	Handle           uint8
	Properties       uint16
	IntervalMin      uint32 // 3-octet field, upper byte ignored
	IntervalMax      uint32
	ChannelMap       uint8
	OwnAddrType      uint8
	PeerAddrType     uint8
	PeerAddr         Addr6
	FilterPolicy     uint8
	TxPower          int8
	PrimaryPHY       uint8
	SecondaryMaxSkip uint8
	SecondaryPHY     uint8
	SID              uint8
	ScanReqNotify    bool
}

// SetExtendedAdvertisingParameters issues LE Set Extended Advertising
// Parameters for one advertising set.
func (h *Host) SetExtendedAdvertisingParameters(ctx context.Context, p ExtAdvParams) error {
	pk := wire.NewPacker(25)
	pk.U8(p.Handle)
	pk.U16(p.Properties)
	pk.U24(p.IntervalMin)
	pk.U24(p.IntervalMax)
	pk.U8(p.ChannelMap)
	pk.U8(p.OwnAddrType)
	pk.U8(p.PeerAddrType)
	pk.Raw(p.PeerAddr[:])
	pk.U8(p.FilterPolicy)
	pk.I8(p.TxPower)
	pk.U8(p.PrimaryPHY)
	pk.U8(p.SecondaryMaxSkip)
	pk.U8(p.SecondaryPHY)
	pk.U8(p.SID)
	pk.Bool(p.ScanReqNotify)
	_, err := h.Exec(ctx, OpLESetExtendedAdvParameters, pk.Bytes())
	return err
}

// SetExtendedAdvertisingEnable enables or disables one advertising set
// by handle, with optional duration (0 = until stopped) and max extended
// advertising events (0 = unlimited).
func (h *Host) SetExtendedAdvertisingEnable(ctx context.Context, enable bool, handle uint8, durationTicks uint16, maxEvents uint8) error {
	pk := wire.NewPacker(6)
	pk.Bool(enable)
	pk.U8(1) // number of advertising sets in this command
	pk.U8(handle)
	pk.U16(durationTicks)
	pk.U8(maxEvents)
	_, err := h.Exec(ctx, OpLESetExtendedAdvEnable, pk.Bytes())
	return err
}
