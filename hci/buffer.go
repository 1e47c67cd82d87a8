package hci

import (
	"context"

	"github.com/nimblebt/burble/wire"
)

// LEBufferInfo is the superset of the LE Read Buffer Size v1 and v2
// return parameters ([Vol 4] Part E, Sections 7.8.2 and 7.8.117). On a
// controller that only implements v1, ISODataLen and ISONumPkts are
// zero.
type LEBufferInfo struct {
	ACLDataLen uint16
	ACLNumPkts uint8
	ISODataLen uint16
	ISONumPkts uint8
}

// ReadLEBufferSize tries the v2 command first (it superset-reports ISO
// buffers alongside ACL); if the v2 command fails for any reason or its
// response is too short, it falls back to v1 and leaves the ISO fields
// zero.
func (h *Host) ReadLEBufferSize(ctx context.Context) (LEBufferInfo, error) {
	rp, err := h.Exec(ctx, OpLEReadBufferSizeV2, nil)
	if err == nil {
		u := wire.NewUnpacker(rp)
		_ = u.U8() // status
		info := LEBufferInfo{
			ACLDataLen: u.U16(),
			ACLNumPkts: u.U8(),
			ISODataLen: u.U16(),
			ISONumPkts: u.U8(),
		}
		if u.Valid {
			return info, nil
		}
	}

	rp, err = h.Exec(ctx, OpLEReadBufferSize, nil)
	if err != nil {
		return LEBufferInfo{}, err
	}
	u := wire.NewUnpacker(rp)
	_ = u.U8() // status
	return LEBufferInfo{
		ACLDataLen: u.U16(),
		ACLNumPkts: u.U8(),
	}, nil
}
