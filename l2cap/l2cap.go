// Package l2cap implements the minimal L2CAP fixed-channel framing
// this host needs to carry ATT and SMP PDUs over HCI ACL data packets
// ([Vol 3] Part A, Section 2.1). Only the two fixed channels the rest
// of this module talks on are wired: ATT (CID 0x0004) and SMP (CID
// 0x0006). The signaling channel (CID 0x0001) that negotiates
// connection-oriented channels, and reassembly of an L2CAP SDU spread
// across more than one ACL fragment, are both out of scope: every PDU
// this stack sends or expects fits in a single automatically-flushable
// fragment at the default 23-byte ATT MTU.
package l2cap

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nimblebt/burble/att"
	"github.com/nimblebt/burble/smp"
	"github.com/nimblebt/burble/transport"
	"github.com/nimblebt/burble/wire"
)

// Fixed channel identifiers this bridge dispatches on ([Vol 3] Part A,
// Section 2.1, Table 2.1).
const (
	CIDATT = 0x0004
	CIDSMP = 0x0006
)

// pbFirstFlushable is the Packet_Boundary_Flag value for the first (and,
// since this package never fragments, only) fragment of an
// automatically flushable L2CAP PDU ([Vol 4] Part E, Section 5.4.2).
const pbFirstFlushable = 0x2

// connHandleMask isolates the 12-bit Connection_Handle field from the
// flags packed into the same 16-bit ACL header word.
const connHandleMask = 0x0FFF

// ATTDeliverer is the inbound half of the ATT fixed channel: whatever
// consumes decoded ATT PDUs for a connection. att.Registry satisfies it.
type ATTDeliverer interface {
	Deliver(ctx context.Context, connHandle att.ConnHandle, pdu []byte) error
}

// SMPDeliverer is the inbound half of the SMP fixed channel. smp.Manager
// satisfies it: smp.ConnHandle is att.ConnHandle, so the two deliverer
// interfaces share one handle type even though they're declared against
// different packages.
type SMPDeliverer interface {
	Deliver(ctx context.Context, connHandle att.ConnHandle, pdu []byte) error
}

// Bridge demultiplexes inbound ACL packets to the ATT and SMP fixed
// channels and frames outbound PDUs for transport.Transport.SendACL.
// It generalizes the teacher's single shim-backed *l2cap -- built for
// one macOS/Linux peripheral connection reading a single byte stream --
// to HCI ACL packets that carry interleaved ATT and SMP traffic for any
// number of connections, demultiplexed by channel ID rather than by
// owning one dedicated stream per channel.
type Bridge struct {
	t   transport.Transport
	att ATTDeliverer
	smp SMPDeliverer
	log *logrus.Entry
}

// New returns a Bridge over t with no deliverers wired yet. Callers
// typically need the Bridge's own ATTSender/SMPSender to construct
// their att.Registry and smp.Manager before those can be passed to
// Wire, so construction happens in two steps rather than one
// constructor threading all four collaborators through each other.
func New(t transport.Transport, log *logrus.Entry) *Bridge {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Bridge{t: t, log: log}
}

// Wire installs the deliverers Run dispatches inbound PDUs to. Must be
// called before Run; Run panics on a nil deliverer rather than silently
// dropping every packet on that channel.
func (b *Bridge) Wire(attDeliverer ATTDeliverer, smpDeliverer SMPDeliverer) {
	b.att = attDeliverer
	b.smp = smpDeliverer
}

// ATTSender returns the att.Sender this bridge provides: it frames
// outbound ATT PDUs onto CID 0x0004.
func (b *Bridge) ATTSender() att.Sender { return fixedChannelSender{b: b, cid: CIDATT} }

// SMPSender returns the smp.Sender this bridge provides, framing onto
// CID 0x0006.
func (b *Bridge) SMPSender() smp.Sender { return fixedChannelSender{b: b, cid: CIDSMP} }

// Run reads ACL packets from the transport until ctx is done or the
// transport returns a terminal error, dispatching each one to the ATT
// or SMP deliverer by L2CAP channel ID. Callers typically run this in
// its own goroutine alongside hci.Host's event loop.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		pkt, err := b.t.RecvACL(ctx)
		if err != nil {
			return err
		}
		if err := b.deliver(ctx, pkt); err != nil {
			b.log.WithError(err).Warn("l2cap: dropping malformed ACL packet")
		}
	}
}

func (b *Bridge) deliver(ctx context.Context, pkt []byte) error {
	connHandle, sdu, cid, err := decode(pkt)
	if err != nil {
		return err
	}
	switch cid {
	case CIDATT:
		return b.att.Deliver(ctx, connHandle, sdu)
	case CIDSMP:
		return b.smp.Deliver(ctx, connHandle, sdu)
	default:
		b.log.WithField("cid", cid).Debug("l2cap: no deliverer for channel, dropping")
		return nil
	}
}

// decode splits one ACL data packet into its connection handle, L2CAP
// channel ID, and the SDU carried on that channel.
func decode(pkt []byte) (connHandle att.ConnHandle, sdu []byte, cid uint16, err error) {
	u := wire.NewUnpacker(pkt)
	handleAndFlags := u.U16()
	dataLen := u.U16()
	payload := u.Raw(int(dataLen))
	if !u.Valid {
		return 0, nil, 0, errors.New("l2cap: truncated ACL packet")
	}

	f := wire.NewUnpacker(payload)
	l2capLen := f.U16()
	frameCID := f.U16()
	body := f.Raw(int(l2capLen))
	if !f.Valid {
		return 0, nil, 0, errors.New("l2cap: truncated L2CAP frame")
	}
	return att.ConnHandle(handleAndFlags & connHandleMask), body, frameCID, nil
}

// encode frames pdu as a complete ACL data packet carrying one L2CAP
// B-frame on cid for connHandle.
func encode(connHandle att.ConnHandle, cid uint16, pdu []byte) []byte {
	dataLen := uint16(4 + len(pdu)) // L2CAP basic header (length + CID) plus payload
	handleAndFlags := (uint16(connHandle) & connHandleMask) | (pbFirstFlushable << 12)

	p := wire.NewPacker(4 + int(dataLen))
	p.U16(handleAndFlags)
	p.U16(dataLen)
	p.U16(uint16(len(pdu)))
	p.U16(cid)
	p.Raw(pdu)
	return p.Bytes()
}

// fixedChannelSender implements att.Sender and smp.Sender identically:
// both interfaces ask for a Send(ctx, connHandle, pdu) that moves one
// framed PDU over a fixed channel, differing only in which CID it
// frames onto.
type fixedChannelSender struct {
	b   *Bridge
	cid uint16
}

func (s fixedChannelSender) Send(ctx context.Context, connHandle att.ConnHandle, pdu []byte) error {
	return s.b.t.SendACL(ctx, encode(connHandle, s.cid, pdu))
}
