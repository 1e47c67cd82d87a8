package l2cap

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/nimblebt/burble/att"
)

// fakeTransport is a minimal in-memory transport.Transport: SendACL
// appends to a log the test can inspect, and the test pushes inbound
// packets directly via push.
type fakeTransport struct {
	mu   sync.Mutex
	sent [][]byte

	acl    chan []byte
	closed chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{acl: make(chan []byte, 16), closed: make(chan struct{})}
}

func (f *fakeTransport) SubmitCommand(ctx context.Context, cmd []byte) error { return nil }
func (f *fakeTransport) RecvEvent(ctx context.Context) ([]byte, error) {
	<-f.closed
	return nil, errClosed
}

func (f *fakeTransport) SendACL(ctx context.Context, pkt []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, append([]byte(nil), pkt...))
	return nil
}

func (f *fakeTransport) RecvACL(ctx context.Context) ([]byte, error) {
	select {
	case pkt := <-f.acl:
		return pkt, nil
	case <-f.closed:
		return nil, errClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeTransport) Reset(ctx context.Context) error { return nil }
func (f *fakeTransport) Close() error {
	close(f.closed)
	return nil
}

func (f *fakeTransport) push(pkt []byte) { f.acl <- pkt }

func (f *fakeTransport) lastSent() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

type errClosedErr struct{}

func (errClosedErr) Error() string { return "l2cap: fake transport closed" }

var errClosed = errClosedErr{}

// recordingDeliverer records every Deliver call it receives.
type recordingDeliverer struct {
	mu    sync.Mutex
	calls []struct {
		connHandle att.ConnHandle
		pdu        []byte
	}
}

func (d *recordingDeliverer) Deliver(ctx context.Context, connHandle att.ConnHandle, pdu []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, struct {
		connHandle att.ConnHandle
		pdu        []byte
	}{connHandle, append([]byte(nil), pdu...)})
	return nil
}

func (d *recordingDeliverer) last() (att.ConnHandle, []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.calls) == 0 {
		return 0, nil
	}
	c := d.calls[len(d.calls)-1]
	return c.connHandle, c.pdu
}

func (d *recordingDeliverer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	pdu := []byte{0x01, 0x02, 0x03, 0x04}
	pkt := encode(att.ConnHandle(0x0041), CIDATT, pdu)

	connHandle, sdu, cid, err := decode(pkt)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if connHandle != 0x0041 {
		t.Errorf("connHandle = %#x, want 0x0041", connHandle)
	}
	if cid != CIDATT {
		t.Errorf("cid = %#x, want %#x", cid, CIDATT)
	}
	if !reflect.DeepEqual(sdu, pdu) {
		t.Errorf("sdu = %v, want %v", sdu, pdu)
	}
}

func TestEncodeSetsPBFlagAndMasksHandle(t *testing.T) {
	// A connection handle exercising bits above the 12-bit field must be
	// masked off, and the PB flag (bits 12-13) must read "first
	// flushable fragment" on every outbound packet.
	pkt := encode(att.ConnHandle(0xFFFF), CIDATT, []byte{0xAA})
	handleAndFlags := uint16(pkt[0]) | uint16(pkt[1])<<8
	if handleAndFlags&connHandleMask != 0x0FFF {
		t.Errorf("handle field = %#x, want 0x0FFF", handleAndFlags&connHandleMask)
	}
	if (handleAndFlags>>12)&0x3 != pbFirstFlushable {
		t.Errorf("PB flag = %#x, want %#x", (handleAndFlags>>12)&0x3, pbFirstFlushable)
	}
}

func TestDecodeRejectsTruncatedACLPacket(t *testing.T) {
	if _, _, _, err := decode([]byte{0x01, 0x00, 0xFF, 0x00}); err == nil {
		t.Error("decode: want error for a header claiming more data than is present")
	}
}

func TestDecodeRejectsTruncatedL2CAPFrame(t *testing.T) {
	// ACL header claims 4 bytes of L2CAP data, but the inner length
	// field claims a body longer than that.
	pkt := []byte{0x01, 0x00, 0x04, 0x00, 0xFF, 0x00, 0x04, 0x00}
	if _, _, _, err := decode(pkt); err == nil {
		t.Error("decode: want error for an L2CAP length exceeding the ACL payload")
	}
}

func TestBridgeRoutesByChannel(t *testing.T) {
	tr := newFakeTransport()
	attD := &recordingDeliverer{}
	smpD := &recordingDeliverer{}
	b := New(tr, nil)
	b.Wire(attD, smpD)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	tr.push(encode(0x0001, CIDATT, []byte{0x02, 0x03, 0x00})) // Read Request
	tr.push(encode(0x0001, CIDSMP, []byte{0x01}))              // Pairing Request opcode only

	waitForCount(t, attD, 1)
	waitForCount(t, smpD, 1)

	if conn, pdu := attD.last(); conn != 0x0001 || !reflect.DeepEqual(pdu, []byte{0x02, 0x03, 0x00}) {
		t.Errorf("att deliver = (%#x, %v), want (0x0001, [2 3 0])", conn, pdu)
	}
	if conn, pdu := smpD.last(); conn != 0x0001 || !reflect.DeepEqual(pdu, []byte{0x01}) {
		t.Errorf("smp deliver = (%#x, %v), want (0x0001, [1])", conn, pdu)
	}

	cancel()
	<-done
}

func TestBridgeDropsUnknownChannel(t *testing.T) {
	tr := newFakeTransport()
	attD := &recordingDeliverer{}
	smpD := &recordingDeliverer{}
	b := New(tr, nil)
	b.Wire(attD, smpD)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	tr.push(encode(0x0001, 0x0001, []byte{0x01})) // L2CAP signaling channel, unhandled

	// Follow with a known-channel PDU and wait for it, so the unknown
	// one above has had a chance to be (silently) processed first.
	tr.push(encode(0x0001, CIDATT, []byte{0x01}))
	waitForCount(t, attD, 1)

	if smpD.count() != 0 {
		t.Errorf("smp deliver count = %d, want 0", smpD.count())
	}
}

func TestFixedChannelSenderFramesOntoItsCID(t *testing.T) {
	tr := newFakeTransport()
	b := New(tr, nil)
	b.Wire(&recordingDeliverer{}, &recordingDeliverer{})

	if err := b.ATTSender().Send(context.Background(), 0x0002, []byte{0x10}); err != nil {
		t.Fatalf("ATTSender().Send: %v", err)
	}
	_, _, cid, err := decode(tr.lastSent())
	if err != nil {
		t.Fatalf("decode sent packet: %v", err)
	}
	if cid != CIDATT {
		t.Errorf("att sender framed cid = %#x, want %#x", cid, CIDATT)
	}

	if err := b.SMPSender().Send(context.Background(), 0x0002, []byte{0x20}); err != nil {
		t.Fatalf("SMPSender().Send: %v", err)
	}
	_, _, cid, err = decode(tr.lastSent())
	if err != nil {
		t.Fatalf("decode sent packet: %v", err)
	}
	if cid != CIDSMP {
		t.Errorf("smp sender framed cid = %#x, want %#x", cid, CIDSMP)
	}
}

func waitForCount(t *testing.T, d *recordingDeliverer, n int) {
	t.Helper()
	for i := 0; i < 100; i++ {
		if d.count() >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("deliverer never reached %d calls (got %d)", n, d.count())
}
