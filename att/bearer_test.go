package att

import (
	"context"
	"testing"

	"github.com/nimblebt/burble/gap"
)

type fakeServer struct {
	info   []InfoEntry
	ranges []HandleRange
	types  []TypeEntry
	groups []GroupEntry
	value  []byte
	readEC ErrorCode
}

func (f *fakeServer) FindInformation(start, end uint16) []InfoEntry { return f.info }
func (f *fakeServer) FindByType(start, end uint16, t gap.Uuid, v []byte) []HandleRange {
	return f.ranges
}
func (f *fakeServer) ReadByType(start, end uint16, t gap.Uuid, sec SecurityLevel) ([]TypeEntry, ErrorCode, uint16) {
	return f.types, 0, 0
}
func (f *fakeServer) ReadByGroupType(start, end uint16, t gap.Uuid, sec SecurityLevel) ([]GroupEntry, ErrorCode, uint16) {
	return f.groups, 0, 0
}
func (f *fakeServer) Read(handle uint16, offset uint16, sec SecurityLevel) ([]byte, ErrorCode) {
	return f.value, f.readEC
}
func (f *fakeServer) Write(handle uint16, value []byte, sec SecurityLevel, noResponse bool) ErrorCode {
	return 0
}

type fakeSender struct{ sent [][]byte }

func (f *fakeSender) Send(ctx context.Context, connHandle ConnHandle, pdu []byte) error {
	f.sent = append(f.sent, pdu)
	return nil
}

func TestHandleMTUClampsToMinimum(t *testing.T) {
	srv := &fakeServer{}
	b := newBearer(1, srv, &fakeSender{}, nil)
	resp := b.HandleRequest([]byte{byte(OpMTUReq), 0x05, 0x00})
	if resp[0] != byte(OpMTUResp) {
		t.Fatalf("resp opcode = %#x, want OpMTUResp", resp[0])
	}
	if got := b.mtuValue(); got != defaultMTU {
		t.Errorf("mtu = %d, want clamped to %d", got, defaultMTU)
	}
}

func TestHandleReadReturnsErrorResponse(t *testing.T) {
	srv := &fakeServer{readEC: ErrReadNotPermitted}
	b := newBearer(1, srv, &fakeSender{}, nil)
	resp := b.HandleRequest([]byte{byte(OpReadReq), 0x01, 0x00})
	if resp[0] != byte(OpError) {
		t.Fatalf("resp opcode = %#x, want OpError", resp[0])
	}
	if ErrorCode(resp[4]) != ErrReadNotPermitted {
		t.Errorf("error code = %#x, want ErrReadNotPermitted", resp[4])
	}
}

func TestHandleReadByGroupType(t *testing.T) {
	srv := &fakeServer{groups: []GroupEntry{
		{Range: HandleRange{Start: 1, End: 5}, Value: []byte{0x00, 0x18}},
	}}
	b := newBearer(1, srv, &fakeSender{}, nil)
	body := append([]byte{0x01, 0x00, 0xFF, 0xFF}, gap.Uuid16(0x2800).AppendLE(nil)...)
	resp := b.HandleRequest(append([]byte{byte(OpReadByGroupReq)}, body...))
	if resp[0] != byte(OpReadByGroupResp) {
		t.Fatalf("resp opcode = %#x, want OpReadByGroupResp", resp[0])
	}
}

func TestHandleWriteCommandReturnsNoResponse(t *testing.T) {
	srv := &fakeServer{}
	b := newBearer(1, srv, &fakeSender{}, nil)
	resp := b.HandleRequest(append([]byte{byte(OpWriteCmd), 0x01, 0x00}, []byte{0xAA}...))
	if resp != nil {
		t.Errorf("Write Command must not produce a response, got %x", resp)
	}
}

func TestNotifyTruncatesToMTU(t *testing.T) {
	srv := &fakeServer{}
	sender := &fakeSender{}
	b := newBearer(1, srv, sender, nil)
	b.mtu = 10
	big := make([]byte, 40)
	if err := b.Notify(context.Background(), 5, big); err != nil {
		t.Fatal(err)
	}
	if len(sender.sent[0]) > 10 {
		t.Errorf("notification length %d exceeds mtu 10", len(sender.sent[0]))
	}
}

func TestRegistryOpenCloseDeliver(t *testing.T) {
	srv := &fakeServer{value: []byte("hi")}
	sender := &fakeSender{}
	reg := NewRegistry(srv, sender, nil)
	reg.Open(1)
	if err := reg.Deliver(context.Background(), 1, []byte{byte(OpReadReq), 0x01, 0x00}); err != nil {
		t.Fatal(err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d PDUs, want 1", len(sender.sent))
	}
	reg.Close(1)
	if reg.Bearer(1) != nil {
		t.Error("bearer should be gone after Close")
	}
}
