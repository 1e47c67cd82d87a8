package hci

import "testing"

func TestMakeOpcode(t *testing.T) {
	op := MakeOpcode(OGFLECtl, 0x0006)
	if op != OpLESetAdvertisingParameters {
		t.Errorf("MakeOpcode = %#x, want %#x", op, OpLESetAdvertisingParameters)
	}
	if op.OGF() != OGFLECtl {
		t.Errorf("OGF() = %#x, want %#x", op.OGF(), OGFLECtl)
	}
	if op.OCF() != 0x0006 {
		t.Errorf("OCF() = %#x, want 0x0006", op.OCF())
	}
}

func TestDecodeEventLEMeta(t *testing.T) {
	pkt := []byte{byte(EvtLEMeta), 3, byte(SubEvtAdvertisingSetTerminated), 0xAA, 0xBB}
	ev, ok := DecodeEvent(pkt)
	if !ok {
		t.Fatal("DecodeEvent returned false")
	}
	if ev.Code != EvtLEMeta || ev.SubEvent != SubEvtAdvertisingSetTerminated {
		t.Errorf("ev = %+v", ev)
	}
	if len(ev.Params) != 2 {
		t.Errorf("len(Params) = %d, want 2", len(ev.Params))
	}
}

func TestDecodeEventRejectsLengthMismatch(t *testing.T) {
	pkt := []byte{byte(EvtHardwareError), 5, 0x01}
	if _, ok := DecodeEvent(pkt); ok {
		t.Error("DecodeEvent should reject a packet whose declared length disagrees with its size")
	}
}

func TestDecodeCommandComplete(t *testing.T) {
	pkt := commandCompleteEvent(1, OpReset, StatusSuccess)
	ev, ok := DecodeEvent(pkt)
	if !ok {
		t.Fatal("DecodeEvent failed")
	}
	cc, ok := DecodeCommandComplete(ev.Params)
	if !ok {
		t.Fatal("DecodeCommandComplete failed")
	}
	if cc.Opcode != OpReset || cc.NumHCICommandPackets != 1 {
		t.Errorf("cc = %+v", cc)
	}
}

func TestAddr6ToToolbox(t *testing.T) {
	var le Addr6
	for i := range le {
		le[i] = byte(i + 1)
	}
	tb := le.ToToolbox(AddrRandom)
	if tb[0] != 1 {
		t.Errorf("address-type byte = %d, want 1", tb[0])
	}
	for i := 0; i < 6; i++ {
		if tb[1+i] != le[5-i] {
			t.Errorf("byte %d mismatch: toolbox=%x le-reversed=%x", i, tb[1+i], le[5-i])
		}
	}
}

func TestEventMaskDefaultIncludesLEMeta(t *testing.T) {
	m := DefaultEventMask()
	if m.Page1&EvtMaskLEMeta == 0 {
		t.Error("DefaultEventMask must enable the LE Meta event")
	}
	if m.LE&LEEvtMaskConnectionComplete == 0 {
		t.Error("DefaultEventMask must enable LE ConnectionComplete")
	}
}
