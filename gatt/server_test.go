package gatt

import (
	"bytes"
	"testing"

	"github.com/nimblebt/burble/att"
	"github.com/nimblebt/burble/gap"
)

func buildServer(t *testing.T) (*Server, map[string]Handle) {
	t.Helper()
	s, hh := buildSample(t)
	srv := NewServer(s)
	srv.SetValue(hh["deviceName"], []byte("burble"))
	return srv, hh
}

func TestServerReadReturnsStaticValue(t *testing.T) {
	srv, hh := buildServer(t)
	v, ec := srv.Read(uint16(hh["deviceName"]), 0, att.SecurityNone)
	if ec != 0 {
		t.Fatalf("Read = %#x", ec)
	}
	if !bytes.Equal(v, []byte("burble")) {
		t.Errorf("Read = %q, want %q", v, "burble")
	}
}

func TestServerReadOffsetBeyondValue(t *testing.T) {
	srv, hh := buildServer(t)
	if _, ec := srv.Read(uint16(hh["deviceName"]), 100, att.SecurityNone); ec != att.ErrInvalidOffset {
		t.Errorf("Read(offset past end) = %#x, want ErrInvalidOffset", ec)
	}
}

func TestServerReadAllowedAtSufficientPermission(t *testing.T) {
	srv, hh := buildServer(t)
	if _, ec := srv.Read(uint16(hh["charVal"]), 0, att.SecurityNone); ec != 0 {
		t.Errorf("Read at sufficient permission should succeed, got %#x", ec)
	}
}

func TestServerWriteInvokesHandler(t *testing.T) {
	srv, hh := buildServer(t)
	var got []byte
	srv.HandleWrite(hh["charVal"], WriteHandlerFunc(func(req Request, value []byte) att.ErrorCode {
		got = append([]byte(nil), value...)
		return 0
	}))
	ec := srv.Write(uint16(hh["charVal"]), []byte{0x01, 0x02}, att.SecurityUnauthenticatedEncryption, false)
	if ec != 0 {
		t.Fatalf("Write = %#x", ec)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02}) {
		t.Errorf("handler received %v, want [1 2]", got)
	}
}

func TestServerWriteStoresValueWithoutHandler(t *testing.T) {
	srv, hh := buildServer(t)
	if ec := srv.Write(uint16(hh["charVal"]), []byte{0x42}, att.SecurityUnauthenticatedEncryption, false); ec != 0 {
		t.Fatalf("Write = %#x", ec)
	}
	v, ec := srv.Read(uint16(hh["charVal"]), 0, att.SecurityUnauthenticatedEncryption)
	if ec != 0 || !bytes.Equal(v, []byte{0x42}) {
		t.Errorf("Read after Write = %v, %#x, want [0x42], 0", v, ec)
	}
}

func TestServerWriteCommandDeniedPermissionReturnsNoHandlerCall(t *testing.T) {
	srv, hh := buildServer(t)
	called := false
	srv.HandleWrite(hh["deviceName"], WriteHandlerFunc(func(req Request, value []byte) att.ErrorCode {
		called = true
		return 0
	}))
	ec := srv.Write(uint16(hh["deviceName"]), []byte{0x01}, att.SecurityNone, true)
	if ec != att.ErrWriteNotPermitted {
		t.Errorf("Write to read-only handle = %#x, want ErrWriteNotPermitted", ec)
	}
	if called {
		t.Error("write handler must not be invoked when the permission check fails")
	}
}

func TestServerFindInformation(t *testing.T) {
	srv, hh := buildServer(t)
	entries := srv.FindInformation(uint16(hh["custom"]), uint16(hh["cccd"]))
	if len(entries) == 0 {
		t.Fatal("FindInformation returned no entries")
	}
	if Handle(entries[0].Handle) != hh["custom"] {
		t.Errorf("first entry handle = %d, want %d", entries[0].Handle, hh["custom"])
	}
}

func TestServerReadByGroupTypeRejectsNonServiceGroupType(t *testing.T) {
	srv, _ := buildServer(t)
	_, ec, _ := srv.ReadByGroupType(uint16(MinHandle), uint16(MaxHandle), gap.Uuid16(0x2902), att.SecurityNone)
	if ec != att.ErrUnsupportedGrpTyp {
		t.Errorf("ReadByGroupType(non-service type) = %#x, want ErrUnsupportedGrpTyp", ec)
	}
}

func TestServerReadByGroupTypeReturnsServiceRanges(t *testing.T) {
	srv, hh := buildServer(t)
	entries, ec, _ := srv.ReadByGroupType(uint16(MinHandle), uint16(MaxHandle), gap.Uuid16(0x2800), att.SecurityNone)
	if ec != 0 {
		t.Fatalf("ReadByGroupType = %#x", ec)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if Handle(entries[1].Range.End) != hh["cccd"] {
		t.Errorf("second group end = %d, want %d", entries[1].Range.End, hh["cccd"])
	}
}
