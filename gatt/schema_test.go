package gatt

import (
	"testing"

	"github.com/nimblebt/burble/att"
	"github.com/nimblebt/burble/gap"
)

func TestPrimaryServicesEnumeratesBoth(t *testing.T) {
	s, hh := buildSample(t)
	svcs := s.PrimaryServices(MinHandle, gap.Uuid{}, false)
	if len(svcs) != 2 {
		t.Fatalf("len(PrimaryServices) = %d, want 2", len(svcs))
	}
	if svcs[0].Range.Start != hh["gap"] || svcs[1].Range.Start != hh["custom"] {
		t.Errorf("service start handles = %d, %d; want %d, %d",
			svcs[0].Range.Start, svcs[1].Range.Start, hh["gap"], hh["custom"])
	}
	if svcs[1].Range.End != hh["cccd"] {
		t.Errorf("second service end handle = %d, want %d (last allocated)", svcs[1].Range.End, hh["cccd"])
	}
}

func TestPrimaryServicesFiltersByUUID(t *testing.T) {
	s, _ := buildSample(t)
	svcs := s.PrimaryServices(MinHandle, gap.Uuid16(0x1234), true)
	if len(svcs) != 1 || !svcs[0].UUID.Equal(gap.Uuid16(0x1234)) {
		t.Fatalf("UUID-filtered PrimaryServices = %+v, want exactly the 0x1234 service", svcs)
	}
}

func TestCharacteristicsWithinService(t *testing.T) {
	s, hh := buildSample(t)
	chars := s.Characteristics(HandleRange{Start: hh["custom"], End: hh["cccd"]})
	if len(chars) != 1 {
		t.Fatalf("len(Characteristics) = %d, want 1", len(chars))
	}
	if chars[0].ValueHandle != hh["charVal"] {
		t.Errorf("ValueHandle = %d, want %d", chars[0].ValueHandle, hh["charVal"])
	}
	if chars[0].Properties != PropRead|PropWrite|PropNotify {
		t.Errorf("Properties = %#x, want Read|Write|Notify", chars[0].Properties)
	}
}

func TestDescriptorsContainedWithinCharacteristic(t *testing.T) {
	s, hh := buildSample(t)
	descs := s.Descriptors(HandleRange{Start: hh["charVal"] + 1, End: hh["cccd"]})
	if len(descs) != 1 || !descs[0].UUID.Equal(descClientCharacteristicConfig) {
		t.Fatalf("Descriptors = %+v, want exactly the CCCD", descs)
	}
}

func TestDescriptorsRejectsRangeCrossingCharacteristicBoundary(t *testing.T) {
	s, hh := buildSample(t)
	descs := s.Descriptors(HandleRange{Start: hh["charDecl"], End: hh["cccd"]})
	if descs != nil {
		t.Errorf("Descriptors across a characteristic boundary = %+v, want nil", descs)
	}
}

func TestTryAccessReadNotPermitted(t *testing.T) {
	b := NewBuilder()
	b.AddPrimaryService(ServiceGAP)
	_, v := b.AddCharacteristic(CharDeviceName, PropWrite, WriteOnly(att.SecurityNone))
	s, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	req := Request{Op: att.OpReadReq, Sec: att.SecurityNone}
	if ec := s.TryAccess(req, v); ec != att.ErrReadNotPermitted {
		t.Errorf("TryAccess(read) = %#x, want ErrReadNotPermitted", ec)
	}
}

func TestTryAccessWriteNotPermitted(t *testing.T) {
	s, hh := buildSample(t)
	req := Request{Op: att.OpWriteReq, Sec: att.SecurityNone}
	if ec := s.TryAccess(req, hh["deviceName"]); ec != att.ErrWriteNotPermitted {
		t.Errorf("TryAccess(write) = %#x, want ErrWriteNotPermitted", ec)
	}
}

func TestTryAccessInsufficientEncryption(t *testing.T) {
	s, hh := buildSample(t)
	req := Request{Op: att.OpWriteReq, Sec: att.SecurityNone}
	if ec := s.TryAccess(req, hh["charVal"]); ec == 0 {
		t.Error("write below the required security level should be denied")
	}
	req.Sec = att.SecurityUnauthenticatedEncryption
	if ec := s.TryAccess(req, hh["charVal"]); ec != 0 {
		t.Errorf("write at the required security level = %#x, want success", ec)
	}
}

func TestTryAccessInvalidHandle(t *testing.T) {
	s, _ := buildSample(t)
	if ec := s.TryAccess(Request{Op: att.OpReadReq}, MaxHandle); ec != att.ErrInvalidHandle {
		t.Errorf("TryAccess(unassigned handle) = %#x, want ErrInvalidHandle", ec)
	}
}

func TestTryRangeAccessReadByTypePermissionSlice(t *testing.T) {
	s, hh := buildSample(t)
	hdls, ec := s.TryRangeAccess(Request{Op: att.OpReadByTypeReq, Sec: att.SecurityNone},
		HandleRange{Start: MinHandle, End: hh["cccd"]}, gap.Uuid16(0x5678))
	if ec != 0 {
		t.Fatalf("TryRangeAccess = %#x, want success", ec)
	}
	if len(hdls) != 1 || hdls[0] != hh["charVal"] {
		t.Errorf("TryRangeAccess handles = %v, want [%d]", hdls, hh["charVal"])
	}
}

func TestTryRangeAccessNoMatchingType(t *testing.T) {
	s, _ := buildSample(t)
	_, ec := s.TryRangeAccess(Request{Op: att.OpReadByTypeReq}, HandleRange{Start: MinHandle, End: MaxHandle}, gap.Uuid16(0x9999))
	if ec != att.ErrAttrNotFound {
		t.Errorf("TryRangeAccess(no match) = %#x, want ErrAttrNotFound", ec)
	}
}

func TestHashIsDeterministic(t *testing.T) {
	s1, _ := buildSample(t)
	s2, _ := buildSample(t)
	if s1.Hash() != s2.Hash() {
		t.Error("Hash() must be deterministic for identical schemas")
	}
}

func TestHashChangesWithSchema(t *testing.T) {
	s1, _ := buildSample(t)
	b := NewBuilder()
	b.AddPrimaryService(ServiceGAP)
	s3, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s1.Hash() == s3.Hash() {
		t.Error("Hash() should differ between structurally different schemas")
	}
}
