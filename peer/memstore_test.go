package peer

import (
	"testing"

	"github.com/nimblebt/burble/hci"
)

func addrOf(b byte) Addr {
	return Addr{Kind: hci.AddrRandom, Addr: hci.Addr6{b, b, b, b, b, b}}
}

func TestMemStoreSaveLoad(t *testing.T) {
	s := NewMemStore()
	a := addrOf(1)

	if _, ok := s.Load(a); ok {
		t.Fatal("Load on an empty store should report not found")
	}
	if replaced := s.Save(a, []byte("ltk-bytes")); replaced {
		t.Error("first Save should not report a replaced record")
	}
	got, ok := s.Load(a)
	if !ok {
		t.Fatal("Load should find the saved record")
	}
	if string(got) != "ltk-bytes" {
		t.Errorf("Load = %q, want %q", got, "ltk-bytes")
	}
}

func TestMemStoreSaveReplaces(t *testing.T) {
	s := NewMemStore()
	a := addrOf(2)
	s.Save(a, []byte("first"))
	if replaced := s.Save(a, []byte("second")); !replaced {
		t.Error("Save over an existing record should report replaced = true")
	}
	got, _ := s.Load(a)
	if string(got) != "second" {
		t.Errorf("Load = %q, want %q", got, "second")
	}
}

func TestMemStoreRemove(t *testing.T) {
	s := NewMemStore()
	a := addrOf(3)
	s.Save(a, []byte("ltk-bytes"))
	s.Remove(a)
	if _, ok := s.Load(a); ok {
		t.Error("Load should not find a removed record")
	}
	// Remove on an absent record is a no-op, not an error.
	s.Remove(a)
}

func TestMemStoreLoadReturnsACopy(t *testing.T) {
	s := NewMemStore()
	a := addrOf(4)
	original := []byte("ltk-bytes")
	s.Save(a, original)
	original[0] = 'X'

	got, _ := s.Load(a)
	if got[0] == 'X' {
		t.Error("Save should not alias the caller's backing array")
	}
	got[0] = 'Y'
	got2, _ := s.Load(a)
	if got2[0] == 'Y' {
		t.Error("Load should not alias the store's backing array")
	}
}

func TestMemStoreDistinctAddrsDoNotCollide(t *testing.T) {
	s := NewMemStore()
	a, b := addrOf(5), addrOf(6)
	s.Save(a, []byte("a-record"))
	s.Save(b, []byte("b-record"))

	gotA, _ := s.Load(a)
	gotB, _ := s.Load(b)
	if string(gotA) != "a-record" || string(gotB) != "b-record" {
		t.Errorf("Load(a)=%q Load(b)=%q, want distinct records", gotA, gotB)
	}
}
