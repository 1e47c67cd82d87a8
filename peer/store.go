// Package peer defines the persistence boundary for bonded LE peers:
// an opaque key/value trait keyed by device address, with an
// in-memory reference implementation for tests and the demo binary.
// Production-grade persistent storage is out of scope; callers that
// need it implement Store themselves (e.g. over a file or a database)
// and the rest of the stack never knows the difference.
package peer

import "github.com/nimblebt/burble/hci"

// Addr identifies a bonded peer by its public or random device
// address, mirroring hci.Addr6/hci.AddrKind so callers never need to
// re-derive an address representation just to look up a bond record.
type Addr struct {
	Kind hci.AddrKind
	Addr hci.Addr6
}

// Store is the persistence trait a bonded-peer record is saved
// through. Implementations are responsible for their own
// synchronization; the host stack calls Save/Load/Remove from
// whatever goroutine is handling the connection in question, never
// while holding one of its own locks.
type Store interface {
	// Save persists value under addr, overwriting any existing record.
	// Reports whether a prior record was replaced.
	Save(addr Addr, value []byte) bool

	// Load returns the record saved for addr, if any.
	Load(addr Addr) (value []byte, ok bool)

	// Remove deletes any record saved for addr. A no-op if none exists.
	Remove(addr Addr)
}
