package att

import "encoding/binary"

// mtuWriter accumulates an ATT response PDU, enforcing the negotiated
// MTU one "chunk" (one list entry) at a time: Chunk marks a rollback
// point, writes accumulate provisionally, and Commit either keeps them
// (if the buffer is still within mtu) or rolls back to the mark and
// reports false, letting the caller stop adding entries to a Find
// Information/Read By Type/Read By Group response list.
type mtuWriter struct {
	mtu     uint16
	b       []byte
	mark    int
	chunked bool
}

func newMTUWriter(mtu uint16) *mtuWriter {
	return &mtuWriter{mtu: mtu, mark: -1}
}

// Chunk begins a new rollback-able chunk. Panics on a double-chunk
// (every chunk must be closed with Commit before the next begins).
func (w *mtuWriter) Chunk() {
	if w.chunked {
		panic("att: Chunk called while a chunk is already open")
	}
	w.mark = len(w.b)
	w.chunked = true
}

// Commit closes the open chunk, keeping it if the buffer is still
// within mtu and reporting true, or rolling back to the chunk's start
// and reporting false otherwise. Panics if no chunk is open.
func (w *mtuWriter) Commit() bool {
	if !w.chunked {
		panic("att: Commit called with no chunk open")
	}
	w.chunked = false
	if len(w.b) > int(w.mtu) {
		w.b = w.b[:w.mark]
		return false
	}
	return true
}

// WriteByte appends one byte unconditionally (used for the fixed PDU
// header, outside of any chunk).
func (w *mtuWriter) WriteByte(v byte) { w.b = append(w.b, v) }

func (w *mtuWriter) WriteUint16(v uint16) {
	w.b = binary.LittleEndian.AppendUint16(w.b, v)
}

func (w *mtuWriter) WriteUUID(u uuidAppender) { w.b = u.AppendLE(w.b) }

func (w *mtuWriter) Write(p []byte) { w.b = append(w.b, p...) }

// Writeable returns the number of bytes of p that fit in the remaining
// MTU budget after head additional header bytes.
func (w *mtuWriter) Writeable(head int, p []byte) int {
	room := int(w.mtu) - len(w.b) - head
	if room < 0 {
		return 0
	}
	if room > len(p) {
		return len(p)
	}
	return room
}

func (w *mtuWriter) Bytes() []byte { return w.b }

// uuidAppender is the subset of gap.Uuid's API this package depends on,
// kept as a local interface so this file does not need to import gap
// just to call AppendLE in its signature.
type uuidAppender interface {
	AppendLE(dst []byte) []byte
}
