package gatt

import (
	"bytes"
	"sync"

	"github.com/nimblebt/burble/att"
	"github.com/nimblebt/burble/gap"
)

// ReadHandler serves a characteristic or descriptor read, in place of
// a static value installed with SetValue.
type ReadHandler interface {
	ServeRead(req Request, offset uint16) ([]byte, att.ErrorCode)
}

// ReadHandlerFunc adapts a function to a ReadHandler.
type ReadHandlerFunc func(req Request, offset uint16) ([]byte, att.ErrorCode)

func (f ReadHandlerFunc) ServeRead(req Request, offset uint16) ([]byte, att.ErrorCode) {
	return f(req, offset)
}

// WriteHandler serves a characteristic or descriptor write.
type WriteHandler interface {
	ServeWrite(req Request, value []byte) att.ErrorCode
}

// WriteHandlerFunc adapts a function to a WriteHandler.
type WriteHandlerFunc func(req Request, value []byte) att.ErrorCode

func (f WriteHandlerFunc) ServeWrite(req Request, value []byte) att.ErrorCode {
	return f(req, value)
}

// Server layers mutable characteristic/descriptor values and
// read/write handlers over an immutable Schema, implementing
// att.Server so it can be registered directly with an att.Registry.
type Server struct {
	schema *Schema

	mu     sync.RWMutex
	values map[Handle][]byte
	readH  map[Handle]ReadHandler
	writeH map[Handle]WriteHandler
}

// NewServer creates a Server backed by schema. Every value-bearing
// attribute reads as its schema-declared static value until SetValue
// or HandleRead overrides it.
func NewServer(schema *Schema) *Server {
	return &Server{
		schema: schema,
		values: make(map[Handle][]byte),
		readH:  make(map[Handle]ReadHandler),
		writeH: make(map[Handle]WriteHandler),
	}
}

// Schema returns the underlying immutable schema.
func (s *Server) Schema() *Schema { return s.schema }

// SetValue installs a static value for handle h, served without
// invoking a ReadHandler.
func (s *Server) SetValue(h Handle, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[h] = value
}

// HandleRead installs rh to serve reads of handle h.
func (s *Server) HandleRead(h Handle, rh ReadHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readH[h] = rh
}

// HandleWrite installs wh to serve writes of handle h.
func (s *Server) HandleWrite(h Handle, wh WriteHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeH[h] = wh
}

func (s *Server) readValue(a *attr) ([]byte, att.ErrorCode) {
	s.mu.RLock()
	rh := s.readH[a.handle]
	stored, hasStored := s.values[a.handle]
	s.mu.RUnlock()
	switch {
	case rh != nil:
		return rh.ServeRead(Request{Op: att.OpReadReq}, 0)
	case hasStored:
		return stored, 0
	default:
		return a.value, 0
	}
}

// FindInformation implements att.Server ([Vol 3] Part F, Section
// 3.4.3.1).
func (s *Server) FindInformation(start, end uint16) []att.InfoEntry {
	sub := s.schema.subset(HandleRange{Start: Handle(start), End: Handle(end)})
	out := make([]att.InfoEntry, 0, len(sub))
	for i := range sub {
		out = append(out, att.InfoEntry{Handle: uint16(sub[i].handle), Type: sub[i].typ})
	}
	return out
}

// FindByType implements att.Server ([Vol 3] Part F, Section 3.4.3.3).
func (s *Server) FindByType(start, end uint16, attrType gap.Uuid, value []byte) []att.HandleRange {
	sub := s.schema.subset(HandleRange{Start: Handle(start), End: Handle(end)})
	var out []att.HandleRange
	for i := range sub {
		if !sub[i].typ.Equal(attrType) {
			continue
		}
		v, ec := s.readValue(&sub[i])
		if ec != 0 || !bytes.Equal(v, value) {
			continue
		}
		endH := sub[i].handle
		if sub[i].isService() {
			if grp := s.schema.serviceGroup(sub[i].handle); len(grp) > 0 {
				endH = grp[len(grp)-1].handle
			}
		}
		out = append(out, att.HandleRange{Start: uint16(sub[i].handle), End: uint16(endH)})
	}
	return out
}

// ReadByType implements att.Server ([Vol 3] Part F, Section 3.4.4.1).
func (s *Server) ReadByType(start, end uint16, attrType gap.Uuid, sec att.SecurityLevel) ([]att.TypeEntry, att.ErrorCode, uint16) {
	req := Request{Op: att.OpReadByTypeReq, Sec: sec}
	hdls, ec := s.schema.TryRangeAccess(req, HandleRange{Start: Handle(start), End: Handle(end)}, attrType)
	if ec != 0 {
		return nil, ec, start
	}
	out := make([]att.TypeEntry, 0, len(hdls))
	for _, h := range hdls {
		i, _ := s.schema.get(h)
		v, rec := s.readValue(&s.schema.attrs[i])
		if rec != 0 {
			return nil, rec, uint16(h)
		}
		out = append(out, att.TypeEntry{Handle: uint16(h), Value: v})
	}
	return out, 0, 0
}

// ReadByGroupType implements att.Server ([Vol 3] Part F, Section
// 3.4.4.9). Only the two service group types are valid group-type
// UUIDs ([Vol 3] Part G, Section 4.4.1).
func (s *Server) ReadByGroupType(start, end uint16, groupType gap.Uuid, sec att.SecurityLevel) ([]att.GroupEntry, att.ErrorCode, uint16) {
	if !groupType.Equal(declPrimaryService) && !groupType.Equal(declSecondaryService) {
		return nil, att.ErrUnsupportedGrpTyp, start
	}
	req := Request{Op: att.OpReadByGroupReq, Sec: sec}
	hdls, ec := s.schema.TryRangeAccess(req, HandleRange{Start: Handle(start), End: Handle(end)}, groupType)
	if ec != 0 {
		return nil, ec, start
	}
	out := make([]att.GroupEntry, 0, len(hdls))
	for _, h := range hdls {
		i, _ := s.schema.get(h)
		end := h
		if grp := s.schema.serviceGroup(h); len(grp) > 0 {
			end = grp[len(grp)-1].handle
		}
		out = append(out, att.GroupEntry{
			Range: att.HandleRange{Start: uint16(h), End: uint16(end)},
			Value: s.schema.attrs[i].value,
		})
	}
	return out, 0, 0
}

// Read implements att.Server ([Vol 3] Part F, Sections 3.4.4.3 and
// 3.4.4.5).
func (s *Server) Read(handle uint16, offset uint16, sec att.SecurityLevel) ([]byte, att.ErrorCode) {
	h := Handle(handle)
	i, ok := s.schema.get(h)
	if !ok {
		return nil, att.ErrInvalidHandle
	}
	if ec := s.schema.accessCheck(Request{Op: att.OpReadReq, Sec: sec}, i); ec != 0 {
		return nil, ec
	}
	v, ec := s.readValue(&s.schema.attrs[i])
	if ec != 0 {
		return nil, ec
	}
	if int(offset) > len(v) {
		return nil, att.ErrInvalidOffset
	}
	return v[offset:], 0
}

// Write implements att.Server ([Vol 3] Part F, Sections 3.4.5.1 and
// 3.4.5.3).
func (s *Server) Write(handle uint16, value []byte, sec att.SecurityLevel, noResponse bool) att.ErrorCode {
	h := Handle(handle)
	i, ok := s.schema.get(h)
	if !ok {
		return att.ErrInvalidHandle
	}
	op := att.OpWriteReq
	if noResponse {
		op = att.OpWriteCmd
	}
	if ec := s.schema.accessCheck(Request{Op: op, Sec: sec}, i); ec != 0 {
		return ec
	}
	s.mu.RLock()
	wh := s.writeH[h]
	s.mu.RUnlock()
	if wh != nil {
		return wh.ServeWrite(Request{Op: op, Sec: sec}, value)
	}
	s.mu.Lock()
	s.values[h] = append([]byte(nil), value...)
	s.mu.Unlock()
	return 0
}
