package gatt

import (
	"github.com/nimblebt/burble/att"
	"github.com/nimblebt/burble/gap"
)

// Schema is the immutable, handle-indexed attribute table built by a
// Builder: service/characteristic/descriptor structure, permissions,
// and the database hash. A *Server layers mutable characteristic
// values and handlers on top of one.
type Schema struct {
	attrs []attr
	hash  [16]byte
}

// Hash returns the database hash ([Vol 3] Part G, Section 7.3).
func (s *Schema) Hash() [16]byte { return s.hash }

// Request is the access-control context for a single ATT operation.
type Request struct {
	Op  att.Opcode
	Sec att.SecurityLevel
}

// ServiceEntry describes one primary or secondary service group.
type ServiceEntry struct {
	Range   HandleRange
	UUID    gap.Uuid
	Value   []byte
	Primary bool
}

// IncludeEntry describes one Include declaration.
type IncludeEntry struct {
	Handle Handle
	Range  HandleRange
	UUID   gap.Uuid
}

// CharacteristicEntry describes one characteristic group.
type CharacteristicEntry struct {
	Range       HandleRange
	UUID        gap.Uuid
	Properties  Prop
	ValueHandle Handle
}

// DescriptorEntry describes one characteristic descriptor.
type DescriptorEntry struct {
	Handle Handle
	UUID   gap.Uuid
	Value  []byte
}

// get returns the index of the attribute with handle h and true, or
// the index at which it would be inserted and false.
func (s *Schema) get(h Handle) (int, bool) {
	lo, hi := 0, len(s.attrs)
	for lo < hi {
		mid := (lo + hi) / 2
		if s.attrs[mid].handle < h {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(s.attrs) && s.attrs[lo].handle == h {
		return lo, true
	}
	return lo, false
}

// subsetRange returns the half-open [i,j) index range of attrs() whose
// handles fall within hdls.
func (s *Schema) subsetRange(hdls HandleRange) (int, int, bool) {
	i, _ := s.get(hdls.Start)
	if i >= len(s.attrs) {
		return 0, 0, false
	}
	j, found := s.get(hdls.End)
	if found {
		j++
	}
	if j > len(s.attrs) {
		j = len(s.attrs)
	}
	if i >= j {
		return 0, 0, false
	}
	return i, j, true
}

// subset returns all attributes within hdls, or nil if empty.
func (s *Schema) subset(hdls HandleRange) []attr {
	i, j, ok := s.subsetRange(hdls)
	if !ok {
		return nil
	}
	return s.attrs[i:j]
}

// serviceGroup returns every attribute belonging to the service
// declared at h, including its own declaration, or nil if h does not
// name a service.
func (s *Schema) serviceGroup(h Handle) []attr {
	i, ok := s.get(h)
	if !ok || !s.attrs[i].isService() {
		return nil
	}
	j := i + 1
	for j < len(s.attrs) && !s.attrs[j].isService() {
		j++
	}
	return s.attrs[i:j]
}

// serviceAttrs returns the attributes within hdls with the leading
// service declaration (if present) skipped, or nil if the range is
// empty or crosses a service boundary.
func (s *Schema) serviceAttrs(hdls HandleRange) []attr {
	sub := s.subset(hdls)
	if len(sub) == 0 {
		return nil
	}
	if sub[0].isService() {
		sub = sub[1:]
	}
	for i := range sub {
		if sub[i].isService() {
			return nil
		}
	}
	return sub
}

// groupEntries partitions attrs into runs, each starting at an
// attribute matched by isStart and extending up to (not including) the
// next attribute for which isNextGroup reports true.
func groupEntries(attrs []attr, isStart func(*attr) bool, isNextGroup func(gap.Uuid) bool) [][]attr {
	var groups [][]attr
	i := 0
	for i < len(attrs) {
		if !isStart(&attrs[i]) {
			i++
			continue
		}
		j := i + 1
		for j < len(attrs) && !isNextGroup(attrs[j].typ) {
			j++
		}
		groups = append(groups, attrs[i:j])
		i = j
	}
	return groups
}

// PrimaryServices returns every primary service at or after start,
// optionally restricted to those with UUID uuid ([Vol 3] Part G,
// Section 4.4).
func (s *Schema) PrimaryServices(start Handle, uuid gap.Uuid, matchUUID bool) []ServiceEntry {
	i, _ := s.get(start)
	if i >= len(s.attrs) {
		return nil
	}
	groups := groupEntries(s.attrs[i:], (*attr).isPrimaryService, isNextServiceGroup)
	var out []ServiceEntry
	for _, g := range groups {
		decl := &g[0]
		u := declServiceUUID(decl)
		if matchUUID && !u.Equal(uuid) {
			continue
		}
		out = append(out, ServiceEntry{
			Range:   HandleRange{Start: decl.handle, End: g[len(g)-1].handle},
			UUID:    u,
			Value:   decl.value,
			Primary: true,
		})
	}
	return out
}

// Includes returns the Include declarations at the start of the
// service spanning hdls ([Vol 3] Part G, Section 4.5.1).
func (s *Schema) Includes(hdls HandleRange) []IncludeEntry {
	attrs := s.serviceAttrs(hdls)
	var out []IncludeEntry
	for i := range attrs {
		at := &attrs[i]
		if !at.isInclude() {
			break
		}
		if len(at.value) < 4 {
			continue
		}
		svcStart := Handle(uint16(at.value[0]) | uint16(at.value[1])<<8)
		svcEnd := Handle(uint16(at.value[2]) | uint16(at.value[3])<<8)
		var u gap.Uuid
		if len(at.value) > 4 {
			u, _ = gap.Parse(at.value[4:])
		}
		out = append(out, IncludeEntry{Handle: at.handle, Range: HandleRange{Start: svcStart, End: svcEnd}, UUID: u})
	}
	return out
}

// Characteristics returns every characteristic declared within the
// service spanning hdls ([Vol 3] Part G, Section 4.6.1).
func (s *Schema) Characteristics(hdls HandleRange) []CharacteristicEntry {
	attrs := s.serviceAttrs(hdls)
	groups := groupEntries(attrs, (*attr).isChar, isNextCharGroup)
	var out []CharacteristicEntry
	for _, g := range groups {
		decl := &g[0]
		out = append(out, CharacteristicEntry{
			Range:       HandleRange{Start: decl.handle, End: g[len(g)-1].handle},
			UUID:        declCharUUID(decl),
			Properties:  declCharProps(decl),
			ValueHandle: declCharValueHandle(decl),
		})
	}
	return out
}

// Descriptors returns every descriptor of the characteristic whose
// value attribute precedes hdls, or nil if hdls does not name a
// contiguous descriptor run of exactly one characteristic ([Vol 3]
// Part G, Section 4.7.1).
func (s *Schema) Descriptors(hdls HandleRange) []DescriptorEntry {
	i, j, ok := s.subsetRange(hdls)
	if !ok {
		return nil
	}
	declIdx := -1
	for k := i - 1; k >= 0; k-- {
		if s.attrs[k].isChar() {
			declIdx = k
			break
		}
	}
	if declIdx < 0 {
		return nil
	}
	valHandle := declCharValueHandle(&s.attrs[declIdx])
	if valHandle >= s.attrs[i].handle {
		return nil // range must start after the characteristic value
	}
	for k := i; k < j; k++ {
		if isNextCharGroup(s.attrs[k].typ) {
			return nil // range crosses a characteristic boundary
		}
	}
	out := make([]DescriptorEntry, 0, j-i)
	for k := i; k < j; k++ {
		at := &s.attrs[k]
		out = append(out, DescriptorEntry{Handle: at.handle, UUID: at.typ, Value: at.value})
	}
	return out
}

// charInfo is the characteristic context of a value, descriptor, or
// declaration attribute, resolved by characteristicForAttr.
type charInfo struct {
	props     Prop
	extProps  ExtProp
	valHandle Handle
}

// characteristicForAttr resolves the enclosing characteristic of the
// attribute at index i, or nil if i is not part of one (e.g. a service
// or Include declaration).
func (s *Schema) characteristicForAttr(i int) *charInfo {
	declIdx := -1
	for k := i; k >= 0; k-- {
		if s.attrs[k].isChar() {
			declIdx = k
			break
		}
	}
	if declIdx < 0 {
		return nil
	}
	end := len(s.attrs)
	for k := declIdx + 1; k < len(s.attrs); k++ {
		if isNextCharGroup(s.attrs[k].typ) {
			end = k
			break
		}
	}
	if end <= i {
		return nil
	}
	decl := &s.attrs[declIdx]
	vh := declCharValueHandle(decl)
	valIdx := -1
	for k := declIdx + 1; k < end; k++ {
		if s.attrs[k].handle == vh {
			valIdx = k
			break
		}
	}
	if valIdx < 0 {
		return nil
	}
	props := declCharProps(decl)
	var ext ExtProp
	if props.Has(PropExtProps) {
		for k := valIdx + 1; k < end; k++ {
			if s.attrs[k].isExtProps() && len(s.attrs[k].value) >= 2 {
				ext = ExtProp(uint16(s.attrs[k].value[0]) | uint16(s.attrs[k].value[1])<<8)
				break
			}
		}
	}
	return &charInfo{props: props, extProps: ext, valHandle: vh}
}

// opAccess maps an ATT opcode to the direction it accesses an
// attribute in.
func opAccess(op att.Opcode) Access {
	switch op {
	case att.OpWriteReq, att.OpWriteCmd, att.OpPrepWriteReq, att.OpSignedWriteCmd, att.OpExecWriteReq:
		return AccessWrite
	default:
		return AccessRead
	}
}

// opProp maps an ATT opcode to the characteristic property bit it
// requires for value-attribute access ([Vol 3] Part G, Section
// 3.3.1.1).
func opProp(op att.Opcode) (Prop, bool) {
	switch op {
	case att.OpReadReq, att.OpReadByTypeReq, att.OpReadBlobReq, att.OpReadMultiReq:
		return PropRead, true
	case att.OpWriteCmd:
		return PropWriteCmd, true
	case att.OpWriteReq, att.OpPrepWriteReq:
		return PropWrite, true
	case att.OpSignedWriteCmd:
		return PropSignedWrite, true
	default:
		return 0, false
	}
}

// accessCheck performs the permission check for req against the
// attribute at index i ([Vol 3] Part F, Section 4).
func (s *Schema) accessCheck(req Request, i int) att.ErrorCode {
	at := &s.attrs[i]
	ac := opAccess(req.Op)
	if ec, ok := at.perms.test(ac, req.Sec); !ok {
		return ec
	}
	ch := s.characteristicForAttr(i)
	if ch == nil {
		return 0
	}
	if at.handle != ch.valHandle {
		// [Vol 3] Part G, Section 3.3.3.1 and 3.3.3.2
		if ac == AccessWrite && at.typ.Equal(descCharacteristicUserDescription) && !ch.extProps.Has(ExtPropWritableAux) {
			return att.ErrWriteNotPermitted
		}
		return 0 // descriptor or declaration access
	}
	bit, ok := opProp(req.Op)
	if !ok {
		return att.ErrReqNotSupported
	}
	if !ch.props.Has(bit) {
		if ac == AccessRead {
			return att.ErrReadNotPermitted
		}
		return att.ErrWriteNotPermitted
	}
	return 0
}

// TryAccess checks access to a single handle.
func (s *Schema) TryAccess(req Request, h Handle) att.ErrorCode {
	i, ok := s.get(h)
	if !ok {
		return att.ErrInvalidHandle
	}
	return s.accessCheck(req, i)
}

// TryRangeAccess finds every attribute within hdls of type uuid,
// access-checks them against req, and returns the handles that pass,
// stopping at the first that fails ([Vol 3] Part F, Section 3.4.4.1).
// A range containing no attribute of type uuid reports
// ErrAttrNotFound.
func (s *Schema) TryRangeAccess(req Request, hdls HandleRange, uuid gap.Uuid) ([]Handle, att.ErrorCode) {
	i, j, ok := s.subsetRange(hdls)
	if !ok {
		return nil, att.ErrAttrNotFound
	}
	var out []Handle
	matched := false
	for k := i; k < j; k++ {
		if !s.attrs[k].typ.Equal(uuid) {
			continue
		}
		matched = true
		if ec := s.accessCheck(req, k); ec != 0 {
			if len(out) == 0 {
				return nil, ec
			}
			break
		}
		out = append(out, s.attrs[k].handle)
	}
	if !matched {
		return nil, att.ErrAttrNotFound
	}
	return out, 0
}
