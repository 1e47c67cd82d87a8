package gatt

import (
	"errors"
	"fmt"

	"github.com/nimblebt/burble/att"
	"github.com/nimblebt/burble/gap"
)

// ErrSchemaInvalid reports a structural violation caught at Build
// time: currently, a characteristic whose EXT_PROPS property bit is
// set but carries no Characteristic Extended Properties descriptor
// ([Vol 3] Part G, Section 3.3.3.1).
var ErrSchemaInvalid = errors.New("gatt: schema invalid")

// Builder assembles a Schema's attribute table in ascending handle
// order, the way the teacher's generateHandles walks a []*Service at
// startup. Handles are allocated sequentially starting at MinHandle;
// Build is the only way to obtain a usable Schema, and a built Schema
// can never be modified afterward.
type Builder struct {
	attrs []attr
	next  Handle
	err   error

	svcStart Handle // handle of the open service's declaration, 0 if none
	charDecl int     // index of the open characteristic's declaration, -1 if none
}

// NewBuilder creates an empty Builder. Handles start at MinHandle.
func NewBuilder() *Builder {
	return &Builder{next: MinHandle, charDecl: -1}
}

func (b *Builder) alloc() Handle {
	h := b.next
	b.next++
	return h
}

func (b *Builder) fail(format string, args ...interface{}) {
	if b.err == nil {
		b.err = fmt.Errorf(format, args...)
	}
}

// AddPrimaryService declares a top-level, independently discoverable
// service ([Vol 3] Part G, Section 3.1).
func (b *Builder) AddPrimaryService(uuid gap.Uuid) Handle {
	return b.addService(declPrimaryService, uuid)
}

// AddSecondaryService declares a service meant only to be reached
// through another service's Include, never discovered directly
// ([Vol 3] Part G, Section 3.1).
func (b *Builder) AddSecondaryService(uuid gap.Uuid) Handle {
	return b.addService(declSecondaryService, uuid)
}

func (b *Builder) addService(declType, uuid gap.Uuid) Handle {
	h := b.alloc()
	b.svcStart = h
	b.charDecl = -1
	b.attrs = append(b.attrs, attr{
		handle: h,
		typ:    declType,
		value:  uuid.AppendLE(nil),
		perms:  ReadOnly(att.SecurityNone),
	})
	return h
}

// AddInclude declares that the open service includes the service
// spanning svc ([Vol 3] Part G, Section 3.2). A 128-bit included
// service UUID is omitted from the value, per spec, since a reader
// must look it up via the included service's own declaration.
func (b *Builder) AddInclude(svc HandleRange, uuid gap.Uuid) Handle {
	if b.svcStart == 0 {
		b.fail("gatt: AddInclude called outside of a service")
		return 0
	}
	h := b.alloc()
	v := []byte{byte(svc.Start), byte(svc.Start >> 8), byte(svc.End), byte(svc.End >> 8)}
	if _, is16 := uuid.As16(); is16 {
		v = uuid.AppendLE(v)
	}
	b.attrs = append(b.attrs, attr{handle: h, typ: declInclude, value: v, perms: ReadOnly(att.SecurityNone)})
	return h
}

// AddCharacteristic declares a characteristic and reserves its value
// attribute's handle in the same call, returning both. perms governs
// access to the characteristic's value attribute; props advertises
// which ATT operations that access is offered through.
func (b *Builder) AddCharacteristic(uuid gap.Uuid, props Prop, perms Perms) (decl, value Handle) {
	if b.svcStart == 0 {
		b.fail("gatt: AddCharacteristic called outside of a service")
		return 0, 0
	}
	decl = b.alloc()
	value = b.alloc()
	v := make([]byte, 0, 3+uuid.Len())
	v = append(v, byte(props), byte(value), byte(value>>8))
	v = uuid.AppendLE(v)
	b.charDecl = len(b.attrs)
	b.attrs = append(b.attrs, attr{handle: decl, typ: declCharacteristic, value: v, perms: ReadOnly(att.SecurityNone)})
	b.attrs = append(b.attrs, attr{handle: value, typ: uuid, perms: perms})
	return decl, value
}

// AddDescriptor attaches a descriptor to the most recently added
// characteristic.
func (b *Builder) AddDescriptor(uuid gap.Uuid, perms Perms, value []byte) Handle {
	if b.charDecl < 0 {
		b.fail("gatt: AddDescriptor called outside of a characteristic")
		return 0
	}
	h := b.alloc()
	b.attrs = append(b.attrs, attr{handle: h, typ: uuid, value: value, perms: perms})
	return h
}

// AddExtendedProperties attaches the Characteristic Extended
// Properties descriptor to the most recently added characteristic.
// Callers must also set PropExtProps in that characteristic's props.
func (b *Builder) AddExtendedProperties(ext ExtProp) Handle {
	v := []byte{byte(ext), byte(ext >> 8)}
	return b.AddDescriptor(descCharacteristicExtendedProperties, ReadOnly(att.SecurityNone), v)
}

// Build finalizes the schema: validates it, computes the database
// hash over every hashable declaration and descriptor, and freezes the
// attribute table. Returns an error if the builder recorded a
// structural mistake (an Include, Characteristic, or Descriptor added
// outside its required context), if nothing was ever declared, or if
// validation fails (see ErrSchemaInvalid).
func (b *Builder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.attrs) == 0 {
		return nil, fmt.Errorf("gatt: empty schema")
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return &Schema{attrs: b.attrs, hash: computeHash(b.attrs)}, nil
}

// validate checks invariants Build cannot catch incrementally as
// attributes are added. Currently: every characteristic declaring
// EXT_PROPS must carry a Characteristic Extended Properties descriptor
// ([Vol 3] Part G, Section 3.3.1.1 and 3.3.3.1).
func (b *Builder) validate() error {
	for i := range b.attrs {
		if !b.attrs[i].isChar() {
			continue
		}
		if !declCharProps(&b.attrs[i]).Has(PropExtProps) {
			continue
		}
		found := false
		for j := i + 1; j < len(b.attrs) && !isNextCharGroup(b.attrs[j].typ); j++ {
			if b.attrs[j].isExtProps() {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: characteristic at handle %d sets EXT_PROPS but has no Characteristic Extended Properties descriptor", ErrSchemaInvalid, b.attrs[i].handle)
		}
	}
	return nil
}
