package gatt

import "github.com/nimblebt/burble/gap"

// attr is one row of a Schema's attribute table. Declaration and
// descriptor attributes carry their encoded value inline; a
// characteristic's value attribute carries the characteristic's own
// UUID as its type, with its runtime value supplied separately by a
// Server.
type attr struct {
	handle Handle
	typ    gap.Uuid
	value  []byte
	perms  Perms
}

func (a *attr) isService() bool {
	return a.typ.Equal(declPrimaryService) || a.typ.Equal(declSecondaryService)
}

func (a *attr) isPrimaryService() bool { return a.typ.Equal(declPrimaryService) }
func (a *attr) isInclude() bool        { return a.typ.Equal(declInclude) }
func (a *attr) isChar() bool           { return a.typ.Equal(declCharacteristic) }
func (a *attr) isExtProps() bool       { return a.typ.Equal(descCharacteristicExtendedProperties) }

// isNextServiceGroup reports whether typ starts a new top-level group,
// ending whatever service or characteristic group came before it.
func isNextServiceGroup(typ gap.Uuid) bool {
	return typ.Equal(declPrimaryService) || typ.Equal(declSecondaryService)
}

// isNextCharGroup reports whether typ starts a new group when walking
// one service's characteristics: the next service (primary or
// secondary), an Include, or the next Characteristic declaration all
// end the current characteristic's range.
func isNextCharGroup(typ gap.Uuid) bool {
	return typ.Equal(declPrimaryService) || typ.Equal(declSecondaryService) ||
		typ.Equal(declInclude) || typ.Equal(declCharacteristic)
}

// declServiceUUID decodes a Primary/Secondary Service declaration's
// value, which is exactly the service UUID.
func declServiceUUID(a *attr) gap.Uuid {
	u, _ := gap.Parse(a.value)
	return u
}

// declCharUUID decodes a Characteristic declaration's value:
// properties(1) || value handle(2, LE) || characteristic UUID.
func declCharUUID(a *attr) gap.Uuid {
	if len(a.value) < 4 {
		return gap.Uuid{}
	}
	u, _ := gap.Parse(a.value[3:])
	return u
}

func declCharProps(a *attr) Prop {
	if len(a.value) < 1 {
		return 0
	}
	return Prop(a.value[0])
}

func declCharValueHandle(a *attr) Handle {
	if len(a.value) < 3 {
		return 0
	}
	return Handle(uint16(a.value[1]) | uint16(a.value[2])<<8)
}
