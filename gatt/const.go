package gatt

import "github.com/nimblebt/burble/gap"

// GATT declaration and descriptor UUIDs ([Vol 3] Part G, Section 3.3,
// and the Bluetooth-assigned-numbers declarations/descriptors tables).
var (
	declPrimaryService   = gap.Uuid16(0x2800)
	declSecondaryService = gap.Uuid16(0x2801)
	declInclude          = gap.Uuid16(0x2802)
	declCharacteristic   = gap.Uuid16(0x2803)

	descCharacteristicExtendedProperties = gap.Uuid16(0x2900)
	descCharacteristicUserDescription    = gap.Uuid16(0x2901)
	descClientCharacteristicConfig       = gap.Uuid16(0x2902)
	descServerCharacteristicConfig       = gap.Uuid16(0x2903)
	descCharacteristicPresentationFormat = gap.Uuid16(0x2904)
	descCharacteristicAggregateFormat    = gap.Uuid16(0x2905)
)

// GAP and GATT profile service UUIDs, and the two mandatory GAP
// characteristics every schema carries ([Vol 3] Part G, Section 7).
var (
	ServiceGAP  = gap.Uuid16(0x1800)
	ServiceGATT = gap.Uuid16(0x1801)

	CharDeviceName = gap.Uuid16(0x2A00)
	CharAppearance = gap.Uuid16(0x2A01)
)

// hashableDecl reports whether a declaration of this type contributes
// its handle/type/value triple to the database hash ([Vol 3] Part G,
// Section 7.3).
func hashableDecl(typ gap.Uuid) bool {
	switch {
	case typ.Equal(declPrimaryService),
		typ.Equal(declSecondaryService),
		typ.Equal(declInclude),
		typ.Equal(declCharacteristic):
		return true
	default:
		return false
	}
}

// hashableDescriptor reports whether a descriptor of this type
// contributes its handle/type pair, value omitted, to the database
// hash ([Vol 3] Part G, Section 7.3) — the Characteristic Extended
// Properties, User Description, Client/Server Characteristic
// Configuration, and Presentation/Aggregate Format descriptors.
func hashableDescriptor(typ gap.Uuid) bool {
	switch {
	case typ.Equal(descCharacteristicExtendedProperties),
		typ.Equal(descCharacteristicUserDescription),
		typ.Equal(descClientCharacteristicConfig),
		typ.Equal(descServerCharacteristicConfig),
		typ.Equal(descCharacteristicPresentationFormat),
		typ.Equal(descCharacteristicAggregateFormat):
		return true
	default:
		return false
	}
}
