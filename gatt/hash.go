package gatt

import "github.com/nimblebt/burble/crypto"

// computeHash builds the database hash input ([Vol 3] Part G, Section
// 7.3), in ascending handle order: fixed-length declarations
// (service, include, characteristic) contribute handle(2, LE) ||
// type(2, LE) || value; variable-length or permission-carrying
// descriptors (extended properties, user description, CCCD, SCCD,
// presentation/aggregate format) contribute handle(2, LE) || type(2,
// LE) only, their value omitted since it is either connection-state
// or free-form text rather than part of the schema's identity. The
// result is then AES-CMAC-128ed with an all-zero key.
func computeHash(attrs []attr) [16]byte {
	var buf []byte
	for _, a := range attrs {
		switch {
		case hashableDecl(a.typ):
			buf = append(buf, byte(a.handle), byte(a.handle>>8))
			buf = a.typ.AppendLE(buf)
			buf = append(buf, a.value...)
		case hashableDescriptor(a.typ):
			buf = append(buf, byte(a.handle), byte(a.handle>>8))
			buf = a.typ.AppendLE(buf)
		}
	}
	return crypto.DatabaseHash(buf)
}
