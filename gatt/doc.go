// Package gatt implements the GATT attribute database (C5): an
// immutable, handle-indexed schema built once from a fixed set of
// services and characteristics, the database hash that lets a central
// cache whether that schema has changed ([Vol 3] Part G, Section 7.3),
// and the runtime Server that layers mutable characteristic values and
// read/write handlers on top of it to satisfy att.Server.
package gatt
