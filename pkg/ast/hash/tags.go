package hash

// ---------------------------------------------------------------------------
// Frozen tag bytes for the fingerprint serialization format.
//
// IMPORTANT: These tags are FROZEN. Once assigned, a tag byte must never
// change meaning. Adding new tags is fine; changing existing ones breaks
// every stored fingerprint.
// ---------------------------------------------------------------------------

// FormatVersion is the version prefix for the serialization format.
// Bumping this invalidates all existing fingerprints.
const FormatVersion byte = 1

// Node type tags. Each tag uniquely identifies a node kind in the
// serialized byte stream.
const (
	TagReservedZero byte = 0x00 // version prefix / reserved

	// Literals
	TagNumber     byte = 0x01
	TagFloat      byte = 0x02
	TagText       byte = 0x03
	TagIdentifier byte = 0x04

	// Expressions
	TagUnary  byte = 0x10
	TagBinary byte = 0x11
	TagCall   byte = 0x12

	// Statements
	TagWhile  byte = 0x20
	TagIf     byte = 0x21
	TagIfElse byte = 0x22
	TagBlock  byte = 0x23
)

// allTags lists every defined tag for uniqueness verification in tests.
var allTags = []byte{
	TagReservedZero,
	TagNumber, TagFloat, TagText, TagIdentifier,
	TagUnary, TagBinary, TagCall,
	TagWhile, TagIf, TagIfElse, TagBlock,
}
