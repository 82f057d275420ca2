// Package bin reads and writes the PROP/PTCH property tree format used for
// game data.
//
// A tree is an ordered collection of objects keyed by a 32-bit path hash.
// Each object carries a class hash and an ordered map of properties; each
// property is one of 28 tagged value kinds ranging from primitives to
// containers, maps, optionals, and nested structs. Iteration order is
// always the order the file declared, so a parse/write round trip is
// structurally faithful.
package bin

import "fmt"

// Kind is the 8-bit tag naming a property value type. Codes 0–18 are
// primitives, 128–135 are complex kinds.
type Kind uint8

const (
	KindNone Kind = iota
	KindBool
	KindI8
	KindU8
	KindI16
	KindU16
	KindI32
	KindU32
	KindI64
	KindU64
	KindF32
	KindVector2
	KindVector3
	KindVector4
	KindMatrix44
	KindColor
	KindString
	KindHash
	// KindWadChunkLink was retroactively inserted here, between two shipped
	// format revisions; see UnpackKind for the legacy remapping.
	KindWadChunkLink
)

const (
	KindContainer Kind = 128 + iota
	KindUnorderedContainer
	KindStruct
	KindEmbedded
	KindObjectLink
	KindOptional
	KindMap
	KindBitBool
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindI8:
		return "i8"
	case KindU8:
		return "u8"
	case KindI16:
		return "i16"
	case KindU16:
		return "u16"
	case KindI32:
		return "i32"
	case KindU32:
		return "u32"
	case KindI64:
		return "i64"
	case KindU64:
		return "u64"
	case KindF32:
		return "f32"
	case KindVector2:
		return "vector2"
	case KindVector3:
		return "vector3"
	case KindVector4:
		return "vector4"
	case KindMatrix44:
		return "matrix44"
	case KindColor:
		return "color"
	case KindString:
		return "string"
	case KindHash:
		return "hash"
	case KindWadChunkLink:
		return "wad-chunk-link"
	case KindContainer:
		return "container"
	case KindUnorderedContainer:
		return "unordered-container"
	case KindStruct:
		return "struct"
	case KindEmbedded:
		return "embedded"
	case KindObjectLink:
		return "object-link"
	case KindOptional:
		return "optional"
	case KindMap:
		return "map"
	case KindBitBool:
		return "bit-bool"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// valid reports whether k names a defined kind.
func (k Kind) valid() bool {
	return k <= KindWadChunkLink || (k >= KindContainer && k <= KindBitBool)
}

// IsPrimitive reports whether the kind is one of the 19 primitives.
// BitBool is not a primitive despite holding a bool; it cannot key a map.
func (k Kind) IsPrimitive() bool {
	return k <= KindWadChunkLink
}

// IsContainer reports whether the kind is a container type (container,
// unordered container, optional, map). Containers cannot nest.
func (k Kind) IsContainer() bool {
	switch k {
	case KindContainer, KindUnorderedContainer, KindOptional, KindMap:
		return true
	}
	return false
}

// UnpackKind decodes a raw kind byte, optionally applying the legacy
// remapping for files written before WadChunkLink existed.
//
// WadChunkLink was inserted in the middle of the primitive range, shifting
// every later code. In legacy mode, a raw code at or past the WadChunkLink
// slot but below the complex range moves into the complex range, and raw
// codes at or past UnorderedContainer shift up one to make room.
func UnpackKind(raw uint8, legacy bool) (Kind, error) {
	if !legacy {
		k := Kind(raw)
		if !k.valid() {
			return 0, &InvalidKindError{Raw: raw}
		}
		return k, nil
	}

	fudged := raw
	if fudged >= uint8(KindWadChunkLink) && fudged < uint8(KindContainer) {
		fudged -= uint8(KindWadChunkLink)
		fudged |= uint8(KindContainer)
	}
	if fudged >= uint8(KindUnorderedContainer) {
		fudged++
	}

	k := Kind(fudged)
	if !k.valid() {
		return 0, &InvalidKindError{Raw: raw}
	}
	return k, nil
}
