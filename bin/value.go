package bin

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/riftkit"
)

// Value is one of the 28 tagged value variants a property can hold.
// The concrete types are small value types; Kind reports the wire tag.
type Value interface {
	Kind() Kind
}

// NoneValue carries no payload.
type NoneValue struct{}

// BoolValue is a one-byte boolean.
type BoolValue bool

// BitBoolValue is a one-byte boolean left over from before league had
// bitfield support. Unlike Bool it is not a primitive and cannot key a map.
type BitBoolValue bool

type I8Value int8
type U8Value uint8
type I16Value int16
type U16Value uint16
type I32Value int32
type U32Value uint32
type I64Value int64
type U64Value uint64
type F32Value float32

type Vector2Value mgl32.Vec2
type Vector3Value mgl32.Vec3
type Vector4Value mgl32.Vec4

// Matrix44Value is stored row-major on disk.
type Matrix44Value mgl32.Mat4

// ColorValue is a 4-byte RGBA color.
type ColorValue riftkit.Color

// StringValue is a u16-length-prefixed string.
type StringValue string

// HashValue is a 32-bit fnv-style name hash referencing game data.
type HashValue uint32

// WadChunkLinkValue is a 64-bit xxhash referencing a chunk in a WAD.
type WadChunkLinkValue uint64

// ObjectLinkValue references a sibling object by its path hash. Links are
// pure identifiers; following one means looking the hash up in the tree.
type ObjectLinkValue uint32

// StructValue is a nested object with its own class hash and properties.
// A zero class hash denotes the null struct and carries nothing else.
type StructValue struct {
	ClassHash  uint32
	Properties *PropertyMap
}

// EmbeddedValue is a struct embedded by value rather than referenced.
// Identical framing to [StructValue]; only the kind byte differs.
type EmbeddedValue struct {
	ClassHash  uint32
	Properties *PropertyMap
}

// ContainerValue is an ordered homogeneous list. Item kinds may be anything
// except another container type.
type ContainerValue struct {
	ItemKind Kind
	Items    []Value
}

// UnorderedContainerValue shares the container framing; the distinction is
// semantic only (the game treats the items as a set).
type UnorderedContainerValue struct {
	ItemKind Kind
	Items    []Value
}

// OptionalValue holds zero or one value of a non-container kind.
// A nil Value means absent.
type OptionalValue struct {
	ItemKind Kind
	Value    Value
}

// MapEntry is one key/value pair of a [MapValue].
type MapEntry struct {
	Key   Value
	Value Value
}

// MapValue is an ordered association. Key kinds must be primitive; value
// kinds must not be containers. Entry order is preserved for deterministic
// round trips.
type MapValue struct {
	KeyKind   Kind
	ValueKind Kind
	Entries   []MapEntry
}

func (NoneValue) Kind() Kind               { return KindNone }
func (BoolValue) Kind() Kind               { return KindBool }
func (BitBoolValue) Kind() Kind            { return KindBitBool }
func (I8Value) Kind() Kind                 { return KindI8 }
func (U8Value) Kind() Kind                 { return KindU8 }
func (I16Value) Kind() Kind                { return KindI16 }
func (U16Value) Kind() Kind                { return KindU16 }
func (I32Value) Kind() Kind                { return KindI32 }
func (U32Value) Kind() Kind                { return KindU32 }
func (I64Value) Kind() Kind                { return KindI64 }
func (U64Value) Kind() Kind                { return KindU64 }
func (F32Value) Kind() Kind                { return KindF32 }
func (Vector2Value) Kind() Kind            { return KindVector2 }
func (Vector3Value) Kind() Kind            { return KindVector3 }
func (Vector4Value) Kind() Kind            { return KindVector4 }
func (Matrix44Value) Kind() Kind           { return KindMatrix44 }
func (ColorValue) Kind() Kind              { return KindColor }
func (StringValue) Kind() Kind             { return KindString }
func (HashValue) Kind() Kind               { return KindHash }
func (WadChunkLinkValue) Kind() Kind       { return KindWadChunkLink }
func (ObjectLinkValue) Kind() Kind         { return KindObjectLink }
func (StructValue) Kind() Kind             { return KindStruct }
func (EmbeddedValue) Kind() Kind           { return KindEmbedded }
func (ContainerValue) Kind() Kind          { return KindContainer }
func (UnorderedContainerValue) Kind() Kind { return KindUnorderedContainer }
func (OptionalValue) Kind() Kind           { return KindOptional }
func (MapValue) Kind() Kind                { return KindMap }

// NewContainer builds a container from items, inferring and validating the
// item kind. All items must share one non-container kind.
func NewContainer(items []Value) (ContainerValue, error) {
	kind, err := validateItems(items)
	if err != nil {
		return ContainerValue{}, err
	}
	return ContainerValue{ItemKind: kind, Items: items}, nil
}

// NewUnorderedContainer builds an unordered container from items.
func NewUnorderedContainer(items []Value) (UnorderedContainerValue, error) {
	kind, err := validateItems(items)
	if err != nil {
		return UnorderedContainerValue{}, err
	}
	return UnorderedContainerValue{ItemKind: kind, Items: items}, nil
}

func validateItems(items []Value) (Kind, error) {
	if len(items) == 0 {
		return 0, ErrEmptyContainer
	}
	kind := items[0].Kind()
	if kind.IsContainer() {
		return 0, &InvalidNestingError{Kind: kind}
	}
	for _, item := range items[1:] {
		if item.Kind() != kind {
			return 0, &MismatchedKindsError{Expected: kind, Got: item.Kind()}
		}
	}
	return kind, nil
}

// NewOptional builds an optional of itemKind; value may be nil for absent.
func NewOptional(itemKind Kind, value Value) (OptionalValue, error) {
	if itemKind.IsContainer() {
		return OptionalValue{}, &InvalidNestingError{Kind: itemKind}
	}
	if value != nil && value.Kind() != itemKind {
		return OptionalValue{}, &MismatchedKindsError{Expected: itemKind, Got: value.Kind()}
	}
	return OptionalValue{ItemKind: itemKind, Value: value}, nil
}

// NewMap builds a map, validating the key/value kind rules and each entry.
func NewMap(keyKind, valueKind Kind, entries []MapEntry) (MapValue, error) {
	if !keyKind.IsPrimitive() {
		return MapValue{}, &InvalidKeyKindError{Kind: keyKind}
	}
	if valueKind.IsContainer() {
		return MapValue{}, &InvalidNestingError{Kind: valueKind}
	}
	for _, entry := range entries {
		if entry.Key.Kind() != keyKind {
			return MapValue{}, &MismatchedKindsError{Expected: keyKind, Got: entry.Key.Kind()}
		}
		if entry.Value.Kind() != valueKind {
			return MapValue{}, &MismatchedKindsError{Expected: valueKind, Got: entry.Value.Kind()}
		}
	}
	return MapValue{KeyKind: keyKind, ValueKind: valueKind, Entries: entries}, nil
}
