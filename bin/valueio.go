package bin

import (
	"io"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/riftkit"
	"github.com/phanxgames/riftkit/internal/rw"
)

// readValue parses one value of the given kind. The legacy flag threads
// through every nested kind byte.
func readValue(r io.ReadSeeker, kind Kind, legacy bool) (Value, error) {
	switch kind {
	case KindNone:
		return NoneValue{}, nil
	case KindBool:
		v, err := rw.ReadBool(r)
		return BoolValue(v), err
	case KindBitBool:
		v, err := rw.ReadBool(r)
		return BitBoolValue(v), err
	case KindI8:
		v, err := rw.ReadI8(r)
		return I8Value(v), err
	case KindU8:
		v, err := rw.ReadU8(r)
		return U8Value(v), err
	case KindI16:
		v, err := rw.ReadI16(r)
		return I16Value(v), err
	case KindU16:
		v, err := rw.ReadU16(r)
		return U16Value(v), err
	case KindI32:
		v, err := rw.ReadI32(r)
		return I32Value(v), err
	case KindU32:
		v, err := rw.ReadU32(r)
		return U32Value(v), err
	case KindI64:
		v, err := rw.ReadI64(r)
		return I64Value(v), err
	case KindU64:
		v, err := rw.ReadU64(r)
		return U64Value(v), err
	case KindF32:
		v, err := rw.ReadF32(r)
		return F32Value(v), err
	case KindVector2:
		v, err := rw.ReadVec2(r)
		return Vector2Value(v), err
	case KindVector3:
		v, err := rw.ReadVec3(r)
		return Vector3Value(v), err
	case KindVector4:
		v, err := rw.ReadVec4(r)
		return Vector4Value(v), err
	case KindMatrix44:
		v, err := rw.ReadMat4RowMajor(r)
		return Matrix44Value(v), err
	case KindColor:
		v, err := rw.ReadColor(r)
		return ColorValue(v), err
	case KindString:
		v, err := rw.ReadString16(r)
		return StringValue(v), err
	case KindHash:
		v, err := rw.ReadU32(r)
		return HashValue(v), err
	case KindWadChunkLink:
		v, err := rw.ReadU64(r)
		return WadChunkLinkValue(v), err
	case KindObjectLink:
		v, err := rw.ReadU32(r)
		return ObjectLinkValue(v), err
	case KindStruct:
		classHash, props, err := readStructBody(r, legacy)
		return StructValue{ClassHash: classHash, Properties: props}, err
	case KindEmbedded:
		classHash, props, err := readStructBody(r, legacy)
		return EmbeddedValue{ClassHash: classHash, Properties: props}, err
	case KindContainer:
		itemKind, items, err := readContainerBody(r, legacy)
		return ContainerValue{ItemKind: itemKind, Items: items}, err
	case KindUnorderedContainer:
		itemKind, items, err := readContainerBody(r, legacy)
		return UnorderedContainerValue{ItemKind: itemKind, Items: items}, err
	case KindOptional:
		return readOptional(r, legacy)
	case KindMap:
		return readMap(r, legacy)
	}
	return nil, &InvalidKindError{Raw: uint8(kind)}
}

// writeValue emits the value's body; the kind byte is the caller's job.
func writeValue(w io.WriteSeeker, value Value) error {
	switch v := value.(type) {
	case NoneValue:
		return nil
	case BoolValue:
		return rw.WriteBool(w, bool(v))
	case BitBoolValue:
		return rw.WriteBool(w, bool(v))
	case I8Value:
		return rw.WriteI8(w, int8(v))
	case U8Value:
		return rw.WriteU8(w, uint8(v))
	case I16Value:
		return rw.WriteI16(w, int16(v))
	case U16Value:
		return rw.WriteU16(w, uint16(v))
	case I32Value:
		return rw.WriteI32(w, int32(v))
	case U32Value:
		return rw.WriteU32(w, uint32(v))
	case I64Value:
		return rw.WriteI64(w, int64(v))
	case U64Value:
		return rw.WriteU64(w, uint64(v))
	case F32Value:
		return rw.WriteF32(w, float32(v))
	case Vector2Value:
		return rw.WriteVec2(w, mgl32.Vec2(v))
	case Vector3Value:
		return rw.WriteVec3(w, mgl32.Vec3(v))
	case Vector4Value:
		return rw.WriteVec4(w, mgl32.Vec4(v))
	case Matrix44Value:
		return rw.WriteMat4RowMajor(w, mgl32.Mat4(v))
	case ColorValue:
		return rw.WriteColor(w, riftkit.Color(v))
	case StringValue:
		return rw.WriteString16(w, string(v))
	case HashValue:
		return rw.WriteU32(w, uint32(v))
	case WadChunkLinkValue:
		return rw.WriteU64(w, uint64(v))
	case ObjectLinkValue:
		return rw.WriteU32(w, uint32(v))
	case StructValue:
		return writeStructBody(w, v.ClassHash, v.Properties)
	case EmbeddedValue:
		return writeStructBody(w, v.ClassHash, v.Properties)
	case ContainerValue:
		return writeContainerBody(w, v.ItemKind, v.Items)
	case UnorderedContainerValue:
		return writeContainerBody(w, v.ItemKind, v.Items)
	case OptionalValue:
		return writeOptional(w, v)
	case MapValue:
		return writeMap(w, v)
	}
	return &InvalidKindError{Raw: uint8(value.Kind())}
}

// readStructBody parses the shared struct/embedded framing: class hash,
// then (unless null) a size-prefixed property list.
func readStructBody(r io.ReadSeeker, legacy bool) (uint32, *PropertyMap, error) {
	classHash, err := rw.ReadU32(r)
	if err != nil {
		return 0, nil, err
	}
	if classHash == 0 {
		// Null struct; no size, no properties.
		return 0, NewPropertyMap(), nil
	}

	size, err := rw.ReadU32(r)
	if err != nil {
		return 0, nil, err
	}
	props := NewPropertyMap()
	realSize, err := rw.MeasureRead(r, func() error {
		propCount, err := rw.ReadU16(r)
		if err != nil {
			return err
		}
		for i := uint16(0); i < propCount; i++ {
			prop, err := readProperty(r, legacy)
			if err != nil {
				return err
			}
			props.Set(prop)
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	if int64(size) != realSize {
		return 0, nil, &InvalidSizeError{Declared: size, Actual: realSize}
	}
	return classHash, props, nil
}

func writeStructBody(w io.WriteSeeker, classHash uint32, props *PropertyMap) error {
	if err := rw.WriteU32(w, classHash); err != nil {
		return err
	}
	if classHash == 0 {
		return nil
	}

	sizePos, err := rw.Tell(w)
	if err != nil {
		return err
	}
	if err := rw.WriteU32(w, 0); err != nil {
		return err
	}
	size, err := rw.MeasureWrite(w, func() error {
		if err := rw.WriteU16(w, uint16(props.Len())); err != nil {
			return err
		}
		for _, prop := range props.Properties() {
			if err := writeProperty(w, prop); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return rw.PatchU32At(w, sizePos, uint32(size))
}

// readContainerBody parses the shared container framing: item kind, size,
// count, then the items. Container item kinds cannot be containers.
func readContainerBody(r io.ReadSeeker, legacy bool) (Kind, []Value, error) {
	itemKind, err := readKind(r, legacy)
	if err != nil {
		return 0, nil, err
	}
	if itemKind.IsContainer() {
		return 0, nil, &InvalidNestingError{Kind: itemKind}
	}

	size, err := rw.ReadU32(r)
	if err != nil {
		return 0, nil, err
	}
	var items []Value
	realSize, err := rw.MeasureRead(r, func() error {
		count, err := rw.ReadU32(r)
		if err != nil {
			return err
		}
		items = make([]Value, 0, count)
		for i := uint32(0); i < count; i++ {
			item, err := readValue(r, itemKind, legacy)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	if int64(size) != realSize {
		return 0, nil, &InvalidSizeError{Declared: size, Actual: realSize}
	}
	return itemKind, items, nil
}

func writeContainerBody(w io.WriteSeeker, itemKind Kind, items []Value) error {
	if itemKind.IsContainer() {
		return &InvalidNestingError{Kind: itemKind}
	}
	if err := rw.WriteU8(w, uint8(itemKind)); err != nil {
		return err
	}
	sizePos, err := rw.Tell(w)
	if err != nil {
		return err
	}
	if err := rw.WriteU32(w, 0); err != nil {
		return err
	}
	size, err := rw.MeasureWrite(w, func() error {
		if err := rw.WriteU32(w, uint32(len(items))); err != nil {
			return err
		}
		for _, item := range items {
			if item.Kind() != itemKind {
				return &MismatchedKindsError{Expected: itemKind, Got: item.Kind()}
			}
			if err := writeValue(w, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return rw.PatchU32At(w, sizePos, uint32(size))
}

func readOptional(r io.ReadSeeker, legacy bool) (OptionalValue, error) {
	itemKind, err := readKind(r, legacy)
	if err != nil {
		return OptionalValue{}, err
	}
	if itemKind.IsContainer() {
		return OptionalValue{}, &InvalidNestingError{Kind: itemKind}
	}
	present, err := rw.ReadBool(r)
	if err != nil {
		return OptionalValue{}, err
	}
	opt := OptionalValue{ItemKind: itemKind}
	if present {
		if opt.Value, err = readValue(r, itemKind, legacy); err != nil {
			return OptionalValue{}, err
		}
	}
	return opt, nil
}

func writeOptional(w io.WriteSeeker, v OptionalValue) error {
	if v.ItemKind.IsContainer() {
		return &InvalidNestingError{Kind: v.ItemKind}
	}
	if err := rw.WriteU8(w, uint8(v.ItemKind)); err != nil {
		return err
	}
	if err := rw.WriteBool(w, v.Value != nil); err != nil {
		return err
	}
	if v.Value == nil {
		return nil
	}
	if v.Value.Kind() != v.ItemKind {
		return &MismatchedKindsError{Expected: v.ItemKind, Got: v.Value.Kind()}
	}
	return writeValue(w, v.Value)
}

func readMap(r io.ReadSeeker, legacy bool) (MapValue, error) {
	keyKind, err := readKind(r, legacy)
	if err != nil {
		return MapValue{}, err
	}
	if !keyKind.IsPrimitive() {
		return MapValue{}, &InvalidKeyKindError{Kind: keyKind}
	}
	valueKind, err := readKind(r, legacy)
	if err != nil {
		return MapValue{}, err
	}
	if valueKind.IsContainer() {
		return MapValue{}, &InvalidNestingError{Kind: valueKind}
	}

	size, err := rw.ReadU32(r)
	if err != nil {
		return MapValue{}, err
	}
	m := MapValue{KeyKind: keyKind, ValueKind: valueKind}
	realSize, err := rw.MeasureRead(r, func() error {
		count, err := rw.ReadU32(r)
		if err != nil {
			return err
		}
		m.Entries = make([]MapEntry, 0, count)
		for i := uint32(0); i < count; i++ {
			key, err := readValue(r, keyKind, legacy)
			if err != nil {
				return err
			}
			value, err := readValue(r, valueKind, legacy)
			if err != nil {
				return err
			}
			m.Entries = append(m.Entries, MapEntry{Key: key, Value: value})
		}
		return nil
	})
	if err != nil {
		return MapValue{}, err
	}
	if int64(size) != realSize {
		return MapValue{}, &InvalidSizeError{Declared: size, Actual: realSize}
	}
	return m, nil
}

func writeMap(w io.WriteSeeker, v MapValue) error {
	if !v.KeyKind.IsPrimitive() {
		return &InvalidKeyKindError{Kind: v.KeyKind}
	}
	if v.ValueKind.IsContainer() {
		return &InvalidNestingError{Kind: v.ValueKind}
	}
	if err := rw.WriteU8(w, uint8(v.KeyKind)); err != nil {
		return err
	}
	if err := rw.WriteU8(w, uint8(v.ValueKind)); err != nil {
		return err
	}
	sizePos, err := rw.Tell(w)
	if err != nil {
		return err
	}
	if err := rw.WriteU32(w, 0); err != nil {
		return err
	}
	size, err := rw.MeasureWrite(w, func() error {
		if err := rw.WriteU32(w, uint32(len(v.Entries))); err != nil {
			return err
		}
		for _, entry := range v.Entries {
			if entry.Key.Kind() != v.KeyKind {
				return &MismatchedKindsError{Expected: v.KeyKind, Got: entry.Key.Kind()}
			}
			if entry.Value.Kind() != v.ValueKind {
				return &MismatchedKindsError{Expected: v.ValueKind, Got: entry.Value.Kind()}
			}
			if err := writeValue(w, entry.Key); err != nil {
				return err
			}
			if err := writeValue(w, entry.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return rw.PatchU32At(w, sizePos, uint32(size))
}

// valueEqual reports deep structural equality between two values.
func valueEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case StructValue:
		bv := b.(StructValue)
		return av.ClassHash == bv.ClassHash && av.Properties.Equal(bv.Properties)
	case EmbeddedValue:
		bv := b.(EmbeddedValue)
		return av.ClassHash == bv.ClassHash && av.Properties.Equal(bv.Properties)
	case ContainerValue:
		bv := b.(ContainerValue)
		return av.ItemKind == bv.ItemKind && valuesEqual(av.Items, bv.Items)
	case UnorderedContainerValue:
		bv := b.(UnorderedContainerValue)
		return av.ItemKind == bv.ItemKind && valuesEqual(av.Items, bv.Items)
	case OptionalValue:
		bv := b.(OptionalValue)
		return av.ItemKind == bv.ItemKind && valueEqual(av.Value, bv.Value)
	case MapValue:
		bv := b.(MapValue)
		if av.KeyKind != bv.KeyKind || av.ValueKind != bv.ValueKind || len(av.Entries) != len(bv.Entries) {
			return false
		}
		for i := range av.Entries {
			if !valueEqual(av.Entries[i].Key, bv.Entries[i].Key) ||
				!valueEqual(av.Entries[i].Value, bv.Entries[i].Value) {
				return false
			}
		}
		return true
	default:
		// Every primitive variant is a comparable value type.
		return a == b
	}
}

func valuesEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valueEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
