package bin

import (
	"io"

	"github.com/phanxgames/riftkit/internal/rw"
)

// Property is one named value on an object or struct.
type Property struct {
	NameHash uint32
	Value    Value
}

// PropertyMap is an insertion-ordered map of properties keyed by name hash.
// Order is the order the file declared (or the order of Set calls), which
// keeps round trips deterministic.
type PropertyMap struct {
	props []Property
	index map[uint32]int
}

// NewPropertyMap returns an empty property map.
func NewPropertyMap() *PropertyMap {
	return &PropertyMap{index: make(map[uint32]int)}
}

// Len returns the number of properties.
func (m *PropertyMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.props)
}

// Get returns the property with the given name hash.
func (m *PropertyMap) Get(nameHash uint32) (Property, bool) {
	if m == nil {
		return Property{}, false
	}
	i, ok := m.index[nameHash]
	if !ok {
		return Property{}, false
	}
	return m.props[i], true
}

// Value returns the value of the property with the given name hash.
func (m *PropertyMap) Value(nameHash uint32) (Value, bool) {
	p, ok := m.Get(nameHash)
	if !ok {
		return nil, false
	}
	return p.Value, true
}

// Set inserts or replaces a property. Replacement keeps the original
// position; insertion appends.
func (m *PropertyMap) Set(prop Property) {
	if i, ok := m.index[prop.NameHash]; ok {
		m.props[i] = prop
		return
	}
	m.index[prop.NameHash] = len(m.props)
	m.props = append(m.props, prop)
}

// SetValue inserts or replaces a property by name hash and value.
func (m *PropertyMap) SetValue(nameHash uint32, value Value) {
	m.Set(Property{NameHash: nameHash, Value: value})
}

// Properties returns the properties in order. The slice is shared; treat it
// as read-only.
func (m *PropertyMap) Properties() []Property {
	if m == nil {
		return nil
	}
	return m.props
}

// Equal reports structural equality: same properties in the same order.
func (m *PropertyMap) Equal(other *PropertyMap) bool {
	if m.Len() != other.Len() {
		return false
	}
	for i := range m.Properties() {
		a := m.props[i]
		b := other.props[i]
		if a.NameHash != b.NameHash || !valueEqual(a.Value, b.Value) {
			return false
		}
	}
	return true
}

// Object is one node of a property tree.
type Object struct {
	// PathHash uniquely identifies this object in the tree.
	PathHash uint32
	// ClassHash identifies the object's type/schema.
	ClassHash uint32
	// Properties is the object's ordered property map.
	Properties *PropertyMap
}

// NewObject returns an object with an empty property map.
func NewObject(pathHash, classHash uint32) *Object {
	return &Object{PathHash: pathHash, ClassHash: classHash, Properties: NewPropertyMap()}
}

// readObject parses one size-prefixed object. The class hash comes from the
// tree header, not the object body.
func readObject(r io.ReadSeeker, classHash uint32, legacy bool) (*Object, error) {
	size, err := rw.ReadU32(r)
	if err != nil {
		return nil, err
	}

	obj := &Object{ClassHash: classHash, Properties: NewPropertyMap()}
	realSize, err := rw.MeasureRead(r, func() error {
		var err error
		if obj.PathHash, err = rw.ReadU32(r); err != nil {
			return err
		}
		propCount, err := rw.ReadU16(r)
		if err != nil {
			return err
		}
		for i := uint16(0); i < propCount; i++ {
			prop, err := readProperty(r, legacy)
			if err != nil {
				return err
			}
			obj.Properties.Set(prop)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if int64(size) != realSize {
		return nil, &InvalidSizeError{Declared: size, Actual: realSize}
	}
	return obj, nil
}

// writeObject emits the object with its size prefix patched in afterwards.
func writeObject(w io.WriteSeeker, obj *Object) error {
	sizePos, err := rw.Tell(w)
	if err != nil {
		return err
	}
	if err := rw.WriteU32(w, 0); err != nil {
		return err
	}

	size, err := rw.MeasureWrite(w, func() error {
		if err := rw.WriteU32(w, obj.PathHash); err != nil {
			return err
		}
		if err := rw.WriteU16(w, uint16(obj.Properties.Len())); err != nil {
			return err
		}
		for _, prop := range obj.Properties.Properties() {
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

// readProperty reads the name hash, kind byte, and value, in that order.
func readProperty(r io.ReadSeeker, legacy bool) (Property, error) {
	nameHash, err := rw.ReadU32(r)
	if err != nil {
		return Property{}, err
	}
	kind, err := readKind(r, legacy)
	if err != nil {
		return Property{}, err
	}
	value, err := readValue(r, kind, legacy)
	if err != nil {
		return Property{}, err
	}
	return Property{NameHash: nameHash, Value: value}, nil
}

func writeProperty(w io.WriteSeeker, prop Property) error {
	if err := rw.WriteU32(w, prop.NameHash); err != nil {
		return err
	}
	if err := rw.WriteU8(w, uint8(prop.Value.Kind())); err != nil {
		return err
	}
	return writeValue(w, prop.Value)
}

func readKind(r io.Reader, legacy bool) (Kind, error) {
	raw, err := rw.ReadU8(r)
	if err != nil {
		return 0, err
	}
	return UnpackKind(raw, legacy)
}
