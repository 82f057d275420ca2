package bin

import (
	"errors"
	"io"

	"github.com/phanxgames/riftkit/internal/rw"
)

// MagicProp is the "PROP" magic as a little-endian u32.
const MagicProp = 0x504F5250

// MagicPatch is the "PTCH" magic as a little-endian u32.
const MagicPatch = 0x48435450

// Tree is a complete property bin file.
type Tree struct {
	// IsOverride marks a PTCH tree that patches another bin.
	IsOverride bool
	// Version is the file version read from the source (1–3). The writer
	// always emits version 3.
	Version uint32
	// Dependencies lists other property bins this file builds on.
	Dependencies []string
	// Objects holds the tree's objects in declaration order.
	Objects *ObjectMap
	// DataOverrideCount is the number of trailing data-override records a
	// PTCH v3 file declared. Their format is undefined, so the records are
	// consumed as placeholders and cannot be re-written.
	DataOverrideCount uint32
}

// NewTree returns an empty version-3 tree.
func NewTree() *Tree {
	return &Tree{Version: 3, Objects: NewObjectMap()}
}

// ObjectMap is an insertion-ordered map of objects keyed by path hash.
type ObjectMap struct {
	objects []*Object
	index   map[uint32]int
}

// NewObjectMap returns an empty object map.
func NewObjectMap() *ObjectMap {
	return &ObjectMap{index: make(map[uint32]int)}
}

// Len returns the number of objects.
func (m *ObjectMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.objects)
}

// Get returns the object with the given path hash.
func (m *ObjectMap) Get(pathHash uint32) (*Object, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[pathHash]
	if !ok {
		return nil, false
	}
	return m.objects[i], true
}

// Set inserts or replaces an object. Replacement keeps the original
// position; insertion appends.
func (m *ObjectMap) Set(obj *Object) {
	if i, ok := m.index[obj.PathHash]; ok {
		m.objects[i] = obj
		return
	}
	m.index[obj.PathHash] = len(m.objects)
	m.objects = append(m.objects, obj)
}

// Objects returns the objects in order. The slice is shared; treat it as
// read-only.
func (m *ObjectMap) Objects() []*Object {
	if m == nil {
		return nil
	}
	return m.objects
}

// Equal reports structural equality: same objects in the same order.
func (m *ObjectMap) Equal(other *ObjectMap) bool {
	if m.Len() != other.Len() {
		return false
	}
	for i := range m.Objects() {
		a, b := m.objects[i], other.objects[i]
		if a.PathHash != b.PathHash || a.ClassHash != b.ClassHash || !a.Properties.Equal(b.Properties) {
			return false
		}
	}
	return true
}

func (m *ObjectMap) clear() {
	m.objects = m.objects[:0]
	for k := range m.index {
		delete(m.index, k)
	}
}

// Read parses a PROP or PTCH tree from r.
//
// If the objects section trips on a kind byte the current format does not
// know, the reader rewinds once and retries in legacy mode, reconstructing
// pre-WadChunkLink kind semantics. Any other error surfaces unchanged.
func Read(r io.ReadSeeker) (*Tree, error) {
	magic, err := rw.ReadU32(r)
	if err != nil {
		return nil, err
	}

	tree := NewTree()
	switch magic {
	case MagicProp:
	case MagicPatch:
		overrideVersion, err := rw.ReadU32(r)
		if err != nil {
			return nil, err
		}
		if overrideVersion != 1 {
			return nil, &InvalidVersionError{Version: overrideVersion}
		}
		// Object count of the override section; not needed to parse.
		if _, err := rw.ReadU32(r); err != nil {
			return nil, err
		}
		inner, err := rw.ReadU32(r)
		if err != nil {
			return nil, err
		}
		if inner != MagicProp {
			return nil, ErrInvalidSignature
		}
		tree.IsOverride = true
	default:
		return nil, ErrInvalidSignature
	}

	version, err := rw.ReadU32(r)
	if err != nil {
		return nil, err
	}
	if version < 1 || version > 3 {
		return nil, &InvalidVersionError{Version: version}
	}
	tree.Version = version

	if version >= 2 {
		depCount, err := rw.ReadU32(r)
		if err != nil {
			return nil, err
		}
		tree.Dependencies = make([]string, 0, depCount)
		for i := uint32(0); i < depCount; i++ {
			dep, err := rw.ReadString16(r)
			if err != nil {
				return nil, err
			}
			tree.Dependencies = append(tree.Dependencies, dep)
		}
	}

	objCount, err := rw.ReadU32(r)
	if err != nil {
		return nil, err
	}
	classHashes := make([]uint32, objCount)
	for i := range classHashes {
		if classHashes[i], err = rw.ReadU32(r); err != nil {
			return nil, err
		}
	}

	objectsStart, err := rw.Tell(r)
	if err != nil {
		return nil, err
	}
	if err := readObjects(r, classHashes, tree.Objects, false); err != nil {
		var kindErr *InvalidKindError
		if !errors.As(err, &kindErr) {
			return nil, err
		}
		// An unknown kind byte is the tell of a pre-WadChunkLink file;
		// rewind and reparse the whole objects section in legacy mode,
		// exactly once.
		if _, err := r.Seek(objectsStart, io.SeekStart); err != nil {
			return nil, err
		}
		if err := readObjects(r, classHashes, tree.Objects, true); err != nil {
			return nil, err
		}
	}

	if tree.IsOverride && version >= 3 {
		count, err := rw.ReadU32(r)
		if err != nil {
			return nil, err
		}
		// Data-override record format is undefined; the count is all that
		// is kept.
		tree.DataOverrideCount = count
	}

	return tree, nil
}

func readObjects(r io.ReadSeeker, classHashes []uint32, objects *ObjectMap, legacy bool) error {
	objects.clear()
	for _, classHash := range classHashes {
		obj, err := readObject(r, classHash, legacy)
		if err != nil {
			return err
		}
		objects.Set(obj)
	}
	return nil
}

// Write emits the tree in the current (version 3) encoding. Legacy-mode
// kind bytes are never produced; reading a legacy file and writing it back
// canonicalizes it.
func (t *Tree) Write(w io.WriteSeeker) error {
	if t.DataOverrideCount > 0 {
		return ErrDataOverridesUnsupported
	}

	if t.IsOverride {
		if err := rw.WriteU32(w, MagicPatch); err != nil {
			return err
		}
		if err := rw.WriteU32(w, 1); err != nil {
			return err
		}
		if err := rw.WriteU32(w, 0); err != nil {
			return err
		}
	}
	if err := rw.WriteU32(w, MagicProp); err != nil {
		return err
	}
	if err := rw.WriteU32(w, 3); err != nil {
		return err
	}

	if err := rw.WriteU32(w, uint32(len(t.Dependencies))); err != nil {
		return err
	}
	for _, dep := range t.Dependencies {
		if err := rw.WriteString16(w, dep); err != nil {
			return err
		}
	}

	objects := t.Objects.Objects()
	if err := rw.WriteU32(w, uint32(len(objects))); err != nil {
		return err
	}
	for _, obj := range objects {
		if err := rw.WriteU32(w, obj.ClassHash); err != nil {
			return err
		}
	}
	for _, obj := range objects {
		if err := writeObject(w, obj); err != nil {
			return err
		}
	}

	if t.IsOverride {
		// Data-override list; always empty, see ErrDataOverridesUnsupported.
		if err := rw.WriteU32(w, 0); err != nil {
			return err
		}
	}
	return nil
}
