package bin

import (
	"errors"
	"fmt"
)

// ErrInvalidSignature is returned when the outer magic is neither PROP nor
// PTCH, or a PTCH wrapper does not contain a PROP body.
var ErrInvalidSignature = errors.New("bin: invalid file signature")

// ErrDataOverridesUnsupported is returned when writing a tree that carries
// data-override records; their format is not defined, so round-tripping
// them would be a lie.
var ErrDataOverridesUnsupported = errors.New("bin: data overrides cannot be written")

// InvalidVersionError is returned for file versions outside 1–3, or an
// override version other than 1.
type InvalidVersionError struct {
	Version uint32
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("bin: invalid file version %d", e.Version)
}

// InvalidKindError is returned for a kind byte that names no known kind.
// The tree reader treats it as the signal to retry in legacy mode.
type InvalidKindError struct {
	Raw uint8
}

func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("bin: invalid property kind %d", e.Raw)
}

// InvalidSizeError is returned when a size prefix does not match the bytes
// actually consumed or produced by the value's body.
type InvalidSizeError struct {
	Declared uint32
	Actual   int64
}

func (e *InvalidSizeError) Error() string {
	return fmt.Sprintf("bin: declared size %d does not match actual size %d", e.Declared, e.Actual)
}

// InvalidNestingError is returned when a container kind appears where
// containers are disallowed (inside a container, optional, or map value).
type InvalidNestingError struct {
	Kind Kind
}

func (e *InvalidNestingError) Error() string {
	return fmt.Sprintf("bin: invalid nesting of %s", e.Kind)
}

// InvalidKeyKindError is returned when a map key kind is not primitive.
type InvalidKeyKindError struct {
	Kind Kind
}

func (e *InvalidKeyKindError) Error() string {
	return fmt.Sprintf("bin: invalid map key kind %s", e.Kind)
}

// ErrEmptyContainer is returned when constructing a container from an empty
// value list, where the item kind cannot be inferred.
var ErrEmptyContainer = errors.New("bin: cannot infer item kind of empty container")

// MismatchedKindsError is returned when a constructed container or map
// holds a value of the wrong kind.
type MismatchedKindsError struct {
	Expected, Got Kind
}

func (e *MismatchedKindsError) Error() string {
	return fmt.Sprintf("bin: mismatched kinds: expected %s, got %s", e.Expected, e.Got)
}
