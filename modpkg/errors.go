package modpkg

import (
	"errors"
	"fmt"
)

// ErrInvalidMagic is returned when the file does not start with "_modpkg_".
var ErrInvalidMagic = errors.New("modpkg: invalid magic")

// ErrMissingBaseLayer is returned when the layer list lacks "base".
var ErrMissingBaseLayer = errors.New("modpkg: missing base layer")

// InvalidVersionError is returned for unsupported format versions.
type InvalidVersionError struct {
	Version uint32
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("modpkg: invalid version %d", e.Version)
}

// InvalidHeaderSizeError is returned when the declared header size does not
// match the parsed framing.
type InvalidHeaderSizeError struct {
	Declared uint32
	Actual   int64
}

func (e *InvalidHeaderSizeError) Error() string {
	return fmt.Sprintf("modpkg: header size %d does not match framing end %d", e.Declared, e.Actual)
}

// InvalidChunkCompressionError is returned when a TOC entry carries an
// unrecognized codec tag.
type InvalidChunkCompressionError struct {
	Raw uint32
}

func (e *InvalidChunkCompressionError) Error() string {
	return fmt.Sprintf("modpkg: invalid chunk compression %d", e.Raw)
}

// DuplicateChunkError is returned when two TOC entries share both path and
// layer hash.
type DuplicateChunkError struct {
	PathHash  uint64
	LayerHash uint64
}

func (e *DuplicateChunkError) Error() string {
	return fmt.Sprintf("modpkg: duplicate chunk %016x in layer %016x", e.PathHash, e.LayerHash)
}

// UnsortedChunksError is returned when the TOC regresses in path hash.
type UnsortedChunksError struct {
	Previous, Current uint64
}

func (e *UnsortedChunksError) Error() string {
	return fmt.Sprintf("modpkg: unsorted chunks: %016x after %016x", e.Current, e.Previous)
}

// LayerNotFoundError is returned when a chunk references an undeclared layer.
type LayerNotFoundError struct {
	Name string
}

func (e *LayerNotFoundError) Error() string {
	return fmt.Sprintf("modpkg: layer not found: %s", e.Name)
}

// InvalidLayerNameError is returned for declared layer names that are not
// valid slugs.
type InvalidLayerNameError struct {
	Name string
}

func (e *InvalidLayerNameError) Error() string {
	return fmt.Sprintf("modpkg: invalid layer name: %q", e.Name)
}

// MissingChunkError is returned when a chunk path cannot be resolved.
type MissingChunkError struct {
	PathHash uint64
}

func (e *MissingChunkError) Error() string {
	return fmt.Sprintf("modpkg: missing chunk %016x", e.PathHash)
}
