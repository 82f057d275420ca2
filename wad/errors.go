package wad

import (
	"errors"
	"fmt"
)

// ErrInvalidHeader is returned when the file does not start with "RW".
var ErrInvalidHeader = errors.New("wad: invalid header magic")

// ErrSatelliteUnsupported is returned when decoding a chunk that uses the
// deprecated satellite codec.
var ErrSatelliteUnsupported = errors.New("wad: satellite chunks are not supported")

// InvalidVersionError is returned for version numbers outside 1–3.
type InvalidVersionError struct {
	Major, Minor uint8
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("wad: invalid version %d.%d", e.Major, e.Minor)
}

// InvalidChunkCompressionError is returned when a TOC entry carries an
// unrecognized codec tag.
type InvalidChunkCompressionError struct {
	Raw uint8
}

func (e *InvalidChunkCompressionError) Error() string {
	return fmt.Sprintf("wad: invalid chunk compression %d", e.Raw)
}

// DuplicateChunkError is returned when two TOC entries share a path hash.
type DuplicateChunkError struct {
	PathHash uint64
}

func (e *DuplicateChunkError) Error() string {
	return fmt.Sprintf("wad: duplicate chunk %016x", e.PathHash)
}

// UnsortedChunksError is returned when the TOC is not sorted ascending by
// path hash.
type UnsortedChunksError struct {
	Previous, Current uint64
}

func (e *UnsortedChunksError) Error() string {
	return fmt.Sprintf("wad: unsorted chunks: %016x after %016x", e.Current, e.Previous)
}

// DecompressionError wraps a codec failure with the owning chunk.
type DecompressionError struct {
	PathHash uint64
	Reason   string
	Err      error
}

func (e *DecompressionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wad: decompress chunk %016x: %s: %v", e.PathHash, e.Reason, e.Err)
	}
	return fmt.Sprintf("wad: decompress chunk %016x: %s", e.PathHash, e.Reason)
}

func (e *DecompressionError) Unwrap() error { return e.Err }
