// Package wad reads, writes, and extracts WAD container archives.
//
// A WAD file is a flat archive of chunks keyed by the 64-bit xxhash of their
// lowercased logical path. [Mount] parses the header and table of contents
// and keeps the source handle for on-demand chunk I/O; [Wad.Decode] hands out
// a [Decoder] for loading chunk payloads; [Builder] writes new archives in
// the v3.4 layout; [Extractor] materializes chunks to disk with resolved
// file names.
package wad

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/phanxgames/riftkit/internal/rw"
)

// Compression identifies the codec of a chunk's payload.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionGZip
	CompressionSatellite
	CompressionZstd
	CompressionZstdMulti
)

// String returns the codec name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGZip:
		return "gzip"
	case CompressionSatellite:
		return "satellite"
	case CompressionZstd:
		return "zstd"
	case CompressionZstdMulti:
		return "zstd-multi"
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

// Chunk is a single entry in a WAD table of contents.
type Chunk struct {
	PathHash         uint64
	DataOffset       uint32
	CompressedSize   uint32
	UncompressedSize uint32
	Compression      Compression
	Duplicated       bool
	FrameCount       uint8
	StartFrame       uint32
	// Checksum is the xxh3-64 of the compressed payload.
	Checksum uint64
}

// Wad is a mounted archive. The source handle is retained; all chunk I/O
// re-seeks into it.
type Wad struct {
	major  uint8
	minor  uint8
	chunks map[uint64]Chunk
	hashes []uint64
	source io.ReadSeeker
}

// HashPath returns the chunk identity for a logical path: the xxhash64 of
// the lowercased path.
func HashPath(path string) uint64 {
	return xxhash.Sum64String(strings.ToLower(path))
}

// Mount parses the header and TOC of a WAD from source. Versions 1, 2, and
// 3.x are supported. The TOC must be sorted ascending by path hash with no
// duplicates.
func Mount(source io.ReadSeeker) (*Wad, error) {
	magic, err := rw.ReadU16(source)
	if err != nil {
		return nil, fmt.Errorf("wad: read magic: %w", err)
	}
	if magic != 0x5752 { // "RW"
		return nil, fmt.Errorf("%w: got 0x%x", ErrInvalidHeader, magic)
	}

	major, err := rw.ReadU8(source)
	if err != nil {
		return nil, err
	}
	minor, err := rw.ReadU8(source)
	if err != nil {
		return nil, err
	}
	if major < 1 || major > 3 {
		return nil, &InvalidVersionError{Major: major, Minor: minor}
	}

	// Version-specific header body. The signature and checksum bytes are
	// carried opaquely; nothing here verifies them.
	switch major {
	case 2:
		// ECDSA length byte + 83-byte blob + data checksum.
		if err := rw.Skip(source, 1+83+8); err != nil {
			return nil, err
		}
	case 3:
		// Fixed 256-byte ECDSA signature + checksum (TOC checksum in v3.4).
		if err := rw.Skip(source, 256+8); err != nil {
			return nil, err
		}
	}
	if major == 1 || major == 2 {
		// TOC start offset + entry size, both u16.
		if err := rw.Skip(source, 4); err != nil {
			return nil, err
		}
	}

	count, err := rw.ReadU32(source)
	if err != nil {
		return nil, err
	}

	chunks := make(map[uint64]Chunk, count)
	hashes := make([]uint64, 0, count)
	var prev uint64
	for i := uint32(0); i < count; i++ {
		var chunk Chunk
		if major == 3 && minor == 4 {
			chunk, err = readChunkV34(source)
		} else {
			chunk, err = readChunkV31(source)
		}
		if err != nil {
			return nil, err
		}
		if i > 0 {
			if chunk.PathHash == prev {
				return nil, &DuplicateChunkError{PathHash: chunk.PathHash}
			}
			if chunk.PathHash < prev {
				return nil, &UnsortedChunksError{Previous: prev, Current: chunk.PathHash}
			}
		}
		prev = chunk.PathHash
		chunks[chunk.PathHash] = chunk
		hashes = append(hashes, chunk.PathHash)
	}

	return &Wad{
		major:  major,
		minor:  minor,
		chunks: chunks,
		hashes: hashes,
		source: source,
	}, nil
}

// Version returns the archive's (major, minor) version.
func (w *Wad) Version() (major, minor uint8) {
	return w.major, w.minor
}

// Chunks returns the chunk table keyed by path hash.
func (w *Wad) Chunks() map[uint64]Chunk {
	return w.chunks
}

// Chunk looks up a chunk by path hash.
func (w *Wad) Chunk(pathHash uint64) (Chunk, bool) {
	c, ok := w.chunks[pathHash]
	return c, ok
}

// ChunkByPath looks up a chunk by logical path.
func (w *Wad) ChunkByPath(path string) (Chunk, bool) {
	return w.Chunk(HashPath(path))
}

// PathHashes returns the chunk hashes in ascending TOC order.
func (w *Wad) PathHashes() []uint64 {
	out := make([]uint64, len(w.hashes))
	copy(out, w.hashes)
	return out
}

// Decode returns a decoder borrowing the archive's source, plus the chunk
// table to drive it with.
func (w *Wad) Decode() (*Decoder, map[uint64]Chunk) {
	return &Decoder{source: w.source}, w.chunks
}

// sortedChunks returns the chunks ordered by path hash.
func sortedChunks(chunks map[uint64]Chunk) []Chunk {
	out := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PathHash < out[j].PathHash })
	return out
}
