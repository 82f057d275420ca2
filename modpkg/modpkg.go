// Package modpkg reads and writes the layered MODPKG modding archive.
//
// A modpkg is a WAD-like container with one extra axis: every chunk belongs
// to a named layer, and the same logical path may appear once per layer.
// Higher-priority layers shadow lower ones when a mod is applied. The
// mandatory "base" layer holds the default content.
package modpkg

import (
	"fmt"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/xxh3"
)

// Magic is the 8-byte file magic.
const Magic = "_modpkg_"

// Version is the only supported format version.
const Version = 1

// BaseLayer is the reserved name of the mandatory base layer.
const BaseLayer = "base"

// headerSize is the fixed byte length of the framing before the sections.
const headerSize = 8 + 4 + 4*6 + 4

// chunkSize is the on-disk size of one TOC entry.
const chunkSize = 64

// Compression identifies the codec of a chunk's payload. Modpkg supports
// only raw and zstd storage.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
)

// String returns the codec name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

// HashChunkPath returns the chunk identity for a logical path: xxhash64 of
// the lowercased path.
func HashChunkPath(path string) uint64 {
	return xxhash.Sum64String(strings.ToLower(path))
}

// HashLayer returns the identity of a layer name: xxh3-64 of the name.
func HashLayer(name string) uint64 {
	return xxh3.HashString(name)
}

// ChunkKey identifies a chunk inside the archive. The same path may appear
// once per layer.
type ChunkKey struct {
	PathHash  uint64
	LayerHash uint64
}

// Chunk is one entry in the modpkg TOC.
type Chunk struct {
	PathHash             uint64
	DataOffset           uint64
	Compression          Compression
	CompressedSize       uint64
	UncompressedSize     uint64
	CompressedChecksum   uint64
	UncompressedChecksum uint64
	PathIndex            uint32
	LayerHash            uint64
}

// Key returns the chunk's (path, layer) identity.
func (c *Chunk) Key() ChunkKey {
	return ChunkKey{PathHash: c.PathHash, LayerHash: c.LayerHash}
}

// Layer is a named priority bucket. Higher priority shadows lower.
type Layer struct {
	Name     string
	Priority int32
}

// Modpkg is a mounted archive. The source handle is retained for chunk I/O.
type Modpkg struct {
	metadata   Metadata
	signature  []byte
	chunkPaths map[uint64]string
	wadPaths   []string
	layers     map[uint64]Layer
	chunks     map[ChunkKey]Chunk
	keys       []ChunkKey
	source     io.ReadSeeker
}

// Metadata returns the mod metadata block.
func (m *Modpkg) Metadata() Metadata { return m.metadata }

// Signature returns the opaque signature bytes. The signing scheme is not
// specified; the bytes are carried as-is.
func (m *Modpkg) Signature() []byte { return m.signature }

// Chunks returns the TOC keyed by (path hash, layer hash).
func (m *Modpkg) Chunks() map[ChunkKey]Chunk { return m.chunks }

// ChunkKeys returns the TOC keys in on-disk order.
func (m *Modpkg) ChunkKeys() []ChunkKey {
	out := make([]ChunkKey, len(m.keys))
	copy(out, m.keys)
	return out
}

// Layers returns the declared layers keyed by layer hash.
func (m *Modpkg) Layers() map[uint64]Layer { return m.layers }

// ChunkPaths returns the resolved chunk paths keyed by path hash.
func (m *Modpkg) ChunkPaths() map[uint64]string { return m.chunkPaths }

// WadPaths returns the game WAD paths this mod targets.
func (m *Modpkg) WadPaths() []string { return m.wadPaths }

// Chunk looks up a chunk by logical path and layer name.
func (m *Modpkg) Chunk(path, layer string) (Chunk, bool) {
	c, ok := m.chunks[ChunkKey{PathHash: HashChunkPath(path), LayerHash: HashLayer(layer)}]
	return c, ok
}

// Decoder returns a decoder borrowing the archive's source.
func (m *Modpkg) Decoder() *Decoder {
	return &Decoder{source: m.source}
}

// IsValidLayerName reports whether name is a valid layer slug: lowercase
// alphanumeric plus '_' and '-'.
func IsValidLayerName(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}
