package modpkg

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/xxh3"

	"github.com/phanxgames/riftkit/internal/rw"
)

// ChunkBuilder describes one logical chunk to be written.
type ChunkBuilder struct {
	pathHash    uint64
	path        string
	compression Compression
	layer       string
}

// NewChunk starts a chunk builder for a logical path in the base layer.
// The path is lowercased; a 16-hex-digit stem is treated as an already
// hashed name and parsed instead of re-hashed.
func NewChunk(path string) (ChunkBuilder, error) {
	path = strings.ToLower(path)
	stem := path
	if i := strings.IndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}

	c := ChunkBuilder{path: path, layer: BaseLayer}
	if isHexName(stem) {
		var hash uint64
		if _, err := fmt.Sscanf(stem, "%x", &hash); err != nil {
			return c, fmt.Errorf("modpkg: invalid chunk name %q: %w", path, err)
		}
		c.pathHash = hash
	} else {
		c.pathHash = HashChunkPath(path)
	}
	return c, nil
}

// WithCompression sets the chunk's codec.
func (c ChunkBuilder) WithCompression(compression Compression) ChunkBuilder {
	c.compression = compression
	return c
}

// WithLayer places the chunk in the named layer.
func (c ChunkBuilder) WithLayer(layer string) ChunkBuilder {
	c.layer = layer
	return c
}

// PathHash returns the chunk's identity.
func (c ChunkBuilder) PathHash() uint64 { return c.pathHash }

// Path returns the chunk's lowercased logical path.
func (c ChunkBuilder) Path() string { return c.path }

// LayerName returns the chunk's layer.
func (c ChunkBuilder) LayerName() string { return c.layer }

// Builder assembles a modpkg archive.
type Builder struct {
	metadata Metadata
	wadPaths []string
	layers   []Layer
	chunks   []ChunkBuilder
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithMetadata sets the mod metadata block.
func (b *Builder) WithMetadata(metadata Metadata) *Builder {
	b.metadata = metadata
	return b
}

// WithWadPath records a game WAD this mod targets.
func (b *Builder) WithWadPath(path string) *Builder {
	b.wadPaths = append(b.wadPaths, path)
	return b
}

// WithLayer declares a layer.
func (b *Builder) WithLayer(name string, priority int32) *Builder {
	b.layers = append(b.layers, Layer{Name: name, Priority: priority})
	return b
}

// WithBaseLayer declares the mandatory base layer at priority 0.
func (b *Builder) WithBaseLayer() *Builder {
	return b.WithLayer(BaseLayer, 0)
}

// WithChunk adds a chunk.
func (b *Builder) WithChunk(chunk ChunkBuilder) *Builder {
	b.chunks = append(b.chunks, chunk)
	return b
}

// ChunkDataFunc synthesizes one chunk's uncompressed bytes into w.
type ChunkDataFunc func(chunk ChunkBuilder, w io.Writer) error

// Build validates the layer set and writes the archive: framing, sections,
// 8-byte-aligned payload region, then the TOC sorted by (path hash, layer
// hash) at the end of the file.
func (b *Builder) Build(w io.WriteSeeker, provide ChunkDataFunc) error {
	if err := b.validateLayers(); err != nil {
		return err
	}

	metadataBytes, err := encodeToBuffer(b.metadata.write)
	if err != nil {
		return err
	}
	// Signature scheme is unspecified; written empty.
	var signature []byte
	chunkPathBytes, err := encodeToBuffer(func(w io.Writer) error {
		return writeStringList(w, b.uniqueChunkPaths())
	})
	if err != nil {
		return err
	}
	wadPathBytes, err := encodeToBuffer(func(w io.Writer) error {
		return writeStringList(w, b.wadPaths)
	})
	if err != nil {
		return err
	}
	layerBytes, err := encodeToBuffer(b.writeLayers)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, Magic); err != nil {
		return err
	}
	if err := rw.WriteU32(w, Version); err != nil {
		return err
	}
	if err := rw.WriteU32(w, headerSize); err != nil {
		return err
	}
	for _, size := range []int{len(metadataBytes), len(signature), len(chunkPathBytes), len(wadPathBytes), len(layerBytes)} {
		if err := rw.WriteU32(w, uint32(size)); err != nil {
			return err
		}
	}
	if err := rw.WriteU32(w, uint32(len(b.chunks))); err != nil {
		return err
	}
	for _, section := range [][]byte{metadataBytes, signature, chunkPathBytes, wadPathBytes, layerBytes} {
		if _, err := w.Write(section); err != nil {
			return err
		}
	}

	// Align the payload region to 8 bytes.
	pos, err := rw.Tell(w)
	if err != nil {
		return err
	}
	if pad := (8 - pos%8) % 8; pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return err
		}
	}

	pathIndices := b.chunkPathIndices()
	final := make([]Chunk, 0, len(b.chunks))
	var scratch bytes.Buffer
	for _, chunk := range b.chunks {
		scratch.Reset()
		if err := provide(chunk, &scratch); err != nil {
			return fmt.Errorf("modpkg: chunk %016x data: %w", chunk.pathHash, err)
		}
		uncompressed := scratch.Bytes()
		uncompressedChecksum := xxh3.Hash(uncompressed)

		compressed, err := compress(uncompressed, chunk.compression)
		if err != nil {
			return fmt.Errorf("modpkg: compress chunk %016x: %w", chunk.pathHash, err)
		}

		dataOffset, err := rw.Tell(w)
		if err != nil {
			return err
		}
		if _, err := w.Write(compressed); err != nil {
			return err
		}

		final = append(final, Chunk{
			PathHash:             chunk.pathHash,
			DataOffset:           uint64(dataOffset),
			Compression:          chunk.compression,
			CompressedSize:       uint64(len(compressed)),
			UncompressedSize:     uint64(len(uncompressed)),
			CompressedChecksum:   xxh3.Hash(compressed),
			UncompressedChecksum: uncompressedChecksum,
			PathIndex:            pathIndices[chunk.pathHash],
			LayerHash:            HashLayer(chunk.layer),
		})
	}

	sort.Slice(final, func(i, j int) bool {
		if final[i].PathHash != final[j].PathHash {
			return final[i].PathHash < final[j].PathHash
		}
		return final[i].LayerHash < final[j].LayerHash
	})
	for i := range final {
		if err := writeChunk(w, &final[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateLayers checks that the base layer exists, every declared name is
// a valid slug, and every layer referenced by a chunk is declared.
func (b *Builder) validateLayers() error {
	declared := make(map[string]bool, len(b.layers))
	for _, layer := range b.layers {
		if !IsValidLayerName(layer.Name) {
			return &InvalidLayerNameError{Name: layer.Name}
		}
		declared[layer.Name] = true
	}
	if !declared[BaseLayer] {
		return ErrMissingBaseLayer
	}
	for _, chunk := range b.chunks {
		if !declared[chunk.layer] {
			return &LayerNotFoundError{Name: chunk.layer}
		}
	}
	return nil
}

// uniqueChunkPaths returns each distinct chunk path once, in first-seen
// order.
func (b *Builder) uniqueChunkPaths() []string {
	seen := make(map[uint64]bool, len(b.chunks))
	out := make([]string, 0, len(b.chunks))
	for _, chunk := range b.chunks {
		if !seen[chunk.pathHash] {
			seen[chunk.pathHash] = true
			out = append(out, chunk.path)
		}
	}
	return out
}

func (b *Builder) chunkPathIndices() map[uint64]uint32 {
	indices := make(map[uint64]uint32, len(b.chunks))
	next := uint32(0)
	for _, chunk := range b.chunks {
		if _, ok := indices[chunk.pathHash]; !ok {
			indices[chunk.pathHash] = next
			next++
		}
	}
	return indices
}

func (b *Builder) writeLayers(w io.Writer) error {
	if err := rw.WriteU32(w, uint32(len(b.layers))); err != nil {
		return err
	}
	for _, layer := range b.layers {
		if err := rw.WriteString32(w, layer.Name); err != nil {
			return err
		}
		if err := rw.WriteI32(w, layer.Priority); err != nil {
			return err
		}
	}
	return nil
}

func writeStringList(w io.Writer, list []string) error {
	if err := rw.WriteU32(w, uint32(len(list))); err != nil {
		return err
	}
	for _, s := range list {
		if err := rw.WriteString32(w, s); err != nil {
			return err
		}
	}
	return nil
}

func encodeToBuffer(fn func(io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func compress(data []byte, compression Compression) ([]byte, error) {
	switch compression {
	case CompressionNone:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		out := enc.EncodeAll(data, nil)
		enc.Close()
		return out, nil
	}
	return nil, &InvalidChunkCompressionError{Raw: uint32(compression)}
}

func isHexName(s string) bool {
	if len(s) != 16 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
