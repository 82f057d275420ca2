package wad

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"

	"github.com/phanxgames/riftkit/internal/rw"
	"github.com/phanxgames/riftkit/ltkfile"
)

// IdealCompression maps a file kind to the codec the builder picks when a
// chunk has no forced compression. Formats that carry their own compression
// are stored raw; everything else goes through zstd.
func IdealCompression(kind ltkfile.Kind) Compression {
	if kind.AlreadyCompressed() {
		return CompressionNone
	}
	return CompressionZstd
}

// ChunkBuilder describes one logical chunk to be written.
type ChunkBuilder struct {
	pathHash uint64
	forced   Compression
	hasForce bool
}

// NewChunk starts a chunk builder for a logical path. The path is lowercased
// and hashed with xxhash64.
func NewChunk(path string) ChunkBuilder {
	return ChunkBuilder{pathHash: HashPath(path)}
}

// NewChunkHash starts a chunk builder for an already-computed path hash.
func NewChunkHash(pathHash uint64) ChunkBuilder {
	return ChunkBuilder{pathHash: pathHash}
}

// WithCompression forces the chunk's codec instead of inferring it from the
// payload's file kind.
func (c ChunkBuilder) WithCompression(compression Compression) ChunkBuilder {
	c.forced = compression
	c.hasForce = true
	return c
}

// PathHash returns the chunk's identity.
func (c ChunkBuilder) PathHash() uint64 { return c.pathHash }

// Builder assembles a v3.4 WAD. Chunk payloads are synthesized on demand by
// a callback during [Builder.Build], so nothing is buffered ahead of time.
type Builder struct {
	chunks    map[uint64]ChunkBuilder
	signature *[256]byte
	logger    zerolog.Logger
}

// NewBuilder returns an empty builder with logging disabled.
func NewBuilder() *Builder {
	return &Builder{
		chunks: make(map[uint64]ChunkBuilder),
		logger: zerolog.Nop(),
	}
}

// WithChunk adds a chunk. Adding the same path hash twice replaces the
// earlier entry.
func (b *Builder) WithChunk(chunk ChunkBuilder) *Builder {
	b.chunks[chunk.pathHash] = chunk
	return b
}

// WithSignature sets the 256-byte ECDSA signature blob. The bytes are
// carried opaquely; without one the field is zero-filled.
func (b *Builder) WithSignature(signature [256]byte) *Builder {
	b.signature = &signature
	return b
}

// WithLogger enables build-time debug logging.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// ChunkDataFunc synthesizes the uncompressed bytes of one chunk, identified
// by path hash, into w.
type ChunkDataFunc func(pathHash uint64, w io.Writer) error

// Build writes the archive. Chunks are processed in ascending path-hash
// order; for each one the callback provides the uncompressed payload, the
// codec is chosen (forced or inferred from the payload's kind), and the
// compressed bytes are written. A rolling xxh3 TOC checksum, seeded with
// the magic bytes, folds in each (path hash, compressed checksum) pair and
// is patched into the header at the end along with the real TOC.
func (b *Builder) Build(w io.WriteSeeker, provide ChunkDataFunc) error {
	// Header and TOC are placeholders until the chunk offsets are known.
	if err := rw.WriteU16(w, 0x5752); err != nil {
		return err
	}
	if err := rw.WriteU8(w, 3); err != nil {
		return err
	}
	if err := rw.WriteU8(w, 4); err != nil {
		return err
	}
	var signature [256]byte
	if b.signature != nil {
		signature = *b.signature
	}
	if _, err := w.Write(signature[:]); err != nil {
		return err
	}
	checksumOffset, err := rw.Tell(w)
	if err != nil {
		return err
	}
	if err := rw.WriteU64(w, 0); err != nil {
		return err
	}
	if err := rw.WriteU32(w, uint32(len(b.chunks))); err != nil {
		return err
	}
	tocOffset, err := rw.Tell(w)
	if err != nil {
		return err
	}
	placeholder := make([]byte, 32)
	for range b.chunks {
		if _, err := w.Write(placeholder); err != nil {
			return err
		}
	}

	ordered := make([]ChunkBuilder, 0, len(b.chunks))
	for _, c := range b.chunks {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].pathHash < ordered[j].pathHash })

	tocChecksum := xxh3.New()
	tocChecksum.Write([]byte{0x52, 0x57, 3, 4})

	final := make([]Chunk, 0, len(ordered))
	var scratch bytes.Buffer
	var hashBuf [8]byte
	for _, chunk := range ordered {
		scratch.Reset()
		if err := provide(chunk.pathHash, &scratch); err != nil {
			return fmt.Errorf("wad: chunk %016x data: %w", chunk.pathHash, err)
		}
		uncompressed := scratch.Bytes()

		compression := b.pickCompression(chunk, uncompressed)
		compressed, err := compress(uncompressed, compression)
		if err != nil {
			return fmt.Errorf("wad: compress chunk %016x: %w", chunk.pathHash, err)
		}
		checksum := xxh3.Hash(compressed)

		dataOffset, err := rw.Tell(w)
		if err != nil {
			return err
		}
		if _, err := w.Write(compressed); err != nil {
			return err
		}

		putU64LE(hashBuf[:], chunk.pathHash)
		tocChecksum.Write(hashBuf[:])
		putU64LE(hashBuf[:], checksum)
		tocChecksum.Write(hashBuf[:])

		b.logger.Debug().
			Uint64("path_hash", chunk.pathHash).
			Stringer("compression", compression).
			Int("compressed_size", len(compressed)).
			Int("uncompressed_size", len(uncompressed)).
			Msg("wrote chunk")

		final = append(final, Chunk{
			PathHash:         chunk.pathHash,
			DataOffset:       uint32(dataOffset),
			CompressedSize:   uint32(len(compressed)),
			UncompressedSize: uint32(len(uncompressed)),
			Compression:      compression,
			Checksum:         checksum,
		})
	}

	if err := rw.PatchU64At(w, checksumOffset, tocChecksum.Sum64()); err != nil {
		return err
	}
	if _, err := w.Seek(tocOffset, io.SeekStart); err != nil {
		return err
	}
	for i := range final {
		if err := final[i].writeV34(w); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) pickCompression(chunk ChunkBuilder, data []byte) Compression {
	if chunk.hasForce {
		return chunk.forced
	}
	return IdealCompression(ltkfile.IdentifyBytes(data))
}

func compress(data []byte, compression Compression) ([]byte, error) {
	switch compression {
	case CompressionNone:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case CompressionGZip:
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(data); err != nil {
			return nil, err
		}
		if err := gz.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		out := enc.EncodeAll(data, nil)
		enc.Close()
		return out, nil
	}
	return nil, fmt.Errorf("unsupported compression type: %s", compression)
}

func putU64LE(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
