package modpkg

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Decoder loads chunk payloads from a mounted archive's source.
type Decoder struct {
	source io.ReadSeeker
}

// LoadChunkRaw reads the chunk's compressed bytes verbatim.
func (d *Decoder) LoadChunkRaw(chunk *Chunk) ([]byte, error) {
	if _, err := d.source.Seek(int64(chunk.DataOffset), io.SeekStart); err != nil {
		return nil, err
	}
	data := make([]byte, chunk.CompressedSize)
	if _, err := io.ReadFull(d.source, data); err != nil {
		return nil, fmt.Errorf("modpkg: read chunk %016x: %w", chunk.PathHash, err)
	}
	return data, nil
}

// LoadChunkDecompressed reads and decompresses the chunk's payload.
func (d *Decoder) LoadChunkDecompressed(chunk *Chunk) ([]byte, error) {
	raw, err := d.LoadChunkRaw(chunk)
	if err != nil {
		return nil, err
	}
	switch chunk.Compression {
	case CompressionNone:
		return raw, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		data, err := dec.DecodeAll(raw, make([]byte, 0, chunk.UncompressedSize))
		if err != nil {
			return nil, fmt.Errorf("modpkg: zstd decode chunk %016x: %w", chunk.PathHash, err)
		}
		return data, nil
	}
	return nil, &InvalidChunkCompressionError{Raw: uint32(chunk.Compression)}
}
