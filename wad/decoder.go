package wad

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Decoder loads chunk payloads from a mounted archive's source. It borrows
// the source exclusively; every load re-seeks to the chunk's data offset.
type Decoder struct {
	source io.ReadSeeker
}

// NewDecoder returns a decoder over an arbitrary seekable source. Most
// callers obtain one from [Wad.Decode] instead.
func NewDecoder(source io.ReadSeeker) *Decoder {
	return &Decoder{source: source}
}

// LoadChunkRaw reads the chunk's compressed bytes verbatim.
func (d *Decoder) LoadChunkRaw(chunk *Chunk) ([]byte, error) {
	if _, err := d.source.Seek(int64(chunk.DataOffset), io.SeekStart); err != nil {
		return nil, err
	}
	data := make([]byte, chunk.CompressedSize)
	if _, err := io.ReadFull(d.source, data); err != nil {
		return nil, fmt.Errorf("wad: read chunk %016x: %w", chunk.PathHash, err)
	}
	return data, nil
}

// LoadChunkDecompressed reads and decompresses the chunk's payload.
func (d *Decoder) LoadChunkDecompressed(chunk *Chunk) ([]byte, error) {
	switch chunk.Compression {
	case CompressionNone:
		return d.LoadChunkRaw(chunk)
	case CompressionGZip:
		return d.decodeGzip(chunk)
	case CompressionZstd:
		return d.decodeZstd(chunk)
	case CompressionZstdMulti:
		return d.decodeZstdMulti(chunk)
	case CompressionSatellite:
		return nil, ErrSatelliteUnsupported
	}
	return nil, &InvalidChunkCompressionError{Raw: uint8(chunk.Compression)}
}

// OpenChunk returns a streaming reader producing exactly the chunk's
// uncompressed bytes without buffering the whole payload.
func (d *Decoder) OpenChunk(chunk *Chunk) (io.Reader, error) {
	if _, err := d.source.Seek(int64(chunk.DataOffset), io.SeekStart); err != nil {
		return nil, err
	}
	compressed := io.LimitReader(d.source, int64(chunk.CompressedSize))

	var inner io.Reader
	switch chunk.Compression {
	case CompressionNone:
		inner = compressed
	case CompressionGZip:
		gz, err := gzip.NewReader(compressed)
		if err != nil {
			return nil, &DecompressionError{PathHash: chunk.PathHash, Reason: "open gzip stream", Err: err}
		}
		inner = gz
	case CompressionZstd:
		dec, err := zstd.NewReader(compressed)
		if err != nil {
			return nil, &DecompressionError{PathHash: chunk.PathHash, Reason: "open zstd stream", Err: err}
		}
		inner = dec.IOReadCloser()
	case CompressionZstdMulti:
		inner = NewZstdMultiReader(compressed)
	case CompressionSatellite:
		return nil, ErrSatelliteUnsupported
	default:
		return nil, &InvalidChunkCompressionError{Raw: uint8(chunk.Compression)}
	}

	return io.LimitReader(inner, int64(chunk.UncompressedSize)), nil
}

func (d *Decoder) decodeGzip(chunk *Chunk) ([]byte, error) {
	if _, err := d.source.Seek(int64(chunk.DataOffset), io.SeekStart); err != nil {
		return nil, err
	}
	gz, err := gzip.NewReader(io.LimitReader(d.source, int64(chunk.CompressedSize)))
	if err != nil {
		return nil, &DecompressionError{PathHash: chunk.PathHash, Reason: "open gzip stream", Err: err}
	}
	defer gz.Close()

	data := make([]byte, chunk.UncompressedSize)
	if _, err := io.ReadFull(gz, data); err != nil {
		return nil, &DecompressionError{PathHash: chunk.PathHash, Reason: "gzip decode", Err: err}
	}
	return data, nil
}

func (d *Decoder) decodeZstd(chunk *Chunk) ([]byte, error) {
	raw, err := d.LoadChunkRaw(chunk)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, &DecompressionError{PathHash: chunk.PathHash, Reason: "create zstd decoder", Err: err}
	}
	defer dec.Close()

	data, err := dec.DecodeAll(raw, make([]byte, 0, chunk.UncompressedSize))
	if err != nil {
		return nil, &DecompressionError{PathHash: chunk.PathHash, Reason: "zstd decode", Err: err}
	}
	return data, nil
}

// decodeZstdMulti handles the codec that stores a run of uncompressed bytes
// followed by a zstd frame: everything before the frame magic is copied
// verbatim, the rest is zstd-decoded.
func (d *Decoder) decodeZstdMulti(chunk *Chunk) ([]byte, error) {
	raw, err := d.LoadChunkRaw(chunk)
	if err != nil {
		return nil, err
	}

	magicOff := bytes.Index(raw, zstdMagic)
	if magicOff < 0 {
		return nil, &DecompressionError{PathHash: chunk.PathHash, Reason: "failed to find zstd magic"}
	}

	data := make([]byte, 0, chunk.UncompressedSize)
	data = append(data, raw[:magicOff]...)

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, &DecompressionError{PathHash: chunk.PathHash, Reason: "create zstd decoder", Err: err}
	}
	defer dec.Close()

	data, err = dec.DecodeAll(raw[magicOff:], data)
	if err != nil {
		return nil, &DecompressionError{PathHash: chunk.PathHash, Reason: "zstd decode", Err: err}
	}
	return data, nil
}
