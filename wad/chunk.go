package wad

import (
	"io"

	"github.com/phanxgames/riftkit/internal/rw"
)

// readChunkV31 parses the 32-byte entry layout shared by v1, v2, and
// v3.0–3.3 archives.
func readChunkV31(r io.Reader) (Chunk, error) {
	var c Chunk
	var err error
	if c.PathHash, err = rw.ReadU64(r); err != nil {
		return c, err
	}
	if c.DataOffset, err = rw.ReadU32(r); err != nil {
		return c, err
	}
	if c.CompressedSize, err = rw.ReadU32(r); err != nil {
		return c, err
	}
	if c.UncompressedSize, err = rw.ReadU32(r); err != nil {
		return c, err
	}

	typeFrameCount, err := rw.ReadU8(r)
	if err != nil {
		return c, err
	}
	c.FrameCount = typeFrameCount >> 4
	if typeFrameCount&0xF > uint8(CompressionZstdMulti) {
		return c, &InvalidChunkCompressionError{Raw: typeFrameCount & 0xF}
	}
	c.Compression = Compression(typeFrameCount & 0xF)

	duplicated, err := rw.ReadU8(r)
	if err != nil {
		return c, err
	}
	c.Duplicated = duplicated == 1

	startFrame, err := rw.ReadU16(r)
	if err != nil {
		return c, err
	}
	c.StartFrame = uint32(startFrame)

	c.Checksum, err = rw.ReadU64(r)
	return c, err
}

// readChunkV34 parses the v3.4 entry: the duplicated flag is gone and the
// start frame widens to 24 bits.
func readChunkV34(r io.Reader) (Chunk, error) {
	var c Chunk
	var err error
	if c.PathHash, err = rw.ReadU64(r); err != nil {
		return c, err
	}
	if c.DataOffset, err = rw.ReadU32(r); err != nil {
		return c, err
	}
	if c.CompressedSize, err = rw.ReadU32(r); err != nil {
		return c, err
	}
	if c.UncompressedSize, err = rw.ReadU32(r); err != nil {
		return c, err
	}

	typeFrameCount, err := rw.ReadU8(r)
	if err != nil {
		return c, err
	}
	c.FrameCount = typeFrameCount >> 4
	if typeFrameCount&0xF > uint8(CompressionZstdMulti) {
		return c, &InvalidChunkCompressionError{Raw: typeFrameCount & 0xF}
	}
	c.Compression = Compression(typeFrameCount & 0xF)

	if c.StartFrame, err = readStartFrame24(r); err != nil {
		return c, err
	}

	c.Checksum, err = rw.ReadU64(r)
	return c, err
}

// writeV34 emits the 32-byte v3.4 entry.
func (c *Chunk) writeV34(w io.Writer) error {
	if err := rw.WriteU64(w, c.PathHash); err != nil {
		return err
	}
	if err := rw.WriteU32(w, c.DataOffset); err != nil {
		return err
	}
	if err := rw.WriteU32(w, c.CompressedSize); err != nil {
		return err
	}
	if err := rw.WriteU32(w, c.UncompressedSize); err != nil {
		return err
	}
	if err := rw.WriteU8(w, c.FrameCount<<4|uint8(c.Compression)&0xF); err != nil {
		return err
	}
	if err := writeStartFrame24(w, c.StartFrame); err != nil {
		return err
	}
	return rw.WriteU64(w, c.Checksum)
}

// readStartFrame24 reads the 24-bit subchunk start frame. The on-disk byte
// order is [hi, lo, mid] and must be preserved bit-exactly.
func readStartFrame24(r io.Reader) (uint32, error) {
	hi, err := rw.ReadU8(r)
	if err != nil {
		return 0, err
	}
	lo, err := rw.ReadU8(r)
	if err != nil {
		return 0, err
	}
	mid, err := rw.ReadU8(r)
	if err != nil {
		return 0, err
	}
	return uint32(hi)<<16 | uint32(mid)<<8 | uint32(lo), nil
}

func writeStartFrame24(w io.Writer, startFrame uint32) error {
	if err := rw.WriteU8(w, uint8(startFrame>>16)); err != nil {
		return err
	}
	if err := rw.WriteU8(w, uint8(startFrame)); err != nil {
		return err
	}
	return rw.WriteU8(w, uint8(startFrame>>8))
}
