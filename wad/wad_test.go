package wad

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/xxh3"

	"github.com/phanxgames/riftkit/internal/rw"
	"github.com/phanxgames/riftkit/ltkfile"
)

// writeSeekBuffer adapts a byte slice into an io.WriteSeeker for builders.
type writeSeekBuffer struct {
	data []byte
	pos  int64
}

func (b *writeSeekBuffer) Write(p []byte) (int, error) {
	if need := int(b.pos) + len(p); need > len(b.data) {
		b.data = append(b.data, make([]byte, need-len(b.data))...)
	}
	copy(b.data[b.pos:], p)
	b.pos += int64(len(p))
	return len(p), nil
}

func (b *writeSeekBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		b.pos = offset
	case io.SeekCurrent:
		b.pos += offset
	case io.SeekEnd:
		b.pos = int64(len(b.data)) + offset
	}
	return b.pos, nil
}

func buildTestWad(t *testing.T) []byte {
	t.Helper()
	var out writeSeekBuffer
	builder := NewBuilder().
		WithChunk(NewChunk("a").WithCompression(CompressionZstd)).
		WithChunk(NewChunk("b").WithCompression(CompressionZstd))

	err := builder.Build(&out, func(pathHash uint64, w io.Writer) error {
		switch pathHash {
		case HashPath("a"):
			_, err := w.Write(bytes.Repeat([]byte{0xAA}, 100))
			return err
		case HashPath("b"):
			_, err := w.Write(bytes.Repeat([]byte{0xBB}, 50))
			return err
		}
		t.Fatalf("unexpected chunk %016x", pathHash)
		return nil
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return out.data
}

func TestBuildAndMount(t *testing.T) {
	data := buildTestWad(t)
	wad, err := Mount(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	if major, minor := wad.Version(); major != 3 || minor != 4 {
		t.Errorf("version = %d.%d, want 3.4", major, minor)
	}
	if len(wad.Chunks()) != 2 {
		t.Fatalf("chunk count = %d, want 2", len(wad.Chunks()))
	}

	a, ok := wad.ChunkByPath("a")
	if !ok {
		t.Fatal("chunk a missing")
	}
	if a.UncompressedSize != 100 {
		t.Errorf("a uncompressed size = %d, want 100", a.UncompressedSize)
	}
	if a.Compression != CompressionZstd {
		t.Errorf("a compression = %v, want zstd", a.Compression)
	}

	b, ok := wad.ChunkByPath("b")
	if !ok {
		t.Fatal("chunk b missing")
	}
	// A homogeneous fill must compress below its raw size.
	if b.CompressedSize >= 50 {
		t.Errorf("b compressed size = %d, want < 50", b.CompressedSize)
	}
	if b.Compression != CompressionZstd {
		t.Errorf("b compression = %v, want zstd", b.Compression)
	}

	// TOC checksum: seeded with the magic bytes, then (hash, checksum)
	// pairs in TOC order.
	decoder, chunks := wad.Decode()
	hasher := xxh3.New()
	hasher.Write([]byte{0x52, 0x57, 3, 4})
	for _, hash := range wad.PathHashes() {
		chunk := chunks[hash]
		raw, err := decoder.LoadChunkRaw(&chunk)
		if err != nil {
			t.Fatalf("LoadChunkRaw: %v", err)
		}
		if got := xxh3.Hash(raw); got != chunk.Checksum {
			t.Errorf("chunk %016x checksum = %016x, want %016x", hash, got, chunk.Checksum)
		}
		var buf [8]byte
		putU64LE(buf[:], hash)
		hasher.Write(buf[:])
		putU64LE(buf[:], chunk.Checksum)
		hasher.Write(buf[:])
	}
	r := bytes.NewReader(data)
	r.Seek(2+1+1+256, io.SeekStart)
	stored, err := rw.ReadU64(r)
	if err != nil {
		t.Fatal(err)
	}
	if stored != hasher.Sum64() {
		t.Errorf("TOC checksum = %016x, want %016x", stored, hasher.Sum64())
	}

	// Decompressed payloads round-trip.
	got, err := decoder.LoadChunkDecompressed(&a)
	if err != nil {
		t.Fatalf("LoadChunkDecompressed: %v", err)
	}
	if !bytes.Equal(got, bytes.Repeat([]byte{0xAA}, 100)) {
		t.Error("chunk a payload mismatch")
	}
}

func TestMountRejectsBadMagic(t *testing.T) {
	_, err := Mount(bytes.NewReader([]byte("XX\x03\x04")))
	if !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("err = %v, want ErrInvalidHeader", err)
	}
}

func TestMountRejectsBadVersion(t *testing.T) {
	_, err := Mount(bytes.NewReader([]byte{'R', 'W', 9, 0}))
	var verr *InvalidVersionError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want InvalidVersionError", err)
	}
	if verr.Major != 9 {
		t.Errorf("major = %d, want 9", verr.Major)
	}
}

// rawWadV34 builds a v3.4 file from raw TOC entries, for invariant tests.
func rawWadV34(t *testing.T, chunks []Chunk) []byte {
	t.Helper()
	var out writeSeekBuffer
	if err := rw.WriteU16(&out, 0x5752); err != nil {
		t.Fatal(err)
	}
	rw.WriteU8(&out, 3)
	rw.WriteU8(&out, 4)
	out.Write(make([]byte, 256+8))
	rw.WriteU32(&out, uint32(len(chunks)))
	for i := range chunks {
		if err := chunks[i].writeV34(&out); err != nil {
			t.Fatal(err)
		}
	}
	return out.data
}

func TestMountRejectsDuplicateChunks(t *testing.T) {
	data := rawWadV34(t, []Chunk{
		{PathHash: 7, Compression: CompressionNone},
		{PathHash: 7, Compression: CompressionNone},
	})
	_, err := Mount(bytes.NewReader(data))
	var derr *DuplicateChunkError
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want DuplicateChunkError", err)
	}
}

func TestMountRejectsUnsortedChunks(t *testing.T) {
	data := rawWadV34(t, []Chunk{
		{PathHash: 9, Compression: CompressionNone},
		{PathHash: 3, Compression: CompressionNone},
	})
	_, err := Mount(bytes.NewReader(data))
	var uerr *UnsortedChunksError
	if !errors.As(err, &uerr) {
		t.Fatalf("err = %v, want UnsortedChunksError", err)
	}
	if uerr.Previous != 9 || uerr.Current != 3 {
		t.Errorf("unsorted pair = (%d, %d), want (9, 3)", uerr.Previous, uerr.Current)
	}
}

func TestMountRejectsBadCompression(t *testing.T) {
	var out writeSeekBuffer
	rw.WriteU16(&out, 0x5752)
	rw.WriteU8(&out, 3)
	rw.WriteU8(&out, 4)
	out.Write(make([]byte, 256+8))
	rw.WriteU32(&out, 1)
	rw.WriteU64(&out, 1)      // path hash
	rw.WriteU32(&out, 0)      // offset
	rw.WriteU32(&out, 0)      // compressed
	rw.WriteU32(&out, 0)      // uncompressed
	rw.WriteU8(&out, 0x0F)    // frame count 0, codec 15
	out.Write(make([]byte, 3+8))

	_, err := Mount(bytes.NewReader(out.data))
	var cerr *InvalidChunkCompressionError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want InvalidChunkCompressionError", err)
	}
	if cerr.Raw != 15 {
		t.Errorf("raw codec = %d, want 15", cerr.Raw)
	}
}

func TestStartFrame24RoundTrip(t *testing.T) {
	// On-disk byte order is [hi, lo, mid].
	r := bytes.NewReader([]byte{0x01, 0x03, 0x02})
	got, err := readStartFrame24(r)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x010203 {
		t.Errorf("readStartFrame24 = %#x, want 0x010203", got)
	}

	var buf bytes.Buffer
	if err := writeStartFrame24(&buf, 0x010302); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0x01, 0x02, 0x03}) {
		t.Errorf("writeStartFrame24 = % x, want 01 02 03", buf.Bytes())
	}

	for _, v := range []uint32{0, 1, 0xABCDEF, 0xFFFFFF} {
		var b bytes.Buffer
		writeStartFrame24(&b, v)
		back, err := readStartFrame24(&b)
		if err != nil {
			t.Fatal(err)
		}
		if back != v {
			t.Errorf("round trip %#x = %#x", v, back)
		}
	}
}

func TestRoundTripPreservesChunkSet(t *testing.T) {
	first := buildTestWad(t)
	wad1, err := Mount(bytes.NewReader(first))
	if err != nil {
		t.Fatal(err)
	}
	decoder1, chunks1 := wad1.Decode()

	// Rebuild from the mounted archive, forcing the original codecs.
	builder := NewBuilder()
	payloads := make(map[uint64][]byte)
	for hash, chunk := range chunks1 {
		data, err := decoder1.LoadChunkDecompressed(&chunk)
		if err != nil {
			t.Fatal(err)
		}
		payloads[hash] = data
		builder.WithChunk(NewChunkHash(hash).WithCompression(chunk.Compression))
	}
	var out writeSeekBuffer
	err = builder.Build(&out, func(pathHash uint64, w io.Writer) error {
		_, err := w.Write(payloads[pathHash])
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	wad2, err := Mount(bytes.NewReader(out.data))
	if err != nil {
		t.Fatal(err)
	}
	for hash, chunk := range chunks1 {
		rebuilt, ok := wad2.Chunk(hash)
		if !ok {
			t.Fatalf("chunk %016x missing after round trip", hash)
		}
		if rebuilt.UncompressedSize != chunk.UncompressedSize {
			t.Errorf("chunk %016x uncompressed size %d != %d", hash, rebuilt.UncompressedSize, chunk.UncompressedSize)
		}
		if rebuilt.Checksum != chunk.Checksum {
			t.Errorf("chunk %016x checksum changed", hash)
		}
	}
}

func TestZstdMultiDecoding(t *testing.T) {
	// A zstd-multi chunk: 8 literal prefix bytes, then a zstd frame.
	prefix := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	tail := bytes.Repeat([]byte{0xCC}, 200)

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	compressed := append(append([]byte{}, prefix...), enc.EncodeAll(tail, nil)...)
	enc.Close()

	want := append(append([]byte{}, prefix...), tail...)
	chunk := Chunk{
		PathHash:         1,
		DataOffset:       0,
		CompressedSize:   uint32(len(compressed)),
		UncompressedSize: uint32(len(want)),
		Compression:      CompressionZstdMulti,
	}

	decoder := NewDecoder(bytes.NewReader(compressed))
	got, err := decoder.LoadChunkDecompressed(&chunk)
	if err != nil {
		t.Fatalf("LoadChunkDecompressed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("buffered decode mismatch: got %d bytes", len(got))
	}

	// The streaming reader must produce the identical bytes.
	stream, err := decoder.OpenChunk(&chunk)
	if err != nil {
		t.Fatalf("OpenChunk: %v", err)
	}
	streamed := make([]byte, chunk.UncompressedSize)
	if _, err := io.ReadFull(stream, streamed); err != nil {
		t.Fatalf("streaming read: %v", err)
	}
	if !bytes.Equal(streamed, want) {
		t.Error("streaming decode mismatch")
	}
}

func TestZstdMultiReaderSmallReads(t *testing.T) {
	prefix := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x28, 0xB5} // includes partial magic bytes
	tail := bytes.Repeat([]byte{0x11, 0x22, 0x33}, 64)

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	compressed := append(append([]byte{}, prefix...), enc.EncodeAll(tail, nil)...)
	enc.Close()
	want := append(append([]byte{}, prefix...), tail...)

	r := NewZstdMultiReader(bytes.NewReader(compressed))
	var got bytes.Buffer
	buf := make([]byte, 3) // force many tiny reads through both states
	for got.Len() < len(want) {
		n, err := r.Read(buf)
		got.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	if !bytes.Equal(got.Bytes()[:len(want)], want) {
		t.Error("small-read streaming mismatch")
	}
}

func TestSatelliteUnsupported(t *testing.T) {
	chunk := Chunk{Compression: CompressionSatellite}
	decoder := NewDecoder(bytes.NewReader(nil))
	if _, err := decoder.LoadChunkDecompressed(&chunk); !errors.Is(err, ErrSatelliteUnsupported) {
		t.Errorf("err = %v, want ErrSatelliteUnsupported", err)
	}
}

func TestIdealCompression(t *testing.T) {
	// Formats that carry their own compression are stored raw.
	if got := IdealCompression(ltkfile.Png); got != CompressionNone {
		t.Errorf("png = %v, want none", got)
	}
	if got := IdealCompression(ltkfile.PropertyBin); got != CompressionZstd {
		t.Errorf("bin = %v, want zstd", got)
	}
	if got := IdealCompression(ltkfile.Unknown); got != CompressionZstd {
		t.Errorf("unknown = %v, want zstd", got)
	}
}
