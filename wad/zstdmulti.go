package wad

import (
	"bufio"
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"
)

// ZstdMultiReader streams a zstd-multi payload: an uncompressed prefix
// followed by a zstd frame. It scans the incoming bytes for the 4-byte zstd
// frame magic, passes everything before it through verbatim, then switches
// to a zstd decoder for the remainder. Memory use is bounded by the buffer
// size regardless of chunk size.
type ZstdMultiReader struct {
	br  *bufio.Reader
	dec *zstd.Decoder
	err error
}

// NewZstdMultiReader wraps source, which must yield the chunk's compressed
// region and nothing more.
func NewZstdMultiReader(source io.Reader) *ZstdMultiReader {
	return &ZstdMultiReader{br: bufio.NewReader(source)}
}

func (r *ZstdMultiReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.err != nil {
		return 0, r.err
	}
	if r.dec != nil {
		return r.dec.Read(p)
	}

	// Scanning state: look at what is buffered and decide how much of it is
	// definitely prefix data.
	if _, err := r.br.Peek(len(zstdMagic)); err != nil {
		// Too few bytes remain for the magic to ever complete; whatever is
		// left is prefix data.
		return r.drainTail(p, err)
	}
	buf, _ := r.br.Peek(r.br.Buffered())

	if k := bytes.Index(buf, zstdMagic); k >= 0 {
		if k > 0 {
			n := copy(p, buf[:k])
			r.br.Discard(n)
			return n, nil
		}
		// Magic at the head of the buffer: become a zstd decoder over the
		// same buffered reader.
		dec, err := zstd.NewReader(r.br)
		if err != nil {
			r.err = err
			return 0, err
		}
		r.dec = dec
		return dec.Read(p)
	}

	// No full magic in the buffer. Any partial match can only sit at the
	// tail, so everything before it is safe to emit.
	safe := len(buf) - partialMagicLen(buf)
	if safe == 0 {
		// The whole buffer is a partial match; force more data in.
		if _, err := r.br.Peek(len(buf) + 1); err != nil {
			return r.drainTail(p, err)
		}
		return r.Read(p)
	}
	n := copy(p, buf[:safe])
	r.br.Discard(n)
	return n, nil
}

// drainTail emits any remaining buffered bytes once it is known no zstd
// frame follows, then surfaces readErr (normally io.EOF).
func (r *ZstdMultiReader) drainTail(p []byte, readErr error) (int, error) {
	buf, _ := r.br.Peek(r.br.Buffered())
	if len(buf) == 0 {
		r.err = readErr
		return 0, readErr
	}
	n := copy(p, buf)
	r.br.Discard(n)
	return n, nil
}

// partialMagicLen returns the length of the longest suffix of buf that is a
// proper prefix of the zstd magic.
func partialMagicLen(buf []byte) int {
	max := len(zstdMagic) - 1
	if len(buf) < max {
		max = len(buf)
	}
	for n := max; n > 0; n-- {
		if bytes.Equal(buf[len(buf)-n:], zstdMagic[:n]) {
			return n
		}
	}
	return 0
}
