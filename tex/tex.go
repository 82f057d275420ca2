// Package tex reads and writes the League TEX texture container and
// bridges it to DDS.
//
// TEX stores block-compressed (BC1/BC3, ETC1/ETC2) or raw BGRA8 surfaces
// with mipmaps ordered smallest-first. The block codecs themselves are out
// of scope here: payloads are carried opaquely and can be re-wrapped as
// DDS, whose consumers decode them.
package tex

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/phanxgames/riftkit/internal/rw"
)

// Magic is the 4-byte file magic.
var Magic = [4]byte{'T', 'E', 'X', 0}

// Format is the surface encoding.
type Format uint8

const (
	FormatETC1 Format = iota + 1
	FormatETC2EAC
	FormatBC1
	FormatBC3
	FormatBGRA8
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatETC1:
		return "etc1"
	case FormatETC2EAC:
		return "etc2-eac"
	case FormatBC1:
		return "bc1"
	case FormatBC3:
		return "bc3"
	case FormatBGRA8:
		return "bgra8"
	}
	return fmt.Sprintf("format(%d)", uint8(f))
}

// formatFromCode maps the on-disk format byte. Several codes alias the
// same encoding.
func formatFromCode(code uint8) (Format, error) {
	switch code {
	case 1:
		return FormatETC1, nil
	case 2, 3:
		return FormatETC2EAC, nil
	case 10, 11:
		return FormatBC1, nil
	case 12:
		return FormatBC3, nil
	case 20:
		return FormatBGRA8, nil
	}
	return 0, &UnknownFormatError{Code: code}
}

// code returns the canonical on-disk byte for the format.
func (f Format) code() uint8 {
	switch f {
	case FormatETC1:
		return 1
	case FormatETC2EAC:
		return 2
	case FormatBC1:
		return 10
	case FormatBC3:
		return 12
	default:
		return 20
	}
}

// blockCompressed reports whether the format encodes 4x4 blocks.
func (f Format) blockCompressed() bool {
	return f != FormatBGRA8
}

// blockSize returns the byte size of one 4x4 block, or bytes per pixel for
// raw formats.
func (f Format) blockSize() int {
	switch f {
	case FormatETC1, FormatBC1:
		return 8
	case FormatETC2EAC, FormatBC3:
		return 16
	default:
		return 4 // bytes per pixel
	}
}

// Flags is the TEX header flag byte.
type Flags uint8

const (
	// FlagHasMipMaps marks a full mip chain.
	FlagHasMipMaps Flags = 1 << iota
	// FlagMystery is carried but has no known meaning.
	FlagMystery
)

const knownFlags = FlagHasMipMaps | FlagMystery

// UnknownFormatError is returned for unrecognized format codes.
type UnknownFormatError struct {
	Code uint8
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("tex: unknown texture format %d", e.Code)
}

// InvalidFlagsError is returned for flag bits outside the known set.
type InvalidFlagsError struct {
	Raw uint8
}

func (e *InvalidFlagsError) Error() string {
	return fmt.Sprintf("tex: invalid texture flags %#b", e.Raw)
}

// ErrInvalidMagic is returned when the file does not start with "TEX\0".
var ErrInvalidMagic = errors.New("tex: invalid magic")

// Tex is a parsed texture.
type Tex struct {
	Width  uint16
	Height uint16
	Format Format
	// ResourceType is 0 for plain textures, 1 for cubemaps, 2 for
	// surfaces, 3 for volume textures.
	ResourceType uint8
	Flags        Flags
	// Data holds the surface payload: every mip level, smallest first.
	Data []byte
}

// MipCount returns the number of stored mip levels: a full chain down to
// 1x1 when flagged, otherwise 1.
func (t *Tex) MipCount() uint32 {
	if t.Flags&FlagHasMipMaps == 0 {
		return 1
	}
	longest := t.Width
	if t.Height > longest {
		longest = t.Height
	}
	return uint32(math.Floor(math.Log2(float64(longest)))) + 1
}

// mipByteSize returns the payload size of the given mip level, where level
// 0 is the full-size surface.
func (t *Tex) mipByteSize(level uint32) int {
	w := int(t.Width) >> level
	h := int(t.Height) >> level
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if t.Format.blockCompressed() {
		return ((w + 3) / 4) * ((h + 3) / 4) * t.Format.blockSize()
	}
	return w * h * t.Format.blockSize()
}

// MipSurface returns the byte range of one mip level inside Data, where
// level 0 is the full-size surface. Mips are stored smallest-first, so
// level count-1 sits at offset 0.
func (t *Tex) MipSurface(level uint32) ([]byte, error) {
	count := t.MipCount()
	if level >= count {
		return nil, fmt.Errorf("tex: mip level %d out of range (%d levels)", level, count)
	}
	offset := 0
	for l := count - 1; l > level; l-- {
		offset += t.mipByteSize(l)
	}
	size := t.mipByteSize(level)
	if offset+size > len(t.Data) {
		return nil, fmt.Errorf("tex: truncated surface data: mip %d needs %d bytes at %d, have %d",
			level, size, offset, len(t.Data))
	}
	return t.Data[offset : offset+size], nil
}

// Read parses a TEX file, including the magic.
func Read(r io.Reader) (*Tex, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}
	return ReadNoMagic(r)
}

// ReadNoMagic parses a TEX file whose 4 magic bytes were already consumed,
// e.g. during format identification.
func ReadNoMagic(r io.Reader) (*Tex, error) {
	t := &Tex{}
	var err error
	if t.Width, err = rw.ReadU16(r); err != nil {
		return nil, err
	}
	if t.Height, err = rw.ReadU16(r); err != nil {
		return nil, err
	}
	// Marks the extended format family; always set on disk.
	if _, err := rw.ReadU8(r); err != nil {
		return nil, err
	}
	code, err := rw.ReadU8(r)
	if err != nil {
		return nil, err
	}
	if t.Format, err = formatFromCode(code); err != nil {
		return nil, err
	}
	if t.ResourceType, err = rw.ReadU8(r); err != nil {
		return nil, err
	}
	rawFlags, err := rw.ReadU8(r)
	if err != nil {
		return nil, err
	}
	if Flags(rawFlags)&^knownFlags != 0 {
		return nil, &InvalidFlagsError{Raw: rawFlags}
	}
	t.Flags = Flags(rawFlags)

	if t.Data, err = io.ReadAll(r); err != nil {
		return nil, err
	}
	return t, nil
}

// Write emits the texture.
func (t *Tex) Write(w io.Writer) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	if err := rw.WriteU16(w, t.Width); err != nil {
		return err
	}
	if err := rw.WriteU16(w, t.Height); err != nil {
		return err
	}
	if err := rw.WriteU8(w, 1); err != nil {
		return err
	}
	if err := rw.WriteU8(w, t.Format.code()); err != nil {
		return err
	}
	if err := rw.WriteU8(w, t.ResourceType); err != nil {
		return err
	}
	if err := rw.WriteU8(w, uint8(t.Flags)); err != nil {
		return err
	}
	_, err := w.Write(t.Data)
	return err
}
