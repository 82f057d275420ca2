package tex

import (
	"fmt"
	"io"

	"github.com/phanxgames/riftkit/internal/rw"
)

// DDS header constants; see the DirectDraw surface layout.
const (
	ddsMagic      = 0x20534444 // "DDS "
	ddsHeaderSize = 124

	ddsdCaps        = 0x1
	ddsdHeight      = 0x2
	ddsdWidth       = 0x4
	ddsdPixelFormat = 0x1000
	ddsdMipMapCount = 0x20000
	ddsdLinearSize  = 0x80000

	ddpfAlphaPixels = 0x1
	ddpfFourCC      = 0x4
	ddpfRGB         = 0x40

	ddsCapsComplex = 0x8
	ddsCapsTexture = 0x1000
	ddsCapsMipMap  = 0x400000
)

// UnsupportedDDSFormatError is returned when bridging a format DDS cannot
// express (the mobile ETC family).
type UnsupportedDDSFormatError struct {
	Format Format
}

func (e *UnsupportedDDSFormatError) Error() string {
	return fmt.Sprintf("tex: format %s cannot be represented as DDS", e.Format)
}

// WriteDDS re-wraps the texture as a DDS file: a synthesized header
// followed by the mip surfaces reordered largest-first, as DDS expects.
// The block data itself is copied verbatim; no pixel decoding happens.
func (t *Tex) WriteDDS(w io.Writer) error {
	switch t.Format {
	case FormatBC1, FormatBC3, FormatBGRA8:
	default:
		return &UnsupportedDDSFormatError{Format: t.Format}
	}

	mipCount := t.MipCount()

	flags := uint32(ddsdCaps | ddsdHeight | ddsdWidth | ddsdPixelFormat | ddsdLinearSize)
	caps := uint32(ddsCapsTexture)
	if mipCount > 1 {
		flags |= ddsdMipMapCount
		caps |= ddsCapsComplex | ddsCapsMipMap
	}

	if err := rw.WriteU32(w, ddsMagic); err != nil {
		return err
	}
	if err := rw.WriteU32(w, ddsHeaderSize); err != nil {
		return err
	}
	if err := rw.WriteU32(w, flags); err != nil {
		return err
	}
	if err := rw.WriteU32(w, uint32(t.Height)); err != nil {
		return err
	}
	if err := rw.WriteU32(w, uint32(t.Width)); err != nil {
		return err
	}
	if err := rw.WriteU32(w, uint32(t.mipByteSize(0))); err != nil {
		return err
	}
	if err := rw.WriteU32(w, 0); err != nil { // depth
		return err
	}
	if err := rw.WriteU32(w, mipCount); err != nil {
		return err
	}
	for i := 0; i < 11; i++ { // reserved
		if err := rw.WriteU32(w, 0); err != nil {
			return err
		}
	}
	if err := t.writeDDSPixelFormat(w); err != nil {
		return err
	}
	if err := rw.WriteU32(w, caps); err != nil {
		return err
	}
	for i := 0; i < 4; i++ { // caps2..4 + reserved
		if err := rw.WriteU32(w, 0); err != nil {
			return err
		}
	}

	// TEX stores mips smallest-first; DDS wants largest-first.
	for level := uint32(0); level < mipCount; level++ {
		surface, err := t.MipSurface(level)
		if err != nil {
			return err
		}
		if _, err := w.Write(surface); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tex) writeDDSPixelFormat(w io.Writer) error {
	if err := rw.WriteU32(w, 32); err != nil { // pixel format struct size
		return err
	}
	switch t.Format {
	case FormatBC1, FormatBC3:
		fourCC := uint32(0x31545844) // "DXT1"
		if t.Format == FormatBC3 {
			fourCC = 0x35545844 // "DXT5"
		}
		if err := rw.WriteU32(w, ddpfFourCC); err != nil {
			return err
		}
		if err := rw.WriteU32(w, fourCC); err != nil {
			return err
		}
		for i := 0; i < 5; i++ { // bit count + masks unused
			if err := rw.WriteU32(w, 0); err != nil {
				return err
			}
		}
	default: // BGRA8
		if err := rw.WriteU32(w, ddpfRGB|ddpfAlphaPixels); err != nil {
			return err
		}
		if err := rw.WriteU32(w, 0); err != nil { // no fourCC
			return err
		}
		masks := []uint32{32, 0x00FF0000, 0x0000FF00, 0x000000FF, 0xFF000000}
		for _, v := range masks {
			if err := rw.WriteU32(w, v); err != nil {
				return err
			}
		}
	}
	return nil
}
