package ltkfile

import (
	"bytes"
	"encoding/binary"
)

// MaxMagicSize is the length of the largest magic in the pattern table.
// Callers of [IdentifyBytes] should provide at least this many bytes to be
// able to detect every kind.
const MaxMagicSize = 8

// pattern matches a file kind either by a literal byte prefix or by a
// predicate over the first minLength bytes.
type pattern struct {
	magic     []byte
	predicate func(data []byte) bool
	minLength int
	kind      Kind
}

func magicPattern(magic string, kind Kind) pattern {
	return pattern{magic: []byte(magic), minLength: len(magic), kind: kind}
}

func predicatePattern(fn func(data []byte) bool, minLength int, kind Kind) pattern {
	return pattern{predicate: fn, minLength: minLength, kind: kind}
}

func (p *pattern) matches(data []byte) bool {
	if len(data) < p.minLength {
		return false
	}
	if p.magic != nil {
		return bytes.HasPrefix(data, p.magic)
	}
	return p.predicate(data)
}

// patterns is walked in order; the first match wins. Fixed headers come
// first since they carry the most confidence, then the fixed-offset
// predicates, then the high-entropy heuristics.
var patterns = []pattern{
	magicPattern("r3d2anmd", Animation),
	magicPattern("r3d2canm", Animation),
	magicPattern("OEGM", MapGeometry),
	magicPattern("PreLoad", Preload),
	magicPattern("PROP", PropertyBin),
	magicPattern("PTCH", PropertyBinOverride),
	magicPattern("RST", RiotStringTable),
	{magic: []byte{0x33, 0x22, 0x11, 0x00}, minLength: 4, kind: SimpleSkin},
	magicPattern("r3d2sklt", Skeleton),
	magicPattern("[Obj", StaticMeshASCII),
	magicPattern("r3d2Mesh", StaticMeshBinary),
	magicPattern("<svg", SVG),
	magicPattern("TEX\x00", Texture),
	magicPattern("DDS ", TextureDDS),
	magicPattern("WGEO", WorldGeometry),
	magicPattern("BKHD", WwiseBank),
	// These are also effectively fixed headers, offset by a lead byte.
	predicatePattern(func(data []byte) bool {
		return bytes.Equal(data[1:5], []byte("LuaQ"))
	}, 5, LuaObj),
	predicatePattern(func(data []byte) bool {
		return bytes.Equal(data[1:4], []byte("PNG"))
	}, 4, Png),
	// Slightly less confident fixed headers.
	predicatePattern(func(data []byte) bool {
		return binary.LittleEndian.Uint32(data[4:8]) == 0x22FD4FC3
	}, 8, Skeleton),
	predicatePattern(func(data []byte) bool {
		return binary.LittleEndian.Uint32(data[:4])&0x00FFFFFF == 0x00FFD8FF
	}, 3, Jpeg),
	// Much higher entropy patterns. TGA has no fixed magic; byte 1 is the
	// color map type (0 or 1) and byte 2 the image type.
	predicatePattern(func(data []byte) bool {
		colorMapType := data[1]
		imageType := data[2]
		if colorMapType != 0 && colorMapType != 1 {
			return false
		}
		switch imageType {
		case 1, 2, 3, 9, 10, 11:
			return true
		}
		return false
	}, 3, TGA),
	predicatePattern(func(data []byte) bool {
		return binary.LittleEndian.Uint32(data[:4]) == 3
	}, 4, LightGrid),
	predicatePattern(func(data []byte) bool {
		return binary.LittleEndian.Uint32(data[4:8]) == 1
	}, 8, WwisePackage),
}

// IdentifyBytes classifies a buffer by its leading bytes. Patterns whose
// minimum length exceeds the buffer are skipped, so short buffers can still
// match short magics.
func IdentifyBytes(data []byte) Kind {
	for i := range patterns {
		if patterns[i].matches(data) {
			return patterns[i].kind
		}
	}
	return Unknown
}

// Identify resolves a kind from an extension first and falls back to
// content sniffing when the extension is unknown.
func Identify(ext string, data []byte) Kind {
	if kind := FromExtension(ext); kind != Unknown {
		return kind
	}
	return IdentifyBytes(data)
}
