package ltkfile

import "testing"

func TestIdentifyBytesKnownMagics(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want Kind
	}{
		{"animation anmd", []byte("r3d2anmdXXXXXXXX"), Animation},
		{"animation canm", []byte("r3d2canmXXXXXXXX"), Animation},
		{"mapgeo", []byte("OEGMxxxx"), MapGeometry},
		{"preload", []byte("PreLoadx"), Preload},
		{"prop", []byte("PROPxxxx"), PropertyBin},
		{"ptch", []byte("PTCHxxxx"), PropertyBinOverride},
		{"stringtable", []byte("RSTxxxxx"), RiotStringTable},
		{"simple skin", []byte{0x33, 0x22, 0x11, 0x00, 0xDE, 0xAD, 0xBE, 0xEF}, SimpleSkin},
		{"skeleton legacy", []byte("r3d2sklt"), Skeleton},
		{"static mesh ascii", []byte("[ObjectBegin]"), StaticMeshASCII},
		{"static mesh binary", []byte("r3d2Mesh"), StaticMeshBinary},
		{"svg", []byte("<svg xml"), SVG},
		{"tex", []byte("TEX\x00\x00\x01\x00\x01"), Texture},
		{"dds", []byte("DDS |headerbytes"), TextureDDS},
		{"wgeo", []byte("WGEOxxxx"), WorldGeometry},
		{"wwise bank", []byte("BKHDxxxx"), WwiseBank},
		{"luaobj", []byte{0x1B, 'L', 'u', 'a', 'Q', 0, 0, 0}, LuaObj},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, Png},
		{"skeleton modern", []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xC3, 0x4F, 0xFD, 0x22}, Skeleton},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}, Jpeg},
		{"lightgrid", []byte{0x03, 0x00, 0x00, 0x00, 0xAA, 0xBB, 0xCC, 0xDD}, LightGrid},
		{"wwise package", []byte{0xAA, 0xBB, 0xCC, 0xDD, 0x01, 0x00, 0x00, 0x00}, WwisePackage},
	}
	for _, tc := range cases {
		if got := IdentifyBytes(tc.data); got != tc.want {
			t.Errorf("%s: IdentifyBytes = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIdentifyBytesShortBuffer(t *testing.T) {
	// The wwise-package predicate needs 8 bytes; with fewer the pattern is
	// skipped and nothing else matches this data.
	if got := IdentifyBytes([]byte{0xAA, 0xBB, 0xCC, 0xDD, 0x01, 0x00, 0x00}); got != Unknown {
		t.Errorf("7-byte wpk prefix = %v, want Unknown", got)
	}
	// A shorter pattern can still win on a short buffer.
	if got := IdentifyBytes([]byte("RST")); got != RiotStringTable {
		t.Errorf("3-byte RST = %v, want RiotStringTable", got)
	}
	if got := IdentifyBytes(nil); got != Unknown {
		t.Errorf("empty buffer = %v, want Unknown", got)
	}
}

func TestIdentifyBytesTGAHeuristic(t *testing.T) {
	// Color map type 0/1 and a valid image type; nothing earlier matches.
	if got := IdentifyBytes([]byte{0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00}); got != TGA {
		t.Errorf("tga header = %v, want TGA", got)
	}
	if got := IdentifyBytes([]byte{0x00, 0x05, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00}); got == TGA {
		t.Error("invalid color map type identified as TGA")
	}
}

func TestMaxMagicSizeCoversTable(t *testing.T) {
	max := 0
	for i := range patterns {
		if patterns[i].minLength > max {
			max = patterns[i].minLength
		}
	}
	if max != MaxMagicSize {
		t.Errorf("largest pattern needs %d bytes, MaxMagicSize = %d", max, MaxMagicSize)
	}
}

func TestFromExtension(t *testing.T) {
	if got := FromExtension("png"); got != Png {
		t.Errorf("png = %v", got)
	}
	if got := FromExtension(".png"); got != Png {
		t.Errorf(".png = %v", got)
	}
	if got := FromExtension("PNG"); got != Unknown {
		t.Errorf("PNG should be unknown (case-sensitive), got %v", got)
	}
	if got := FromExtension(""); got != Unknown {
		t.Errorf("empty = %v", got)
	}
	if got := FromExtension("bin"); got != PropertyBin {
		t.Errorf("bin = %v", got)
	}
}

func TestExtensionRoundTrip(t *testing.T) {
	kinds := []Kind{
		Animation, Jpeg, LightGrid, LuaObj, MapGeometry, Png, Preload,
		PropertyBin, RiotStringTable, SimpleSkin, Skeleton, StaticMeshASCII,
		StaticMeshBinary, SVG, Texture, TextureDDS, TGA, WorldGeometry,
		WwiseBank, WwisePackage,
	}
	for _, k := range kinds {
		ext := k.Extension()
		if ext == "" {
			t.Errorf("%v has no extension", k)
			continue
		}
		if got := FromExtension(ext); got != k {
			t.Errorf("FromExtension(%q) = %v, want %v", ext, got, k)
		}
	}
	// Override bins share the extension with base bins.
	if got := PropertyBinOverride.Extension(); got != "bin" {
		t.Errorf("override extension = %q", got)
	}
}

func TestIdentifyPrefersExtension(t *testing.T) {
	if got := Identify("anm", []byte("PROPxxxx")); got != Animation {
		t.Errorf("known extension should win, got %v", got)
	}
	if got := Identify("xyz", []byte("PROPxxxx")); got != PropertyBin {
		t.Errorf("unknown extension should fall back to bytes, got %v", got)
	}
}
