package wad

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/phanxgames/riftkit/ltkfile"
)

func TestIsHexChunkPath(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"0123456789abcdef", true},
		{"0123456789ABCDEF", true},
		{"0123456789abcdef.bin", true},
		{"0000000000000000", true},
		{"ffffffffffffffff", true},
		{"0123456789abcde", false},   // too short
		{"0123456789abcdefg", false}, // too long
		{"ghijklmnopqrstuv", false},
		{"0123456789abcdeg", false},
		{"assets/champions/aatrox.bin", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsHexChunkPath(tc.path); got != tc.want {
			t.Errorf("IsHexChunkPath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

// buildExtractionWad builds an archive whose chunks cover the filename
// policy branches: a resolvable path, an extensionless path, and an
// unresolved hash.
func buildExtractionWad(t *testing.T) (*Wad, map[uint64]string) {
	t.Helper()

	propPayload := append([]byte("PROP"), make([]byte, 16)...)
	payloads := map[string][]byte{
		"data/a.bin":       propPayload,
		"data/no_ext":      propPayload,
		"cafebabecafebabe": propPayload,
	}

	builder := NewBuilder()
	resolver := make(map[uint64]string)
	byHash := make(map[uint64][]byte)
	for path, payload := range payloads {
		builder.WithChunk(NewChunk(path).WithCompression(CompressionNone))
		resolver[HashPath(path)] = path
		byHash[HashPath(path)] = payload
	}
	// The hash-looking chunk resolves only to its hex form.
	delete(resolver, HashPath("cafebabecafebabe"))

	var out writeSeekBuffer
	err := builder.Build(&out, func(pathHash uint64, w io.Writer) error {
		_, err := w.Write(byHash[pathHash])
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	wad, err := Mount(bytes.NewReader(out.data))
	if err != nil {
		t.Fatal(err)
	}
	return wad, resolver
}

func TestExtractAllFilenamePolicy(t *testing.T) {
	wad, resolver := buildExtractionWad(t)
	dir := t.TempDir()

	decoder, chunks := wad.Decode()
	var seen []Progress
	extracted, err := NewExtractor(MapResolver(resolver)).
		OnProgress(func(p Progress) { seen = append(seen, p) }).
		ExtractAll(decoder, chunks, dir)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if extracted != 3 {
		t.Errorf("extracted = %d, want 3", extracted)
	}
	if len(seen) != 3 {
		t.Errorf("progress calls = %d, want 3", len(seen))
	}

	// Resolved path with extension: used as-is.
	if _, err := os.Stat(filepath.Join(dir, "data/a.bin")); err != nil {
		t.Errorf("data/a.bin missing: %v", err)
	}
	// No extension: renamed to <stem>.ltk.<detected>.
	if _, err := os.Stat(filepath.Join(dir, "data/no_ext.ltk.bin")); err != nil {
		t.Errorf("data/no_ext.ltk.bin missing: %v", err)
	}
	// Unresolved hash: hex name plus detected extension. The chunk's hash
	// is of the literal path string, so resolve it back to hex.
	hexName := MapResolver(nil).Resolve(HashPath("cafebabecafebabe"))
	if _, err := os.Stat(filepath.Join(dir, hexName+".bin")); err != nil {
		t.Errorf("%s.bin missing: %v", hexName, err)
	}
}

func TestExtractKindFilter(t *testing.T) {
	wad, resolver := buildExtractionWad(t)
	dir := t.TempDir()

	decoder, chunks := wad.Decode()
	extracted, err := NewExtractor(MapResolver(resolver)).
		WithKindFilter(ltkfile.Png).
		ExtractAll(decoder, chunks, dir)
	if err != nil {
		t.Fatal(err)
	}
	// Every payload identifies as a property bin; all are skipped.
	if extracted != 0 {
		t.Errorf("extracted = %d, want 0", extracted)
	}
}

func TestExtractPathFilter(t *testing.T) {
	wad, resolver := buildExtractionWad(t)
	dir := t.TempDir()

	filter, err := NewRegexFilter(`^data/`)
	if err != nil {
		t.Fatal(err)
	}
	decoder, chunks := wad.Decode()
	extracted, err := NewExtractor(MapResolver(resolver)).
		WithFilter(filter).
		ExtractAll(decoder, chunks, dir)
	if err != nil {
		t.Fatal(err)
	}
	if extracted != 2 {
		t.Errorf("extracted = %d, want 2", extracted)
	}
}

func TestProgressPercent(t *testing.T) {
	p := Progress{Current: 1, Total: 4}
	if p.Percent() != 0.25 {
		t.Errorf("percent = %f, want 0.25", p.Percent())
	}
	if (Progress{}).Percent() != 0 {
		t.Error("zero total should be 0")
	}
}
