package wad

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/phanxgames/riftkit/ltkfile"
)

// PathResolver maps chunk path hashes back to human-readable paths, usually
// from a community hashtable. Unknown hashes should resolve to the hash
// formatted as 16 lowercase hex digits.
type PathResolver interface {
	Resolve(pathHash uint64) string
}

// HexResolver resolves every hash to its hex form. Useful when no hashtable
// is available.
type HexResolver struct{}

// Resolve implements [PathResolver].
func (HexResolver) Resolve(pathHash uint64) string {
	return fmt.Sprintf("%016x", pathHash)
}

// MapResolver resolves hashes from an in-memory table, falling back to hex.
type MapResolver map[uint64]string

// Resolve implements [PathResolver].
func (m MapResolver) Resolve(pathHash uint64) string {
	if path, ok := m[pathHash]; ok {
		return path
	}
	return fmt.Sprintf("%016x", pathHash)
}

// PathFilter limits extraction to chunks whose resolved path matches.
type PathFilter interface {
	Matches(path string) bool
}

// RegexFilter is a [PathFilter] over a compiled regular expression.
type RegexFilter struct {
	pattern *regexp.Regexp
}

// NewRegexFilter compiles pattern into a filter.
func NewRegexFilter(pattern string) (*RegexFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &RegexFilter{pattern: re}, nil
}

// Matches implements [PathFilter].
func (f *RegexFilter) Matches(path string) bool {
	return f.pattern.MatchString(path)
}

// Progress describes the chunk about to be processed.
type Progress struct {
	// Current is the 0-based index of the chunk.
	Current int
	// Total is the number of chunks in the archive.
	Total int
	// CurrentPath is the resolved path of the chunk.
	CurrentPath string
	// PathHash is the chunk's identity.
	PathHash uint64
}

// Percent returns progress as a fraction in [0, 1].
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Current) / float64(p.Total)
}

// Extractor materializes chunks to the filesystem with resolved names.
type Extractor struct {
	resolver   PathResolver
	filter     PathFilter
	kindFilter []ltkfile.Kind
	onProgress func(Progress)
	logger     zerolog.Logger
}

// NewExtractor returns an extractor using resolver for chunk names.
func NewExtractor(resolver PathResolver) *Extractor {
	return &Extractor{resolver: resolver, logger: zerolog.Nop()}
}

// WithFilter restricts extraction to chunks whose resolved path matches.
func (e *Extractor) WithFilter(filter PathFilter) *Extractor {
	e.filter = filter
	return e
}

// WithKindFilter restricts extraction to chunks whose decompressed payload
// identifies as one of the given kinds.
func (e *Extractor) WithKindFilter(kinds ...ltkfile.Kind) *Extractor {
	e.kindFilter = kinds
	return e
}

// OnProgress registers a callback invoked before each chunk is processed,
// including chunks that end up skipped.
func (e *Extractor) OnProgress(fn func(Progress)) *Extractor {
	e.onProgress = fn
	return e
}

// WithLogger enables per-chunk debug logging.
func (e *Extractor) WithLogger(logger zerolog.Logger) *Extractor {
	e.logger = logger
	return e
}

// ExtractAll writes every (unfiltered) chunk below outputDir and returns the
// number actually extracted. Skipped chunks do not count.
func (e *Extractor) ExtractAll(decoder *Decoder, chunks map[uint64]Chunk, outputDir string) (int, error) {
	ordered := sortedChunks(chunks)
	extracted := 0
	for i := range ordered {
		chunk := &ordered[i]
		path := e.resolver.Resolve(chunk.PathHash)

		if e.onProgress != nil {
			e.onProgress(Progress{
				Current:     i,
				Total:       len(ordered),
				CurrentPath: path,
				PathHash:    chunk.PathHash,
			})
		}

		if e.filter != nil && !e.filter.Matches(path) {
			continue
		}

		ok, err := e.ExtractChunk(decoder, chunk, path, outputDir)
		if err != nil {
			return extracted, err
		}
		if ok {
			extracted++
		}
	}
	return extracted, nil
}

// ExtractChunk decompresses one chunk and writes it below outputDir under
// chunkPath, applying the filename policy. It reports whether the chunk was
// written (false means it was filtered out by kind).
func (e *Extractor) ExtractChunk(decoder *Decoder, chunk *Chunk, chunkPath, outputDir string) (bool, error) {
	data, err := decoder.LoadChunkDecompressed(chunk)
	if err != nil {
		return false, err
	}

	kind := ltkfile.IdentifyBytes(data)
	if e.kindFilter != nil && !containsKind(e.kindFilter, kind) {
		e.logger.Debug().Uint64("path_hash", chunk.PathHash).Stringer("kind", kind).Msg("skipped by kind filter")
		return false, nil
	}

	finalPath := e.resolveFinalPath(chunkPath, outputDir, data, kind)
	fullPath := filepath.Join(outputDir, finalPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return false, err
	}

	switch err := os.WriteFile(fullPath, data, 0o644); {
	case err == nil:
		return true, nil
	case isInvalidFilename(err):
		// The OS refused the name (usually length); fall back to writing
		// the chunk as <hash>.<ext> in the output root.
		hashed := fmt.Sprintf("%016x", chunk.PathHash)
		if ext := kind.Extension(); ext != "" {
			hashed += "." + ext
		}
		e.logger.Warn().Uint64("path_hash", chunk.PathHash).Str("path", finalPath).Msg("invalid filename, writing hash-named file")
		if err := os.WriteFile(filepath.Join(outputDir, hashed), data, 0o644); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, err
	}
}

// resolveFinalPath applies the filename policy:
//
//  1. An unresolved 16-hex-digit path gets the detected extension appended.
//  2. A path without an extension, or one colliding with an existing
//     directory, is renamed to <stem>.ltk[.<detected ext>].
//  3. Anything else is used as-is.
func (e *Extractor) resolveFinalPath(chunkPath, outputDir string, data []byte, kind ltkfile.Kind) string {
	if IsHexChunkPath(chunkPath) {
		if ext := kind.Extension(); ext != "" {
			return withExtension(chunkPath, ext)
		}
		return chunkPath
	}

	hasExtension := filepath.Ext(chunkPath) != ""
	collides := false
	if info, err := os.Stat(filepath.Join(outputDir, chunkPath)); err == nil && info.IsDir() {
		collides = true
	}
	if !hasExtension || collides {
		stem := strings.TrimSuffix(filepath.Base(chunkPath), filepath.Ext(chunkPath))
		name := stem + ".ltk"
		if ext := kind.Extension(); ext != "" {
			name += "." + ext
		}
		return filepath.Join(filepath.Dir(chunkPath), name)
	}
	return chunkPath
}

// IsHexChunkPath reports whether a path looks like an unresolved hash: a
// 16-hex-digit stem, with or without an extension.
func IsHexChunkPath(path string) bool {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if len(stem) != 16 {
		return false
	}
	for _, c := range stem {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func withExtension(path, ext string) string {
	old := filepath.Ext(path)
	return strings.TrimSuffix(path, old) + "." + ext
}

func containsKind(kinds []ltkfile.Kind, kind ltkfile.Kind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func isInvalidFilename(err error) bool {
	return errors.Is(err, syscall.ENAMETOOLONG) || errors.Is(err, syscall.EINVAL)
}
