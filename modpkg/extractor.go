package modpkg

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Extractor writes a modpkg's chunks to disk, one subdirectory per layer.
type Extractor struct {
	modpkg *Modpkg
	logger zerolog.Logger
}

// NewExtractor returns an extractor over a mounted modpkg.
func NewExtractor(m *Modpkg) *Extractor {
	return &Extractor{modpkg: m, logger: zerolog.Nop()}
}

// WithLogger enables per-chunk debug logging.
func (e *Extractor) WithLogger(logger zerolog.Logger) *Extractor {
	e.logger = logger
	return e
}

// ExtractAll writes every chunk as <outputDir>/<layer name>/<chunk path>.
// Chunks whose layer is not declared are skipped.
func (e *Extractor) ExtractAll(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	// Group chunks by layer so each layer directory is created once.
	byLayer := make(map[uint64][]Chunk)
	for _, chunk := range e.modpkg.chunks {
		byLayer[chunk.LayerHash] = append(byLayer[chunk.LayerHash], chunk)
	}

	for layerHash, chunks := range byLayer {
		layer, ok := e.modpkg.layers[layerHash]
		if !ok {
			e.logger.Warn().Uint64("layer_hash", layerHash).Msg("skipping chunks of undeclared layer")
			continue
		}
		layerDir := filepath.Join(outputDir, layer.Name)
		if err := os.MkdirAll(layerDir, 0o755); err != nil {
			return err
		}
		for i := range chunks {
			if _, err := e.ExtractChunk(&chunks[i], layerDir); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExtractChunk writes one chunk below outputDir under its resolved path and
// returns the written path.
func (e *Extractor) ExtractChunk(chunk *Chunk, outputDir string) (string, error) {
	path, ok := e.modpkg.chunkPaths[chunk.PathHash]
	if !ok {
		return "", &MissingChunkError{PathHash: chunk.PathHash}
	}

	outputPath := filepath.Join(outputDir, path)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", err
	}

	data, err := e.modpkg.Decoder().LoadChunkDecompressed(chunk)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return "", err
	}
	e.logger.Debug().Str("path", outputPath).Uint64("path_hash", chunk.PathHash).Msg("extracted chunk")
	return outputPath, nil
}

// ExtractChunkByPath extracts the chunk identified by logical path and layer
// name below outputDir.
func (e *Extractor) ExtractChunkByPath(path, layer, outputDir string) (string, error) {
	chunk, ok := e.modpkg.Chunk(path, layer)
	if !ok {
		return "", &MissingChunkError{PathHash: HashChunkPath(path)}
	}
	return e.ExtractChunk(&chunk, outputDir)
}
