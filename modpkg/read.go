package modpkg

import (
	"bytes"
	"fmt"
	"io"

	"github.com/phanxgames/riftkit/internal/rw"
)

// Mount parses the framing, sections, and chunk TOC from source. The source
// handle is retained; chunk payloads are read on demand.
func Mount(source io.ReadSeeker) (*Modpkg, error) {
	var magic [8]byte
	if _, err := io.ReadFull(source, magic[:]); err != nil {
		return nil, fmt.Errorf("modpkg: read magic: %w", err)
	}
	if string(magic[:]) != Magic {
		return nil, ErrInvalidMagic
	}

	version, err := rw.ReadU32(source)
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, &InvalidVersionError{Version: version}
	}

	declaredHeaderSize, err := rw.ReadU32(source)
	if err != nil {
		return nil, err
	}
	metadataSize, err := rw.ReadU32(source)
	if err != nil {
		return nil, err
	}
	signatureSize, err := rw.ReadU32(source)
	if err != nil {
		return nil, err
	}
	chunkPathsSize, err := rw.ReadU32(source)
	if err != nil {
		return nil, err
	}
	wadPathsSize, err := rw.ReadU32(source)
	if err != nil {
		return nil, err
	}
	layersSize, err := rw.ReadU32(source)
	if err != nil {
		return nil, err
	}
	chunkCount, err := rw.ReadU32(source)
	if err != nil {
		return nil, err
	}

	pos, err := rw.Tell(source)
	if err != nil {
		return nil, err
	}
	if int64(declaredHeaderSize) != pos {
		return nil, &InvalidHeaderSizeError{Declared: declaredHeaderSize, Actual: pos}
	}

	metadataBytes, err := readSection(source, metadataSize)
	if err != nil {
		return nil, err
	}
	signature, err := readSection(source, signatureSize)
	if err != nil {
		return nil, err
	}
	chunkPathBytes, err := readSection(source, chunkPathsSize)
	if err != nil {
		return nil, err
	}
	wadPathBytes, err := readSection(source, wadPathsSize)
	if err != nil {
		return nil, err
	}
	layerBytes, err := readSection(source, layersSize)
	if err != nil {
		return nil, err
	}

	metadata, err := readMetadata(bytes.NewReader(metadataBytes))
	if err != nil {
		return nil, err
	}
	chunkPathList, err := readStringList(bytes.NewReader(chunkPathBytes))
	if err != nil {
		return nil, fmt.Errorf("modpkg: chunk paths: %w", err)
	}
	wadPaths, err := readStringList(bytes.NewReader(wadPathBytes))
	if err != nil {
		return nil, fmt.Errorf("modpkg: wad paths: %w", err)
	}
	layerList, err := readLayers(bytes.NewReader(layerBytes))
	if err != nil {
		return nil, err
	}

	layers := make(map[uint64]Layer, len(layerList))
	hasBase := false
	for _, layer := range layerList {
		if layer.Name == BaseLayer {
			hasBase = true
		}
		layers[HashLayer(layer.Name)] = layer
	}
	if !hasBase {
		return nil, ErrMissingBaseLayer
	}

	chunkPaths := make(map[uint64]string, len(chunkPathList))
	for _, path := range chunkPathList {
		chunkPaths[HashChunkPath(path)] = path
	}

	// The TOC sits at the very end of the file, after the payload region.
	if _, err := source.Seek(-int64(chunkCount)*chunkSize, io.SeekEnd); err != nil {
		return nil, err
	}
	chunks := make(map[ChunkKey]Chunk, chunkCount)
	keys := make([]ChunkKey, 0, chunkCount)
	var prev uint64
	for i := uint32(0); i < chunkCount; i++ {
		chunk, err := readChunk(source)
		if err != nil {
			return nil, err
		}
		if i > 0 && chunk.PathHash < prev {
			return nil, &UnsortedChunksError{Previous: prev, Current: chunk.PathHash}
		}
		prev = chunk.PathHash

		key := chunk.Key()
		if _, exists := chunks[key]; exists {
			return nil, &DuplicateChunkError{PathHash: chunk.PathHash, LayerHash: chunk.LayerHash}
		}
		chunks[key] = chunk
		keys = append(keys, key)
	}

	return &Modpkg{
		metadata:   metadata,
		signature:  signature,
		chunkPaths: chunkPaths,
		wadPaths:   wadPaths,
		layers:     layers,
		chunks:     chunks,
		keys:       keys,
		source:     source,
	}, nil
}

func readSection(r io.Reader, size uint32) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("modpkg: read section: %w", err)
	}
	return buf, nil
}

func readStringList(r io.Reader) ([]string, error) {
	count, err := rw.ReadU32(r)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		s, err := rw.ReadString32(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func readLayers(r io.Reader) ([]Layer, error) {
	count, err := rw.ReadU32(r)
	if err != nil {
		return nil, err
	}
	out := make([]Layer, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := rw.ReadString32(r)
		if err != nil {
			return nil, err
		}
		priority, err := rw.ReadI32(r)
		if err != nil {
			return nil, err
		}
		out = append(out, Layer{Name: name, Priority: priority})
	}
	return out, nil
}

func readChunk(r io.Reader) (Chunk, error) {
	var c Chunk
	var err error
	if c.PathHash, err = rw.ReadU64(r); err != nil {
		return c, err
	}
	if c.DataOffset, err = rw.ReadU64(r); err != nil {
		return c, err
	}
	rawCompression, err := rw.ReadU32(r)
	if err != nil {
		return c, err
	}
	if rawCompression > uint32(CompressionZstd) {
		return c, &InvalidChunkCompressionError{Raw: rawCompression}
	}
	c.Compression = Compression(rawCompression)
	if c.CompressedSize, err = rw.ReadU64(r); err != nil {
		return c, err
	}
	if c.UncompressedSize, err = rw.ReadU64(r); err != nil {
		return c, err
	}
	if c.CompressedChecksum, err = rw.ReadU64(r); err != nil {
		return c, err
	}
	if c.UncompressedChecksum, err = rw.ReadU64(r); err != nil {
		return c, err
	}
	if c.PathIndex, err = rw.ReadU32(r); err != nil {
		return c, err
	}
	c.LayerHash, err = rw.ReadU64(r)
	return c, err
}

func writeChunk(w io.Writer, c *Chunk) error {
	if err := rw.WriteU64(w, c.PathHash); err != nil {
		return err
	}
	if err := rw.WriteU64(w, c.DataOffset); err != nil {
		return err
	}
	if err := rw.WriteU32(w, uint32(c.Compression)); err != nil {
		return err
	}
	if err := rw.WriteU64(w, c.CompressedSize); err != nil {
		return err
	}
	if err := rw.WriteU64(w, c.UncompressedSize); err != nil {
		return err
	}
	if err := rw.WriteU64(w, c.CompressedChecksum); err != nil {
		return err
	}
	if err := rw.WriteU64(w, c.UncompressedChecksum); err != nil {
		return err
	}
	if err := rw.WriteU32(w, c.PathIndex); err != nil {
		return err
	}
	return rw.WriteU64(w, c.LayerHash)
}
