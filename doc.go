// Package riftkit is a toolkit for reading, writing, and transforming the
// binary asset formats used by the League of Legends client.
//
// The toolkit is split into one package per format family:
//
//   - [github.com/phanxgames/riftkit/wad]: WAD container archives: mounting,
//     chunk decompression (gzip, zstd, zstd-multi), building, and extraction.
//   - [github.com/phanxgames/riftkit/modpkg]: the layered modding archive
//     variant with prioritized layers.
//   - [github.com/phanxgames/riftkit/bin]: the PROP/PTCH tagged property tree
//     used for game data.
//   - [github.com/phanxgames/riftkit/anm]: compressed skeletal animation
//     streams and their hot-frame evaluator.
//   - [github.com/phanxgames/riftkit/mesh]: skinned and static meshes, plus
//     the interleaved vertex buffer views the skinned meshes are built on.
//   - [github.com/phanxgames/riftkit/tex]: the quantized TEX texture format
//     and its DDS bridge.
//   - [github.com/phanxgames/riftkit/mapgeo]: bucketed environment geometry.
//   - [github.com/phanxgames/riftkit/ltkfile]: magic-byte identification of
//     archive payloads.
//
// This root package holds the small value types shared across those format
// packages: [Color], [AABB], and [Sphere].
//
// All formats are little-endian. The wad, modpkg, bin, and anm readers take
// an io.ReadSeeker; the mesh, tex, and mapgeo readers take an io.Reader.
// Readers validate as they go; no parser panics on untrusted input. Writers canonicalize:
// re-encoding a foreign file produces equivalent, not byte-identical, output.
package riftkit
