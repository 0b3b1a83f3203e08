// Package filter implements the chunk filter pipeline.
//
// Every dataset chunk passes through an ordered list of filters before it is
// written: filters are applied first to last when encoding and last to first
// when decoding. The pipeline recorded in the catalog is the list of [Info]
// values; [NewPipeline] rebuilds the filters from it.
//
// # Supported Filters
//
//   - Deflate (ID 1): zlib compression, level 1-9, via klauspost/compress.
//   - Shuffle (ID 2): byte shuffling by element size. Groups the bytes of
//     equal significance together, which helps the compressors on float data.
//   - Fletcher32 (ID 3): appends a Fletcher-32 checksum and verifies it on
//     decode.
//   - Zstd (ID 32015): zstandard compression via klauspost/compress.
//
// The usual order is shuffle, then one compressor, then fletcher32.
package filter
