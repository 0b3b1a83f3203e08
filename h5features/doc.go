// Package h5features stores per-file, time-aligned feature matrices into a
// container file, one group per feature type, and grows groups
// incrementally: a new batch of files is appended to an existing group
// instead of rewriting the file.
//
// A write goes through four steps:
//
//  1. [ValidateWrite] checks the request before anything is touched and
//     derives the feature dimension and the number of rows per chunk.
//  2. [InspectGroup] reads the schema of the target group, if it exists.
//  3. [Decide] compares the stored schema with the batch and returns a
//     [Decision]: Create, Append or Reject.
//  4. [Writer.Write] streams the batch into the group in chunks of at most
//     [WriteRequest.ChunkRows] rows and appends the file index.
//
// [Write] runs all four steps on a container path:
//
//	batch := h5features.FeatureBatch{}
//	batch.Add("a.wav", h5features.FromRows(featsA), h5features.Vector(timesA))
//	res, err := h5features.Write("out.h5f", "mfcc", batch,
//	    h5features.WithChunkSize(100_000), h5features.WithCompression(4))
//
// Errors from validation and decision match the sentinels in this package
// with [errors.Is]. Malformed input (ragged rows, a shape that disagrees
// with its data) is reported as a [*MalformedInputError] that is never
// wrapped, so callers can tell bad data apart from a batch that is
// incompatible with what is already stored.
package h5features
