// Package domain defines the event-model records exchanged by suitcase.
//
// A run is described by an ordered document stream: one Start, one or more
// Descriptors, any number of Events and a final Stop. Each element of the
// stream is a Document pairing the record kind with the record itself.
//
// # Records
//
// Start opens a run and is referenced by uid from every other record.
//
// Descriptor declares the shape of the data produced by one stream. A data
// key whose shape has more than one dimension is image data; everything else
// is scalar metadata.
//
// Event carries one frame: per-field values, per-field timestamps and the uid
// of its Descriptor. Image values are *Array.
//
// Stop closes a run and records its exit status.
//
// # Arrays
//
// Array is a dense, row-major, little-endian pixel buffer tagged with a
// numpy-style dtype ("u2", "f4", ...). It is the only value type that native
// image formats read and write.
//
// # Design Principles
//
// - Records are written once and never mutated by the translation engine
// - No file system or codec dependencies
// - Timestamps are float64 seconds since the Unix epoch
package domain
