// Package service translates between document streams and native image
// files.
//
// # Export
//
// Exporter consumes a document stream and writes one image file per
// multi-dimensional field of every event, named {event uid}_{field}.{ext},
// plus one {stop uid}.json per stop. Each image header carries the run's
// start, the event without its data, and the event's descriptor, so the
// file is self-describing. Scalar fields are carried only in those headers.
//
// # Ingest
//
// Ingester turns an ordered sequence of file paths into a lazy document
// stream: start, a descriptor shaped after the first file, one event per
// file, stop. Paths are pulled and files decoded only as the consumer asks
// for the next document, so a path source may be a directory watch that has
// not produced its later files yet.
//
// # Event System
//
// Both directions publish events on an optional EventBus: every document,
// every file written and every file read. The bus is synchronous; metrics,
// the run catalog and verbose logging subscribe to it.
//
// # Design Principles
//
// - The engine never logs; observers subscribe to the EventBus
// - Errors surface where they happen: a bad file fails its own event
// - Files are written atomically, so a failed run leaves no partial files
package service
