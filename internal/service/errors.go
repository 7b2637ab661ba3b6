package service

import "errors"

var (
	// ErrMalformedStream is returned for a document the exporter cannot
	// place: an unknown kind, a record of the wrong type, or a record that
	// arrives outside a run
	ErrMalformedStream = errors.New("malformed document stream")

	// ErrUnresolvedDescriptor is returned when an event references a
	// descriptor that has not been seen earlier in the stream
	ErrUnresolvedDescriptor = errors.New("unresolved descriptor reference")

	// ErrRunInProgress is returned when a start arrives before the previous
	// run was stopped
	ErrRunInProgress = errors.New("run already in progress")

	// ErrNoPaths is returned when ingest is given no files
	ErrNoPaths = errors.New("no paths to ingest")
)
