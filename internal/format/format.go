// Package format implements native image file formats for suitcase.
//
// A Codec reads and writes one image per file: a pixel array plus a header
// mapping. The translation engine is written against the Codec interface
// only, so new formats plug in through the Registry without touching it.
//
// Both bundled formats (EDF and ADSC SMV) use a brace-delimited ASCII header
// padded to a multiple of 512 bytes followed by raw pixel data. Header values
// that are not plain single-line strings are stored as JSON.
package format

import (
	"errors"

	"suitcase/internal/domain"
)

var (
	// ErrUnknownFormat is returned when no codec matches a name or extension
	ErrUnknownFormat = errors.New("unknown format")
	// ErrBadHeader is returned for a missing or malformed header block
	ErrBadHeader = errors.New("malformed header")
	// ErrUnsupportedDType is returned when a format cannot store a dtype or rank
	ErrUnsupportedDType = errors.New("unsupported data type")
	// ErrShortData is returned when a file holds fewer pixel bytes than declared
	ErrShortData = errors.New("short pixel data")
)

// Image is the content of one native file
type Image struct {
	Data   *domain.Array
	Header map[string]any
}

// Codec reads and writes one native image format
type Codec interface {
	// Open decodes the file at path
	Open(path string) (*Image, error)

	// Write encodes img into a new file at path
	Write(img *Image, path string) error

	// Extension returns the canonical file extension without the dot
	Extension() string
}
