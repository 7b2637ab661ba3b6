// Package codec serializes document streams for storage and piping.
//
// Streams are read lazily: Parse returns an iterator that decodes one
// document per pull, so arbitrarily long runs never sit in memory at once.
//
// Image values in event data are written as {"dtype", "shape", "data"}
// objects with data holding the little-endian pixel bytes in base64, and
// are read back as *domain.Array. Nested lists of numbers are also accepted
// on input; they stay lists here and the exporter lays them out as float64
// pixels using the shape declared by the descriptor.
//
// Record keys that the typed records do not name, such as scan_id on a
// start, are carried through unchanged.
package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"strings"

	"suitcase/internal/domain"
)

// Importer reads a document stream from a serialized form
type Importer interface {
	Parse(r io.Reader) iter.Seq2[domain.Document, error]
	Format() string
}

// Exporter writes a document stream to a serialized form
type Exporter interface {
	Export(docs iter.Seq2[domain.Document, error], w io.Writer) error
	Format() string
}

// Codec both reads and writes one stream format
type Codec interface {
	Importer
	Exporter
}

// ForName returns the stream codec for a format name
func ForName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json", "jsonl":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("unknown stream encoding %q", name)
}

// decodeRecord decodes the JSON form of a record into its typed struct.
// Unknown kinds keep a generic record so consumers can decide what to do.
func decodeRecord(kind domain.Kind, raw []byte) (any, error) {
	var record any
	switch kind {
	case domain.KindStart:
		record = &domain.Start{}
	case domain.KindDescriptor:
		record = &domain.Descriptor{}
	case domain.KindEvent:
		record = &domain.Event{}
	case domain.KindStop:
		record = &domain.Stop{}
	default:
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return nil, fmt.Errorf("failed to decode %s record: %w", kind, err)
		}
		return generic, nil
	}

	if err := json.Unmarshal(raw, record); err != nil {
		return nil, fmt.Errorf("failed to decode %s record: %w", kind, err)
	}
	return record, nil
}
