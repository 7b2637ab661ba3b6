package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	"suitcase/internal/domain"
)

// JSONCodec handles JSON Lines document streams. Each line is a two-element
// array: the record kind followed by the record.
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse lazily decodes a JSON Lines document stream
func (c *JSONCodec) Parse(r io.Reader) iter.Seq2[domain.Document, error] {
	return func(yield func(domain.Document, error) bool) {
		decoder := json.NewDecoder(r)
		for line := 1; ; line++ {
			var pair []json.RawMessage
			if err := decoder.Decode(&pair); err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield(domain.Document{}, fmt.Errorf("failed to parse JSON document %d: %w", line, err))
				return
			}

			doc, err := c.decodePair(pair)
			if err != nil {
				yield(domain.Document{}, fmt.Errorf("document %d: %w", line, err))
				return
			}
			if !yield(doc, nil) {
				return
			}
		}
	}
}

func (c *JSONCodec) decodePair(pair []json.RawMessage) (domain.Document, error) {
	if len(pair) != 2 {
		return domain.Document{}, fmt.Errorf("expected [kind, record], got %d elements", len(pair))
	}

	var kind domain.Kind
	if err := json.Unmarshal(pair[0], &kind); err != nil {
		return domain.Document{}, fmt.Errorf("failed to parse kind: %w", err)
	}

	record, err := decodeRecord(kind, pair[1])
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{Kind: kind, Record: record}, nil
}

// Export writes every document as one JSON line
func (c *JSONCodec) Export(docs iter.Seq2[domain.Document, error], w io.Writer) error {
	encoder := json.NewEncoder(w)

	for doc, err := range docs {
		if err != nil {
			return err
		}
		if err := encoder.Encode([]any{doc.Kind, doc.Record}); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	}

	return nil
}
