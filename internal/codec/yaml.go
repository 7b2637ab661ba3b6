package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	"suitcase/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles document streams as multi-document YAML
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlDocument represents one YAML document of the stream
type yamlDocument struct {
	Kind   string `yaml:"kind"`
	Record any    `yaml:"record"`
}

// Parse lazily decodes a multi-document YAML stream
func (c *YAMLCodec) Parse(r io.Reader) iter.Seq2[domain.Document, error] {
	return func(yield func(domain.Document, error) bool) {
		decoder := yaml.NewDecoder(r)
		for n := 1; ; n++ {
			var yd yamlDocument
			if err := decoder.Decode(&yd); err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield(domain.Document{}, fmt.Errorf("failed to parse YAML document %d: %w", n, err))
				return
			}

			// Records share their JSON tags, so route the generic YAML
			// value through JSON to land in the typed structs
			raw, err := json.Marshal(yd.Record)
			if err != nil {
				yield(domain.Document{}, fmt.Errorf("document %d: %w", n, err))
				return
			}
			kind := domain.Kind(yd.Kind)
			record, err := decodeRecord(kind, raw)
			if err != nil {
				yield(domain.Document{}, fmt.Errorf("document %d: %w", n, err))
				return
			}
			if !yield(domain.Document{Kind: kind, Record: record}, nil) {
				return
			}
		}
	}
}

// Export writes every document as one YAML document
func (c *YAMLCodec) Export(docs iter.Seq2[domain.Document, error], w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	for doc, err := range docs {
		if err != nil {
			return err
		}

		raw, err := json.Marshal(doc.Record)
		if err != nil {
			return fmt.Errorf("failed to encode %s record: %w", doc.Kind, err)
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return fmt.Errorf("failed to encode %s record: %w", doc.Kind, err)
		}

		if err := encoder.Encode(&yamlDocument{Kind: string(doc.Kind), Record: generic}); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
	}

	return nil
}
