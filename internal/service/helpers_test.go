package service

import (
	"iter"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"suitcase/internal/domain"
	"suitcase/internal/format"
)

// spyCodec wraps a codec and counts decode and encode calls
type spyCodec struct {
	format.Codec
	opened  []string
	written []string
}

func (s *spyCodec) Open(path string) (*format.Image, error) {
	s.opened = append(s.opened, path)
	return s.Codec.Open(path)
}

func (s *spyCodec) Write(img *format.Image, path string) error {
	s.written = append(s.written, path)
	return s.Codec.Write(img, path)
}

func frame(dtype domain.DType, seed int, shape ...int) *domain.Array {
	a := domain.NewArray(dtype, shape...)
	for i := 0; i < a.Len(); i++ {
		a.SetFloat(i, float64(seed*100+i))
	}
	return a
}

// writeFrames writes n native files and returns their paths in order
func writeFrames(t *testing.T, codec format.Codec, dir string, n int, shape ...int) []string {
	t.Helper()
	paths := make([]string, n)
	for i := range paths {
		paths[i] = filepath.Join(dir, string(rune('a'+i))+"."+codec.Extension())
		img := &format.Image{
			Data:   frame(domain.Uint16, i+1, shape...),
			Header: map[string]any{"Title": "frame " + string(rune('a'+i))},
		}
		require.NoError(t, codec.Write(img, paths[i]))
	}
	return paths
}

func collect(t *testing.T, docs iter.Seq2[domain.Document, error]) []domain.Document {
	t.Helper()
	var out []domain.Document
	for doc, err := range docs {
		require.NoError(t, err)
		out = append(out, doc)
	}
	return out
}

func seqOf(docs ...domain.Document) iter.Seq2[domain.Document, error] {
	return func(yield func(domain.Document, error) bool) {
		for _, doc := range docs {
			if !yield(doc, nil) {
				return
			}
		}
	}
}

func kinds(docs []domain.Document) []domain.Kind {
	out := make([]domain.Kind, len(docs))
	for i, doc := range docs {
		out[i] = doc.Kind
	}
	return out
}

// imageRun builds a complete single-descriptor run of n image events
func imageRun(n int, shape ...int) []domain.Document {
	start := &domain.Start{UID: domain.NewUID(), Time: 1000}
	desc := &domain.Descriptor{
		UID:   domain.NewUID(),
		Time:  1000.1,
		Start: start.UID,
		Name:  domain.StreamPrimary,
		DataKeys: map[string]domain.DataKey{
			"image": {Source: domain.SourceFile, DType: domain.DTypeArray, Shape: shape},
		},
	}

	docs := []domain.Document{domain.StartDocument(start), domain.DescriptorDocument(desc)}
	for i := 0; i < n; i++ {
		docs = append(docs, domain.EventDocument(&domain.Event{
			UID:        domain.NewUID(),
			Time:       1001 + float64(i),
			Descriptor: desc.UID,
			SeqNum:     i + 1,
			Timestamps: map[string]float64{"image": 1001 + float64(i)},
			Data:       map[string]any{"image": frame(domain.Uint16, i+1, shape...)},
		}))
	}
	docs = append(docs, domain.StopDocument(&domain.Stop{
		UID:        domain.NewUID(),
		Time:       2000,
		Start:      start.UID,
		ExitStatus: domain.ExitSuccess,
	}))
	return docs
}
