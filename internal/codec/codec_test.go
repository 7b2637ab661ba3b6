package codec

import (
	"bytes"
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suitcase/internal/domain"
)

func sampleStream() []domain.Document {
	img := domain.NewArray(domain.Uint16, 2, 2)
	img.SetFloat(1, 42)

	return []domain.Document{
		domain.StartDocument(&domain.Start{UID: "s1", Time: 100.5}),
		domain.DescriptorDocument(&domain.Descriptor{
			UID:   "d1",
			Time:  100.6,
			Start: "s1",
			Name:  domain.StreamPrimary,
			DataKeys: map[string]domain.DataKey{
				"image": {Source: domain.SourceFile, DType: domain.DTypeArray, Shape: []int{2, 2}},
			},
		}),
		domain.EventDocument(&domain.Event{
			UID:        "e1",
			Time:       101,
			Descriptor: "d1",
			SeqNum:     1,
			Timestamps: map[string]float64{"image": 101},
			Data:       map[string]any{"image": img},
			Header:     map[string]any{"Title": "frame 1"},
		}),
		domain.StopDocument(&domain.Stop{UID: "x1", Time: 102, Start: "s1", ExitStatus: domain.ExitSuccess}),
	}
}

func seqOf(docs []domain.Document) iter.Seq2[domain.Document, error] {
	return func(yield func(domain.Document, error) bool) {
		for _, doc := range docs {
			if !yield(doc, nil) {
				return
			}
		}
	}
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

func assertSameStream(t *testing.T, want, got []domain.Document) {
	t.Helper()
	require.Len(t, got, len(want))

	for i := range want {
		assert.Equal(t, want[i].Kind, got[i].Kind, "document %d kind", i)
		switch w := want[i].Record.(type) {
		case *domain.Event:
			g, ok := got[i].Record.(*domain.Event)
			require.True(t, ok, "document %d: got %T", i, got[i].Record)
			assert.True(t, w.Data["image"].(*domain.Array).Equal(g.Data["image"].(*domain.Array)))
			assert.Equal(t, w.WithoutData(), g.WithoutData())
		default:
			assert.Equal(t, want[i].Record, got[i].Record, "document %d", i)
		}
	}
}

func TestStreamRoundTrip(t *testing.T) {
	for _, c := range []Codec{NewJSONCodec(), NewYAMLCodec()} {
		t.Run(c.Format(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, c.Export(seqOf(sampleStream()), &buf))

			got := collect(t, c.Parse(&buf))

			assertSameStream(t, sampleStream(), got)
		})
	}
}

func TestStreamKeepsUnknownKeys(t *testing.T) {
	lines := []string{
		`["start",{"uid":"s1","time":1,"scan_id":7,"plan_name":"count"}]`,
		`["descriptor",{"uid":"d1","time":2,"start":"s1","data_keys":{"image":{"source":"file","dtype":"array","shape":[2,2],"units":"counts","external":"FILESTORE:"}},"configuration":{"det":{"gain":2}}}]`,
		`["stop",{"uid":"x1","time":3,"start":"s1","exit_status":"success","run_duration":2}]`,
	}
	input := strings.Join(lines, "\n") + "\n"

	// json -> yaml -> json
	var asYAML bytes.Buffer
	require.NoError(t, NewYAMLCodec().Export(NewJSONCodec().Parse(strings.NewReader(input)), &asYAML))
	var asJSON bytes.Buffer
	require.NoError(t, NewJSONCodec().Export(NewYAMLCodec().Parse(&asYAML), &asJSON))

	got := strings.Split(strings.TrimSpace(asJSON.String()), "\n")
	require.Len(t, got, len(lines))
	for i := range lines {
		assert.JSONEq(t, lines[i], got[i])
	}
}

func TestJSONLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONCodec().Export(seqOf(sampleStream()[:1]), &buf))

	assert.Equal(t, `["start",{"uid":"s1","time":100.5}]`+"\n", buf.String())
}

func TestParsePassesUnknownKinds(t *testing.T) {
	tests := []struct {
		codec Codec
		input string
	}{
		{NewJSONCodec(), `["comment",{"text":"hello"}]`},
		{NewYAMLCodec(), "kind: comment\nrecord:\n  text: hello\n"},
	}

	for _, tt := range tests {
		t.Run(tt.codec.Format(), func(t *testing.T) {
			got := collect(t, tt.codec.Parse(strings.NewReader(tt.input)))

			require.Len(t, got, 1)
			assert.Equal(t, domain.Kind("comment"), got[0].Kind)
			assert.Equal(t, map[string]any{"text": "hello"}, got[0].Record)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		codec Codec
		input string
	}{
		{"json not an array", NewJSONCodec(), `{"kind":"start"}`},
		{"json wrong arity", NewJSONCodec(), `["start"]`},
		{"json bad record", NewJSONCodec(), `["start",{"uid":5}]`},
		{"json truncated", NewJSONCodec(), `["start",{"uid":"s1"}]` + "\n" + `["stop",{`},
		{"yaml bad record", NewYAMLCodec(), "kind: stop\nrecord:\n  uid: [1, 2]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errs []error
			for _, err := range tt.codec.Parse(strings.NewReader(tt.input)) {
				if err != nil {
					errs = append(errs, err)
				}
			}
			assert.Len(t, errs, 1, "parsing stops at the first error")
		})
	}
}

func TestParseIsLazy(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONCodec().Export(seqOf(sampleStream()), &buf))
	buf.WriteString("not json at all")

	var kinds []domain.Kind
	for doc, err := range NewJSONCodec().Parse(&buf) {
		require.NoError(t, err)
		kinds = append(kinds, doc.Kind)
		if doc.Kind == domain.KindDescriptor {
			break
		}
	}

	assert.Equal(t, []domain.Kind{domain.KindStart, domain.KindDescriptor}, kinds)
}

func TestExportStopsOnStreamError(t *testing.T) {
	boom := errors.New("decode failed")
	docs := func(yield func(domain.Document, error) bool) {
		if !yield(sampleStream()[0], nil) {
			return
		}
		yield(domain.Document{}, boom)
	}

	for _, c := range []Codec{NewJSONCodec(), NewYAMLCodec()} {
		var buf bytes.Buffer
		assert.ErrorIs(t, c.Export(docs, &buf), boom, c.Format())
	}
}

func TestForName(t *testing.T) {
	for _, name := range []string{"", "json", "JSONL"} {
		c, err := ForName(name)
		require.NoError(t, err)
		assert.Equal(t, "json", c.Format())
	}
	for _, name := range []string{"yaml", "yml"} {
		c, err := ForName(name)
		require.NoError(t, err)
		assert.Equal(t, "yaml", c.Format())
	}

	_, err := ForName("xml")
	assert.Error(t, err)
}
