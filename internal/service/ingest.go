package service

import (
	"fmt"
	"iter"
	"os"
	"slices"

	"suitcase/internal/domain"
	"suitcase/internal/format"
)

// ImageField is the data key ingested frames are stored under
const ImageField = "image"

// Ingester turns native image files into a document stream
type Ingester struct {
	codec    format.Codec
	eventBus *EventBus
	newUID   func() string
	now      func() float64
}

// NewIngester creates an ingester decoding files with the given codec.
// eventBus may be nil.
func NewIngester(codec format.Codec, eventBus *EventBus) *Ingester {
	return &Ingester{
		codec:    codec,
		eventBus: eventBus,
		newUID:   domain.NewUID,
		now:      domain.Now,
	}
}

// Ingest reads paths with codec. See Ingester.Ingest.
func Ingest(paths iter.Seq[string], codec format.Codec) iter.Seq2[domain.Document, error] {
	return NewIngester(codec, nil).Ingest(paths)
}

// Ingest returns a lazy, single-pass document stream for the files in paths:
// a start, a descriptor shaped after the first file, one event per file in
// order, and a stop.
//
// Files are decoded one at a time as the stream is pulled. The first file is
// decoded before the descriptor is yielded. An empty paths yields only
// ErrNoPaths. A file that cannot be decoded yields its error in place of its
// event and ends the stream.
func (in *Ingester) Ingest(paths iter.Seq[string]) iter.Seq2[domain.Document, error] {
	return func(yield func(domain.Document, error) bool) {
		next, stop := iter.Pull(paths)
		defer stop()

		first, ok := next()
		if !ok {
			yield(domain.Document{}, ErrNoPaths)
			return
		}

		start := &domain.Start{UID: in.newUID(), Time: in.now()}
		if !in.emit(yield, domain.StartDocument(start)) {
			return
		}

		descriptorUID := in.newUID()
		event, err := in.event(first, descriptorUID, 1)
		if err != nil {
			yield(domain.Document{}, err)
			return
		}

		shape := event.Data[ImageField].(*domain.Array).Shape
		descriptor := &domain.Descriptor{
			UID:   descriptorUID,
			Time:  in.now(),
			Start: start.UID,
			Name:  domain.StreamPrimary,
			DataKeys: map[string]domain.DataKey{
				ImageField: {Source: domain.SourceFile, DType: domain.DTypeArray, Shape: slices.Clone(shape)},
			},
		}
		if !in.emit(yield, domain.DescriptorDocument(descriptor)) {
			return
		}
		if !in.emit(yield, domain.EventDocument(event)) {
			return
		}

		count := 1
		for {
			path, ok := next()
			if !ok {
				break
			}
			count++
			event, err := in.event(path, descriptorUID, count)
			if err != nil {
				yield(domain.Document{}, err)
				return
			}
			if !in.emit(yield, domain.EventDocument(event)) {
				return
			}
		}

		in.emit(yield, domain.StopDocument(&domain.Stop{
			UID:        in.newUID(),
			Time:       in.now(),
			Start:      start.UID,
			ExitStatus: domain.ExitSuccess,
			NumEvents:  map[string]int{domain.StreamPrimary: count},
		}))
	}
}

func (in *Ingester) emit(yield func(domain.Document, error) bool, doc domain.Document) bool {
	in.eventBus.Publish(Event{
		Type:    EventDocument,
		Payload: DocumentPayload{Direction: DirectionIngest, Kind: doc.Kind, UID: doc.UID()},
	})
	return yield(doc, nil)
}

// event decodes one file into an event. The file's modification time is
// both the event time and the image timestamp.
func (in *Ingester) event(path, descriptorUID string, seq int) (*domain.Event, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to ingest %s: %w", path, err)
	}
	img, err := in.codec.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to ingest %s: %w", path, err)
	}
	if img.Data == nil {
		return nil, fmt.Errorf("failed to ingest %s: %w: no pixel data", path, domain.ErrInvalidArray)
	}

	in.eventBus.Publish(Event{
		Type:    EventFileRead,
		Payload: FilePayload{Path: path, Kind: domain.KindEvent, Field: ImageField, Bytes: info.Size()},
	})

	mtime := domain.Timestamp(info.ModTime())
	return &domain.Event{
		UID:        in.newUID(),
		Time:       mtime,
		Descriptor: descriptorUID,
		SeqNum:     seq,
		Timestamps: map[string]float64{ImageField: mtime},
		Data:       map[string]any{ImageField: img.Data},
		Header:     img.Header,
	}, nil
}
