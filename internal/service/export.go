package service

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sort"

	"suitcase/internal/domain"
	"suitcase/internal/format"
)

// Exporter writes document streams out as native image files
type Exporter struct {
	codec    format.Codec
	dir      string
	eventBus *EventBus
}

// NewExporter creates an exporter writing into dir with the given codec.
// An empty dir means the working directory. eventBus may be nil.
func NewExporter(codec format.Codec, dir string, eventBus *EventBus) *Exporter {
	return &Exporter{
		codec:    codec,
		dir:      dir,
		eventBus: eventBus,
	}
}

// Export drains docs into the working directory. See Exporter.Export.
func Export(docs iter.Seq2[domain.Document, error], codec format.Codec) ([]string, error) {
	return NewExporter(codec, "", nil).Export(docs)
}

// exportRun is the state of one Export call
type exportRun struct {
	start            *domain.Start
	descriptors      map[string]*domain.Descriptor
	fieldsOfInterest map[string]map[string]struct{}
	paths            []string
}

// Export consumes docs to exhaustion and returns the paths written, in the
// order they were written.
//
// Every multi-dimensional field of every event becomes one image file named
// {event uid}_{field}.{ext}, whose header carries the run's start, the event
// without its data, and the event's descriptor. Scalar fields produce no
// file. Each stop becomes {stop uid}.json. Files already written stay on
// disk when an error aborts the export.
func (x *Exporter) Export(docs iter.Seq2[domain.Document, error]) ([]string, error) {
	run := &exportRun{
		descriptors:      make(map[string]*domain.Descriptor),
		fieldsOfInterest: make(map[string]map[string]struct{}),
	}

	for doc, err := range docs {
		if err != nil {
			return run.paths, err
		}
		if err := x.handle(run, doc); err != nil {
			return run.paths, err
		}
		x.eventBus.Publish(Event{
			Type:    EventDocument,
			Payload: DocumentPayload{Direction: DirectionExport, Kind: doc.Kind, UID: doc.UID()},
		})
	}

	return run.paths, nil
}

func (x *Exporter) handle(run *exportRun, doc domain.Document) error {
	switch doc.Kind {
	case domain.KindStart:
		start, ok := doc.Record.(*domain.Start)
		if !ok {
			return recordTypeError(doc)
		}
		if run.start != nil {
			return fmt.Errorf("%w: start %s arrived before run %s stopped", ErrRunInProgress, start.UID, run.start.UID)
		}
		run.start = start

	case domain.KindDescriptor:
		desc, ok := doc.Record.(*domain.Descriptor)
		if !ok {
			return recordTypeError(doc)
		}
		run.descriptors[desc.UID] = desc
		run.fieldsOfInterest[desc.UID] = desc.MultiDimensionalFields()

	case domain.KindEvent:
		event, ok := doc.Record.(*domain.Event)
		if !ok {
			return recordTypeError(doc)
		}
		return x.writeEvent(run, event)

	case domain.KindStop:
		stop, ok := doc.Record.(*domain.Stop)
		if !ok {
			return recordTypeError(doc)
		}
		if run.start == nil {
			return fmt.Errorf("%w: stop %s outside of a run", ErrMalformedStream, stop.UID)
		}
		if err := x.writeStop(run, stop); err != nil {
			return err
		}
		run.start = nil

	default:
		return fmt.Errorf("%w: unknown document kind %q", ErrMalformedStream, doc.Kind)
	}

	return nil
}

func recordTypeError(doc domain.Document) error {
	return fmt.Errorf("%w: %s document carries %T", ErrMalformedStream, doc.Kind, doc.Record)
}

func (x *Exporter) writeEvent(run *exportRun, event *domain.Event) error {
	if run.start == nil {
		return fmt.Errorf("%w: event %s outside of a run", ErrMalformedStream, event.UID)
	}
	desc, ok := run.descriptors[event.Descriptor]
	if !ok {
		return fmt.Errorf("%w: event %s references descriptor %q", ErrUnresolvedDescriptor, event.UID, event.Descriptor)
	}
	interesting := run.fieldsOfInterest[event.Descriptor]

	fields := make([]string, 0, len(event.Data))
	for field := range event.Data {
		if _, ok := interesting[field]; ok {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)

	header := map[string]any{
		"start":      run.start,
		"event":      event.WithoutData(),
		"descriptor": desc,
	}

	for _, field := range fields {
		arr, err := fieldArray(event.Data[field], desc.DataKeys[field].Shape)
		if err != nil {
			return fmt.Errorf("%w: field %s of event %s: %v", ErrMalformedStream, field, event.UID, err)
		}

		path := filepath.Join(x.dir, fmt.Sprintf("%s_%s.%s", event.UID, field, x.codec.Extension()))
		if err := x.codec.Write(&format.Image{Data: arr, Header: header}, path); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		run.paths = append(run.paths, path)

		if err := x.publishFile(path, domain.KindEvent, field); err != nil {
			return err
		}
	}

	return nil
}

// fieldArray returns the image held by an event field. Nested number lists
// are laid out with the shape declared by the descriptor.
func fieldArray(value any, shape []int) (*domain.Array, error) {
	switch v := value.(type) {
	case *domain.Array:
		return v, nil
	case []any:
		return domain.ArrayFromList(v, shape)
	}
	return nil, fmt.Errorf("%T is not an array", value)
}

func (x *Exporter) writeStop(run *exportRun, stop *domain.Stop) error {
	path := filepath.Join(x.dir, stop.UID+".json")
	err := format.WriteAtomic(path, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(stop)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	run.paths = append(run.paths, path)

	return x.publishFile(path, domain.KindStop, "")
}

func (x *Exporter) publishFile(path string, kind domain.Kind, field string) error {
	if x.eventBus == nil {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	x.eventBus.Publish(Event{
		Type:    EventFileWritten,
		Payload: FilePayload{Path: path, Kind: kind, Field: field, Bytes: info.Size()},
	})
	return nil
}
