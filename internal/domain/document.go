package domain

import "fmt"

// Kind names the type of record carried by a Document
type Kind string

const (
	KindStart      Kind = "start"
	KindDescriptor Kind = "descriptor"
	KindEvent      Kind = "event"
	KindStop       Kind = "stop"
)

// Valid reports whether k is one of the four event-model record kinds
func (k Kind) Valid() bool {
	switch k {
	case KindStart, KindDescriptor, KindEvent, KindStop:
		return true
	}
	return false
}

// Document is one (kind, record) element of a document stream.
//
// Record is *Start, *Descriptor, *Event or *Stop for the known kinds. Streams
// read from external sources may carry other kinds with an arbitrary record;
// consumers decide whether to reject them.
type Document struct {
	Kind   Kind
	Record any
}

// StartDocument wraps a Start record
func StartDocument(s *Start) Document {
	return Document{Kind: KindStart, Record: s}
}

// DescriptorDocument wraps a Descriptor record
func DescriptorDocument(d *Descriptor) Document {
	return Document{Kind: KindDescriptor, Record: d}
}

// EventDocument wraps an Event record
func EventDocument(e *Event) Document {
	return Document{Kind: KindEvent, Record: e}
}

// StopDocument wraps a Stop record
func StopDocument(s *Stop) Document {
	return Document{Kind: KindStop, Record: s}
}

// UID returns the uid of the wrapped record, or "" for unknown records
func (d Document) UID() string {
	switch r := d.Record.(type) {
	case *Start:
		return r.UID
	case *Descriptor:
		return r.UID
	case *Event:
		return r.UID
	case *Stop:
		return r.UID
	}
	return ""
}

func (d Document) String() string {
	if uid := d.UID(); uid != "" {
		return fmt.Sprintf("%s(%s)", d.Kind, uid)
	}
	return string(d.Kind)
}
