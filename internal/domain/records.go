package domain

import (
	"bytes"
	"encoding/json"
)

const (
	// SourceFile tags data keys whose values were read from files
	SourceFile = "file"
	// DTypeArray is the descriptor dtype for array-valued fields
	DTypeArray = "array"
	// ExitSuccess is the exit status of a run that completed normally
	ExitSuccess = "success"
	// StreamPrimary is the default descriptor stream name
	StreamPrimary = "primary"
)

// Start opens a run. Keys beyond the required ones, such as scan_id or
// plan_name, are kept in Extra and written back inline.
type Start struct {
	UID  string  `json:"uid"`
	Time float64 `json:"time"`

	Extra map[string]any `json:"-"`
}

var startKeys = jsonKeys(Start{})

func (s Start) MarshalJSON() ([]byte, error) {
	type plain Start
	return marshalInline(plain(s), startKeys, s.Extra)
}

func (s *Start) UnmarshalJSON(b []byte) error {
	type plain Start
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	extra, err := extraFields(b, startKeys)
	if err != nil {
		return err
	}
	*s = Start(p)
	s.Extra = extra
	return nil
}

// DataKey describes one field produced by a stream
type DataKey struct {
	Source string `json:"source"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`

	// Extra holds keys such as units or external
	Extra map[string]any `json:"-"`
}

var dataKeyKeys = jsonKeys(DataKey{})

func (k DataKey) MarshalJSON() ([]byte, error) {
	type plain DataKey
	return marshalInline(plain(k), dataKeyKeys, k.Extra)
}

func (k *DataKey) UnmarshalJSON(b []byte) error {
	type plain DataKey
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	extra, err := extraFields(b, dataKeyKeys)
	if err != nil {
		return err
	}
	*k = DataKey(p)
	k.Extra = extra
	return nil
}

// IsMultiDimensional reports whether the field holds image data.
// Only the declared rank matters: a shape with more than one dimension.
func (k DataKey) IsMultiDimensional() bool {
	return len(k.Shape) > 1
}

// Descriptor describes the data produced by one stream of a run
type Descriptor struct {
	UID      string             `json:"uid"`
	Time     float64            `json:"time"`
	Start    string             `json:"start"`
	Name     string             `json:"name,omitempty"`
	DataKeys map[string]DataKey `json:"data_keys"`

	// Extra holds keys such as configuration or hints
	Extra map[string]any `json:"-"`
}

var descriptorKeys = jsonKeys(Descriptor{})

func (d Descriptor) MarshalJSON() ([]byte, error) {
	type plain Descriptor
	return marshalInline(plain(d), descriptorKeys, d.Extra)
}

func (d *Descriptor) UnmarshalJSON(b []byte) error {
	type plain Descriptor
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	extra, err := extraFields(b, descriptorKeys)
	if err != nil {
		return err
	}
	*d = Descriptor(p)
	d.Extra = extra
	return nil
}

// MultiDimensionalFields returns the set of data keys holding image data
func (d *Descriptor) MultiDimensionalFields() map[string]struct{} {
	fields := make(map[string]struct{})
	for name, key := range d.DataKeys {
		if key.IsMultiDimensional() {
			fields[name] = struct{}{}
		}
	}
	return fields
}

// Event carries the data of one frame
type Event struct {
	UID        string             `json:"uid"`
	Time       float64            `json:"time"`
	Descriptor string             `json:"descriptor"`
	SeqNum     int                `json:"seq_num,omitempty"`
	Timestamps map[string]float64 `json:"timestamps"`
	Data       map[string]any     `json:"data,omitempty"`

	// Header holds metadata read from a native file header. It is kept
	// apart from the record fields so header keys never shadow them.
	Header map[string]any `json:"header,omitempty"`

	Extra map[string]any `json:"-"`
}

var eventKeys = jsonKeys(Event{})

func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	return marshalInline(plain(e), eventKeys, e.Extra)
}

// WithoutData returns a shallow copy of the event with its data removed
func (e *Event) WithoutData() Event {
	c := *e
	c.Data = nil
	return c
}

// UnmarshalJSON decodes data values that look like arrays into *Array
func (e *Event) UnmarshalJSON(b []byte) error {
	type plain Event
	var raw struct {
		plain
		Data map[string]json.RawMessage `json:"data,omitempty"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	extra, err := extraFields(b, eventKeys)
	if err != nil {
		return err
	}

	*e = Event(raw.plain)
	e.Extra = extra
	if raw.Data == nil {
		e.Data = nil
		return nil
	}

	e.Data = make(map[string]any, len(raw.Data))
	for field, value := range raw.Data {
		v, err := decodeDataValue(value)
		if err != nil {
			return err
		}
		e.Data[field] = v
	}
	return nil
}

// decodeDataValue decodes a single event data value
func decodeDataValue(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var shaped struct {
			DType *DType `json:"dtype"`
			Shape []int  `json:"shape"`
			Data  []byte `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &shaped); err == nil && shaped.DType != nil && shaped.Shape != nil {
			return &Array{DType: *shaped.DType, Shape: shaped.Shape, Data: shaped.Data}, nil
		}
	}

	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Stop closes a run
type Stop struct {
	UID        string         `json:"uid"`
	Time       float64        `json:"time"`
	Start      string         `json:"start"`
	ExitStatus string         `json:"exit_status"`
	Reason     string         `json:"reason,omitempty"`
	NumEvents  map[string]int `json:"num_events,omitempty"`

	Extra map[string]any `json:"-"`
}

var stopKeys = jsonKeys(Stop{})

func (s Stop) MarshalJSON() ([]byte, error) {
	type plain Stop
	return marshalInline(plain(s), stopKeys, s.Extra)
}

func (s *Stop) UnmarshalJSON(b []byte) error {
	type plain Stop
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	extra, err := extraFields(b, stopKeys)
	if err != nil {
		return err
	}
	*s = Stop(p)
	s.Extra = extra
	return nil
}
