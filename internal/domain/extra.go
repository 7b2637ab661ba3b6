package domain

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
)

// jsonKeys returns the JSON object keys owned by the fields of struct v
func jsonKeys(v any) map[string]bool {
	t := reflect.TypeOf(v)
	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		keys[name] = true
	}
	return keys
}

// marshalInline encodes v and merges extra into the resulting object.
// Keys owned by a struct field always come from the field.
func marshalInline(v any, known map[string]bool, extra map[string]any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	for key, value := range extra {
		if known[key] {
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		fields[key] = raw
	}
	return json.Marshal(fields)
}

// extraFields returns the members of object b that no struct field owns, or
// nil when there are none. Numbers keep their literal form.
func extraFields(b []byte, known map[string]bool) (map[string]any, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}

	var extra map[string]any
	for key, raw := range fields {
		if known[key] {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[key] = v
	}
	return extra, nil
}
