package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
)

const headerBlockSize = 512

// dialect describes how a key/value line is spelled inside a header block
type dialect struct {
	assign     string // written between key and value
	terminator string // written after the value
}

// headerEntry is one key/value line of a header block
type headerEntry struct {
	key   string
	value string
}

// buildHeader renders entries as a brace-delimited block padded with spaces
// so the block length is a multiple of 512 bytes
func buildHeader(d dialect, entries []headerEntry) []byte {
	var b bytes.Buffer
	b.WriteString("{\n")
	for _, e := range entries {
		b.WriteString(e.key)
		b.WriteString(d.assign)
		b.WriteString(e.value)
		b.WriteString(d.terminator)
		b.WriteByte('\n')
	}

	n := b.Len() + 2
	padded := (n + headerBlockSize - 1) / headerBlockSize * headerBlockSize
	b.Write(bytes.Repeat([]byte{' '}, padded-n))
	b.WriteString("}\n")
	return b.Bytes()
}

// splitHeader returns the header block and the bytes following it
func splitHeader(content []byte) (block, rest []byte, err error) {
	start := bytes.IndexByte(content, '{')
	if start < 0 || len(bytes.TrimSpace(content[:start])) != 0 {
		return nil, nil, fmt.Errorf("%w: no opening brace", ErrBadHeader)
	}
	end := bytes.Index(content[start:], []byte("}\n"))
	if end < 0 {
		return nil, nil, fmt.Errorf("%w: no closing brace", ErrBadHeader)
	}
	end += start + 2
	return content[:end], content[end:], nil
}

// parseHeader extracts the key/value lines of a header block in file order
func parseHeader(block []byte, d dialect) ([]headerEntry, error) {
	body := strings.TrimSpace(string(block))
	body = strings.TrimPrefix(body, "{")
	body = strings.TrimSuffix(body, "}")

	term := strings.TrimSpace(d.terminator)
	var entries []headerEntry
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(strings.TrimSuffix(line, term))

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w: line %q has no '='", ErrBadHeader, line)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%w: empty key in line %q", ErrBadHeader, line)
		}
		entries = append(entries, headerEntry{key: key, value: strings.TrimSpace(value)})
	}
	return entries, nil
}

// encodeValue renders a header value. Plain single-line strings are written
// as-is; everything else is JSON so it survives a read back.
func encodeValue(v any) (string, error) {
	if s, ok := v.(string); ok && isPlain(s) {
		return s, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func isPlain(s string) bool {
	if strings.ContainsAny(s, "\r\n") || strings.TrimSpace(s) != s {
		return false
	}
	if s != "" && strings.ContainsRune(`{["`, rune(s[0])) {
		return false
	}
	return true
}

// decodeValue is the inverse of encodeValue
func decodeValue(s string) any {
	if s == "" || !strings.ContainsRune(`{["`, rune(s[0])) {
		return s
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

// userEntries encodes the caller's header keys in sorted order, skipping any
// key the format reserves for its own layout
func userEntries(header map[string]any, reserved func(string) bool) ([]headerEntry, error) {
	keys := make([]string, 0, len(header))
	for k := range header {
		if reserved(k) || strings.ContainsAny(k, "=\n") || strings.TrimSpace(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]headerEntry, 0, len(keys))
	for _, k := range keys {
		v, err := encodeValue(header[k])
		if err != nil {
			return nil, fmt.Errorf("failed to encode header key %s: %w", k, err)
		}
		entries = append(entries, headerEntry{key: strings.TrimSpace(k), value: v})
	}
	return entries, nil
}

// userHeader decodes the non-reserved entries of a parsed header
func userHeader(entries []headerEntry, reserved func(string) bool) map[string]any {
	header := make(map[string]any)
	for _, e := range entries {
		if reserved(e.key) {
			continue
		}
		header[e.key] = decodeValue(e.value)
	}
	return header
}

// swapBytes converts a buffer between byte orders in place
func swapBytes(data []byte, size int) {
	if size <= 1 {
		return
	}
	for off := 0; off+size <= len(data); off += size {
		slices.Reverse(data[off : off+size])
	}
}
