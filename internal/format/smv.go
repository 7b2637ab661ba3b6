package format

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"suitcase/internal/domain"
)

var smvDialect = dialect{assign: "=", terminator: ";"}

// SMVCodec handles ADSC SMV detector images. Only 2-D unsigned 16-bit data
// is representable.
type SMVCodec struct{}

// NewSMVCodec creates a new SMV codec
func NewSMVCodec() *SMVCodec {
	return &SMVCodec{}
}

// Extension returns the canonical SMV extension
func (c *SMVCodec) Extension() string {
	return "img"
}

func smvReserved(key string) bool {
	switch key {
	case "HEADER_BYTES", "DIM", "BYTE_ORDER", "TYPE", "SIZE1", "SIZE2":
		return true
	}
	return false
}

// Open decodes an SMV file
func (c *SMVCodec) Open(path string) (*Image, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := c.decode(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SMV %s: %w", path, err)
	}
	return img, nil
}

func (c *SMVCodec) decode(content []byte) (*Image, error) {
	block, _, err := splitHeader(content)
	if err != nil {
		return nil, err
	}
	entries, err := parseHeader(block, smvDialect)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(entries))
	for _, e := range entries {
		fields[e.key] = e.value
	}

	headerBytes, err := smvInt(fields, "HEADER_BYTES")
	if err != nil {
		return nil, err
	}
	if headerBytes < len(block) || headerBytes > len(content) {
		return nil, fmt.Errorf("%w: HEADER_BYTES = %d", ErrBadHeader, headerBytes)
	}
	if dim, ok := fields["DIM"]; ok && dim != "2" {
		return nil, fmt.Errorf("%w: DIM = %s", ErrUnsupportedDType, dim)
	}
	if typ := fields["TYPE"]; typ != "unsigned_short" {
		return nil, fmt.Errorf("%w: TYPE = %q", ErrUnsupportedDType, typ)
	}
	cols, err := smvInt(fields, "SIZE1")
	if err != nil {
		return nil, err
	}
	rows, err := smvInt(fields, "SIZE2")
	if err != nil {
		return nil, err
	}

	shape := []int{rows, cols}
	size, ok := domain.ShapeBytes(shape, 2)
	if !ok || size > len(content) {
		return nil, fmt.Errorf("%w: SIZE1 = %d, SIZE2 = %d exceed the file", ErrBadHeader, cols, rows)
	}
	data := content[headerBytes:]
	if len(data) < size {
		return nil, fmt.Errorf("%w: have %d bytes, want %d", ErrShortData, len(data), size)
	}
	arr := (&domain.Array{DType: domain.Uint16, Shape: shape, Data: data[:size]}).Clone()

	switch order := fields["BYTE_ORDER"]; order {
	case "little_endian", "":
	case "big_endian":
		swapBytes(arr.Data, 2)
	default:
		return nil, fmt.Errorf("%w: BYTE_ORDER = %q", ErrBadHeader, order)
	}

	return &Image{Data: arr, Header: userHeader(entries, smvReserved)}, nil
}

func smvInt(fields map[string]string, key string) (int, error) {
	v, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrBadHeader, key)
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s = %q", ErrBadHeader, key, v)
	}
	return n, nil
}

// Write encodes img as a little-endian SMV file
func (c *SMVCodec) Write(img *Image, path string) error {
	return WriteAtomic(path, func(w io.Writer) error {
		return c.encode(img, w)
	})
}

func (c *SMVCodec) encode(img *Image, w io.Writer) error {
	arr := img.Data
	if arr == nil {
		return fmt.Errorf("%w: image has no data", domain.ErrInvalidArray)
	}
	if err := arr.Validate(); err != nil {
		return err
	}
	if arr.DType != domain.Uint16 || arr.NDim() != 2 {
		return fmt.Errorf("%w: SMV stores 2-D u2 images, got %d-D %s", ErrUnsupportedDType, arr.NDim(), arr.DType)
	}

	user, err := userEntries(img.Header, smvReserved)
	if err != nil {
		return err
	}

	layout := func(headerBytes int) []byte {
		entries := []headerEntry{
			{"HEADER_BYTES", fmt.Sprintf("%5d", headerBytes)},
			{"DIM", "2"},
			{"BYTE_ORDER", "little_endian"},
			{"TYPE", "unsigned_short"},
			{"SIZE1", strconv.Itoa(arr.Shape[1])},
			{"SIZE2", strconv.Itoa(arr.Shape[0])},
		}
		return buildHeader(smvDialect, append(entries, user...))
	}
	// HEADER_BYTES counts its own digits, so repeat until the length settles
	var header []byte
	for n := 0; ; {
		header = layout(n)
		if len(header) == n {
			break
		}
		n = len(header)
	}

	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err = w.Write(arr.Data)
	return err
}
