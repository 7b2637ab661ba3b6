package format

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"suitcase/internal/domain"
)

var edfDialect = dialect{assign: " = ", terminator: " ;"}

const (
	edfByteOrderLow  = "LowByteFirst"
	edfByteOrderHigh = "HighByteFirst"
)

// edfTypes maps EDF DataType names to dtypes. The first name listed for a
// dtype is the one written.
var edfTypes = []struct {
	name  string
	dtype domain.DType
}{
	{"UnsignedByte", domain.Uint8},
	{"SignedByte", domain.Int8},
	{"UnsignedShort", domain.Uint16},
	{"SignedShort", domain.Int16},
	{"UnsignedInteger", domain.Uint32},
	{"SignedInteger", domain.Int32},
	{"FloatValue", domain.Float32},
	{"DoubleValue", domain.Float64},
	{"UnsignedChar", domain.Uint8},
	{"SignedChar", domain.Int8},
	{"UnsignedLong", domain.Uint32},
	{"SignedLong", domain.Int32},
	{"UnsignedInt", domain.Uint32},
	{"SignedInt", domain.Int32},
	{"Float", domain.Float32},
	{"Double", domain.Float64},
}

// EDFCodec handles ESRF Data Format files
type EDFCodec struct{}

// NewEDFCodec creates a new EDF codec
func NewEDFCodec() *EDFCodec {
	return &EDFCodec{}
}

// Extension returns the canonical EDF extension
func (c *EDFCodec) Extension() string {
	return "edf"
}

// edfReserved reports whether key is part of the EDF layout
func edfReserved(key string) bool {
	switch key {
	case "HeaderID", "Image", "ByteOrder", "DataType", "Size", "EDF_HeaderSize":
		return true
	}
	if n, ok := strings.CutPrefix(key, "Dim_"); ok {
		_, err := strconv.Atoi(n)
		return err == nil
	}
	return false
}

// Open decodes an EDF file
func (c *EDFCodec) Open(path string) (*Image, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := c.decode(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse EDF %s: %w", path, err)
	}
	return img, nil
}

func (c *EDFCodec) decode(content []byte) (*Image, error) {
	block, rest, err := splitHeader(content)
	if err != nil {
		return nil, err
	}
	entries, err := parseHeader(block, edfDialect)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(entries))
	for _, e := range entries {
		fields[e.key] = e.value
	}

	dtype, err := edfDType(fields["DataType"])
	if err != nil {
		return nil, err
	}

	// Dim_1 is the fastest axis, so it is the last entry of the shape
	var dims []int
	for i := 1; ; i++ {
		v, ok := fields["Dim_"+strconv.Itoa(i)]
		if !ok {
			break
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: Dim_%d = %q", ErrBadHeader, i, v)
		}
		dims = append(dims, n)
	}
	shape := make([]int, len(dims))
	for i, n := range dims {
		shape[len(dims)-1-i] = n
	}

	size, ok := domain.ShapeBytes(shape, dtype.Size())
	if !ok || size > len(content) {
		return nil, fmt.Errorf("%w: shape %v of %s exceeds the file", ErrBadHeader, shape, dtype)
	}
	if v, ok := fields["Size"]; ok {
		declared, err := strconv.Atoi(v)
		if err != nil || declared < size {
			return nil, fmt.Errorf("%w: Size = %q for %d pixel bytes", ErrBadHeader, v, size)
		}
	}
	if len(rest) < size {
		return nil, fmt.Errorf("%w: have %d bytes, want %d", ErrShortData, len(rest), size)
	}
	// detach the pixels from the file buffer
	arr := (&domain.Array{DType: dtype, Shape: shape, Data: rest[:size]}).Clone()

	switch order := fields["ByteOrder"]; order {
	case edfByteOrderLow, "":
	case edfByteOrderHigh:
		swapBytes(arr.Data, dtype.Size())
	default:
		return nil, fmt.Errorf("%w: ByteOrder = %q", ErrBadHeader, order)
	}

	return &Image{Data: arr, Header: userHeader(entries, edfReserved)}, nil
}

func edfDType(name string) (domain.DType, error) {
	for _, t := range edfTypes {
		if strings.EqualFold(t.name, name) {
			return t.dtype, nil
		}
	}
	return "", fmt.Errorf("%w: EDF DataType %q", ErrUnsupportedDType, name)
}

func edfTypeName(dtype domain.DType) (string, error) {
	for _, t := range edfTypes {
		if t.dtype == dtype {
			return t.name, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDType, dtype)
}

// Write encodes img as an EDF file with little-endian data
func (c *EDFCodec) Write(img *Image, path string) error {
	return WriteAtomic(path, func(w io.Writer) error {
		return c.encode(img, w)
	})
}

func (c *EDFCodec) encode(img *Image, w io.Writer) error {
	arr := img.Data
	if arr == nil {
		return fmt.Errorf("%w: image has no data", domain.ErrInvalidArray)
	}
	if err := arr.Validate(); err != nil {
		return err
	}
	typeName, err := edfTypeName(arr.DType)
	if err != nil {
		return err
	}

	entries := []headerEntry{
		{"HeaderID", "EH:000001:000000:000000"},
		{"Image", "1"},
		{"ByteOrder", edfByteOrderLow},
		{"DataType", typeName},
	}
	for i := range arr.Shape {
		entries = append(entries, headerEntry{
			key:   "Dim_" + strconv.Itoa(i+1),
			value: strconv.Itoa(arr.Shape[len(arr.Shape)-1-i]),
		})
	}
	entries = append(entries, headerEntry{"Size", strconv.Itoa(len(arr.Data))})

	user, err := userEntries(img.Header, edfReserved)
	if err != nil {
		return err
	}
	entries = append(entries, user...)

	if _, err := w.Write(buildHeader(edfDialect, entries)); err != nil {
		return err
	}
	_, err = w.Write(arr.Data)
	return err
}
