package domain

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
)

// DType is a numpy-style element type string
type DType string

const (
	Uint8   DType = "u1"
	Int8    DType = "i1"
	Uint16  DType = "u2"
	Int16   DType = "i2"
	Uint32  DType = "u4"
	Int32   DType = "i4"
	Float32 DType = "f4"
	Float64 DType = "f8"
)

// ErrInvalidArray is returned when an array's buffer does not match its
// dtype and shape
var ErrInvalidArray = errors.New("invalid array")

// Size returns the element size in bytes, or 0 for an unknown dtype
func (d DType) Size() int {
	switch d {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32, Float32:
		return 4
	case Float64:
		return 8
	}
	return 0
}

// Valid reports whether d is a supported dtype
func (d DType) Valid() bool {
	return d.Size() > 0
}

// Array is a dense row-major pixel buffer stored little-endian
type Array struct {
	DType DType  `json:"dtype"`
	Shape []int  `json:"shape"`
	Data  []byte `json:"data"`
}

// NewArray allocates a zeroed array
func NewArray(dtype DType, shape ...int) *Array {
	a := &Array{DType: dtype, Shape: slices.Clone(shape)}
	a.Data = make([]byte, a.Len()*dtype.Size())
	return a
}

// ShapeBytes returns the byte length of a buffer holding shape elements of
// elemSize bytes each. It reports false for a negative dimension or when the
// product does not fit in an int.
func ShapeBytes(shape []int, elemSize int) (int, bool) {
	if elemSize < 0 {
		return 0, false
	}
	n := elemSize
	for _, dim := range shape {
		if dim < 0 {
			return 0, false
		}
		if dim != 0 && n > math.MaxInt/dim {
			return 0, false
		}
		n *= dim
	}
	return n, true
}

// Len returns the number of elements described by the shape, or -1 when the
// shape is invalid
func (a *Array) Len() int {
	n, ok := ShapeBytes(a.Shape, 1)
	if !ok {
		return -1
	}
	return n
}

// NDim returns the number of dimensions
func (a *Array) NDim() int {
	return len(a.Shape)
}

// Validate checks the dtype, the shape and the buffer length
func (a *Array) Validate() error {
	if !a.DType.Valid() {
		return fmt.Errorf("%w: unknown dtype %q", ErrInvalidArray, a.DType)
	}
	want, ok := ShapeBytes(a.Shape, a.DType.Size())
	if !ok {
		return fmt.Errorf("%w: shape %v of %s has no valid size", ErrInvalidArray, a.Shape, a.DType)
	}
	if len(a.Data) != want {
		return fmt.Errorf("%w: %d bytes for shape %v of %s, want %d",
			ErrInvalidArray, len(a.Data), a.Shape, a.DType, want)
	}
	return nil
}

// Float returns element i converted to float64
func (a *Array) Float(i int) float64 {
	off := i * a.DType.Size()
	b := a.Data[off:]
	switch a.DType {
	case Uint8:
		return float64(b[0])
	case Int8:
		return float64(int8(b[0]))
	case Uint16:
		return float64(binary.LittleEndian.Uint16(b))
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case Uint32:
		return float64(binary.LittleEndian.Uint32(b))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return 0
}

// SetFloat stores v into element i, converting to the array dtype
func (a *Array) SetFloat(i int, v float64) {
	off := i * a.DType.Size()
	b := a.Data[off:]
	switch a.DType {
	case Uint8:
		b[0] = uint8(v)
	case Int8:
		b[0] = byte(int8(v))
	case Uint16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case Int16:
		binary.LittleEndian.PutUint16(b, uint16(int16(v)))
	case Uint32:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case Int32:
		binary.LittleEndian.PutUint32(b, uint32(int32(v)))
	case Float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	case Float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	}
}

// Equal reports whether two arrays have the same dtype, shape and bytes
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.DType == b.DType && slices.Equal(a.Shape, b.Shape) && bytes.Equal(a.Data, b.Data)
}

// Clone returns a deep copy
func (a *Array) Clone() *Array {
	return &Array{
		DType: a.DType,
		Shape: slices.Clone(a.Shape),
		Data:  bytes.Clone(a.Data),
	}
}

// ArrayFromList builds a float64 array from nested lists of numbers whose
// lengths follow shape, outermost axis first
func ArrayFromList(list []any, shape []int) (*Array, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("%w: a list needs at least one axis", ErrInvalidArray)
	}
	if _, ok := ShapeBytes(shape, Float64.Size()); !ok {
		return nil, fmt.Errorf("%w: shape %v has no valid size", ErrInvalidArray, shape)
	}

	var values []float64
	var walk func(v any, axis int) error
	walk = func(v any, axis int) error {
		if axis == len(shape) {
			f, ok := listNumber(v)
			if !ok {
				return fmt.Errorf("%w: %T is not a number", ErrInvalidArray, v)
			}
			values = append(values, f)
			return nil
		}
		items, ok := v.([]any)
		if !ok || len(items) != shape[axis] {
			return fmt.Errorf("%w: axis %d does not match shape %v", ErrInvalidArray, axis, shape)
		}
		for _, item := range items {
			if err := walk(item, axis+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(list, 0); err != nil {
		return nil, err
	}

	a := NewArray(Float64, shape...)
	for i, f := range values {
		a.SetFloat(i, f)
	}
	return a, nil
}

func listNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
