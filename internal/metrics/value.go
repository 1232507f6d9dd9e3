package metrics

import (
	"encoding/json"
	"fmt"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindInvalid Kind = iota
	KindScalar
	KindVector
	KindMatrix
	KindLabels
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	case KindMatrix:
		return "matrix"
	case KindLabels:
		return "labels"
	default:
		return "invalid"
	}
}

// Value is a tagged union of the metric shapes. The zero Value is invalid.
type Value struct {
	kind   Kind
	scalar float64
	vector []float64
	matrix [][]float64
	labels []string
}

// Scalar wraps a single number.
func Scalar(v float64) Value {
	return Value{kind: KindScalar, scalar: v}
}

// Vector wraps a copy of v.
func Vector(v []float64) Value {
	return Value{kind: KindVector, vector: append([]float64{}, v...)}
}

// Matrix wraps a deep copy of m.
func Matrix(m [][]float64) Value {
	return Value{kind: KindMatrix, matrix: CloneMatrix(m)}
}

// Labels wraps a copy of names.
func Labels(names []string) Value {
	return Value{kind: KindLabels, labels: append([]string{}, names...)}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// AsScalar returns the scalar and true when v holds one.
func (v Value) AsScalar() (float64, bool) {
	return v.scalar, v.kind == KindScalar
}

// AsVector returns a copy of the vector and true when v holds one.
func (v Value) AsVector() ([]float64, bool) {
	if v.kind != KindVector {
		return nil, false
	}
	return append([]float64{}, v.vector...), true
}

// AsMatrix returns a copy of the matrix and true when v holds one.
func (v Value) AsMatrix() ([][]float64, bool) {
	if v.kind != KindMatrix {
		return nil, false
	}
	return CloneMatrix(v.matrix), true
}

// AsLabels returns a copy of the labels and true when v holds them.
func (v Value) AsLabels() ([]string, bool) {
	if v.kind != KindLabels {
		return nil, false
	}
	return append([]string{}, v.labels...), true
}

// MarshalJSON renders the held variant as a plain JSON number or array.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.plain())
}

// MarshalYAML renders the held variant as a plain YAML scalar or sequence.
func (v Value) MarshalYAML() (any, error) {
	return v.plain(), nil
}

func (v Value) plain() any {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindVector:
		return v.vector
	case KindMatrix:
		return v.matrix
	case KindLabels:
		return v.labels
	default:
		return nil
	}
}

func (v Value) String() string {
	return fmt.Sprintf("%s(%v)", v.kind, v.plain())
}
