package metrics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrKeyMismatch indicates a record does not carry exactly the declared keys.
	ErrKeyMismatch = errors.New("metric keys do not match declaration")
	// ErrMissingKey indicates a required metric is absent from a record.
	ErrMissingKey = errors.New("metric missing")
	// ErrWrongKind indicates a metric holds a different variant than requested.
	ErrWrongKind = errors.New("metric has unexpected kind")
)

// Record is a flat set of metric values for one job at one level (track, fold, or overall).
type Record map[Key]Value

// NewRecord returns an empty record.
func NewRecord() Record {
	return make(Record)
}

// Set stores value under key.
func (r Record) Set(key Key, value Value) {
	r[key] = value
}

// Get returns the value stored under key.
func (r Record) Get(key Key) (Value, bool) {
	v, ok := r[key]
	return v, ok
}

// Scalar returns the scalar stored under key.
func (r Record) Scalar(key Key) (float64, error) {
	v, ok := r[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	s, ok := v.AsScalar()
	if !ok {
		return 0, fmt.Errorf("%w: %s is %s, want scalar", ErrWrongKind, key, v.Kind())
	}
	return s, nil
}

// Vector returns a copy of the vector stored under key.
func (r Record) Vector(key Key) ([]float64, error) {
	v, ok := r[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	vec, ok := v.AsVector()
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s, want vector", ErrWrongKind, key, v.Kind())
	}
	return vec, nil
}

// Matrix returns a copy of the matrix stored under key.
func (r Record) Matrix(key Key) ([][]float64, error) {
	v, ok := r[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	m, ok := v.AsMatrix()
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s, want matrix", ErrWrongKind, key, v.Kind())
	}
	return m, nil
}

// Labels returns a copy of the labels stored under key.
func (r Record) Labels(key Key) ([]string, error) {
	v, ok := r[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	l, ok := v.AsLabels()
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s, want labels", ErrWrongKind, key, v.Kind())
	}
	return l, nil
}

// Keys returns the record's keys in lexical order.
func (r Record) Keys() []Key {
	keys := make([]Key, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Clone returns a copy of r. Values are immutable so a shallow copy suffices.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// CheckExact verifies that r holds every key in declared and nothing else.
func CheckExact(r Record, declared []Key) error {
	want := make(map[Key]struct{}, len(declared))
	var missing []string
	for _, k := range declared {
		want[k] = struct{}{}
		if _, ok := r[k]; !ok {
			missing = append(missing, string(k))
		}
	}
	var extra []string
	for k := range r {
		if _, ok := want[k]; !ok {
			extra = append(extra, string(k))
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		parts = append(parts, "unexpected "+strings.Join(extra, ", "))
	}
	return fmt.Errorf("%w: %s", ErrKeyMismatch, strings.Join(parts, "; "))
}
