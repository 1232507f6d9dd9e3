package experiment

import (
	"sort"
	"strings"
)

// Value is the content of a named field. Labels and Sequences are both
// multi-valued so that several annotators can describe the same track.
type Value struct {
	Labels    []string
	Sequences [][]float64
}

// Label returns the first label, or "" if there is none.
func (v Value) Label() string {
	if len(v.Labels) == 0 {
		return ""
	}
	return v.Labels[0]
}

// IsEmpty reports whether the value carries no data.
func (v Value) IsEmpty() bool {
	return len(v.Labels) == 0 && len(v.Sequences) == 0
}

// Clone deep-copies v.
func (v Value) Clone() Value {
	out := Value{Labels: append([]string(nil), v.Labels...)}
	if v.Sequences != nil {
		out.Sequences = make([][]float64, len(v.Sequences))
		for i, seq := range v.Sequences {
			out.Sequences[i] = append([]float64(nil), seq...)
		}
	}
	return out
}

// LabelValue builds a single-label value.
func LabelValue(labels ...string) Value {
	return Value{Labels: labels}
}

// SequenceValue builds a value from one or more event sequences.
func SequenceValue(sequences ...[]float64) Value {
	return Value{Sequences: sequences}
}

// Fields is a set of named values attached to a track.
type Fields map[string]Value

// Has reports whether the named field is present and non-empty.
func (f Fields) Has(name string) bool {
	v, ok := f[name]
	return ok && !v.IsEmpty()
}

// Get returns the named field.
func (f Fields) Get(name string) (Value, bool) {
	v, ok := f[name]
	if !ok || v.IsEmpty() {
		return Value{}, false
	}
	return v, true
}

// Names lists field names in lexical order.
func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone deep-copies the field set.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v.Clone()
	}
	return out
}

// GroundTruth is the reference annotation for one track.
type GroundTruth struct {
	TrackID string
	Fields  Fields
}

// HasField reports whether the named field is present.
func (g GroundTruth) HasField(name string) bool { return g.Fields.Has(name) }

// Field returns the named field.
func (g GroundTruth) Field(name string) (Value, bool) { return g.Fields.Get(name) }

// Prediction is a system's raw output for one track.
type Prediction struct {
	TrackID string
	Fields  Fields
}

// HasField reports whether the named field is present.
func (p Prediction) HasField(name string) bool { return p.Fields.Has(name) }

// Field returns the named field.
func (p Prediction) Field(name string) (Value, bool) { return p.Fields.Get(name) }

// Clone deep-copies the prediction.
func (p Prediction) Clone() Prediction {
	return Prediction{TrackID: p.TrackID, Fields: p.Fields.Clone()}
}

// Order compares two predictions for canonical per-fold ordering.
type Order func(a, b Prediction) int

// ByTrackID orders predictions by track ID.
func ByTrackID(a, b Prediction) int {
	return strings.Compare(a.TrackID, b.TrackID)
}

// Submission collects one job's predictions per fold ID.
type Submission struct {
	JobID string
	Name  string
	Folds map[string][]Prediction
}

// FoldIDs lists the submitted folds in lexical order.
func (s *Submission) FoldIDs() []string {
	ids := make([]string, 0, len(s.Folds))
	for id := range s.Folds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
