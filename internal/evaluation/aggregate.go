package evaluation

import (
	"fmt"
	"slices"

	"mireval/internal/metrics"
)

// MeanAggregate reduces fold records to an overall record by averaging each
// declared key across folds. Scalars use the arithmetic mean. Vectors and
// matrices are averaged element-wise and must agree in shape. Labels must be
// identical in every fold and are copied through.
func MeanAggregate(jobID string, keys []metrics.Key, folds []FoldScore) (metrics.Record, error) {
	if len(folds) == 0 {
		return nil, &ValidationError{JobID: jobID, Reason: "no folds to aggregate", Err: ErrMissingFolds}
	}
	overall := metrics.NewRecord()
	for _, key := range keys {
		value, err := meanOf(key, folds)
		if err != nil {
			return nil, validationErr(jobID, "", "aggregate "+string(key), err)
		}
		overall.Set(key, value)
	}
	return overall, nil
}

func meanOf(key metrics.Key, folds []FoldScore) (metrics.Value, error) {
	first, ok := folds[0].Record.Get(key)
	if !ok {
		return metrics.Value{}, &ValidationError{FoldID: folds[0].Fold.ID, Err: fmt.Errorf("%w: %s", metrics.ErrMissingKey, key)}
	}
	n := float64(len(folds))
	switch first.Kind() {
	case metrics.KindScalar:
		var sum float64
		for _, f := range folds {
			v, err := f.Record.Scalar(key)
			if err != nil {
				return metrics.Value{}, &ValidationError{FoldID: f.Fold.ID, Err: err}
			}
			sum += v
		}
		return metrics.Scalar(sum / n), nil
	case metrics.KindVector:
		base, _ := first.AsVector()
		acc := make([]float64, len(base))
		for _, f := range folds {
			v, err := f.Record.Vector(key)
			if err != nil {
				return metrics.Value{}, &ValidationError{FoldID: f.Fold.ID, Err: err}
			}
			if len(v) != len(acc) {
				return metrics.Value{}, &ValidationError{FoldID: f.Fold.ID, Err: fmt.Errorf("%w: %s has length %d, want %d", ErrDimension, key, len(v), len(acc))}
			}
			metrics.AddVector(acc, v)
		}
		for i := range acc {
			acc[i] /= n
		}
		return metrics.Vector(acc), nil
	case metrics.KindMatrix:
		base, _ := first.AsMatrix()
		cols := 0
		if len(base) > 0 {
			cols = len(base[0])
		}
		acc := metrics.NewMatrix(len(base), cols)
		for _, f := range folds {
			m, err := f.Record.Matrix(key)
			if err != nil {
				return metrics.Value{}, &ValidationError{FoldID: f.Fold.ID, Err: err}
			}
			if !sameShape(m, acc) {
				return metrics.Value{}, &ValidationError{FoldID: f.Fold.ID, Err: fmt.Errorf("%w: %s shape differs between folds", ErrDimension, key)}
			}
			metrics.AddMatrix(acc, m)
		}
		for i := range acc {
			for j := range acc[i] {
				acc[i][j] /= n
			}
		}
		return metrics.Matrix(acc), nil
	case metrics.KindLabels:
		base, _ := first.AsLabels()
		for _, f := range folds[1:] {
			l, err := f.Record.Labels(key)
			if err != nil {
				return metrics.Value{}, &ValidationError{FoldID: f.Fold.ID, Err: err}
			}
			if !slices.Equal(l, base) {
				return metrics.Value{}, &ValidationError{FoldID: f.Fold.ID, Err: fmt.Errorf("%w: %s differs between folds", ErrDimension, key)}
			}
		}
		return metrics.Labels(base), nil
	default:
		return metrics.Value{}, fmt.Errorf("%w: %s has kind %s", metrics.ErrWrongKind, key, first.Kind())
	}
}

func sameShape(a, b [][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
	}
	return true
}
