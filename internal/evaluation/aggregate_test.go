package evaluation_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mireval/internal/evaluation"
	"mireval/internal/metrics"
	"mireval/internal/testsupport"
)

func foldScore(n int, accuracy float64, vec []float64, names []string) evaluation.FoldScore {
	rec := metrics.NewRecord()
	rec.Set(metrics.Accuracy, metrics.Scalar(accuracy))
	rec.Set(metrics.OnsetFMeasureByClass, metrics.Vector(vec))
	rec.Set(metrics.OnsetClasses, metrics.Labels(names))
	return evaluation.FoldScore{Fold: testsupport.Fold(n), Record: rec}
}

var aggregateKeys = []metrics.Key{metrics.Accuracy, metrics.OnsetFMeasureByClass, metrics.OnsetClasses}

func TestMeanAggregate(t *testing.T) {
	names := []string{"x", "y"}
	folds := []evaluation.FoldScore{
		foldScore(1, 0.5, []float64{1, 0}, names),
		foldScore(2, 1.0, []float64{0, 1}, names),
	}
	got, err := evaluation.MeanAggregate("sys", aggregateKeys, folds)
	if err != nil {
		t.Fatalf("MeanAggregate: %v", err)
	}
	if acc, _ := got.Scalar(metrics.Accuracy); acc != 0.75 {
		t.Fatalf("got %v want 0.75", acc)
	}
	vec, _ := got.Vector(metrics.OnsetFMeasureByClass)
	if diff := cmp.Diff([]float64{0.5, 0.5}, vec); diff != "" {
		t.Fatalf("vector mismatch (-want +got):\n%s", diff)
	}
}

func TestMeanAggregateIsOrderIndependent(t *testing.T) {
	names := []string{"x"}
	a := foldScore(1, 0.25, []float64{0.5}, names)
	b := foldScore(2, 0.5, []float64{0.25}, names)
	c := foldScore(3, 1.0, []float64{1}, names)

	first, err := evaluation.MeanAggregate("sys", aggregateKeys, []evaluation.FoldScore{a, b, c})
	if err != nil {
		t.Fatalf("MeanAggregate: %v", err)
	}
	second, err := evaluation.MeanAggregate("sys", aggregateKeys, []evaluation.FoldScore{c, a, b})
	if err != nil {
		t.Fatalf("MeanAggregate: %v", err)
	}
	if diff := cmp.Diff(first.Keys(), second.Keys()); diff != "" {
		t.Fatalf("keys differ:\n%s", diff)
	}
	for _, key := range aggregateKeys {
		if first[key].String() != second[key].String() {
			t.Fatalf("%s differs: %s vs %s", key, first[key], second[key])
		}
	}
}

func TestMeanAggregateFailures(t *testing.T) {
	missing := evaluation.FoldScore{Fold: testsupport.Fold(2), Record: metrics.NewRecord()}
	_, err := evaluation.MeanAggregate("sys", aggregateKeys, []evaluation.FoldScore{foldScore(1, 1, []float64{1}, []string{"x"}), missing})
	if !errors.Is(err, metrics.ErrMissingKey) {
		t.Fatalf("got %v want ErrMissingKey", err)
	}
	var verr *evaluation.ValidationError
	if !errors.As(err, &verr) || verr.JobID != "sys" || verr.FoldID != "fold2" {
		t.Fatalf("expected ValidationError naming sys/fold2, got %v", err)
	}

	_, err = evaluation.MeanAggregate("sys", aggregateKeys, []evaluation.FoldScore{
		foldScore(1, 1, []float64{1}, []string{"x"}),
		foldScore(2, 1, []float64{1, 2}, []string{"x"}),
	})
	if !errors.Is(err, evaluation.ErrDimension) {
		t.Fatalf("got %v want ErrDimension", err)
	}

	_, err = evaluation.MeanAggregate("sys", aggregateKeys, nil)
	if !errors.Is(err, evaluation.ErrMissingFolds) {
		t.Fatalf("got %v want ErrMissingFolds", err)
	}
}
