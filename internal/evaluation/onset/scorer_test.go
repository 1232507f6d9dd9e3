package onset_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mireval/internal/evaluation"
	"mireval/internal/evaluation/onset"
	"mireval/internal/experiment"
	"mireval/internal/metrics"
	"mireval/internal/testsupport"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func newSession(t *testing.T, folds []experiment.Fold, gt []experiment.GroundTruth) *evaluation.Session {
	t.Helper()
	reg := evaluation.NewRegistry()
	if err := reg.Register(experiment.FamilyOnset, onset.New); err != nil {
		t.Fatalf("Register: %v", err)
	}
	s, err := evaluation.NewSession(reg, testsupport.Task(experiment.FamilyOnset), experiment.Dataset{Name: "onsets"}, folds, evaluation.SessionOptions{})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.SetGroundTruth(gt); err != nil {
		t.Fatalf("SetGroundTruth: %v", err)
	}
	return s
}

func scalar(t *testing.T, rec metrics.Record, key metrics.Key) float64 {
	t.Helper()
	v, err := rec.Scalar(key)
	if err != nil {
		t.Fatalf("Scalar(%s): %v", key, err)
	}
	return v
}

func TestEvaluateOnsetFolds(t *testing.T) {
	gt := []experiment.GroundTruth{
		testsupport.OnsetTruth("p1", "piano", []float64{1.00, 2.00}),
		testsupport.OnsetTruth("p2", "piano", []float64{0.50}),
		testsupport.OnsetTruth("d1", "drums", []float64{1.00, 2.00}, []float64{1.01, 2.20}),
		testsupport.OnsetTruth("x1", "", []float64{3.00}),
	}
	folds := []experiment.Fold{
		testsupport.Fold(1, "p1", "d1"),
		testsupport.Fold(2, "p2", "x1"),
	}
	s := newSession(t, folds, gt)

	if err := s.AddResults("sys", "Detector", "fold1", []experiment.Prediction{
		testsupport.OnsetPrediction("p1", 1.03, 2.10),
		testsupport.OnsetPrediction("d1", 1.00, 2.00),
	}); err != nil {
		t.Fatalf("AddResults fold1: %v", err)
	}
	// x1 is missing and p2 detects nothing.
	if err := s.AddResults("sys", "Detector", "fold2", []experiment.Prediction{
		testsupport.OnsetPrediction("p2"),
	}); err != nil {
		t.Fatalf("AddResults fold2: %v", err)
	}

	rs, err := s.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	job := rs.Jobs["sys"]

	// d1: annotator one is a perfect match, annotator two matches only 1.01.
	// F for annotator two is 0.5, so the track averages 0.75.
	var d1, p2 metrics.Record
	for _, tr := range job.Tracks["fold1"] {
		if tr.Prediction.TrackID == "d1" {
			d1 = tr.Metrics
		}
	}
	for _, tr := range job.Tracks["fold2"] {
		if tr.Prediction.TrackID == "p2" {
			p2 = tr.Metrics
		}
	}
	if got := scalar(t, d1, metrics.OnsetFMeasure); !approx(got, 0.75) {
		t.Fatalf("d1 F: got %v want 0.75", got)
	}
	if got := scalar(t, d1, metrics.OnsetCorrect); !approx(got, 1.5) {
		t.Fatalf("d1 correct: got %v want 1.5", got)
	}
	if got := scalar(t, p2, metrics.OnsetFMeasure); got != 0 {
		t.Fatalf("p2 F: got %v want 0", got)
	}
	if got := scalar(t, p2, metrics.OnsetFalseNegatives); got != 1 {
		t.Fatalf("p2 FN: got %v want 1", got)
	}

	fold1 := job.Folds["fold1"]
	if got := scalar(t, fold1, metrics.OnsetFMeasure); !approx(got, (0.5+0.75)/2) {
		t.Fatalf("fold1 F: got %v want %v", got, (0.5+0.75)/2)
	}
	fold2 := job.Folds["fold2"]
	if got := scalar(t, fold2, metrics.OnsetFMeasure); got != 0 {
		t.Fatalf("fold2 F: got %v want 0", got)
	}

	classes, err := job.Overall.Labels(metrics.OnsetClasses)
	if err != nil {
		t.Fatalf("Labels: %v", err)
	}
	if diff := cmp.Diff([]string{onset.Unclassified, "drums", "piano"}, classes); diff != "" {
		t.Fatalf("classes mismatch (-want +got):\n%s", diff)
	}
	byClass, err := fold1.Vector(metrics.OnsetFMeasureByClass)
	if err != nil {
		t.Fatalf("Vector: %v", err)
	}
	if diff := cmp.Diff([]float64{0, 0.75, 0.5}, byClass); diff != "" {
		t.Fatalf("fold1 by class mismatch (-want +got):\n%s", diff)
	}

	if got := scalar(t, job.Overall, metrics.OnsetFMeasure); !approx(got, (0.5+0.75)/4) {
		t.Fatalf("overall F: got %v want %v", got, (0.5+0.75)/4)
	}
	overallByClass, err := job.Overall.Vector(metrics.OnsetFMeasureByClass)
	if err != nil {
		t.Fatalf("Vector: %v", err)
	}
	if diff := cmp.Diff([]float64{0, 0.375, 0.25}, overallByClass); diff != "" {
		t.Fatalf("overall by class mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingOnsetGroundTruthFails(t *testing.T) {
	gt := []experiment.GroundTruth{
		testsupport.OnsetTruth("a", "", []float64{1}),
		{TrackID: "b", Fields: experiment.Fields{"class": experiment.LabelValue("piano")}},
	}
	s := newSession(t, []experiment.Fold{testsupport.Fold(1, "a", "b")}, gt)
	if err := s.AddResults("sys", "", "fold1", []experiment.Prediction{
		testsupport.OnsetPrediction("a", 1),
		testsupport.OnsetPrediction("b", 1),
	}); err != nil {
		t.Fatalf("AddResults: %v", err)
	}
	_, err := s.Evaluate(context.Background())
	if !errors.Is(err, evaluation.ErrMissingSubject) {
		t.Fatalf("got %v want ErrMissingSubject", err)
	}
}

func TestMultipleOnsetSequencesRejected(t *testing.T) {
	gt := []experiment.GroundTruth{testsupport.OnsetTruth("a", "", []float64{1})}
	s := newSession(t, []experiment.Fold{testsupport.Fold(1, "a")}, gt)
	pred := experiment.Prediction{
		TrackID: "a",
		Fields:  experiment.Fields{experiment.FieldOnsets: experiment.SequenceValue([]float64{1}, []float64{2})},
	}
	if err := s.AddResults("sys", "", "fold1", []experiment.Prediction{pred}); err != nil {
		t.Fatalf("AddResults: %v", err)
	}
	_, err := s.Evaluate(context.Background())
	if !errors.Is(err, evaluation.ErrInvalidSubmission) {
		t.Fatalf("got %v want ErrInvalidSubmission", err)
	}
}

func TestAggregateRejectsMismatchedClasses(t *testing.T) {
	scorer, err := onset.New(evaluation.ScorerOptions{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fold := testsupport.Fold(1, "a")
	gt := evaluation.GroundTruthIndex{"a": testsupport.OnsetTruth("a", "piano", []float64{1})}
	if err := scorer.Prepare(evaluation.Setup{Task: testsupport.Task(experiment.FamilyOnset), Folds: []experiment.Fold{fold}, GroundTruth: gt}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	rec := metrics.NewRecord()
	rec.Set(metrics.OnsetClasses, metrics.Labels([]string{"guitar"}))
	_, err = scorer.Aggregate("sys", []evaluation.FoldScore{{Fold: fold, Declared: 1, Record: rec}})
	if !errors.Is(err, evaluation.ErrDimension) {
		t.Fatalf("got %v want ErrDimension", err)
	}
}

func TestDefaultToleranceWindow(t *testing.T) {
	if _, err := onset.New(evaluation.ScorerOptions{Tolerance: 0.1}); err != nil {
		t.Fatalf("New: %v", err)
	}
	gt := []experiment.GroundTruth{
		testsupport.OnsetTruth("in", "", []float64{1.0}),
		testsupport.OnsetTruth("out", "", []float64{1.0}),
	}
	s := newSession(t, []experiment.Fold{testsupport.Fold(1, "in", "out")}, gt)
	if err := s.AddResults("sys", "", "fold1", []experiment.Prediction{
		testsupport.OnsetPrediction("in", 1.0+onset.DefaultTolerance-0.01),
		testsupport.OnsetPrediction("out", 1.0+onset.DefaultTolerance+0.01),
	}); err != nil {
		t.Fatalf("AddResults: %v", err)
	}
	rs, err := s.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	got := make(map[string]float64)
	for _, tr := range rs.Jobs["sys"].Tracks["fold1"] {
		got[tr.Prediction.TrackID] = scalar(t, tr.Metrics, metrics.OnsetFMeasure)
	}
	if diff := cmp.Diff(map[string]float64{"in": 1, "out": 0}, got); diff != "" {
		t.Fatalf("F-measure by track (-want +got):\n%s", diff)
	}
}
