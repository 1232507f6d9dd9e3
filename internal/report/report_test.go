package report_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"mireval/internal/evaluation"
	"mireval/internal/experiment"
	"mireval/internal/metrics"
	"mireval/internal/report"
)

func classificationResult() *evaluation.ResultSet {
	overall := metrics.NewRecord()
	overall.Set(metrics.Accuracy, metrics.Scalar(0.75))
	overall.Set(metrics.NormalisedAccuracy, metrics.Scalar(0.8333333))
	overall.Set(metrics.ClassNames, metrics.Labels([]string{"blues", "jazz"}))
	overall.Set(metrics.ConfusionMatrixRaw, metrics.Matrix([][]float64{{2, 1}, {0, 1}}))

	fold1 := metrics.NewRecord()
	fold1.Set(metrics.Accuracy, metrics.Scalar(1))
	fold2 := metrics.NewRecord()
	fold2.Set(metrics.Accuracy, metrics.Scalar(0.5))

	track := metrics.NewRecord()
	track.Set(metrics.Accuracy, metrics.Scalar(1))

	return &evaluation.ResultSet{
		RunID:   "run-1",
		Task:    experiment.Task{ID: 3, Name: "Genre Classification", SubjectField: "genre", Family: experiment.FamilyClassification},
		Dataset: experiment.Dataset{Name: "Tiny"},
		Folds: []experiment.Fold{
			{ID: "fold2", Number: 2, Kind: experiment.SetTest, TrackIDs: []string{"t3", "t4"}},
			{ID: "fold1", Number: 1, Kind: experiment.SetTest, TrackIDs: []string{"t1", "t2"}},
		},
		Keys: metrics.KeySet{
			Overall: []metrics.Key{metrics.Accuracy, metrics.NormalisedAccuracy, metrics.ClassNames, metrics.ConfusionMatrixRaw},
			Fold:    []metrics.Key{metrics.Accuracy},
			Track:   []metrics.Key{metrics.Accuracy},
		},
		Jobs: map[string]*evaluation.JobResult{
			"sys1": {
				JobID:   "sys1",
				Name:    "System One",
				Overall: overall,
				Folds:   map[string]metrics.Record{"fold1": fold1, "fold2": fold2},
				Tracks: map[string][]evaluation.TrackResult{
					"fold1": {{Prediction: experiment.Prediction{TrackID: "t1"}, Metrics: track}},
				},
			},
		},
	}
}

func TestOverallTable(t *testing.T) {
	got := report.Overall(classificationResult(), report.Options{Precision: 2})
	want := report.Table{
		Title:   "Overall",
		Headers: []string{"Job", "Name", "accuracy", "normalised_accuracy"},
		Rows:    [][]string{{"sys1", "System One", "0.75", "0.83"}},
		Aligns:  []report.Alignment{report.AlignLeft, report.AlignLeft, report.AlignRight, report.AlignRight},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Overall mismatch (-want +got):\n%s", diff)
	}
}

func TestPerFoldTableFollowsDeclaredOrder(t *testing.T) {
	got := report.PerFold(classificationResult(), report.Options{Precision: 1})
	want := [][]string{
		{"sys1", "fold2", "0.5"},
		{"sys1", "fold1", "1.0"},
	}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Fatalf("PerFold rows mismatch (-want +got):\n%s", diff)
	}
}

func TestConfusionTable(t *testing.T) {
	rs := classificationResult()
	got, ok := report.Confusion(rs.Jobs["sys1"])
	if !ok {
		t.Fatal("expected confusion table")
	}
	if diff := cmp.Diff([]string{"", "blues", "jazz"}, got.Headers); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
	want := [][]string{{"blues", "2", "1"}, {"jazz", "0", "1"}}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if _, ok := report.OnsetClasses(rs.Jobs["sys1"], report.Options{}); ok {
		t.Fatal("classification job should not produce an onset table")
	}
}

func TestOnsetClassesTable(t *testing.T) {
	overall := metrics.NewRecord()
	overall.Set(metrics.OnsetClasses, metrics.Labels([]string{"guitar", "piano"}))
	overall.Set(metrics.OnsetFMeasureByClass, metrics.Vector([]float64{0.5, 1}))
	overall.Set(metrics.OnsetPrecisionByClass, metrics.Vector([]float64{0.25, 1}))
	overall.Set(metrics.OnsetRecallByClass, metrics.Vector([]float64{1, 1}))

	got, ok := report.OnsetClasses(&evaluation.JobResult{JobID: "onsets", Overall: overall}, report.Options{Precision: 2})
	if !ok {
		t.Fatal("expected onset table")
	}
	want := [][]string{
		{"guitar", "0.50", "0.25", "1.00"},
		{"piano", "1.00", "1.00", "1.00"},
	}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTablesPlain(t *testing.T) {
	var buf bytes.Buffer
	if err := report.Write(&buf, classificationResult(), report.Options{Format: "table"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Genre Classification on Tiny (run run-1)", "System One", "0.7500", "sys1 confusion"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "╭") {
		t.Fatalf("plain output should not use rounded borders:\n%s", out)
	}
}

func TestWriteJSONDocument(t *testing.T) {
	var buf bytes.Buffer
	if err := report.Write(&buf, classificationResult(), report.Options{Format: "json", Tracks: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var doc struct {
		RunID string `json:"run_id"`
		Jobs  []struct {
			JobID   string         `json:"job_id"`
			Overall map[string]any `json:"overall"`
			Folds   []struct {
				FoldID string `json:"fold_id"`
				Tracks []struct {
					TrackID string `json:"track_id"`
				} `json:"tracks"`
			} `json:"folds"`
		} `json:"jobs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.RunID != "run-1" || len(doc.Jobs) != 1 {
		t.Fatalf("unexpected document %+v", doc)
	}
	job := doc.Jobs[0]
	if job.Overall["accuracy"] != 0.75 {
		t.Fatalf("accuracy = %v, want 0.75", job.Overall["accuracy"])
	}
	if diff := cmp.Diff([]any{"blues", "jazz"}, job.Overall["class_names"]); diff != "" {
		t.Fatalf("class_names mismatch (-want +got):\n%s", diff)
	}
	if len(job.Folds) != 2 || job.Folds[0].FoldID != "fold2" {
		t.Fatalf("folds should follow declared order, got %+v", job.Folds)
	}
	if len(job.Folds[1].Tracks) != 1 || job.Folds[1].Tracks[0].TrackID != "t1" {
		t.Fatalf("expected track t1 in fold1, got %+v", job.Folds[1].Tracks)
	}
}

func TestWriteYAMLOmitsTracksByDefault(t *testing.T) {
	var buf bytes.Buffer
	if err := report.Write(&buf, classificationResult(), report.Options{Format: "yaml"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc["run_id"] != "run-1" {
		t.Fatalf("run_id = %v", doc["run_id"])
	}
	if strings.Contains(buf.String(), "track_id") {
		t.Fatalf("tracks should be omitted:\n%s", buf.String())
	}
}

func TestWriteRejectsUnknownFormat(t *testing.T) {
	if err := report.Write(&bytes.Buffer{}, classificationResult(), report.Options{Format: "csv"}); err == nil {
		t.Fatal("expected error for csv")
	}
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := report.WriteFiles(dir, classificationResult(), report.Options{})
	if err != nil {
		t.Fatalf("WriteFiles: %v", err)
	}
	want := []string{
		filepath.Join(dir, "genre-classification-run-1.json"),
		filepath.Join(dir, "genre-classification-run-1.yaml"),
		filepath.Join(dir, "genre-classification-run-1.txt"),
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", path, err)
		}
		if info.Size() == 0 {
			t.Fatalf("%s is empty", path)
		}
	}
}

func TestWriteFilesRespectsLock(t *testing.T) {
	dir := t.TempDir()
	holder := flock.New(filepath.Join(dir, ".mireval.lock"))
	ok, err := holder.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer func() { _ = holder.Unlock() }()

	if _, err := report.WriteFiles(dir, classificationResult(), report.Options{}); !errors.Is(err, report.ErrLocked) {
		t.Fatalf("WriteFiles error = %v, want ErrLocked", err)
	}
}
