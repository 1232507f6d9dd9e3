package dataset_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mireval/internal/dataset"
	"mireval/internal/experiment"
	"mireval/internal/testsupport"
)

func TestTrackID(t *testing.T) {
	tests := map[string]string{
		"/audio/jazz/track01.wav": "track01",
		"track02":                 "track02",
		`C:\audio\track03.mp3`:    "track03",
		"  t4.txt ":               "t4",
		"":                        "",
	}
	for in, want := range tests {
		if got := dataset.TrackID(in); got != want {
			t.Fatalf("TrackID(%q): got %q want %q", in, got, want)
		}
	}
}

func TestReadLabels(t *testing.T) {
	lines, err := dataset.ReadLabels(strings.NewReader("# comment\n/a/t1.wav\tRock\n\nt2\tHip Hop\n"))
	if err != nil {
		t.Fatalf("ReadLabels: %v", err)
	}
	want := []dataset.LabelLine{{TrackID: "t1", Label: "Rock"}, {TrackID: "t2", Label: "Hip Hop"}}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	if _, err := dataset.ReadLabels(strings.NewReader("t1 rock\n")); err == nil {
		t.Fatal("expected error for missing tab")
	}
}

func TestReadOnsets(t *testing.T) {
	seqs, err := dataset.ReadOnsets(strings.NewReader("0.5\t0.52\n1.0 NaN\n1.5\t1.49\n"))
	if err != nil {
		t.Fatalf("ReadOnsets: %v", err)
	}
	want := [][]float64{{0.5, 1.0, 1.5}, {0.52, 1.49}}
	if diff := cmp.Diff(want, seqs); diff != "" {
		t.Fatalf("onsets mismatch (-want +got):\n%s", diff)
	}
	if _, err := dataset.ReadOnsets(strings.NewReader("abc\n")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestManifestFolds(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteLines(t, filepath.Join(dir, "lists", "fold1.txt"), "/audio/t1.wav", "/audio/t2.wav")
	testsupport.WriteFile(t, filepath.Join(dir, "folds.yaml"), `
dataset:
  id: 7
  name: genres
folds:
  - id: fold1
    tracks: lists/fold1.txt
  - id: fold2
    number: 2
    track_ids: [t3, t4]
  - id: train
    set: training
    track_ids: [t5]
`)
	m, err := dataset.LoadManifest(filepath.Join(dir, "folds.yaml"))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	folds, err := m.ExperimentFolds()
	if err != nil {
		t.Fatalf("ExperimentFolds: %v", err)
	}
	want := []experiment.Fold{
		{ID: "fold1", Number: 1, Kind: experiment.SetTest, TrackIDs: []string{"t1", "t2"}},
		{ID: "fold2", Number: 2, Kind: experiment.SetTest, TrackIDs: []string{"t3", "t4"}},
		{ID: "train", Number: 3, Kind: experiment.SetTraining, TrackIDs: []string{"t5"}},
	}
	if diff := cmp.Diff(want, folds); diff != "" {
		t.Fatalf("folds mismatch (-want +got):\n%s", diff)
	}
	if got := m.DatasetInfo(); got.ID != 7 || got.Name != "genres" {
		t.Fatalf("unexpected dataset %+v", got)
	}
}

func TestManifestRejectsEmptyFold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folds.yaml")
	testsupport.WriteFile(t, path, "folds:\n  - id: f1\n")
	m, err := dataset.LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if _, err := m.ExperimentFolds(); err == nil {
		t.Fatal("expected error for fold without tracks")
	}
}

func TestLoadOnsetGroundTruth(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteLines(t, filepath.Join(dir, "gt", "p1.txt"), "1.0\t1.01", "2.0\t2.02")
	testsupport.WriteLines(t, filepath.Join(dir, "gt", "d1.txt"), "0.5")
	testsupport.WriteLines(t, filepath.Join(dir, "classes.txt"), "p1\tpiano")

	gt, err := dataset.LoadOnsetGroundTruth(filepath.Join(dir, "gt"), "onsets", filepath.Join(dir, "classes.txt"), "class")
	if err != nil {
		t.Fatalf("LoadOnsetGroundTruth: %v", err)
	}
	if len(gt) != 2 || gt[0].TrackID != "d1" || gt[1].TrackID != "p1" {
		t.Fatalf("unexpected records: %+v", gt)
	}
	if gt[0].HasField("class") {
		t.Fatal("d1 should have no class")
	}
	v, _ := gt[1].Field("onsets")
	if len(v.Sequences) != 2 {
		t.Fatalf("expected two annotators, got %d", len(v.Sequences))
	}
	class, _ := gt[1].Field("class")
	if class.Label() != "piano" {
		t.Fatalf("got %q want %q", class.Label(), "piano")
	}
}

func TestLoaderReadsSubmissionsConcurrently(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteLines(t, filepath.Join(dir, "sysA", "fold1.txt"), "t1\tRock", "t2\tJazz")
	testsupport.WriteLines(t, filepath.Join(dir, "sysA", "fold2.txt"), "t3\tRock")
	testsupport.WriteLines(t, filepath.Join(dir, "sysB", "fold1.txt"), "t1\tJazz")

	specA, err := dataset.ParseSubmissionSpec("a:System A=" + filepath.Join(dir, "sysA"))
	if err != nil {
		t.Fatalf("ParseSubmissionSpec: %v", err)
	}
	specB, err := dataset.ParseSubmissionSpec("b=" + filepath.Join(dir, "sysB"))
	if err != nil {
		t.Fatalf("ParseSubmissionSpec: %v", err)
	}
	folds := []experiment.Fold{testsupport.Fold(1, "t1", "t2"), testsupport.Fold(2, "t3")}

	loader := dataset.Loader{Family: experiment.FamilyClassification, Field: "genre", Parallel: 2}
	subs, err := loader.Load(context.Background(), folds, []dataset.SubmissionSpec{specA, specB})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if subs[0].JobID != "a" || subs[0].Name != "System A" || len(subs[0].Folds) != 2 {
		t.Fatalf("unexpected submission a: %+v", subs[0])
	}
	if subs[1].Name != "b" || len(subs[1].Folds) != 1 {
		t.Fatalf("unexpected submission b: %+v", subs[1])
	}
	if got := subs[0].Folds["fold1"][1].Fields["genre"].Label(); got != "Jazz" {
		t.Fatalf("got %q want %q", got, "Jazz")
	}
}

func TestLoaderRejectsMultiColumnOnsetPredictions(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteLines(t, filepath.Join(dir, "sys", "fold1", "a.txt"), "0.5\t0.6", "1.0\t1.1")
	folds := []experiment.Fold{testsupport.Fold(1, "a")}

	loader := dataset.Loader{Family: experiment.FamilyOnset, Field: experiment.FieldOnsets}
	_, err := loader.Load(context.Background(), folds, []dataset.SubmissionSpec{{JobID: "sys", Name: "sys", Dir: filepath.Join(dir, "sys")}})
	if err == nil || !strings.Contains(err.Error(), "2 onset columns") {
		t.Fatalf("expected multi-column error, got %v", err)
	}
}

func TestParseSubmissionSpecErrors(t *testing.T) {
	for _, in := range []string{"noequals", "=dir", "id="} {
		if _, err := dataset.ParseSubmissionSpec(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}
