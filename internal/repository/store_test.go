package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/google/go-cmp/cmp"

	"mireval/internal/experiment"
	"mireval/internal/repository"
	"mireval/internal/testsupport"
)

func openStore(t *testing.T) *repository.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := repository.Open(cfg)
	if err != nil {
		t.Fatalf("repository.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleDataset() repository.Dataset {
	gt := testsupport.LabelTruth("genre", "t1", "rock", "t2", "jazz", "t3", "rock")
	gt = append(gt, testsupport.OnsetTruth("t9", "piano", []float64{0.5, 1}, []float64{0.51}))
	return repository.Dataset{
		Dataset:      experiment.Dataset{ID: 3, Name: "genres", Description: "three tracks"},
		Family:       experiment.FamilyClassification,
		SubjectField: "genre",
		Folds: []experiment.Fold{
			testsupport.Fold(1, "t2", "t1"),
			testsupport.Fold(2, "t3"),
			{ID: "train", Number: 3, Kind: experiment.SetTraining, TrackIDs: []string{"t9"}},
		},
		GroundTruth: gt,
	}
}

func TestImportAndLoadRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	ds := sampleDataset()
	if _, err := store.Import(ctx, ds); err != nil {
		t.Fatalf("Import: %v", err)
	}
	got, err := store.Load(ctx, "genres")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(ds.Folds, got.Folds); diff != "" {
		t.Fatalf("folds mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(ds.Dataset, got.Dataset); diff != "" {
		t.Fatalf("dataset mismatch (-want +got):\n%s", diff)
	}
	if got.Family != experiment.FamilyClassification || got.SubjectField != "genre" {
		t.Fatalf("unexpected task info %q %q", got.Family, got.SubjectField)
	}
	if len(got.GroundTruth) != 4 {
		t.Fatalf("got %d ground truth records want 4", len(got.GroundTruth))
	}
	onsets, ok := got.GroundTruth[3].Field("onsets")
	if !ok || len(onsets.Sequences) != 2 || onsets.Sequences[1][0] != 0.51 {
		t.Fatalf("onset sequences not restored: %+v", got.GroundTruth[3])
	}
}

func TestImportReplacesByName(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	ds := sampleDataset()
	if _, err := store.Import(ctx, ds); err != nil {
		t.Fatalf("Import: %v", err)
	}
	ds.Folds = ds.Folds[:1]
	if _, err := store.Import(ctx, ds); err != nil {
		t.Fatalf("re-Import: %v", err)
	}
	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Folds != 1 || list[0].Tracks != 4 {
		t.Fatalf("unexpected summaries: %+v", list)
	}
	if list[0].ImportedAt.IsZero() {
		t.Fatal("expected import time")
	}
}

func TestLoadAndDeleteMissing(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if _, err := store.Load(ctx, "nope"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("got %v want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "nope"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("got %v want ErrNotFound", err)
	}
	if _, err := store.Import(ctx, sampleDataset()); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if err := store.Delete(ctx, "genres"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestImportFailsWhileLocked(t *testing.T) {
	store := openStore(t)
	other := flock.New(store.Path() + ".lock")
	ok, err := other.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	defer other.Unlock()

	if _, err := store.Import(context.Background(), sampleDataset()); !errors.Is(err, repository.ErrLocked) {
		t.Fatalf("got %v want ErrLocked", err)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo.db")
	store, err := repository.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if _, err := store.Import(context.Background(), sampleDataset()); err != nil {
		t.Fatalf("Import: %v", err)
	}
	_ = store.Close()
	again, err := repository.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	if _, err := again.Load(context.Background(), "genres"); err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
}
