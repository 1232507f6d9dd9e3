package main

import (
	"context"
	"fmt"
	"strings"

	"mireval/internal/config"
	"mireval/internal/dataset"
	"mireval/internal/experiment"
	"mireval/internal/repository"
	"mireval/internal/tasks"
)

// datasetInputs is what a session needs besides submissions.
type datasetInputs struct {
	dataset experiment.Dataset
	folds   []experiment.Fold
	truth   []experiment.GroundTruth
}

type sourceFlags struct {
	manifest    string
	groundTruth string
	dataset     string
}

func (f sourceFlags) fromRepository() bool {
	return strings.TrimSpace(f.dataset) != ""
}

func loadInputs(ctx context.Context, cfg *config.Config, task experiment.Task, flags sourceFlags) (*datasetInputs, error) {
	if flags.fromRepository() {
		return loadRepositoryInputs(ctx, cfg, task, flags.dataset)
	}
	return loadFileInputs(cfg, task, flags)
}

func loadFileInputs(cfg *config.Config, task experiment.Task, flags sourceFlags) (*datasetInputs, error) {
	manifestPath := firstNonEmpty(flags.manifest, cfg.Dataset.FoldManifest)
	if manifestPath == "" {
		return nil, fmt.Errorf("no fold manifest configured (set dataset.fold_manifest or pass --manifest)")
	}
	truthPath := firstNonEmpty(flags.groundTruth, cfg.Dataset.GroundTruth)
	if truthPath == "" {
		return nil, fmt.Errorf("no ground truth configured (set dataset.ground_truth or pass --ground-truth)")
	}

	manifest, err := dataset.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	folds, err := manifest.ExperimentFolds()
	if err != nil {
		return nil, err
	}

	var truth []experiment.GroundTruth
	switch task.Family {
	case experiment.FamilyOnset:
		truth, err = dataset.LoadOnsetGroundTruth(truthPath, task.SubjectField, manifest.ClassesPath(), cfg.Onset.ClassField)
	default:
		truth, err = dataset.LoadLabelGroundTruth(truthPath, task.SubjectField)
	}
	if err != nil {
		return nil, fmt.Errorf("load ground truth: %w", err)
	}

	info := manifest.DatasetInfo()
	if info.Name == "" {
		info = tasks.DatasetFromConfig(cfg)
	}
	return &datasetInputs{dataset: info, folds: folds, truth: truth}, nil
}

func loadRepositoryInputs(ctx context.Context, cfg *config.Config, task experiment.Task, name string) (*datasetInputs, error) {
	store, err := repository.Open(cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	ds, err := store.Load(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if ds.Family != task.Family {
		return nil, fmt.Errorf("dataset %s was imported for %s tasks, configured task is %s", name, ds.Family, task.Family)
	}
	if ds.SubjectField != task.SubjectField {
		return nil, fmt.Errorf("dataset %s annotates %q, configured task scores %q", name, ds.SubjectField, task.SubjectField)
	}
	return &datasetInputs{dataset: ds.Dataset, folds: ds.Folds, truth: ds.GroundTruth}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
