// Package tasks wires the built-in scoring families into an evaluation
// registry and builds scorer options from configuration.
package tasks

import (
	"fmt"
	"log/slog"
	"strings"

	"mireval/internal/config"
	"mireval/internal/evaluation"
	"mireval/internal/evaluation/classification"
	"mireval/internal/evaluation/onset"
	"mireval/internal/experiment"
	"mireval/internal/hierarchy"
	"mireval/internal/textutil"
)

// NewRegistry returns a registry with every built-in family registered.
func NewRegistry() *evaluation.Registry {
	reg := evaluation.NewRegistry()
	mustRegister(reg, experiment.FamilyClassification, classification.New)
	mustRegister(reg, experiment.FamilyOnset, onset.New)
	return reg
}

func mustRegister(reg *evaluation.Registry, family experiment.Family, factory evaluation.Factory) {
	if err := reg.Register(family, factory); err != nil {
		panic(err)
	}
}

// TaskFromConfig builds the experiment task described by cfg.
func TaskFromConfig(cfg *config.Config) (experiment.Task, error) {
	family, ok := experiment.ParseFamily(cfg.Task.Family)
	if !ok {
		return experiment.Task{}, fmt.Errorf("%w: %q (supported: %s)",
			evaluation.ErrUnknownFamily, cfg.Task.Family, supportedFamilies())
	}
	return experiment.Task{
		ID:           cfg.Task.ID,
		Name:         cfg.Task.Name,
		Description:  cfg.Task.Description,
		SubjectField: cfg.Task.SubjectField,
		Family:       family,
	}, nil
}

func supportedFamilies() string {
	families := NewRegistry().Families()
	names := make([]string, len(families))
	for i, f := range families {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// DatasetFromConfig builds the dataset description from cfg.
func DatasetFromConfig(cfg *config.Config) experiment.Dataset {
	return experiment.Dataset{
		ID:          cfg.Dataset.ID,
		Name:        cfg.Dataset.Name,
		Description: cfg.Dataset.Description,
	}
}

// ScorerOptions translates configuration into family settings, loading the
// class hierarchy when one is configured.
func ScorerOptions(cfg *config.Config, logger *slog.Logger) (evaluation.ScorerOptions, error) {
	opts := evaluation.ScorerOptions{
		Logger:      logger,
		CleanLabels: cfg.Classification.CleanLabels,
		Tolerance:   cfg.Onset.Tolerance,
		ClassField:  cfg.Onset.ClassField,
	}
	if cfg.Classification.HierarchyFile != "" {
		var normalize hierarchy.Normalizer
		if cfg.Classification.CleanLabels {
			normalize = textutil.CleanLabel
		}
		h, err := hierarchy.Load(cfg.Classification.HierarchyFile, normalize)
		if err != nil {
			return opts, err
		}
		opts.Hierarchy = h
	}
	return opts, nil
}
