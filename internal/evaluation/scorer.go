package evaluation

import (
	"fmt"
	"log/slog"

	"mireval/internal/experiment"
	"mireval/internal/hierarchy"
	"mireval/internal/metrics"
)

// GroundTruthIndex maps track IDs to their reference annotation.
type GroundTruthIndex map[string]experiment.GroundTruth

// Subject returns the ground-truth record for trackID together with its
// subject field, failing with ErrUnknownTrack or ErrMissingSubject.
func (g GroundTruthIndex) Subject(trackID, field string) (experiment.GroundTruth, experiment.Value, error) {
	gt, ok := g[trackID]
	if !ok {
		return experiment.GroundTruth{}, experiment.Value{}, fmt.Errorf("%w: %s", ErrUnknownTrack, trackID)
	}
	value, ok := gt.Field(field)
	if !ok {
		return gt, experiment.Value{}, fmt.Errorf("%w: track %s lacks %q", ErrMissingSubject, trackID, field)
	}
	return gt, value, nil
}

// Setup is handed to a Scorer once per Evaluate call, before any fold is scored.
type Setup struct {
	Task        experiment.Task
	Folds       []experiment.Fold
	GroundTruth GroundTruthIndex
}

// FoldInput is one job's predictions for one declared fold. Predictions are
// already ordered by the session comparator and Declared is the fold's
// canonical track count.
type FoldInput struct {
	JobID       string
	Fold        experiment.Fold
	Declared    int
	Predictions []experiment.Prediction
}

// FoldScore pairs a fold with the record scored for it.
type FoldScore struct {
	Fold     experiment.Fold
	Declared int
	Record   metrics.Record
}

// TrackResult is a prediction annotated with its per-track metrics.
type TrackResult struct {
	Prediction  experiment.Prediction
	GroundTruth experiment.GroundTruth
	Metrics     metrics.Record
}

// Scorer implements one task family. Keys must be fixed when the scorer is
// constructed.
type Scorer interface {
	Keys() metrics.KeySet
	Prepare(setup Setup) error
	ScoreFold(in FoldInput) (metrics.Record, []TrackResult, error)
	Aggregate(jobID string, folds []FoldScore) (metrics.Record, error)
}

// ScorerOptions carries family settings from configuration to a Factory.
type ScorerOptions struct {
	Logger      *slog.Logger
	Hierarchy   *hierarchy.Hierarchy
	CleanLabels bool
	Tolerance   float64
	ClassField  string
}
