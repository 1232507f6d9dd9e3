package testsupport

import (
	"fmt"

	"mireval/internal/experiment"
)

// Task returns a task of the given family with its default subject field.
func Task(family experiment.Family) experiment.Task {
	task := experiment.Task{ID: 1, Name: "test " + string(family), Family: family}
	switch family {
	case experiment.FamilyOnset:
		task.SubjectField = experiment.FieldOnsets
	default:
		task.SubjectField = experiment.FieldGenre
	}
	return task
}

// Fold builds a declared test fold numbered n with ID "fold<n>".
func Fold(n int, trackIDs ...string) experiment.Fold {
	return experiment.Fold{
		ID:       fmt.Sprintf("fold%d", n),
		Number:   n,
		Kind:     experiment.SetTest,
		TrackIDs: trackIDs,
	}
}

// LabelTruth builds ground truth from alternating track ID, label pairs.
func LabelTruth(field string, pairs ...string) []experiment.GroundTruth {
	out := make([]experiment.GroundTruth, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, experiment.GroundTruth{
			TrackID: pairs[i],
			Fields:  experiment.Fields{field: experiment.LabelValue(pairs[i+1])},
		})
	}
	return out
}

// LabelPredictions builds predictions from alternating track ID, label pairs.
func LabelPredictions(field string, pairs ...string) []experiment.Prediction {
	out := make([]experiment.Prediction, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, experiment.Prediction{
			TrackID: pairs[i],
			Fields:  experiment.Fields{field: experiment.LabelValue(pairs[i+1])},
		})
	}
	return out
}

// OnsetTruth builds an onset ground-truth record with one sequence per
// annotator. An empty class leaves the class field unset.
func OnsetTruth(trackID, class string, annotators ...[]float64) experiment.GroundTruth {
	fields := experiment.Fields{experiment.FieldOnsets: experiment.SequenceValue(annotators...)}
	if class != "" {
		fields[experiment.FieldOnsetClass] = experiment.LabelValue(class)
	}
	return experiment.GroundTruth{TrackID: trackID, Fields: fields}
}

// OnsetPrediction builds a single-sequence onset prediction.
func OnsetPrediction(trackID string, onsets ...float64) experiment.Prediction {
	return experiment.Prediction{
		TrackID: trackID,
		Fields:  experiment.Fields{experiment.FieldOnsets: experiment.SequenceValue(onsets)},
	}
}
