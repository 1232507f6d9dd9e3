package evaluation

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"mireval/internal/experiment"
	"mireval/internal/logging"
)

// CheckFolds fails when any submission does not cover every declared fold.
// Submissions are checked in job ID order so the reported job is stable.
func CheckFolds(submissions map[string]*experiment.Submission, declared []experiment.Fold) error {
	jobIDs := make([]string, 0, len(submissions))
	for id := range submissions {
		jobIDs = append(jobIDs, id)
	}
	sort.Strings(jobIDs)

	for _, jobID := range jobIDs {
		sub := submissions[jobID]
		var missing []string
		for _, fold := range declared {
			if _, ok := sub.Folds[fold.ID]; !ok {
				missing = append(missing, fold.ID)
			}
		}
		if len(missing) > 0 {
			return &ValidationError{
				JobID:  jobID,
				Reason: fmt.Sprintf("submitted %d of %d declared folds, missing %s", len(sub.Folds), len(declared), strings.Join(missing, ", ")),
				Err:    ErrMissingFolds,
			}
		}
	}
	return nil
}

// CheckFoldCompleteness returns the fold's declared track count and the
// predictions ordered by order (ByTrackID when nil). Declared tracks absent
// from predictions are logged; they still count toward the denominator.
func CheckFoldCompleteness(logger *slog.Logger, jobID string, fold experiment.Fold, predictions []experiment.Prediction, order experiment.Order) (int, []experiment.Prediction) {
	if order == nil {
		order = experiment.ByTrackID
	}
	declared := fold.Size()
	sorted := slices.Clone(predictions)
	slices.SortStableFunc(sorted, order)

	if declared != len(sorted) {
		returned := make(map[string]struct{}, len(sorted))
		for _, p := range sorted {
			returned[p.TrackID] = struct{}{}
		}
		var missing []string
		for _, id := range fold.TrackIDs {
			if _, ok := returned[id]; !ok {
				missing = append(missing, id)
			}
		}
		logging.WarnWithContext(logger, "fold submission incomplete", "fold_incomplete",
			logging.String(logging.FieldJobID, jobID),
			logging.String(logging.FieldFoldID, fold.ID),
			logging.Int("declared", declared),
			logging.Int("returned", len(sorted)),
			logging.String("missing_tracks", strings.Join(missing, ",")),
			logging.String(logging.FieldImpact, "missing tracks scored as incorrect"),
		)
	}
	return declared, sorted
}

// CheckFoldMembership fails when a prediction names a track outside the
// fold's declared set or when a track is predicted twice.
func CheckFoldMembership(fold experiment.Fold, predictions []experiment.Prediction) error {
	declared := make(map[string]struct{}, len(fold.TrackIDs))
	for _, id := range fold.TrackIDs {
		declared[id] = struct{}{}
	}
	seen := make(map[string]struct{}, len(predictions))
	for _, p := range predictions {
		if _, ok := declared[p.TrackID]; !ok {
			return fmt.Errorf("%w: %s is not declared in fold %s", ErrUnknownTrack, p.TrackID, fold.ID)
		}
		if _, dup := seen[p.TrackID]; dup {
			return fmt.Errorf("%w: track %s predicted twice", ErrInvalidSubmission, p.TrackID)
		}
		seen[p.TrackID] = struct{}{}
	}
	return nil
}
