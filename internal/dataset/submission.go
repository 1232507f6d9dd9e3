package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"mireval/internal/experiment"
	"mireval/internal/logging"
)

// SubmissionSpec points at one system's results directory.
type SubmissionSpec struct {
	JobID string
	Name  string
	Dir   string
}

// ParseSubmissionSpec parses "id=dir" or "id:Display Name=dir".
func ParseSubmissionSpec(value string) (SubmissionSpec, error) {
	left, dir, ok := strings.Cut(value, "=")
	if !ok || strings.TrimSpace(dir) == "" {
		return SubmissionSpec{}, fmt.Errorf("submission %q: expected id=dir", value)
	}
	id, name, _ := strings.Cut(left, ":")
	id = strings.TrimSpace(id)
	if id == "" {
		return SubmissionSpec{}, fmt.Errorf("submission %q: empty job id", value)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = id
	}
	return SubmissionSpec{JobID: id, Name: name, Dir: strings.TrimSpace(dir)}, nil
}

// Loader reads submissions for one task.
type Loader struct {
	Family experiment.Family
	Field  string
	// Parallel bounds concurrent submission reads. Default: 4
	Parallel int
	Logger   *slog.Logger
}

// Load reads every submission concurrently. Results keep the order of specs.
//
// Classification submissions hold one "<fold>.txt" label file per fold.
// Onset submissions hold one "<fold>/" directory of per-track onset files.
func (l Loader) Load(ctx context.Context, folds []experiment.Fold, specs []SubmissionSpec) ([]*experiment.Submission, error) {
	logger := logging.NewComponentLogger(l.Logger, "dataset")
	limit := l.Parallel
	if limit <= 0 {
		limit = 4
	}
	out := make([]*experiment.Submission, len(specs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, spec := range specs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			sub, err := l.loadOne(folds, spec)
			if err != nil {
				return fmt.Errorf("load submission %s: %w", spec.JobID, err)
			}
			out[i] = sub
			logger.Debug("submission loaded",
				logging.String(logging.FieldJobID, spec.JobID),
				logging.Int("folds", len(sub.Folds)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (l Loader) loadOne(folds []experiment.Fold, spec SubmissionSpec) (*experiment.Submission, error) {
	sub := &experiment.Submission{JobID: spec.JobID, Name: spec.Name, Folds: make(map[string][]experiment.Prediction)}
	for _, fold := range folds {
		if fold.Kind == experiment.SetTraining {
			continue
		}
		var (
			preds []experiment.Prediction
			err   error
		)
		switch l.Family {
		case experiment.FamilyOnset:
			preds, err = l.loadOnsetFold(filepath.Join(spec.Dir, fold.ID))
		default:
			preds, err = l.loadLabelFold(filepath.Join(spec.Dir, fold.ID+".txt"))
		}
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fold %s: %w", fold.ID, err)
		}
		sub.Folds[fold.ID] = preds
	}
	return sub, nil
}

func (l Loader) loadLabelFold(path string) ([]experiment.Prediction, error) {
	lines, err := readLabelFile(path)
	if err != nil {
		return nil, err
	}
	out := make([]experiment.Prediction, 0, len(lines))
	for _, line := range lines {
		out = append(out, experiment.Prediction{
			TrackID: line.TrackID,
			Fields:  experiment.Fields{l.Field: experiment.LabelValue(line.Label)},
		})
	}
	return out, nil
}

func (l Loader) loadOnsetFold(dir string) ([]experiment.Prediction, error) {
	seqs, err := readOnsetDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]experiment.Prediction, 0, len(seqs))
	for id, columns := range seqs {
		if len(columns) > 1 {
			return nil, fmt.Errorf("%s: track %s has %d onset columns, predictions take one", dir, id, len(columns))
		}
		out = append(out, experiment.Prediction{
			TrackID: id,
			Fields:  experiment.Fields{l.Field: experiment.SequenceValue(columns[0])},
		})
	}
	return out, nil
}
