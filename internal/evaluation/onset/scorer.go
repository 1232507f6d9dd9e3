package onset

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"mireval/internal/evaluation"
	"mireval/internal/experiment"
	"mireval/internal/logging"
	"mireval/internal/metrics"
)

// Unclassified is the class assigned to tracks without a class annotation.
const Unclassified = "Unclassified"

var (
	scalarKeys = []metrics.Key{
		metrics.OnsetFMeasure,
		metrics.OnsetPrecision,
		metrics.OnsetRecall,
		metrics.OnsetCorrect,
		metrics.OnsetFalsePositives,
		metrics.OnsetFalseNegatives,
		metrics.OnsetDoubled,
		metrics.OnsetMerged,
	}
	classKeys = []metrics.Key{
		metrics.OnsetFMeasureByClass,
		metrics.OnsetPrecisionByClass,
		metrics.OnsetRecallByClass,
	}
)

// Scorer implements evaluation.Scorer for onset detection tasks.
type Scorer struct {
	logger     *slog.Logger
	tolerance  float64
	classField string
	keys       metrics.KeySet

	field       string
	index       evaluation.GroundTruthIndex
	classes     []string
	classOf     map[string]int
	foldCounts  map[string][]float64
	declaredSet int
}

// New builds an onset scorer. A non-positive tolerance selects
// DefaultTolerance and an empty class field selects "class".
func New(opts evaluation.ScorerOptions) (evaluation.Scorer, error) {
	tolerance := opts.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	classField := strings.TrimSpace(opts.ClassField)
	if classField == "" {
		classField = experiment.FieldOnsetClass
	}
	if opts.Hierarchy != nil {
		return nil, fmt.Errorf("onset scoring does not use a class hierarchy")
	}

	fold := append(slices.Clone(scalarKeys), classKeys...)
	fold = append(fold, metrics.OnsetClasses)
	return &Scorer{
		logger:     logging.NewComponentLogger(opts.Logger, "onset"),
		tolerance:  tolerance,
		classField: classField,
		keys: metrics.KeySet{
			Overall: slices.Clone(fold),
			Fold:    fold,
			Track:   slices.Clone(scalarKeys),
		},
	}, nil
}

// Keys implements evaluation.Scorer.
func (s *Scorer) Keys() metrics.KeySet { return s.keys.Clone() }

func (s *Scorer) classLabel(gt experiment.GroundTruth) string {
	if v, ok := gt.Field(s.classField); ok && v.Label() != "" {
		return v.Label()
	}
	return Unclassified
}

// Prepare collects the class list from ground truth and counts each fold's
// declared tracks per class.
func (s *Scorer) Prepare(setup evaluation.Setup) error {
	s.field = setup.Task.SubjectField
	s.index = setup.GroundTruth

	seen := make(map[string]struct{})
	for _, gt := range setup.GroundTruth {
		seen[s.classLabel(gt)] = struct{}{}
	}
	s.classes = make([]string, 0, len(seen))
	for c := range seen {
		s.classes = append(s.classes, c)
	}
	sort.Strings(s.classes)
	s.classOf = make(map[string]int, len(s.classes))
	for i, c := range s.classes {
		s.classOf[c] = i
	}

	s.declaredSet = len(setup.Folds)
	s.foldCounts = make(map[string][]float64, len(setup.Folds))
	for _, fold := range setup.Folds {
		counts := make([]float64, len(s.classes))
		for _, id := range fold.TrackIDs {
			gt, ok := setup.GroundTruth[id]
			if !ok {
				return &evaluation.ValidationError{FoldID: fold.ID, Reason: "declared track", Err: fmt.Errorf("%w: %s", evaluation.ErrUnknownTrack, id)}
			}
			counts[s.classOf[s.classLabel(gt)]]++
		}
		s.foldCounts[fold.ID] = counts
	}
	s.logger.Info("onset classes discovered",
		logging.Any("classes", s.classes),
		logging.Float64("tolerance", s.tolerance),
	)
	return nil
}

type trackScore struct {
	precision, recall, fmeasure float64
	correct, fp, fn             float64
	doubled, merged             float64
}

func (t trackScore) record() metrics.Record {
	rec := metrics.NewRecord()
	for i, v := range t.values() {
		rec.Set(scalarKeys[i], metrics.Scalar(v))
	}
	return rec
}

// values follows scalarKeys order.
func (t trackScore) values() []float64 {
	return []float64{t.fmeasure, t.precision, t.recall, t.correct, t.fp, t.fn, t.doubled, t.merged}
}

// scoreTrack averages the per-annotator results for one track. A track
// without annotators is matched against an empty sequence.
func (s *Scorer) scoreTrack(predicted []float64, annotators [][]float64) trackScore {
	if len(annotators) == 0 {
		annotators = [][]float64{nil}
	}
	var out trackScore
	for _, annotated := range annotators {
		c := Match(predicted, annotated, s.tolerance)
		out.precision += c.Precision()
		out.recall += c.Recall()
		out.fmeasure += c.FMeasure()
		out.correct += float64(c.Correct)
		out.fp += float64(c.FalsePositives)
		out.fn += float64(c.FalseNegatives)
		out.doubled += float64(c.Doubled)
		out.merged += float64(c.Merged)
	}
	n := float64(len(annotators))
	out.precision /= n
	out.recall /= n
	out.fmeasure /= n
	out.correct /= n
	out.fp /= n
	out.fn /= n
	out.doubled /= n
	out.merged /= n
	return out
}

// ScoreFold implements evaluation.Scorer.
func (s *Scorer) ScoreFold(in evaluation.FoldInput) (metrics.Record, []evaluation.TrackResult, error) {
	counts, ok := s.foldCounts[in.Fold.ID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", evaluation.ErrUnknownFold, in.Fold.ID)
	}
	totals := make([]float64, len(scalarKeys))
	byClass := [3][]float64{
		make([]float64, len(s.classes)),
		make([]float64, len(s.classes)),
		make([]float64, len(s.classes)),
	}

	tracks := make([]evaluation.TrackResult, 0, len(in.Predictions))
	for _, pred := range in.Predictions {
		gt, annotation, err := s.index.Subject(pred.TrackID, s.field)
		if err != nil {
			return nil, nil, err
		}
		var predicted []float64
		if v, ok := pred.Field(s.field); ok {
			if len(v.Sequences) > 1 {
				return nil, nil, fmt.Errorf("%w: track %s has %d onset sequences, want one",
					evaluation.ErrInvalidSubmission, pred.TrackID, len(v.Sequences))
			}
			if len(v.Sequences) == 1 {
				predicted = v.Sequences[0]
			}
		}
		score := s.scoreTrack(predicted, annotation.Sequences)
		metrics.AddVector(totals, score.values())

		class := s.classOf[s.classLabel(gt)]
		byClass[0][class] += score.fmeasure
		byClass[1][class] += score.precision
		byClass[2][class] += score.recall

		tracks = append(tracks, evaluation.TrackResult{
			Prediction:  pred.Clone(),
			GroundTruth: gt,
			Metrics:     score.record(),
		})
	}

	rec := metrics.NewRecord()
	for i, key := range scalarKeys {
		rec.Set(key, metrics.Scalar(metrics.SafeDiv(totals[i], float64(in.Declared))))
	}
	for k, key := range classKeys {
		vec := make([]float64, len(s.classes))
		for i := range vec {
			vec[i] = metrics.SafeDiv(byClass[k][i], counts[i])
		}
		rec.Set(key, metrics.Vector(vec))
	}
	rec.Set(metrics.OnsetClasses, metrics.Labels(s.classes))
	return rec, tracks, nil
}

// Aggregate averages fold scalars and averages the per-class vectors after
// aligning them by class name. Folds must report the same class set.
func (s *Scorer) Aggregate(jobID string, folds []evaluation.FoldScore) (metrics.Record, error) {
	if len(folds) != s.declaredSet {
		return nil, &evaluation.ValidationError{
			JobID:  jobID,
			Reason: fmt.Sprintf("returned %d folds, expected %d", len(folds), s.declaredSet),
			Err:    evaluation.ErrMissingFolds,
		}
	}
	aligned := make([]evaluation.FoldScore, len(folds))
	for i, f := range folds {
		rec, err := s.align(f.Record)
		if err != nil {
			return nil, &evaluation.ValidationError{JobID: jobID, FoldID: f.Fold.ID, Reason: "align classes", Err: err}
		}
		aligned[i] = evaluation.FoldScore{Fold: f.Fold, Declared: f.Declared, Record: rec}
	}
	return evaluation.MeanAggregate(jobID, s.keys.Overall, aligned)
}

// align reorders a fold's per-class vectors into the scorer's class order.
func (s *Scorer) align(rec metrics.Record) (metrics.Record, error) {
	names, err := rec.Labels(metrics.OnsetClasses)
	if err != nil {
		return nil, err
	}
	if len(names) != len(s.classes) {
		return nil, fmt.Errorf("%w: fold reports %d classes, expected %d", evaluation.ErrDimension, len(names), len(s.classes))
	}
	position := make([]int, len(names))
	taken := make([]bool, len(s.classes))
	for i, name := range names {
		idx, ok := s.classOf[name]
		if !ok || taken[idx] {
			return nil, fmt.Errorf("%w: unexpected class %q", evaluation.ErrDimension, name)
		}
		taken[idx] = true
		position[i] = idx
	}

	out := rec.Clone()
	for _, key := range classKeys {
		vec, err := rec.Vector(key)
		if err != nil {
			return nil, err
		}
		if len(vec) != len(names) {
			return nil, fmt.Errorf("%w: %s has length %d, expected %d", evaluation.ErrDimension, key, len(vec), len(names))
		}
		ordered := make([]float64, len(vec))
		for i, v := range vec {
			ordered[position[i]] = v
		}
		out.Set(key, metrics.Vector(ordered))
	}
	out.Set(metrics.OnsetClasses, metrics.Labels(s.classes))
	return out, nil
}
