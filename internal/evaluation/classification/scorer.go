package classification

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"mireval/internal/evaluation"
	"mireval/internal/experiment"
	"mireval/internal/hierarchy"
	"mireval/internal/logging"
	"mireval/internal/metrics"
	"mireval/internal/textutil"
)

// Scorer implements evaluation.Scorer for classification tasks.
type Scorer struct {
	logger    *slog.Logger
	hierarchy *hierarchy.Hierarchy
	clean     bool
	keys      metrics.KeySet

	field       string
	index       evaluation.GroundTruthIndex
	classes     []string
	classIndex  map[string]int
	truth       map[string]int
	foldCounts  map[string][]float64
	declaredSet int
}

// New builds a classification scorer. A nil hierarchy disables discounting.
func New(opts evaluation.ScorerOptions) (evaluation.Scorer, error) {
	s := &Scorer{
		logger:    logging.NewComponentLogger(opts.Logger, "classification"),
		hierarchy: opts.Hierarchy,
		clean:     opts.CleanLabels,
	}
	s.keys = declaredKeys(s.hierarchy != nil)
	return s, nil
}

func declaredKeys(discounted bool) metrics.KeySet {
	track := []metrics.Key{metrics.Accuracy}
	fold := []metrics.Key{
		metrics.ClassNames,
		metrics.ConfusionMatrixRaw,
		metrics.ConfusionMatrixPercent,
		metrics.Accuracy,
		metrics.NormalisedAccuracy,
	}
	if discounted {
		track = append(track, metrics.DiscountedAccuracy)
		fold = append(fold,
			metrics.DiscountVectorRaw,
			metrics.DiscountVectorPercent,
			metrics.DiscountedAccuracy,
			metrics.NormalisedDiscountedAccuracy,
		)
	}
	return metrics.KeySet{
		Overall: slices.Clone(fold),
		Fold:    fold,
		Track:   track,
	}
}

// Keys implements evaluation.Scorer.
func (s *Scorer) Keys() metrics.KeySet { return s.keys.Clone() }

// Classes returns the class vocabulary discovered by Prepare.
func (s *Scorer) Classes() []string { return slices.Clone(s.classes) }

func (s *Scorer) label(v string) string {
	if s.clean {
		return textutil.CleanLabel(v)
	}
	return v
}

// Prepare discovers the class vocabulary from ground truth and counts each
// fold's declared tracks per true class.
func (s *Scorer) Prepare(setup evaluation.Setup) error {
	s.field = setup.Task.SubjectField
	s.index = setup.GroundTruth
	s.truth = make(map[string]int, len(setup.GroundTruth))

	seen := make(map[string]struct{})
	labels := make(map[string]string, len(setup.GroundTruth))
	for id, gt := range setup.GroundTruth {
		v, ok := gt.Field(s.field)
		if !ok {
			continue
		}
		l := s.label(v.Label())
		if l == "" {
			continue
		}
		labels[id] = l
		seen[l] = struct{}{}
	}
	s.classes = make([]string, 0, len(seen))
	for c := range seen {
		s.classes = append(s.classes, c)
	}
	sort.Strings(s.classes)
	s.classIndex = make(map[string]int, len(s.classes))
	for i, c := range s.classes {
		s.classIndex[c] = i
	}
	for id, l := range labels {
		s.truth[id] = s.classIndex[l]
	}

	if s.hierarchy != nil {
		if missing := s.hierarchy.Missing(s.classes); len(missing) > 0 {
			logging.WarnWithContext(s.logger, "classes absent from hierarchy", "hierarchy_incomplete",
				logging.Any("classes", missing),
				logging.String(logging.FieldImpact, "misclassifications of these classes earn no partial credit"),
			)
		}
	}

	s.foldCounts = make(map[string][]float64, len(setup.Folds))
	s.declaredSet = len(setup.Folds)
	for _, fold := range setup.Folds {
		counts := make([]float64, len(s.classes))
		for _, id := range fold.TrackIDs {
			if _, _, err := setup.GroundTruth.Subject(id, s.field); err != nil {
				return &evaluation.ValidationError{FoldID: fold.ID, Reason: "declared track", Err: err}
			}
			idx, ok := s.truth[id]
			if !ok {
				return &evaluation.ValidationError{FoldID: fold.ID, Reason: "declared track", Err: fmt.Errorf("%w: track %s has an empty label", evaluation.ErrMissingSubject, id)}
			}
			counts[idx]++
		}
		s.foldCounts[fold.ID] = counts
	}
	s.logger.Info("class vocabulary discovered",
		logging.Int("classes", len(s.classes)),
		logging.Bool("hierarchy", s.hierarchy != nil),
	)
	return nil
}

// ScoreFold implements evaluation.Scorer.
func (s *Scorer) ScoreFold(in evaluation.FoldInput) (metrics.Record, []evaluation.TrackResult, error) {
	counts, ok := s.foldCounts[in.Fold.ID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", evaluation.ErrUnknownFold, in.Fold.ID)
	}
	n := len(s.classes)
	confusion := metrics.NewMatrix(n, n)
	var discount []float64
	if s.hierarchy != nil {
		discount = make([]float64, n)
	}

	tracks := make([]evaluation.TrackResult, 0, len(in.Predictions))
	for _, pred := range in.Predictions {
		truthIdx, predIdx, gtRec, err := s.resolve(pred)
		if err != nil {
			return nil, nil, err
		}
		confusion[predIdx][truthIdx]++

		rec := metrics.NewRecord()
		correct := 0.0
		if predIdx == truthIdx {
			correct = 1
		}
		rec.Set(metrics.Accuracy, metrics.Scalar(correct))
		if discount != nil {
			credit := s.hierarchy.Credit(s.classes[truthIdx], s.classes[predIdx])
			discount[truthIdx] += credit
			rec.Set(metrics.DiscountedAccuracy, metrics.Scalar(credit))
		}
		tracks = append(tracks, evaluation.TrackResult{
			Prediction:  pred.Clone(),
			GroundTruth: gtRec,
			Metrics:     rec,
		})
	}

	record := s.summarize(confusion, discount, counts, float64(in.Declared))
	return record, tracks, nil
}

func (s *Scorer) resolve(pred experiment.Prediction) (int, int, experiment.GroundTruth, error) {
	gt, _, err := s.groundTruth(pred.TrackID)
	if err != nil {
		return 0, 0, gt, err
	}
	truthIdx, ok := s.truth[pred.TrackID]
	if !ok {
		return 0, 0, gt, fmt.Errorf("%w: track %s has an empty label", evaluation.ErrMissingSubject, pred.TrackID)
	}
	value, ok := pred.Field(s.field)
	if !ok {
		return 0, 0, gt, fmt.Errorf("%w: prediction for %s has no %q label", evaluation.ErrUnknownClass, pred.TrackID, s.field)
	}
	predicted := s.label(value.Label())
	predIdx, ok := s.classIndex[predicted]
	if !ok {
		return 0, 0, gt, fmt.Errorf("%w: %q predicted for %s", evaluation.ErrUnknownClass, predicted, pred.TrackID)
	}
	return truthIdx, predIdx, gt, nil
}

// summarize derives the ratio metrics from raw counts. perClass holds the
// declared tracks per true class and total the declared track count.
func (s *Scorer) summarize(confusion [][]float64, discount, perClass []float64, total float64) metrics.Record {
	n := len(s.classes)
	percent := metrics.NewMatrix(n, n)
	for t := 0; t < n; t++ {
		for p := 0; p < n; p++ {
			percent[p][t] = metrics.SafeDiv(confusion[p][t], perClass[t])
		}
	}
	diagonal := make([]float64, n)
	for i := range diagonal {
		diagonal[i] = percent[i][i]
	}

	rec := metrics.NewRecord()
	rec.Set(metrics.ClassNames, metrics.Labels(s.classes))
	rec.Set(metrics.ConfusionMatrixRaw, metrics.Matrix(confusion))
	rec.Set(metrics.ConfusionMatrixPercent, metrics.Matrix(percent))
	rec.Set(metrics.Accuracy, metrics.Scalar(metrics.SafeDiv(metrics.Trace(confusion), total)))
	rec.Set(metrics.NormalisedAccuracy, metrics.Scalar(metrics.Mean(diagonal)))

	if discount != nil {
		discountPercent := make([]float64, n)
		var credit float64
		for i := range discount {
			discountPercent[i] = metrics.SafeDiv(discount[i], perClass[i])
			credit += discount[i]
		}
		rec.Set(metrics.DiscountVectorRaw, metrics.Vector(discount))
		rec.Set(metrics.DiscountVectorPercent, metrics.Vector(discountPercent))
		rec.Set(metrics.DiscountedAccuracy, metrics.Scalar(metrics.SafeDiv(credit, total)))
		rec.Set(metrics.NormalisedDiscountedAccuracy, metrics.Scalar(metrics.Mean(discountPercent)))
	}
	return rec
}

// Aggregate sums fold confusion matrices and discount vectors and recomputes
// the ratios over the declared tracks of every fold.
func (s *Scorer) Aggregate(jobID string, folds []evaluation.FoldScore) (metrics.Record, error) {
	if len(folds) != s.declaredSet {
		return nil, &evaluation.ValidationError{
			JobID:  jobID,
			Reason: fmt.Sprintf("returned %d folds, expected %d", len(folds), s.declaredSet),
			Err:    evaluation.ErrMissingFolds,
		}
	}
	n := len(s.classes)
	confusion := metrics.NewMatrix(n, n)
	perClass := make([]float64, n)
	var discount []float64
	if s.hierarchy != nil {
		discount = make([]float64, n)
	}
	var total float64

	for _, f := range folds {
		m, err := f.Record.Matrix(metrics.ConfusionMatrixRaw)
		if err != nil {
			return nil, &evaluation.ValidationError{JobID: jobID, FoldID: f.Fold.ID, Err: err}
		}
		if !metrics.IsSquare(m, n) {
			return nil, &evaluation.ValidationError{
				JobID:  jobID,
				FoldID: f.Fold.ID,
				Reason: fmt.Sprintf("confusion matrix is %s, expected %dx%d", shape(m), n, n),
				Err:    evaluation.ErrDimension,
			}
		}
		metrics.AddMatrix(confusion, m)
		if discount != nil {
			v, err := f.Record.Vector(metrics.DiscountVectorRaw)
			if err != nil {
				return nil, &evaluation.ValidationError{JobID: jobID, FoldID: f.Fold.ID, Err: err}
			}
			if len(v) != n {
				return nil, &evaluation.ValidationError{
					JobID:  jobID,
					FoldID: f.Fold.ID,
					Reason: fmt.Sprintf("discount vector has length %d, expected %d", len(v), n),
					Err:    evaluation.ErrDimension,
				}
			}
			metrics.AddVector(discount, v)
		}
		counts, ok := s.foldCounts[f.Fold.ID]
		if !ok {
			return nil, &evaluation.ValidationError{JobID: jobID, FoldID: f.Fold.ID, Err: evaluation.ErrUnknownFold}
		}
		metrics.AddVector(perClass, counts)
		total += float64(f.Declared)
	}
	return s.summarize(confusion, discount, perClass, total), nil
}

func (s *Scorer) groundTruth(trackID string) (experiment.GroundTruth, experiment.Value, error) {
	return s.index.Subject(trackID, s.field)
}

func shape(m [][]float64) string {
	if len(m) == 0 {
		return "0x0"
	}
	return fmt.Sprintf("%dx%d", len(m), len(m[0]))
}
