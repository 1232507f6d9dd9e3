package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"mireval/internal/experiment"
	"mireval/internal/logging"
	"mireval/internal/metrics"
)

// SessionOptions tunes a Session. Zero values select defaults.
type SessionOptions struct {
	Logger *slog.Logger
	// Order canonicalizes prediction order within a fold. Default: ByTrackID
	Order experiment.Order
	// RunID stamps the result set and log lines. Default: a random UUID
	RunID  string
	Scorer ScorerOptions
}

// Session collects ground truth and submissions for one task and scores them.
type Session struct {
	task     experiment.Task
	dataset  experiment.Dataset
	folds    []experiment.Fold
	training []experiment.Fold
	foldByID map[string]experiment.Fold

	scorer Scorer
	keys   metrics.KeySet
	order  experiment.Order
	runID  string
	logger *slog.Logger

	groundTruth GroundTruthIndex
	submissions map[string]*experiment.Submission
	evaluated   bool
}

// NewSession builds a session for task. Folds of kind SetTraining are kept
// for reporting only; every other fold is a declared test fold.
func NewSession(registry *Registry, task experiment.Task, dataset experiment.Dataset, folds []experiment.Fold, opts SessionOptions) (*Session, error) {
	if registry == nil {
		return nil, &ArgumentError{Op: "new session", Err: fmt.Errorf("%w: nil registry", ErrUnknownFamily)}
	}
	if strings.TrimSpace(task.SubjectField) == "" {
		return nil, &ArgumentError{Op: "new session", Err: fmt.Errorf("task %q has no subject field", task.Name)}
	}

	s := &Session{
		task:        task,
		dataset:     dataset,
		foldByID:    make(map[string]experiment.Fold),
		order:       opts.Order,
		runID:       strings.TrimSpace(opts.RunID),
		submissions: make(map[string]*experiment.Submission),
	}
	if s.order == nil {
		s.order = experiment.ByTrackID
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}

	for _, fold := range folds {
		if fold.Kind == experiment.SetTraining {
			s.training = append(s.training, fold)
			continue
		}
		if _, dup := s.foldByID[fold.ID]; dup {
			return nil, &ArgumentError{Op: "new session", Err: fmt.Errorf("fold %q declared twice", fold.ID)}
		}
		s.foldByID[fold.ID] = fold
		s.folds = append(s.folds, fold)
	}
	if len(s.folds) == 0 {
		return nil, &ArgumentError{Op: "new session", Err: fmt.Errorf("%w: no test folds declared", ErrMissingFolds)}
	}

	s.logger = logging.NewComponentLogger(opts.Logger, "session").With(
		logging.String(logging.FieldRunID, s.runID),
		logging.String(logging.FieldTask, task.Name),
	)
	scorerOpts := opts.Scorer
	scorerOpts.Logger = logging.NewComponentLogger(opts.Logger, string(task.Family)).With(
		logging.String(logging.FieldRunID, s.runID),
	)
	scorer, err := registry.New(task.Family, scorerOpts)
	if err != nil {
		return nil, err
	}
	s.scorer = scorer
	s.keys = scorer.Keys().Clone()
	return s, nil
}

// RunID identifies this session's evaluation run.
func (s *Session) RunID() string { return s.runID }

// Keys returns the metric keys every record of this task must carry.
func (s *Session) Keys() metrics.KeySet { return s.keys.Clone() }

// Folds returns the declared test folds in declaration order.
func (s *Session) Folds() []experiment.Fold {
	return append([]experiment.Fold(nil), s.folds...)
}

// SetGroundTruth installs the reference annotations. It may be called once.
// Records without the task's subject field are logged and only fail if a
// scored prediction needs them.
func (s *Session) SetGroundTruth(records []experiment.GroundTruth) error {
	if s.evaluated {
		return &ArgumentError{Op: "set ground truth", Err: ErrAlreadyEvaluated}
	}
	if s.groundTruth != nil {
		return &ArgumentError{Op: "set ground truth", Err: fmt.Errorf("ground truth already set")}
	}
	index := make(GroundTruthIndex, len(records))
	missing := 0
	for _, rec := range records {
		if _, dup := index[rec.TrackID]; dup {
			return &ArgumentError{Op: "set ground truth", Err: fmt.Errorf("track %q appears twice", rec.TrackID)}
		}
		if !rec.HasField(s.task.SubjectField) {
			missing++
			logging.WarnWithContext(s.logger, "ground truth missing subject field", "ground_truth_incomplete",
				logging.String(logging.FieldTrackID, rec.TrackID),
				logging.String("field", s.task.SubjectField),
				logging.String(logging.FieldImpact, "track fails evaluation if a prediction references it"),
			)
		}
		index[rec.TrackID] = experiment.GroundTruth{TrackID: rec.TrackID, Fields: rec.Fields.Clone()}
	}
	s.groundTruth = index
	s.logger.Info("ground truth loaded",
		logging.Int("tracks", len(index)),
		logging.Int("missing_subject", missing),
	)
	return nil
}

// AddResults records one job's predictions for a declared test fold.
func (s *Session) AddResults(jobID, name, foldID string, predictions []experiment.Prediction) error {
	if s.evaluated {
		return &ArgumentError{Op: "add results", Err: ErrAlreadyEvaluated}
	}
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return &ArgumentError{Op: "add results", Err: fmt.Errorf("%w: empty job id", ErrInvalidSubmission)}
	}
	if _, ok := s.foldByID[foldID]; !ok {
		return &ArgumentError{Op: "add results", Err: fmt.Errorf("%w: job %s submitted fold %q", ErrUnknownFold, jobID, foldID)}
	}

	sub, ok := s.submissions[jobID]
	if !ok {
		sub = &experiment.Submission{JobID: jobID, Name: name, Folds: make(map[string][]experiment.Prediction)}
		s.submissions[jobID] = sub
	}
	if _, dup := sub.Folds[foldID]; dup {
		return &ArgumentError{Op: "add results", Err: fmt.Errorf("%w: job %s fold %s", ErrDuplicateResults, jobID, foldID)}
	}
	if sub.Name == "" {
		sub.Name = name
	}

	copied := make([]experiment.Prediction, len(predictions))
	for i, p := range predictions {
		copied[i] = p.Clone()
	}
	sub.Folds[foldID] = copied
	s.logger.Debug("results added",
		logging.String(logging.FieldJobID, jobID),
		logging.String(logging.FieldFoldID, foldID),
		logging.Int("predictions", len(copied)),
	)
	return nil
}

// Evaluate scores every submission. It runs once; later calls return
// ErrAlreadyEvaluated. Any failure aborts the whole evaluation.
func (s *Session) Evaluate(ctx context.Context) (*ResultSet, error) {
	if s.evaluated {
		return nil, &ArgumentError{Op: "evaluate", Err: ErrAlreadyEvaluated}
	}
	s.evaluated = true

	if s.groundTruth == nil {
		return nil, &ValidationError{Reason: "evaluate", Err: ErrNoGroundTruth}
	}
	if err := CheckFolds(s.submissions, s.folds); err != nil {
		return nil, err
	}
	if err := s.scorer.Prepare(Setup{Task: s.task, Folds: s.Folds(), GroundTruth: s.groundTruth}); err != nil {
		return nil, validationErr("", "", "prepare scorer", err)
	}

	result := &ResultSet{
		RunID:         s.runID,
		Task:          s.task,
		Dataset:       s.dataset,
		Folds:         s.Folds(),
		TrainingFolds: append([]experiment.Fold(nil), s.training...),
		Keys:          s.Keys(),
		Jobs:          make(map[string]*JobResult, len(s.submissions)),
	}

	jobIDs := make([]string, 0, len(s.submissions))
	for id := range s.submissions {
		jobIDs = append(jobIDs, id)
	}
	sort.Strings(jobIDs)

	for _, jobID := range jobIDs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("evaluate: %w", err)
		}
		job, err := s.evaluateJob(s.submissions[jobID])
		if err != nil {
			return nil, err
		}
		result.Jobs[jobID] = job
	}
	s.logger.Info("evaluation complete", logging.Int("jobs", len(result.Jobs)), logging.Int("folds", len(s.folds)))
	return result, nil
}

func (s *Session) evaluateJob(sub *experiment.Submission) (*JobResult, error) {
	logger := s.logger.With(logging.String(logging.FieldJobID, sub.JobID))
	logger.Info("evaluating job", logging.String("name", sub.Name))

	job := &JobResult{
		JobID:  sub.JobID,
		Name:   sub.Name,
		Folds:  make(map[string]metrics.Record, len(s.folds)),
		Tracks: make(map[string][]TrackResult, len(s.folds)),
	}
	scores := make([]FoldScore, 0, len(s.folds))
	for _, fold := range s.folds {
		if err := CheckFoldMembership(fold, sub.Folds[fold.ID]); err != nil {
			return nil, validationErr(sub.JobID, fold.ID, "fold membership", err)
		}
		declared, ordered := CheckFoldCompleteness(logger, sub.JobID, fold, sub.Folds[fold.ID], s.order)
		record, tracks, err := s.scorer.ScoreFold(FoldInput{
			JobID:       sub.JobID,
			Fold:        fold,
			Declared:    declared,
			Predictions: ordered,
		})
		if err != nil {
			return nil, validationErr(sub.JobID, fold.ID, "score fold", err)
		}
		if err := metrics.CheckExact(record, s.keys.Fold); err != nil {
			return nil, validationErr(sub.JobID, fold.ID, "fold record", err)
		}
		for _, tr := range tracks {
			if err := metrics.CheckExact(tr.Metrics, s.keys.Track); err != nil {
				return nil, validationErr(sub.JobID, fold.ID, "track "+tr.Prediction.TrackID, err)
			}
		}
		job.Folds[fold.ID] = record
		job.Tracks[fold.ID] = tracks
		scores = append(scores, FoldScore{Fold: fold, Declared: declared, Record: record})
		logger.Debug("fold scored", logging.String(logging.FieldFoldID, fold.ID), logging.Int("tracks", len(tracks)))
	}

	overall, err := s.scorer.Aggregate(sub.JobID, scores)
	if err != nil {
		return nil, validationErr(sub.JobID, "", "aggregate", err)
	}
	if err := metrics.CheckExact(overall, s.keys.Overall); err != nil {
		return nil, validationErr(sub.JobID, "", "overall record", err)
	}
	job.Overall = overall
	return job, nil
}
