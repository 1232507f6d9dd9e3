package evaluation

import (
	"errors"
	"fmt"
	"strings"

	"mireval/internal/metrics"
)

var (
	ErrUnknownFold       = errors.New("fold not declared")
	ErrMissingFolds      = errors.New("declared folds missing from submission")
	ErrUnknownTrack      = errors.New("track not in ground truth")
	ErrMissingSubject    = errors.New("ground truth missing subject field")
	ErrDimension         = errors.New("metric dimension mismatch")
	ErrKeyMismatch       = metrics.ErrKeyMismatch
	ErrAlreadyEvaluated  = errors.New("session already evaluated")
	ErrUnknownFamily     = errors.New("unknown task family")
	ErrUnknownClass      = errors.New("predicted class outside vocabulary")
	ErrNoGroundTruth     = errors.New("ground truth not set")
	ErrDuplicateResults  = errors.New("results already added for fold")
	ErrInvalidSubmission = errors.New("invalid submission")
)

// ValidationError reports a data or contract violation found while
// evaluating. JobID and FoldID are empty when the failure is not tied to one.
type ValidationError struct {
	JobID  string
	FoldID string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	detail := buildDetail("job", e.JobID, "fold", e.FoldID, e.Reason)
	if e.Err != nil {
		return fmt.Sprintf("validation failed: %s: %v", detail, e.Err)
	}
	return "validation failed: " + detail
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ArgumentError reports a caller supplying data the session cannot accept.
type ArgumentError struct {
	Op  string
	Err error
}

func (e *ArgumentError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("invalid argument: %v", e.Err)
	}
	return fmt.Sprintf("%s: invalid argument: %v", e.Op, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

func validationErr(jobID, foldID, reason string, err error) error {
	var existing *ValidationError
	if errors.As(err, &existing) {
		if existing.JobID == "" {
			existing.JobID = jobID
		}
		if existing.FoldID == "" {
			existing.FoldID = foldID
		}
		if existing.Reason == "" {
			existing.Reason = reason
		}
		return existing
	}
	return &ValidationError{JobID: jobID, FoldID: foldID, Reason: reason, Err: err}
}

func buildDetail(jobLabel, jobID, foldLabel, foldID, reason string) string {
	parts := make([]string, 0, 3)
	if jobID = strings.TrimSpace(jobID); jobID != "" {
		parts = append(parts, jobLabel+" "+jobID)
	}
	if foldID = strings.TrimSpace(foldID); foldID != "" {
		parts = append(parts, foldLabel+" "+foldID)
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		parts = append(parts, reason)
	}
	if len(parts) == 0 {
		return "evaluation"
	}
	return strings.Join(parts, ": ")
}
