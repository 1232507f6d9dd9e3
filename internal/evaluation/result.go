package evaluation

import (
	"sort"

	"mireval/internal/experiment"
	"mireval/internal/metrics"
)

// ResultSet is the outcome of one Evaluate call.
type ResultSet struct {
	RunID         string
	Task          experiment.Task
	Dataset       experiment.Dataset
	Folds         []experiment.Fold
	TrainingFolds []experiment.Fold
	Keys          metrics.KeySet
	Jobs          map[string]*JobResult
}

// JobResult holds every level of scoring for one submitted system.
type JobResult struct {
	JobID   string
	Name    string
	Overall metrics.Record
	Folds   map[string]metrics.Record
	Tracks  map[string][]TrackResult
}

// JobIDs lists the evaluated jobs in lexical order.
func (rs *ResultSet) JobIDs() []string {
	ids := make([]string, 0, len(rs.Jobs))
	for id := range rs.Jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Job returns the result for jobID.
func (rs *ResultSet) Job(jobID string) (*JobResult, bool) {
	job, ok := rs.Jobs[jobID]
	return job, ok
}
