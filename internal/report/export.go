package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"mireval/internal/evaluation"
	"mireval/internal/experiment"
	"mireval/internal/metrics"
)

// Document is the serialisable form of a result set.
type Document struct {
	RunID         string        `json:"run_id" yaml:"run_id"`
	Task          TaskInfo      `json:"task" yaml:"task"`
	Dataset       DatasetInfo   `json:"dataset" yaml:"dataset"`
	Folds         []FoldInfo    `json:"folds" yaml:"folds"`
	TrainingFolds []FoldInfo    `json:"training_folds,omitempty" yaml:"training_folds,omitempty"`
	Keys          KeyInfo       `json:"keys" yaml:"keys"`
	Jobs          []JobDocument `json:"jobs" yaml:"jobs"`
}

type TaskInfo struct {
	ID           int    `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	SubjectField string `json:"subject_field" yaml:"subject_field"`
	Family       string `json:"family" yaml:"family"`
}

type DatasetInfo struct {
	ID          int    `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type FoldInfo struct {
	ID     string `json:"id" yaml:"id"`
	Number int    `json:"number" yaml:"number"`
	Tracks int    `json:"tracks" yaml:"tracks"`
}

type KeyInfo struct {
	Overall []string `json:"overall" yaml:"overall"`
	Fold    []string `json:"fold" yaml:"fold"`
	Track   []string `json:"track" yaml:"track"`
}

type JobDocument struct {
	JobID   string         `json:"job_id" yaml:"job_id"`
	Name    string         `json:"name,omitempty" yaml:"name,omitempty"`
	Overall MetricMap      `json:"overall" yaml:"overall"`
	Folds   []FoldDocument `json:"folds" yaml:"folds"`
}

type FoldDocument struct {
	FoldID  string          `json:"fold_id" yaml:"fold_id"`
	Metrics MetricMap       `json:"metrics" yaml:"metrics"`
	Tracks  []TrackDocument `json:"tracks,omitempty" yaml:"tracks,omitempty"`
}

type TrackDocument struct {
	TrackID string    `json:"track_id" yaml:"track_id"`
	Metrics MetricMap `json:"metrics" yaml:"metrics"`
}

// MetricMap keys metric values by name. Encoders emit keys in sorted order.
type MetricMap map[string]metrics.Value

// NewDocument converts rs. Jobs are ordered by ID and folds follow the
// declared fold order.
func NewDocument(rs *evaluation.ResultSet, includeTracks bool) Document {
	doc := Document{
		RunID: rs.RunID,
		Task: TaskInfo{
			ID:           rs.Task.ID,
			Name:         rs.Task.Name,
			Description:  rs.Task.Description,
			SubjectField: rs.Task.SubjectField,
			Family:       string(rs.Task.Family),
		},
		Dataset: DatasetInfo{
			ID:          rs.Dataset.ID,
			Name:        rs.Dataset.Name,
			Description: rs.Dataset.Description,
		},
		Folds:         foldInfos(rs.Folds),
		TrainingFolds: foldInfos(rs.TrainingFolds),
		Keys: KeyInfo{
			Overall: keyNames(rs.Keys.Overall),
			Fold:    keyNames(rs.Keys.Fold),
			Track:   keyNames(rs.Keys.Track),
		},
		Jobs: make([]JobDocument, 0, len(rs.Jobs)),
	}

	for _, jobID := range rs.JobIDs() {
		job := rs.Jobs[jobID]
		jd := JobDocument{
			JobID:   job.JobID,
			Name:    job.Name,
			Overall: metricMap(job.Overall),
			Folds:   make([]FoldDocument, 0, len(rs.Folds)),
		}
		for _, fold := range rs.Folds {
			rec, ok := job.Folds[fold.ID]
			if !ok {
				continue
			}
			fd := FoldDocument{FoldID: fold.ID, Metrics: metricMap(rec)}
			if includeTracks {
				for _, tr := range job.Tracks[fold.ID] {
					fd.Tracks = append(fd.Tracks, TrackDocument{
						TrackID: tr.Prediction.TrackID,
						Metrics: metricMap(tr.Metrics),
					})
				}
			}
			jd.Folds = append(jd.Folds, fd)
		}
		doc.Jobs = append(doc.Jobs, jd)
	}
	return doc
}

// WriteJSON encodes rs as indented JSON.
func WriteJSON(w io.Writer, rs *evaluation.ResultSet, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(rs, opts.Tracks)); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}

// WriteYAML encodes rs as YAML.
func WriteYAML(w io.Writer, rs *evaluation.ResultSet, opts Options) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(rs, opts.Tracks)); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	return nil
}

func foldInfos(folds []experiment.Fold) []FoldInfo {
	if len(folds) == 0 {
		return nil
	}
	out := make([]FoldInfo, 0, len(folds))
	for _, fold := range folds {
		out = append(out, FoldInfo{ID: fold.ID, Number: fold.Number, Tracks: fold.Size()})
	}
	return out
}

func keyNames(keys []metrics.Key) []string {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, string(key))
	}
	return out
}

func metricMap(rec metrics.Record) MetricMap {
	out := make(MetricMap, len(rec))
	for key, value := range rec {
		out[string(key)] = value
	}
	return out
}
