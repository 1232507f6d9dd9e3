package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"mireval/internal/evaluation"
	"mireval/internal/metrics"
)

// DefaultPrecision is the number of decimals used when Options.Precision is unset.
const DefaultPrecision = 4

// Options tunes how a result set is rendered.
type Options struct {
	// Format is one of table, json or yaml. Empty means table.
	Format    string
	Precision int
	// Fancy selects rounded box drawing for tables.
	Fancy bool
	// Tracks includes per-track records in JSON and YAML exports.
	Tracks bool
}

func (o Options) precision() int {
	if o.Precision <= 0 {
		return DefaultPrecision
	}
	return o.Precision
}

// Write renders rs to w in the configured format.
func Write(w io.Writer, rs *evaluation.ResultSet, opts Options) error {
	if rs == nil {
		return fmt.Errorf("report: nil result set")
	}
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "table":
		return WriteTables(w, rs, opts)
	case "json":
		return WriteJSON(w, rs, opts)
	case "yaml":
		return WriteYAML(w, rs, opts)
	default:
		return fmt.Errorf("report: unsupported format %q", opts.Format)
	}
}

// WriteTables prints a heading followed by every table from Tables.
func WriteTables(w io.Writer, rs *evaluation.ResultSet, opts Options) error {
	heading := rs.Task.Name
	if rs.Dataset.Name != "" {
		heading += " on " + rs.Dataset.Name
	}
	if _, err := fmt.Fprintf(w, "%s (run %s)\n", heading, rs.RunID); err != nil {
		return err
	}
	for _, t := range Tables(rs, opts) {
		if _, err := fmt.Fprintf(w, "\n%s\n", t.Render(opts.Fancy)); err != nil {
			return err
		}
	}
	return nil
}

// Tables builds the overall summary, the per-fold breakdown and any detail
// tables supported by the metrics present in rs.
func Tables(rs *evaluation.ResultSet, opts Options) []Table {
	tables := []Table{Overall(rs, opts), PerFold(rs, opts)}
	for _, jobID := range rs.JobIDs() {
		job := rs.Jobs[jobID]
		if t, ok := Confusion(job); ok {
			tables = append(tables, t)
		}
		if t, ok := OnsetClasses(job, opts); ok {
			tables = append(tables, t)
		}
	}
	return tables
}

// Overall has one row per job with every scalar overall metric.
func Overall(rs *evaluation.ResultSet, opts Options) Table {
	keys := scalarKeys(rs.Keys.Overall, rs, func(job *evaluation.JobResult) []metrics.Record {
		return []metrics.Record{job.Overall}
	})
	t := Table{Title: "Overall", Headers: []string{"Job", "Name"}, Aligns: []Alignment{AlignLeft, AlignLeft}}
	for _, key := range keys {
		t.Headers = append(t.Headers, string(key))
		t.Aligns = append(t.Aligns, AlignRight)
	}
	for _, jobID := range rs.JobIDs() {
		job := rs.Jobs[jobID]
		row := []string{job.JobID, job.Name}
		for _, key := range keys {
			row = append(row, formatScalar(job.Overall, key, opts.precision()))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// PerFold has one row per job and declared fold.
func PerFold(rs *evaluation.ResultSet, opts Options) Table {
	keys := scalarKeys(rs.Keys.Fold, rs, func(job *evaluation.JobResult) []metrics.Record {
		records := make([]metrics.Record, 0, len(job.Folds))
		for _, rec := range job.Folds {
			records = append(records, rec)
		}
		return records
	})
	t := Table{Title: "Per fold", Headers: []string{"Job", "Fold"}, Aligns: []Alignment{AlignLeft, AlignLeft}}
	for _, key := range keys {
		t.Headers = append(t.Headers, string(key))
		t.Aligns = append(t.Aligns, AlignRight)
	}
	for _, jobID := range rs.JobIDs() {
		job := rs.Jobs[jobID]
		for _, fold := range rs.Folds {
			rec, ok := job.Folds[fold.ID]
			if !ok {
				continue
			}
			row := []string{job.JobID, fold.ID}
			for _, key := range keys {
				row = append(row, formatScalar(rec, key, opts.precision()))
			}
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}

// Confusion renders a job's overall raw confusion matrix. Rows are predicted
// classes and columns are ground-truth classes.
func Confusion(job *evaluation.JobResult) (Table, bool) {
	names, err := job.Overall.Labels(metrics.ClassNames)
	if err != nil {
		return Table{}, false
	}
	matrix, err := job.Overall.Matrix(metrics.ConfusionMatrixRaw)
	if err != nil || len(matrix) != len(names) {
		return Table{}, false
	}

	t := Table{
		Title:   fmt.Sprintf("%s confusion (rows predicted, columns truth)", job.JobID),
		Headers: append([]string{""}, names...),
		Aligns:  []Alignment{AlignLeft},
	}
	for range names {
		t.Aligns = append(t.Aligns, AlignRight)
	}
	for i, name := range names {
		row := []string{name}
		for _, count := range matrix[i] {
			row = append(row, strconv.FormatFloat(count, 'f', -1, 64))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, true
}

// OnsetClasses renders a job's overall per-class onset scores.
func OnsetClasses(job *evaluation.JobResult, opts Options) (Table, bool) {
	classes, err := job.Overall.Labels(metrics.OnsetClasses)
	if err != nil {
		return Table{}, false
	}
	columns := []metrics.Key{metrics.OnsetFMeasureByClass, metrics.OnsetPrecisionByClass, metrics.OnsetRecallByClass}
	vectors := make([][]float64, len(columns))
	for i, key := range columns {
		vec, err := job.Overall.Vector(key)
		if err != nil || len(vec) != len(classes) {
			return Table{}, false
		}
		vectors[i] = vec
	}

	t := Table{
		Title:   fmt.Sprintf("%s onset scores by class", job.JobID),
		Headers: []string{"Class", "F-measure", "Precision", "Recall"},
		Aligns:  []Alignment{AlignLeft, AlignRight, AlignRight, AlignRight},
	}
	for i, class := range classes {
		row := []string{class}
		for _, vec := range vectors {
			row = append(row, formatFloat(vec[i], opts.precision()))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, true
}

// scalarKeys keeps the declared keys that hold a scalar in at least one record.
func scalarKeys(declared []metrics.Key, rs *evaluation.ResultSet, records func(*evaluation.JobResult) []metrics.Record) []metrics.Key {
	scalar := make(map[metrics.Key]bool, len(declared))
	for _, job := range rs.Jobs {
		for _, rec := range records(job) {
			for _, key := range declared {
				if v, ok := rec.Get(key); ok && v.Kind() == metrics.KindScalar {
					scalar[key] = true
				}
			}
		}
	}
	keys := make([]metrics.Key, 0, len(scalar))
	for _, key := range declared {
		if scalar[key] {
			keys = append(keys, key)
		}
	}
	return keys
}

func formatScalar(rec metrics.Record, key metrics.Key, precision int) string {
	v, err := rec.Scalar(key)
	if err != nil {
		return "-"
	}
	return formatFloat(v, precision)
}

func formatFloat(v float64, precision int) string {
	return strconv.FormatFloat(v, 'f', precision, 64)
}
