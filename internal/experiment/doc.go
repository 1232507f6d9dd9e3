// Package experiment holds the declarations an evaluation is run against:
// the task, the dataset, the cross-validation folds, and the ground-truth and
// prediction records keyed by track ID.
//
// Records carry named fields. A field value holds labels, event-time
// sequences, or both; several label entries or several sequences represent
// independent annotators of the same track.
package experiment
