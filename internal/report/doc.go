// Package report renders evaluation result sets for people and for other
// tools.
//
// Terminal output is a set of go-pretty tables: an overall summary with one
// row per job, a per-fold breakdown, and a family-specific detail table
// (confusion matrix for classification, per-class scores for onset). The
// same result set can be exported as JSON or YAML, and WriteFiles persists
// every format into the output directory while holding an exclusive lock on
// it.
package report
