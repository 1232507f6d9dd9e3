// Package metrics defines the typed metric values produced by evaluation.
//
// A Record maps a Key to a Value, where a Value is exactly one of a scalar, a
// vector, a matrix, or a list of labels. Every task family declares the keys it
// produces up front in a KeySet; CheckExact enforces that produced records carry
// exactly those keys, so consumers such as report renderers can rely on the
// declared shape without runtime type switches.
package metrics
