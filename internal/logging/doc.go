// Package logging assembles structured slog loggers and formatting helpers used
// across mireval.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and defines the standard field names (job, fold, track, run) that
// evaluation code attaches to log lines. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging
