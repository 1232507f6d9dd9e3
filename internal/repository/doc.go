// Package repository persists imported datasets in a local SQLite database.
//
// A dataset bundles its task family, subject field, declared folds with their
// track lists, and the ground-truth annotations. Importing replaces any
// dataset of the same name. Imports take an exclusive file lock next to the
// database so two importers cannot interleave writes.
//
// Only experiment inputs are stored. Evaluation results are written by the
// report package and are never persisted here.
package repository
