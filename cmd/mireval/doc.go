// Package main hosts the mireval CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration, assembles datasets from fold
// manifests or the local repository, reads system submissions, and hands
// them to an evaluation session. Results are printed to the terminal and
// exported to the configured output directory.
//
// Keep this package thin: scoring, parsing and persistence live in the
// internal packages and are only wired together here.
package main
