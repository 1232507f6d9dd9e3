// Package dataset reads experiment inputs from disk: fold manifests, ground
// truth, and system submissions.
//
// Classification files hold one "track<TAB>label" pair per line. Onset files
// hold one onset time per line, with further whitespace-separated columns for
// additional annotators. Track identifiers are file base names without the
// extension, so absolute audio paths and bare IDs refer to the same track.
package dataset
