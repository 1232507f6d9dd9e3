// Package evaluation runs fold-aware scoring of system submissions.
//
// A Session is built from a task, its declared test folds, and a Registry
// that maps task families to Scorer implementations. Callers set ground
// truth once, add each job's predictions fold by fold, then call Evaluate.
// Evaluate validates fold coverage, scores every (job, fold) pair, reduces
// the fold records into an overall record per job, and checks that every
// record carries exactly the keys the family declared.
//
// Failures are reported as *ValidationError or *ArgumentError values that
// wrap the package's sentinel errors, so callers can branch with errors.Is.
// Incomplete fold submissions are logged and penalized through the declared
// track count rather than rejected.
//
// A Session is not safe for concurrent use.
package evaluation
