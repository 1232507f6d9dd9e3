// Package onset scores event-sequence (onset detection) submissions.
//
// Each predicted onset may match at most one annotated onset within the
// tolerance window. Unmatched annotations are false negatives and unmatched
// predictions false positives. Extra predictions close to an already matched
// annotation are counted as doubled, and extra annotations close to an
// already matched prediction as merged. Tracks with several annotators are
// scored against each annotator and averaged.
package onset
