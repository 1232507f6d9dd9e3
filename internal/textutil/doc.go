// Package textutil provides label normalization and file-name slugs.
//
// The primary use cases are:
//   - Canonicalizing class labels so ground truth and system output compare equal
//     regardless of case, accents, spacing, or punctuation
//   - Turning task and run names into file-name slugs for exported reports
//
// Label cleaning folds case with Unicode rules, strips combining marks after
// canonical decomposition, and keeps only ASCII letters and digits.
package textutil
