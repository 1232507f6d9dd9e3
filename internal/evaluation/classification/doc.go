// Package classification scores single-label classification submissions.
//
// Each fold yields a raw confusion matrix indexed [predicted][truth], a
// percentage matrix normalized by the fold's declared tracks per true class,
// accuracy over the declared track count, and normalized accuracy as the mean
// of the percentage diagonal. When a class hierarchy is supplied,
// misclassifications earn partial credit and discounted variants of both
// accuracies are reported.
//
// Overall results sum fold matrices and discount vectors before recomputing
// the ratios, so folds of different sizes are weighted by their tracks.
package classification
