package metrics

// Key names a metric produced by a scoring family.
type Key string

// Classification keys.
const (
	Accuracy                     Key = "accuracy"
	NormalisedAccuracy           Key = "normalised_accuracy"
	DiscountedAccuracy           Key = "discounted_accuracy"
	NormalisedDiscountedAccuracy Key = "normalised_discounted_accuracy"
	ConfusionMatrixRaw           Key = "confusion_matrix_raw"
	ConfusionMatrixPercent       Key = "confusion_matrix_percent"
	DiscountVectorRaw            Key = "discount_confusion_vector_raw"
	DiscountVectorPercent        Key = "discount_confusion_vector_percent"
	ClassNames                   Key = "class_names"
)

// Event-sequence (onset) keys.
const (
	OnsetFMeasure         Key = "onset_avg_fmeasure"
	OnsetPrecision        Key = "onset_avg_precision"
	OnsetRecall           Key = "onset_avg_recall"
	OnsetFMeasureByClass  Key = "onset_avg_fmeasure_by_class"
	OnsetPrecisionByClass Key = "onset_avg_precision_by_class"
	OnsetRecallByClass    Key = "onset_avg_recall_by_class"
	OnsetClasses          Key = "onset_classes"
	OnsetCorrect          Key = "onset_avg_correct"
	OnsetFalsePositives   Key = "onset_avg_false_positives"
	OnsetFalseNegatives   Key = "onset_avg_false_negatives"
	OnsetDoubled          Key = "onset_avg_doubled"
	OnsetMerged           Key = "onset_avg_merged"
)

// KeySet declares the metric keys a family produces at each level.
type KeySet struct {
	Overall []Key
	Fold    []Key
	Track   []Key
}

// Clone returns a deep copy so callers cannot alter a family's declaration.
func (ks KeySet) Clone() KeySet {
	return KeySet{
		Overall: append([]Key(nil), ks.Overall...),
		Fold:    append([]Key(nil), ks.Fold...),
		Track:   append([]Key(nil), ks.Track...),
	}
}
