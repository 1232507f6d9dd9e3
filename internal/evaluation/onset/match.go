package onset

import (
	"math"
	"slices"
)

// DefaultTolerance is the matching window in seconds.
const DefaultTolerance = 0.05

// Counts is the outcome of matching one predicted sequence against one
// annotator.
type Counts struct {
	Predicted      int
	Annotated      int
	Correct        int
	FalsePositives int
	FalseNegatives int
	Doubled        int
	Merged         int
}

// Precision is Correct/Predicted, or 0 with no predictions.
func (c Counts) Precision() float64 {
	if c.Predicted == 0 {
		return 0
	}
	return float64(c.Correct) / float64(c.Predicted)
}

// Recall is Correct/Annotated, or 0 with no annotations.
func (c Counts) Recall() float64 {
	if c.Annotated == 0 {
		return 0
	}
	return float64(c.Correct) / float64(c.Annotated)
}

// FMeasure is the harmonic mean of precision and recall, or 0 when either is 0.
func (c Counts) FMeasure() float64 {
	p, r := c.Precision(), c.Recall()
	if p == 0 || r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// Match pairs predicted onsets with annotated onsets. Both inputs are sorted
// copies internally and NaN entries are dropped.
func Match(predicted, annotated []float64, tolerance float64) Counts {
	pred := sortedFinite(predicted)
	truth := sortedFinite(annotated)
	c := Counts{Predicted: len(pred), Annotated: len(truth)}

	next := 0
	for t, g := range truth {
		if next >= len(pred) {
			c.FalseNegatives++
			continue
		}
		for i := next; i < len(pred); i++ {
			if within(pred[i], g, tolerance) {
				c.Correct++
				next = i + 1
				c.Doubled += countRepeats(pred[next:], g, following(truth, t), tolerance)
				break
			}
			if pred[i] > g+tolerance {
				c.FalseNegatives++
				next = i
				break
			}
			if i == len(pred)-1 {
				c.FalseNegatives++
			}
		}
	}

	next = 0
	for i, p := range pred {
		for t := next; t < len(truth); t++ {
			if within(truth[t], p, tolerance) {
				next = t + 1
				c.Merged += countRepeats(truth[next:], p, following(pred, i), tolerance)
				break
			}
			if truth[t] > p+tolerance {
				break
			}
		}
	}

	c.FalsePositives = c.Predicted - c.Correct
	return c
}

// countRepeats counts leading entries of rest that fall within tolerance of
// anchor, stopping at the first entry that belongs to the next anchor or
// lies past the window.
func countRepeats(rest []float64, anchor float64, next *float64, tolerance float64) int {
	n := 0
	for _, v := range rest {
		if next != nil && within(v, *next, tolerance) {
			break
		}
		if within(v, anchor, tolerance) {
			n++
			continue
		}
		if v > anchor+tolerance {
			break
		}
	}
	return n
}

func following(seq []float64, i int) *float64 {
	if i+1 < len(seq) {
		return &seq[i+1]
	}
	return nil
}

func within(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func sortedFinite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}
