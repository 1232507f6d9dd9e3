package metrics

// NewMatrix allocates a zeroed rows x cols matrix.
func NewMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

// CloneMatrix deep-copies m.
func CloneMatrix(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64{}, row...)
	}
	return out
}

// IsSquare reports whether m is n x n.
func IsSquare(m [][]float64, n int) bool {
	if len(m) != n {
		return false
	}
	for _, row := range m {
		if len(row) != n {
			return false
		}
	}
	return true
}

// Trace sums the diagonal of a square matrix.
func Trace(m [][]float64) float64 {
	var sum float64
	for i := range m {
		if i < len(m[i]) {
			sum += m[i][i]
		}
	}
	return sum
}

// ColumnSums returns the total of each column.
func ColumnSums(m [][]float64) []float64 {
	if len(m) == 0 {
		return nil
	}
	sums := make([]float64, len(m[0]))
	for _, row := range m {
		for j, v := range row {
			sums[j] += v
		}
	}
	return sums
}

// AddMatrix accumulates src into dst element-wise. Both must share dimensions.
func AddMatrix(dst, src [][]float64) {
	for i := range dst {
		for j := range dst[i] {
			dst[i][j] += src[i][j]
		}
	}
}

// AddVector accumulates src into dst element-wise. Both must share length.
func AddVector(dst, src []float64) {
	for i := range dst {
		dst[i] += src[i]
	}
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SafeDiv divides, returning 0 when the denominator is zero.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
