package distance

// Dot calculates the dot product of two vectors, accumulating in float64.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float64 {
	b = b[:len(a)]

	var s0, s1, s2, s3 float64
	i := 0
	for ; i+4 <= len(a); i += 4 {
		s0 += float64(a[i]) * float64(b[i])
		s1 += float64(a[i+1]) * float64(b[i+1])
		s2 += float64(a[i+2]) * float64(b[i+2])
		s3 += float64(a[i+3]) * float64(b[i+3])
	}
	for ; i < len(a); i++ {
		s0 += float64(a[i]) * float64(b[i])
	}

	return (s0 + s1) + (s2 + s3)
}

// SumDot returns the sum of the dot products of v with every query.
func SumDot(queries [][]float32, v []float32) float64 {
	var sum float64
	for _, q := range queries {
		sum += Dot(q, v)
	}

	return sum
}

// MeanDot returns the mean of the dot products of v with every query.
// With a single query this is exactly Dot(queries[0], v).
// Returns 0 for an empty query set.
func MeanDot(queries [][]float32, v []float32) float64 {
	if len(queries) == 0 {
		return 0
	}

	return SumDot(queries, v) / float64(len(queries))
}

// SameDimension reports whether all vectors have length dim.
// It returns the index of the first offending vector, or -1.
func SameDimension(dim int, vectors [][]float32) int {
	for i, v := range vectors {
		if len(v) != dim {
			return i
		}
	}

	return -1
}
