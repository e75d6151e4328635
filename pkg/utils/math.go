package utils

import (
	"math"
	"sort"
)

// Min returns the minimum of two integers.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Max returns the maximum of two integers.
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Clamp constrains v to the range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median finds the median value in a slice of floats.
// Works on a copy to avoid mutating the original.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	temp := make([]float64, len(values))
	copy(temp, values)
	sort.Float64s(temp)

	n := len(temp)
	if n%2 == 1 {
		return temp[n/2]
	}
	return (temp[n/2-1] + temp[n/2]) / 2.0
}

// Percentile returns the p-th percentile (0..100) using linear interpolation
// between closest ranks. Returns 0 for an empty slice.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	temp := make([]float64, len(values))
	copy(temp, values)
	sort.Float64s(temp)

	if p <= 0 {
		return temp[0]
	}
	if p >= 100 {
		return temp[len(temp)-1]
	}

	rank := p / 100 * float64(len(temp)-1)
	lower := int(rank)
	frac := rank - float64(lower)
	if lower+1 >= len(temp) {
		return temp[lower]
	}
	return temp[lower] + frac*(temp[lower+1]-temp[lower])
}

// StdDev returns the population standard deviation of values.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// Variance returns the population variance of values.
func Variance(values []float64) float64 {
	sd := StdDev(values)
	return sd * sd
}

// IQRBounds returns the Tukey fences [Q1 - 1.5*IQR, Q3 + 1.5*IQR] used for
// outlier trimming.
func IQRBounds(values []float64) (lower, upper float64) {
	q1 := Percentile(values, 25)
	q3 := Percentile(values, 75)
	iqr := q3 - q1
	return q1 - 1.5*iqr, q3 + 1.5*iqr
}

// TrimOutliersIQR returns the values inside the Tukey fences and the number
// of values removed.
func TrimOutliersIQR(values []float64) (kept []float64, removed int) {
	if len(values) == 0 {
		return nil, 0
	}
	lower, upper := IQRBounds(values)
	kept = make([]float64, 0, len(values))
	for _, v := range values {
		if v < lower || v > upper {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	return kept, removed
}
