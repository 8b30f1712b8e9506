// Package axis provides lookups on one-dimensional coordinate axes.
package axis

import (
	"fmt"
	"math"
)

// IsAscending reports whether values are strictly increasing.
func IsAscending(values []float64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return false
		}
	}
	return true
}

// IsDescending reports whether values are strictly decreasing.
func IsDescending(values []float64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] >= values[i-1] {
			return false
		}
	}
	return true
}

// NearestIndex returns the index of the value closest to target.
// Ties resolve to the later element. Ascending axes use binary search,
// anything else a linear scan.
func NearestIndex(values []float64, target float64) (int, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("empty axis")
	}
	if math.IsNaN(target) {
		return 0, fmt.Errorf("target is NaN")
	}

	if !IsAscending(values) {
		best := -1
		for i, v := range values {
			if math.IsNaN(v) {
				continue
			}
			if best == -1 || math.Abs(v-target) <= math.Abs(values[best]-target) {
				best = i
			}
		}
		if best == -1 {
			return 0, fmt.Errorf("axis has no valid values")
		}
		return best, nil
	}

	left, right := 0, len(values)-1
	for left < right {
		mid := (left + right) / 2
		if values[mid] < target {
			left = mid + 1
		} else {
			right = mid
		}
	}

	// Check if left-1 is strictly closer.
	if left > 0 && math.Abs(values[left-1]-target) < math.Abs(values[left]-target) {
		return left - 1, nil
	}
	return left, nil
}

// Window returns the contiguous index range [start, start+count) of values
// lying inside [lo, hi], for monotonic axes in either direction. count is 0
// when no value falls inside.
func Window(values []float64, lo, hi float64) (start, count int, err error) {
	if lo > hi {
		lo, hi = hi, lo
	}
	if !IsAscending(values) && !IsDescending(values) {
		return 0, 0, fmt.Errorf("axis is not monotonic")
	}

	start = -1
	for i, v := range values {
		if v >= lo && v <= hi {
			if start == -1 {
				start = i
			}
			count++
		}
	}
	if start == -1 {
		return 0, 0, nil
	}
	return start, count, nil
}

// Edges returns the len(centers)+1 cell boundaries around centers, placing
// inner edges at midpoints and extrapolating the outer ones by half a step.
// A single center gets a unit-width cell.
func Edges(centers []float64) []float64 {
	n := len(centers)
	switch n {
	case 0:
		return nil
	case 1:
		return []float64{centers[0] - 0.5, centers[0] + 0.5}
	}

	edges := make([]float64, n+1)
	for i := 1; i < n; i++ {
		edges[i] = (centers[i-1] + centers[i]) / 2
	}
	edges[0] = centers[0] - (centers[1]-centers[0])/2
	edges[n] = centers[n-1] + (centers[n-1]-centers[n-2])/2
	return edges
}
