// Package interp samples temperature grids between grid points.
package interp

import (
	"errors"
	"fmt"
	"math"

	"go.ngs.io/reanalysis-maps/internal/domain"
)

// ErrOutsideGrid is returned for points beyond the grid's coordinates.
var ErrOutsideGrid = errors.New("point outside grid")

// Cell is one grid cell with the values at its four corners.
// V00 is at (X0, Y0), V10 at (X1, Y0), V01 at (X0, Y1), V11 at (X1, Y1).
type Cell struct {
	X0, X1 float64
	Y0, Y1 float64

	V00, V10, V01, V11 float64
}

// Bilinear interpolates inside a cell:
//
//	f(x,y) ≈ (1-t)(1-u)f(x0,y0) + t(1-u)f(x1,y0) + (1-t)u*f(x0,y1) + tu*f(x1,y1)
//
// with t = (x-x0)/(x1-x0) and u = (y-y0)/(y1-y0). A degenerate axis
// (X0 == X1 or Y0 == Y1) interpolates along the other axis only. Missing
// corners propagate as NaN.
func Bilinear(cell Cell, x, y float64) (float64, error) {
	if cell.X1 < cell.X0 || cell.Y1 < cell.Y0 {
		return 0, fmt.Errorf("invalid grid cell: [%g, %g] x [%g, %g]", cell.X0, cell.X1, cell.Y0, cell.Y1)
	}

	// Small tolerance for floating point.
	const epsilon = 1e-9
	if x < cell.X0-epsilon || x > cell.X1+epsilon || y < cell.Y0-epsilon || y > cell.Y1+epsilon {
		return 0, fmt.Errorf("%w: (%.6f, %.6f) not in cell", ErrOutsideGrid, x, y)
	}

	t := fraction(x, cell.X0, cell.X1)
	u := fraction(y, cell.Y0, cell.Y1)

	// Zero-weight corners are skipped: a point on a grid line ignores
	// missing values beyond it.
	terms := [4][2]float64{
		{(1 - t) * (1 - u), cell.V00},
		{t * (1 - u), cell.V10},
		{(1 - t) * u, cell.V01},
		{t * u, cell.V11},
	}
	var result float64
	for _, term := range terms {
		if term[0] != 0 {
			result += term[0] * term[1]
		}
	}
	return result, nil
}

func fraction(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return math.Max(0, math.Min(1, (v-lo)/(hi-lo)))
}

// bracket returns i such that v lies between axis[i] and axis[i+1]. The
// axis may be ascending or descending. For a single-point axis v must match
// it and i is 0 with the same point on both sides.
func bracket(axis []float64, v float64) (lo, hi int, err error) {
	n := len(axis)
	switch {
	case n == 0:
		return 0, 0, fmt.Errorf("%w: empty axis", ErrOutsideGrid)
	case n == 1:
		if v != axis[0] {
			return 0, 0, fmt.Errorf("%w: %g is not %g", ErrOutsideGrid, v, axis[0])
		}
		return 0, 0, nil
	}
	for i := 0; i < n-1; i++ {
		a, b := axis[i], axis[i+1]
		if (v >= a && v <= b) || (v <= a && v >= b) {
			return i, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %g outside [%g, %g]", ErrOutsideGrid, v, math.Min(axis[0], axis[n-1]), math.Max(axis[0], axis[n-1]))
}

// Sample interpolates the grid at (lat, lon). It returns domain.ErrNoData
// when a surrounding grid point is missing.
func Sample(g *domain.Grid, lat, lon float64) (float64, error) {
	if g == nil || g.Empty() {
		return 0, domain.ErrNoData
	}
	r0, r1, err := bracket(g.Lat, lat)
	if err != nil {
		return 0, fmt.Errorf("latitude: %w", err)
	}
	c0, c1, err := bracket(g.Lon, lon)
	if err != nil {
		return 0, fmt.Errorf("longitude: %w", err)
	}

	// Orient the cell so that X and Y increase.
	if g.Lon[c1] < g.Lon[c0] {
		c0, c1 = c1, c0
	}
	if g.Lat[r1] < g.Lat[r0] {
		r0, r1 = r1, r0
	}
	cell := Cell{
		X0:  g.Lon[c0],
		X1:  g.Lon[c1],
		Y0:  g.Lat[r0],
		Y1:  g.Lat[r1],
		V00: g.Values[r0][c0],
		V10: g.Values[r0][c1],
		V01: g.Values[r1][c0],
		V11: g.Values[r1][c1],
	}

	v, err := Bilinear(cell, lon, lat)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, domain.ErrNoData
	}
	return v, nil
}
