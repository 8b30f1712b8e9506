package domain

import (
	"errors"
	"math"
	"time"
)

// KelvinOffset converts kelvin to degrees Celsius.
const KelvinOffset = 273.15

// UnitsDegC is the units tag attached to Celsius grids.
const UnitsDegC = "degC"

// ErrNoData is returned when the selected slice holds no valid values.
var ErrNoData = errors.New("no data for requested date")

// Grid is a 2-D temperature field on a latitude/longitude window.
// Values[i][j] corresponds to (Lat[i], Lon[j]). Lat is descending
// (north to south) and Lon ascending. A Grid is not modified once returned
// by the fetcher.
type Grid struct {
	Variable string
	Time     time.Time // Timestamp of the selected slice; the time axis is squeezed.
	Lat      []float64
	Lon      []float64
	Values   [][]float64
	Units    string
	Attrs    map[string]string
}

// Size returns the number of cells.
func (g *Grid) Size() int {
	if g == nil {
		return 0
	}
	return len(g.Lat) * len(g.Lon)
}

// Empty reports whether the grid is absent or has no cells.
func (g *Grid) Empty() bool {
	return g.Size() == 0
}

// AllMissing reports whether every cell is NaN. An empty grid is all missing.
func (g *Grid) AllMissing() bool {
	if g == nil {
		return true
	}
	for _, row := range g.Values {
		for _, v := range row {
			if !math.IsNaN(v) {
				return false
			}
		}
	}
	return true
}

// Dims returns the names of the grid's non-singleton dimensions.
func (g *Grid) Dims() []string {
	var dims []string
	if len(g.Lat) > 1 {
		dims = append(dims, "lat")
	}
	if len(g.Lon) > 1 {
		dims = append(dims, "lon")
	}
	return dims
}

// LatRange returns the minimum and maximum latitudes.
func (g *Grid) LatRange() (minLat, maxLat float64) {
	return span(g.Lat)
}

// LonRange returns the minimum and maximum longitudes.
func (g *Grid) LonRange() (minLon, maxLon float64) {
	return span(g.Lon)
}

// ValueRange returns the minimum and maximum of the non-NaN values.
// Both are NaN when every value is missing.
func (g *Grid) ValueRange() (minVal, maxVal float64) {
	minVal, maxVal = math.NaN(), math.NaN()
	for _, row := range g.Values {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			if math.IsNaN(minVal) || v < minVal {
				minVal = v
			}
			if math.IsNaN(maxVal) || v > maxVal {
				maxVal = v
			}
		}
	}
	return minVal, maxVal
}

// ToCelsius returns a copy of the grid with 273.15 subtracted from every
// value and the units set to "degC".
func (g *Grid) ToCelsius() *Grid {
	out := g.clone()
	for i := range out.Values {
		for j := range out.Values[i] {
			out.Values[i][j] -= KelvinOffset
		}
	}
	out.Units = UnitsDegC
	out.Attrs["units"] = UnitsDegC
	return out
}

func (g *Grid) clone() *Grid {
	out := &Grid{
		Variable: g.Variable,
		Time:     g.Time,
		Lat:      append([]float64(nil), g.Lat...),
		Lon:      append([]float64(nil), g.Lon...),
		Values:   make([][]float64, len(g.Values)),
		Units:    g.Units,
		Attrs:    make(map[string]string, len(g.Attrs)),
	}
	for i, row := range g.Values {
		out.Values[i] = append([]float64(nil), row...)
	}
	for k, v := range g.Attrs {
		out.Attrs[k] = v
	}
	return out
}

// GridSummary is the textual preview of a grid.
type GridSummary struct {
	Variable string            `json:"variable"`
	Time     string            `json:"time"`
	Units    string            `json:"units,omitempty"`
	Dims     []string          `json:"dims"`
	Shape    [2]int            `json:"shape"`
	LatMin   float64           `json:"lat_min"`
	LatMax   float64           `json:"lat_max"`
	LonMin   float64           `json:"lon_min"`
	LonMax   float64           `json:"lon_max"`
	ValueMin *float64          `json:"value_min,omitempty"`
	ValueMax *float64          `json:"value_max,omitempty"`
	Missing  int               `json:"missing"`
	Attrs    map[string]string `json:"attrs,omitempty"`
}

// Summary describes the grid for the data preview.
func (g *Grid) Summary() GridSummary {
	s := GridSummary{
		Variable: g.Variable,
		Time:     g.Time.UTC().Format(time.RFC3339),
		Units:    g.Units,
		Dims:     g.Dims(),
		Shape:    [2]int{len(g.Lat), len(g.Lon)},
		Attrs:    g.Attrs,
	}
	s.LatMin, s.LatMax = g.LatRange()
	s.LonMin, s.LonMax = g.LonRange()
	if lo, hi := g.ValueRange(); !math.IsNaN(lo) {
		s.ValueMin, s.ValueMax = &lo, &hi
	}
	for _, row := range g.Values {
		for _, v := range row {
			if math.IsNaN(v) {
				s.Missing++
			}
		}
	}
	return s
}

func span(vals []float64) (lo, hi float64) {
	if len(vals) == 0 {
		return math.NaN(), math.NaN()
	}
	lo, hi = vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
