package render

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"go.ngs.io/reanalysis-maps/internal/adapter/axis"
	"go.ngs.io/reanalysis-maps/internal/domain"
)

// mesh draws grid cells as filled quadrilaterals between cell edges
// inferred from the coordinate centers. NaN cells are left transparent.
type mesh struct {
	values [][]float64
	cmap   palette.ColorMap
	// Projected cell corners, (rows+1) x (cols+1).
	xs, ys [][]float64
	// Corner extents in degrees.
	lonEdges, latEdges []float64
}

var _ plot.DataRanger = (*mesh)(nil)

func newMesh(g *domain.Grid, p *Projection, cmap palette.ColorMap) (*mesh, error) {
	latEdges := axis.Edges(g.Lat)
	lonEdges := axis.Edges(g.Lon)
	for i, v := range latEdges {
		latEdges[i] = math.Max(-90, math.Min(90, v))
	}

	m := &mesh{
		values:   g.Values,
		cmap:     cmap,
		xs:       make([][]float64, len(latEdges)),
		ys:       make([][]float64, len(latEdges)),
		lonEdges: lonEdges,
		latEdges: latEdges,
	}
	lats := make([]float64, len(lonEdges))
	for i, lat := range latEdges {
		for j := range lats {
			lats[j] = lat
		}
		xs, ys, err := p.ForwardSlice(lonEdges, lats)
		if err != nil {
			return nil, fmt.Errorf("failed to project mesh row %d: %w", i, err)
		}
		m.xs[i], m.ys[i] = xs, ys
	}
	return m, nil
}

// Plot implements plot.Plotter.
func (m *mesh) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for i, row := range m.values {
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			clr, err := m.cmap.At(v)
			if err != nil {
				continue
			}
			quad := []vg.Point{
				{X: trX(m.xs[i][j]), Y: trY(m.ys[i][j])},
				{X: trX(m.xs[i][j+1]), Y: trY(m.ys[i][j+1])},
				{X: trX(m.xs[i+1][j+1]), Y: trY(m.ys[i+1][j+1])},
				{X: trX(m.xs[i+1][j]), Y: trY(m.ys[i+1][j])},
			}
			if clipped := c.ClipPolygonXY(quad); len(clipped) > 0 {
				c.FillPolygon(clr, clipped)
			}
		}
	}
}

// DataRange implements plot.DataRanger.
func (m *mesh) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for i := range m.xs {
		for j := range m.xs[i] {
			xmin = math.Min(xmin, m.xs[i][j])
			xmax = math.Max(xmax, m.xs[i][j])
			ymin = math.Min(ymin, m.ys[i][j])
			ymax = math.Max(ymax, m.ys[i][j])
		}
	}
	return xmin, xmax, ymin, ymax
}

// extent returns the mesh corners in degrees.
func (m *mesh) extent() domain.BoundingBox {
	lonMin, lonMax := minMax(m.lonEdges)
	latMin, latMax := minMax(m.latEdges)
	return domain.BoundingBox{LatMin: latMin, LatMax: latMax, LonMin: lonMin, LonMax: lonMax}
}

func minMax(vals []float64) (lo, hi float64) {
	lo, hi = vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
