package render

import (
	"image/color"

	"github.com/paulmach/orb"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"go.ngs.io/reanalysis-maps/internal/basemap"
)

var (
	landFill   = color.RGBA{R: 211, G: 211, B: 211, A: 255} // lightgray
	lineColor  = color.Black
	coastStyle = draw.LineStyle{Color: lineColor, Width: vg.Points(1)}
	landEdge   = draw.LineStyle{Color: lineColor, Width: vg.Points(0.75)}
	// Dotted, as matplotlib's ":".
	borderStyle = draw.LineStyle{
		Color:  lineColor,
		Width:  vg.Points(1),
		Dashes: []vg.Length{vg.Points(1), vg.Points(1.65)},
	}
)

// path is a projected polyline.
type path struct {
	x, y []float64
}

func projectPath(p *Projection, pts []orb.Point) (path, bool) {
	if len(pts) < 2 {
		return path{}, false
	}
	lons := make([]float64, len(pts))
	lats := make([]float64, len(pts))
	for i, pt := range pts {
		lons[i], lats[i] = pt.Lon(), pt.Lat()
	}
	xs, ys, err := p.ForwardSlice(lons, lats)
	if err != nil {
		return path{}, false
	}
	return path{x: xs, y: ys}, true
}

func (pa path) points(trX, trY func(float64) vg.Length) []vg.Point {
	pts := make([]vg.Point, len(pa.x))
	for i := range pa.x {
		pts[i] = vg.Point{X: trX(pa.x[i]), Y: trY(pa.y[i])}
	}
	return pts
}

// landLayer fills land polygons and outlines them.
type landLayer struct {
	outer []path // Filled exterior rings.
	rings []path // Every ring, stroked.
}

func newLandLayer(p *Projection, polys []orb.Polygon) *landLayer {
	l := &landLayer{}
	for _, poly := range polys {
		for i, ring := range poly {
			pa, ok := projectPath(p, ring)
			if !ok {
				continue
			}
			if i == 0 {
				l.outer = append(l.outer, pa)
			}
			l.rings = append(l.rings, pa)
		}
	}
	return l
}

// Plot implements plot.Plotter.
func (l *landLayer) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for _, pa := range l.outer {
		if pts := c.ClipPolygonXY(pa.points(trX, trY)); len(pts) > 2 {
			c.FillPolygon(landFill, pts)
		}
	}
	for _, pa := range l.rings {
		c.StrokeLines(landEdge, c.ClipLinesXY(pa.points(trX, trY))...)
	}
}

// lineLayer strokes polylines such as coastlines and borders.
type lineLayer struct {
	lines []path
	style draw.LineStyle
}

func newLineLayer(p *Projection, lines []orb.LineString, style draw.LineStyle) *lineLayer {
	l := &lineLayer{style: style}
	for _, ls := range lines {
		if pa, ok := projectPath(p, ls); ok {
			l.lines = append(l.lines, pa)
		}
	}
	return l
}

// Plot implements plot.Plotter.
func (l *lineLayer) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for _, pa := range l.lines {
		c.StrokeLines(l.style, c.ClipLinesXY(pa.points(trX, trY))...)
	}
}

// basemapLayers projects the basemap in draw order: land, coastlines,
// borders.
func basemapLayers(p *Projection, bm *basemap.Basemap) []plot.Plotter {
	if bm.Empty() {
		return nil
	}
	var out []plot.Plotter
	if len(bm.Land) > 0 {
		out = append(out, newLandLayer(p, bm.Land))
	}
	if len(bm.Coastlines) > 0 {
		out = append(out, newLineLayer(p, bm.Coastlines, coastStyle))
	}
	if len(bm.Borders) > 0 {
		out = append(out, newLineLayer(p, bm.Borders, borderStyle))
	}
	return out
}

// frame outlines the data area.
type frame struct{}

// Plot implements plot.Plotter.
func (frame) Plot(c draw.Canvas, _ *plot.Plot) {
	c.StrokeLines(draw.LineStyle{Color: lineColor, Width: vg.Points(0.8)}, []vg.Point{
		c.Min,
		{X: c.Max.X, Y: c.Min.Y},
		c.Max,
		{X: c.Min.X, Y: c.Max.Y},
		c.Min,
	})
}
