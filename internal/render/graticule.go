package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"go.ngs.io/reanalysis-maps/internal/domain"
)

var gridStyle = draw.LineStyle{
	Color:  color.NRGBA{R: 128, G: 128, B: 128, A: 128},
	Width:  vg.Points(1),
	Dashes: []vg.Length{vg.Points(3.7), vg.Points(1.6)},
}

// gridSteps are the candidate spacings in degrees, smallest first.
var gridSteps = []float64{1, 2, 5, 10, 15, 30, 45, 90}

// maxGridLines bounds the lines drawn per direction.
const maxGridLines = 8

// gridSegments is the number of segments per meridian or parallel.
const gridSegments = 32

// gridValues returns the multiples of a round step inside [lo, hi].
func gridValues(lo, hi float64) []float64 {
	step := gridSteps[len(gridSteps)-1]
	for _, s := range gridSteps {
		if int(math.Floor(hi/s)-math.Ceil(lo/s))+1 <= maxGridLines {
			step = s
			break
		}
	}
	var out []float64
	for v := math.Ceil(lo/step) * step; v <= hi+1e-9; v += step {
		out = append(out, v)
	}
	return out
}

// graticule draws meridians and parallels across the map extent.
type graticule struct {
	lines []path
	lons  []float64
	lats  []float64
}

func newGraticule(p *Projection, ext domain.BoundingBox) *graticule {
	g := &graticule{
		lons: gridValues(ext.LonMin, ext.LonMax),
		lats: gridValues(ext.LatMin, ext.LatMax),
	}
	sample := func(from, to float64) []float64 {
		out := make([]float64, gridSegments+1)
		for i := range out {
			out[i] = from + (to-from)*float64(i)/gridSegments
		}
		return out
	}

	for _, lon := range g.lons {
		lats := sample(ext.LatMin, ext.LatMax)
		lons := make([]float64, len(lats))
		for i := range lons {
			lons[i] = lon
		}
		if xs, ys, err := p.ForwardSlice(lons, lats); err == nil {
			g.lines = append(g.lines, path{x: xs, y: ys})
		}
	}
	for _, lat := range g.lats {
		lons := sample(ext.LonMin, ext.LonMax)
		lats := make([]float64, len(lons))
		for i := range lats {
			lats[i] = lat
		}
		if xs, ys, err := p.ForwardSlice(lons, lats); err == nil {
			g.lines = append(g.lines, path{x: xs, y: ys})
		}
	}
	return g
}

// Plot implements plot.Plotter.
func (g *graticule) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for _, pa := range g.lines {
		c.StrokeLines(gridStyle, c.ClipLinesXY(pa.points(trX, trY))...)
	}
}

// ticks returns degree-labelled ticks for the bottom (longitude) and left
// (latitude) axes. It fails for projections whose gridlines are not
// axis-aligned.
func (g *graticule) ticks(p *Projection, ext domain.BoundingBox) (x, y plot.ConstantTicks, err error) {
	if !p.Separable() {
		return nil, nil, fmt.Errorf("projection %s does not support labelled gridlines", p.ID())
	}
	midLat := (ext.LatMin + ext.LatMax) / 2
	midLon := (ext.LonMin + ext.LonMax) / 2
	for _, lon := range g.lons {
		px, _, err := p.Forward(lon, midLat)
		if err != nil {
			return nil, nil, err
		}
		x = append(x, plot.Tick{Value: px, Label: lonLabel(lon)})
	}
	for _, lat := range g.lats {
		_, py, err := p.Forward(midLon, lat)
		if err != nil {
			return nil, nil, err
		}
		y = append(y, plot.Tick{Value: py, Label: latLabel(lat)})
	}
	return x, y, nil
}

func degrees(v float64) string {
	return strconv.FormatFloat(math.Abs(v), 'f', -1, 64) + "°"
}

func lonLabel(lon float64) string {
	for lon > 180 {
		lon -= 360
	}
	for lon <= -180 {
		lon += 360
	}
	switch {
	case lon == 0 || lon == 180:
		return degrees(lon)
	case lon > 0:
		return degrees(lon) + "E"
	default:
		return degrees(lon) + "W"
	}
}

func latLabel(lat float64) string {
	switch {
	case lat == 0:
		return degrees(lat)
	case lat > 0:
		return degrees(lat) + "N"
	default:
		return degrees(lat) + "S"
	}
}
