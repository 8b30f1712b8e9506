// Package render draws temperature grids as map images.
package render

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"go.ngs.io/reanalysis-maps/internal/basemap"
	"go.ngs.io/reanalysis-maps/internal/domain"
)

// colorBarTicks are the labelled values on the color bar.
var colorBarTicks = []float64{-5, 0, 5, 10, 15, 20, 25, 30}

// Config configures a Renderer.
type Config struct {
	Norm          TwoSlopeNorm
	Width, Height vg.Length
	DPI           int
	FontPath      string // Registered once per process; empty keeps the defaults.
}

// DefaultConfig returns the standard figure settings.
func DefaultConfig() Config {
	return Config{
		Norm:     DefaultNorm,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		DPI:      DefaultDPI,
		FontPath: DefaultFontPath,
	}
}

// Renderer turns grids into figures. It is safe for concurrent use.
type Renderer struct {
	cfg    Config
	proj   *Projection
	base   palette.ColorMap
	cmap   *normColorMap
	layers []plot.Plotter
}

// NewRenderer creates a renderer drawing onto proj with the given basemap,
// which may be nil.
func NewRenderer(cfg Config, proj *Projection, bm *basemap.Basemap) (*Renderer, error) {
	if err := cfg.Norm.Validate(); err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = DefaultWidth, DefaultHeight
	}
	if cfg.DPI <= 0 {
		cfg.DPI = DefaultDPI
	}
	if cfg.FontPath != "" {
		RegisterFont(cfg.FontPath)
	}
	base := newBaseColorMap()
	return &Renderer{
		cfg:    cfg,
		proj:   proj,
		base:   base,
		cmap:   newNormColorMap(base, cfg.Norm),
		layers: basemapLayers(proj, bm),
	}, nil
}

// Render draws grid for date. It returns (nil, nil) when the grid is absent
// or has no cells.
func (r *Renderer) Render(grid *domain.Grid, date domain.Date, variant domain.Variant) (*Figure, error) {
	if grid.Empty() {
		return nil, nil
	}
	if len(grid.Values) != len(grid.Lat) {
		return nil, fmt.Errorf("grid has %d rows for %d latitudes", len(grid.Values), len(grid.Lat))
	}
	for i, row := range grid.Values {
		if len(row) != len(grid.Lon) {
			return nil, fmt.Errorf("grid row %d has %d values for %d longitudes", i, len(row), len(grid.Lon))
		}
	}

	m, err := newMesh(grid, r.proj, r.cmap)
	if err != nil {
		return nil, err
	}
	ext := m.extent()

	p := plot.New()
	p.Title.Text = variant.Title(date)
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Padding, p.Y.Padding = 0, 0

	grat := newGraticule(r.proj, ext)
	p.Add(m)
	p.Add(r.layers...)
	p.Add(grat, frame{})

	xmin, xmax, ymin, ymax := m.DataRange()
	p.X.Min, p.X.Max = xmin, xmax
	p.Y.Min, p.Y.Max = ymin, ymax

	if xt, yt, err := grat.ticks(r.proj, ext); err == nil {
		p.X.Tick.Marker = xt
		p.Y.Tick.Marker = yt
	} else {
		p.HideAxes()
	}

	return &Figure{
		Map:      p,
		ColorBar: r.colorBar(variant),
		Width:    r.cfg.Width,
		Height:   r.cfg.Height,
		DPI:      r.cfg.DPI,
		aspect:   (ymax - ymin) / (xmax - xmin),
	}, nil
}

// colorBar draws the base map on [0, 1] with ticks placed through the norm,
// so each half of the bar spans its own data interval.
func (r *Renderer) colorBar(variant domain.Variant) *plot.Plot {
	cb := plot.New()
	cb.Add(&plotter.ColorBar{ColorMap: r.base, Vertical: true})
	cb.HideX()
	cb.X.Padding, cb.Y.Padding = 0, 0
	cb.Y.Min, cb.Y.Max = 0, 1
	cb.Y.Label.Text = variant.ColorBarLabel()

	ticks := make(plot.ConstantTicks, 0, len(colorBarTicks))
	for _, v := range colorBarTicks {
		if v < r.cfg.Norm.VMin || v > r.cfg.Norm.VMax {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: r.cfg.Norm.Normalize(v), Label: fmt.Sprintf("%g", v)})
	}
	cb.Y.Tick.Marker = ticks
	return cb
}
