package render

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"go.ngs.io/reanalysis-maps/internal/basemap"
	"go.ngs.io/reanalysis-maps/internal/domain"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

var july15 = domain.NewDate(2023, time.July, 15)

// testGrid builds an 8 x 9 window with values from lo to hi.
func testGrid(lo, hi float64) *domain.Grid {
	g := &domain.Grid{Variable: "air", Units: domain.UnitsDegC}
	for i := 0; i < 8; i++ {
		g.Lat = append(g.Lat, 42-2*float64(i))
	}
	for j := 0; j < 9; j++ {
		g.Lon = append(g.Lon, 120+1.875*float64(j))
	}
	n := len(g.Lat) * len(g.Lon)
	for i := range g.Lat {
		row := make([]float64, len(g.Lon))
		for j := range row {
			row[j] = lo + (hi-lo)*float64(i*len(g.Lon)+j)/float64(n-1)
		}
		g.Values = append(g.Values, row)
	}
	return g
}

func newTestRenderer(t *testing.T, def string, bm *basemap.Basemap) *Renderer {
	t.Helper()
	p, err := NewProjection(def)
	if err != nil {
		t.Fatalf("NewProjection: %v", err)
	}
	t.Cleanup(p.Close)

	cfg := DefaultConfig()
	cfg.FontPath = ""
	cfg.Width, cfg.Height, cfg.DPI = 5*72, 4*72, 72
	r, err := NewRenderer(cfg, p, bm)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func TestProjection_PlateCarree(t *testing.T) {
	p, err := NewProjection("")
	if err != nil {
		t.Fatalf("NewProjection: %v", err)
	}
	defer p.Close()

	if p.ID() != "eqc" || !p.Separable() {
		t.Errorf("id = %q, separable = %v", p.ID(), p.Separable())
	}
	x, y, err := p.Forward(1, 0)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	// One degree of longitude on the WGS84 equator.
	if math.Abs(x-111319.4908) > 0.01 || math.Abs(y) > 1e-6 {
		t.Errorf("Forward(1, 0) = %v, %v", x, y)
	}

	xs, ys, err := p.ForwardSlice([]float64{120, 135}, []float64{28, 42})
	if err != nil {
		t.Fatalf("ForwardSlice: %v", err)
	}
	if xs[1] <= xs[0] || ys[1] <= ys[0] {
		t.Errorf("ForwardSlice not monotonic: %v %v", xs, ys)
	}
}

func TestProjection_Invalid(t *testing.T) {
	if _, err := NewProjection("+proj=nope"); err == nil {
		t.Error("expected error for unknown projection")
	}
}

func TestRender_NoGridNoImage(t *testing.T) {
	r := newTestRenderer(t, "", nil)

	fig, err := r.Render(nil, july15, domain.VariantSurface)
	if err != nil || fig != nil {
		t.Errorf("Render(nil) = %v, %v; want nil, nil", fig, err)
	}
	fig, err = r.Render(&domain.Grid{}, july15, domain.VariantSurface)
	if err != nil || fig != nil {
		t.Errorf("Render(empty) = %v, %v; want nil, nil", fig, err)
	}
}

func TestRender_OutOfRangeValuesProduceImage(t *testing.T) {
	bm := &basemap.Basemap{
		Land:    []orb.Polygon{{{{125, 34}, {130, 34}, {130, 38.5}, {125, 38.5}, {125, 34}}}},
		Borders: []orb.LineString{{{126, 38}, {128, 38.3}}},
	}
	bm.Coastlines = []orb.LineString{orb.LineString(bm.Land[0][0])}
	r := newTestRenderer(t, "", bm)

	for name, g := range map[string]*domain.Grid{
		"below vmin": testGrid(-30, -10),
		"above vmax": testGrid(35, 45),
		"both":       testGrid(-20, 40),
	} {
		fig, err := r.Render(g, july15, domain.VariantSea)
		if err != nil {
			t.Fatalf("%s: Render: %v", name, err)
		}
		if fig == nil {
			t.Fatalf("%s: no figure", name)
		}
		data, err := fig.PNG()
		if err != nil {
			t.Fatalf("%s: PNG: %v", name, err)
		}
		if !bytes.HasPrefix(data, pngMagic) {
			t.Errorf("%s: output is not a PNG", name)
		}
	}
}

func TestRender_TitleAndColorBarLabel(t *testing.T) {
	r := newTestRenderer(t, "", nil)

	fig, err := r.Render(testGrid(0, 20), july15, domain.VariantSurface)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(fig.Map.Title.Text, "2023년 07월 15일") {
		t.Errorf("title = %q", fig.Map.Title.Text)
	}
	if fig.Map.Title.Text != "지상 2m 기온: 2023년 07월 15일" {
		t.Errorf("title = %q", fig.Map.Title.Text)
	}
	if fig.ColorBar.Y.Label.Text != "지상 2m 기온 (°C)" {
		t.Errorf("color bar label = %q", fig.ColorBar.Y.Label.Text)
	}

	sea, err := r.Render(testGrid(0, 20), july15, domain.VariantSea)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if sea.ColorBar.Y.Label.Text != "해상 2m 기온 (°C)" {
		t.Errorf("color bar label = %q", sea.ColorBar.Y.Label.Text)
	}

	// Degree labels on the bottom and left axes.
	ticks := fig.Map.X.Tick.Marker.Ticks(fig.Map.X.Min, fig.Map.X.Max)
	if len(ticks) == 0 || !strings.HasSuffix(ticks[0].Label, "°E") {
		t.Errorf("x ticks = %v", ticks)
	}
}

func TestRender_NaNCellsAndPartialGrid(t *testing.T) {
	r := newTestRenderer(t, "", nil)
	g := testGrid(0, 20)
	for i := range g.Values {
		for j := range g.Values[i] {
			if (i+j)%2 == 0 {
				g.Values[i][j] = math.NaN()
			}
		}
	}
	fig, err := r.Render(g, july15, domain.VariantSurface)
	if err != nil || fig == nil {
		t.Fatalf("Render = %v, %v", fig, err)
	}
	if _, err := fig.PNG(); err != nil {
		t.Fatalf("PNG: %v", err)
	}
}

func TestRender_UnlabelledGraticuleFallback(t *testing.T) {
	r := newTestRenderer(t, "+proj=ortho +lat_0=35 +lon_0=127 +ellps=WGS84", nil)

	fig, err := r.Render(testGrid(0, 20), july15, domain.VariantSurface)
	if err != nil || fig == nil {
		t.Fatalf("Render = %v, %v", fig, err)
	}
	if ticks := fig.Map.X.Tick.Marker.Ticks(fig.Map.X.Min, fig.Map.X.Max); len(ticks) != 0 {
		t.Errorf("expected no tick labels, got %v", ticks)
	}
	data, err := fig.PNG()
	if err != nil || !bytes.HasPrefix(data, pngMagic) {
		t.Fatalf("PNG: %v", err)
	}
}

func TestRender_RaggedGridIsError(t *testing.T) {
	r := newTestRenderer(t, "", nil)
	g := testGrid(0, 20)
	g.Values[3] = g.Values[3][:2]
	if _, err := r.Render(g, july15, domain.VariantSurface); err == nil {
		t.Error("expected error for ragged grid")
	}
}

func TestRegisterFont_MissingFileKeepsDefaults(t *testing.T) {
	if RegisterFont("testdata/does-not-exist.ttf") {
		t.Error("RegisterFont should report false for a missing font")
	}
}
