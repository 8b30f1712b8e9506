package domain

import (
	"math"
	"testing"
	"time"
)

func uniformGrid(nLat, nLon int, value float64) *Grid {
	g := &Grid{
		Variable: "air",
		Time:     time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC),
		Units:    "degK",
		Attrs:    map[string]string{"units": "degK"},
	}
	for i := 0; i < nLat; i++ {
		g.Lat = append(g.Lat, 42-float64(i)*2)
	}
	for j := 0; j < nLon; j++ {
		g.Lon = append(g.Lon, 120+float64(j)*1.875)
	}
	g.Values = make([][]float64, nLat)
	for i := range g.Values {
		g.Values[i] = make([]float64, nLon)
		for j := range g.Values[i] {
			g.Values[i][j] = value
		}
	}
	return g
}

// TestToCelsius_Exact checks that 283.15 K becomes exactly 10 °C.
func TestToCelsius_Exact(t *testing.T) {
	g := uniformGrid(3, 4, 283.15)
	c := g.ToCelsius()

	for i := range c.Values {
		for j, v := range c.Values[i] {
			if v != 283.15-273.15 {
				t.Fatalf("cell (%d,%d): expected %v, got %v", i, j, 283.15-273.15, v)
			}
			if v != 10.0 {
				t.Fatalf("cell (%d,%d): expected 10.0, got %v", i, j, v)
			}
		}
	}
	if c.Units != UnitsDegC || c.Attrs["units"] != UnitsDegC {
		t.Errorf("expected units %q, got %q / %q", UnitsDegC, c.Units, c.Attrs["units"])
	}

	// Source grid is untouched.
	if g.Values[0][0] != 283.15 || g.Units != "degK" {
		t.Errorf("ToCelsius modified its receiver: %v %s", g.Values[0][0], g.Units)
	}
}

func TestAllMissing(t *testing.T) {
	g := uniformGrid(2, 2, math.NaN())
	if !g.AllMissing() {
		t.Error("expected all-NaN grid to be all missing")
	}
	g.Values[1][0] = 290
	if g.AllMissing() {
		t.Error("expected grid with one value not to be all missing")
	}

	var nilGrid *Grid
	if !nilGrid.AllMissing() || !nilGrid.Empty() {
		t.Error("nil grid must be empty and all missing")
	}
	if !(&Grid{}).AllMissing() {
		t.Error("grid without cells must be all missing")
	}
}

func TestDims_DropsSingletons(t *testing.T) {
	tests := []struct {
		nLat, nLon int
		want       []string
	}{
		{8, 9, []string{"lat", "lon"}},
		{1, 9, []string{"lon"}},
		{8, 1, []string{"lat"}},
		{1, 1, nil},
	}
	for _, tt := range tests {
		got := uniformGrid(tt.nLat, tt.nLon, 1).Dims()
		if len(got) != len(tt.want) {
			t.Fatalf("%dx%d: expected %v, got %v", tt.nLat, tt.nLon, tt.want, got)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%dx%d: expected %v, got %v", tt.nLat, tt.nLon, tt.want, got)
			}
		}
	}
}

func TestSummary(t *testing.T) {
	g := uniformGrid(3, 2, 290)
	g.Values[0][1] = math.NaN()
	g.Values[2][0] = 300

	s := g.Summary()
	if s.Shape != [2]int{3, 2} {
		t.Errorf("shape: got %v", s.Shape)
	}
	if s.LatMin != 38 || s.LatMax != 42 {
		t.Errorf("lat range: got %v..%v", s.LatMin, s.LatMax)
	}
	if s.LonMin != 120 || s.LonMax != 121.875 {
		t.Errorf("lon range: got %v..%v", s.LonMin, s.LonMax)
	}
	if s.ValueMin == nil || *s.ValueMin != 290 || *s.ValueMax != 300 {
		t.Errorf("value range: got %v..%v", s.ValueMin, s.ValueMax)
	}
	if s.Missing != 1 {
		t.Errorf("missing: expected 1, got %d", s.Missing)
	}
	if s.Time != "2023-07-15T00:00:00Z" {
		t.Errorf("time: got %s", s.Time)
	}
}

func TestKoreaWindow(t *testing.T) {
	if !KoreaWindow.Contains(35, 127) {
		t.Error("expected Seoul-ish point inside window")
	}
	if !KoreaWindow.Contains(28, 135) || !KoreaWindow.Contains(42, 120) {
		t.Error("window edges must be inclusive")
	}
	if KoreaWindow.Contains(43, 127) || KoreaWindow.Contains(35, 136) {
		t.Error("expected points outside window to be rejected")
	}
	if !KoreaWindow.Intersects(BoundingBox{LatMin: 40, LatMax: 50, LonMin: 130, LonMax: 140}) {
		t.Error("expected overlapping box to intersect")
	}
	if KoreaWindow.Intersects(BoundingBox{LatMin: -10, LatMax: 0, LonMin: 0, LonMax: 10}) {
		t.Error("expected distant box not to intersect")
	}
	// Bounds of a feature crossing the antimeridian.
	if !KoreaWindow.Intersects(BoundingBox{LatMin: 41, LatMax: 78, LonMin: -180, LonMax: 180}) {
		t.Error("expected world-wide box to intersect")
	}
}
