package basemap

import (
	"os"
	"path/filepath"
	"testing"

	"go.ngs.io/reanalysis-maps/internal/domain"
)

const landJSON = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"name":"peninsula"},"geometry":{"type":"Polygon","coordinates":[[[125,34],[130,34],[130,38.5],[125,38.5],[125,34]]]}},
 {"type":"Feature","properties":{"name":"far"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}},
 {"type":"Feature","properties":{"name":"islands"},"geometry":{"type":"MultiPolygon","coordinates":[[[[126,33],[127,33],[127,33.5],[126,33]]],[[[129,34],[130,34],[130,35],[129,34]]]]}}
]}`

const bordersJSON = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[126,38],[128,38.3]]}},
 {"type":"Feature","properties":{},"geometry":{"type":"MultiLineString","coordinates":[[[-80,40],[-79,41]]]}}
]}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoad_FiltersToWindow(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Land:    writeFile(t, dir, "land.geojson", landJSON),
		Borders: writeFile(t, dir, "borders.geojson", bordersJSON),
	}

	b, err := Load(paths, domain.KoreaWindow)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(b.Land) != 3 {
		t.Errorf("land polygons = %d, want 3 (far feature dropped)", len(b.Land))
	}
	if len(b.Borders) != 1 {
		t.Errorf("borders = %d, want 1", len(b.Borders))
	}
	// No coastline file: land outlines are used.
	if len(b.Coastlines) != 3 {
		t.Errorf("coastlines = %d, want 3", len(b.Coastlines))
	}
	if b.Empty() {
		t.Error("basemap should not be empty")
	}
}

func TestLoad_MissingFilesDisableLayers(t *testing.T) {
	dir := t.TempDir()
	b, err := Load(Paths{Land: filepath.Join(dir, "nope.geojson")}, domain.KoreaWindow)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !b.Empty() {
		t.Error("expected empty basemap")
	}
}

func TestLoad_MalformedFileIsError(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "bad.geojson", "{not json")
	if _, err := Load(Paths{Coastline: p}, domain.KoreaWindow); err == nil {
		t.Error("expected parse error")
	}
}
