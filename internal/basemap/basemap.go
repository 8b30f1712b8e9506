// Package basemap loads the land, coastline and border layers drawn under
// the temperature map.
package basemap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"go.ngs.io/reanalysis-maps/internal/domain"
)

// Paths locates the GeoJSON files of each layer. An empty path disables
// the layer.
type Paths struct {
	Land      string
	Coastline string
	Borders   string
}

// Basemap holds the features that intersect the map window.
type Basemap struct {
	Land       []orb.Polygon
	Coastlines []orb.LineString
	Borders    []orb.LineString
}

// Empty reports whether no layer has features.
func (b *Basemap) Empty() bool {
	return b == nil || len(b.Land)+len(b.Coastlines)+len(b.Borders) == 0
}

// Load reads every configured layer and keeps the features intersecting
// window. Missing files disable their layer with a warning; malformed files
// are an error. Without a coastline file, land outlines serve as coastlines.
func Load(paths Paths, window domain.BoundingBox) (*Basemap, error) {
	b := &Basemap{}

	land, err := readLayer("land", paths.Land, window)
	if err != nil {
		return nil, err
	}
	for _, g := range land {
		b.Land = append(b.Land, polygons(g)...)
	}

	coast, err := readLayer("coastline", paths.Coastline, window)
	if err != nil {
		return nil, err
	}
	for _, g := range coast {
		b.Coastlines = append(b.Coastlines, lines(g)...)
	}
	if len(b.Coastlines) == 0 {
		for _, p := range b.Land {
			for _, r := range p {
				b.Coastlines = append(b.Coastlines, orb.LineString(r))
			}
		}
	}

	borders, err := readLayer("borders", paths.Borders, window)
	if err != nil {
		return nil, err
	}
	for _, g := range borders {
		b.Borders = append(b.Borders, lines(g)...)
	}

	log.Info().
		Int("land", len(b.Land)).
		Int("coastlines", len(b.Coastlines)).
		Int("borders", len(b.Borders)).
		Msg("Basemap loaded")
	return b, nil
}

func readLayer(layer, path string, window domain.BoundingBox) ([]orb.Geometry, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("layer", layer).Str("path", path).Msg("Basemap layer not found, disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s layer: %w", layer, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s layer %s: %w", layer, path, err)
	}

	var out []orb.Geometry
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if !window.Intersects(boundsOf(f.Geometry.Bound())) {
			continue
		}
		out = append(out, f.Geometry)
	}
	return out, nil
}

func boundsOf(b orb.Bound) domain.BoundingBox {
	return domain.BoundingBox{
		LatMin: b.Min.Lat(),
		LatMax: b.Max.Lat(),
		LonMin: b.Min.Lon(),
		LonMax: b.Max.Lon(),
	}
}

func polygons(g orb.Geometry) []orb.Polygon {
	switch g := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{g}
	case orb.MultiPolygon:
		return g
	case orb.Collection:
		var out []orb.Polygon
		for _, c := range g {
			out = append(out, polygons(c)...)
		}
		return out
	default:
		return nil
	}
}

func lines(g orb.Geometry) []orb.LineString {
	switch g := g.(type) {
	case orb.LineString:
		return []orb.LineString{g}
	case orb.MultiLineString:
		return g
	case orb.Ring:
		return []orb.LineString{orb.LineString(g)}
	case orb.Polygon:
		out := make([]orb.LineString, 0, len(g))
		for _, r := range g {
			out = append(out, orb.LineString(r))
		}
		return out
	case orb.MultiPolygon:
		var out []orb.LineString
		for _, p := range g {
			out = append(out, lines(p)...)
		}
		return out
	case orb.Collection:
		var out []orb.LineString
		for _, c := range g {
			out = append(out, lines(c)...)
		}
		return out
	default:
		return nil
	}
}
