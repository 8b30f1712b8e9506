package domain

import (
	"fmt"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// BoundingBox is a latitude/longitude window in degrees.
type BoundingBox struct {
	LatMin, LatMax float64
	LonMin, LonMax float64
}

// KoreaWindow is the fixed map window around the Korean peninsula and the
// East China Sea.
var KoreaWindow = BoundingBox{
	LatMin: 28,
	LatMax: 42,
	LonMin: 120,
	LonMax: 135,
}

// Rect returns the window as an s2 latitude-longitude rectangle. The
// longitude interval runs eastward from LonMin to LonMax, so a box
// spanning -180..180 is full.
func (b BoundingBox) Rect() s2.Rect {
	lat := r1.Interval{
		Lo: (s1.Angle(b.LatMin) * s1.Degree).Radians(),
		Hi: (s1.Angle(b.LatMax) * s1.Degree).Radians(),
	}
	lng := s1.IntervalFromEndpoints(
		(s1.Angle(normalizeLon(b.LonMin)) * s1.Degree).Radians(),
		(s1.Angle(normalizeLon(b.LonMax)) * s1.Degree).Radians(),
	)
	if b.LonMax-b.LonMin >= 360 {
		lng = s1.FullInterval()
	}
	return s2.Rect{Lat: lat, Lng: lng}
}

// normalizeLon maps a longitude to [-180, 180], keeping 180 itself.
func normalizeLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

// Contains reports whether (lat, lon) lies inside the window, edges included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return b.Rect().ContainsLatLng(s2.LatLngFromDegrees(lat, lon))
}

// Intersects reports whether another window overlaps b.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.Rect().Intersects(o.Rect())
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("lat %g..%g, lon %g..%g", b.LatMin, b.LatMax, b.LonMin, b.LonMax)
}
