package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// TwoSlopeNorm maps data to [0, 1] with two linear segments that meet at
// 0.5 for VCenter. Values outside [VMin, VMax] clamp to the ends.
type TwoSlopeNorm struct {
	VMin, VCenter, VMax float64
}

// DefaultNorm centers the color scale on 10 °C.
var DefaultNorm = TwoSlopeNorm{VMin: -5, VCenter: 10, VMax: 30}

// Validate checks that VMin < VCenter < VMax.
func (n TwoSlopeNorm) Validate() error {
	if !(n.VMin < n.VCenter && n.VCenter < n.VMax) {
		return fmt.Errorf("norm requires vmin < vcenter < vmax, got %g, %g, %g", n.VMin, n.VCenter, n.VMax)
	}
	return nil
}

// Normalize returns the position of v on the color scale. NaN stays NaN.
func (n TwoSlopeNorm) Normalize(v float64) float64 {
	var t float64
	switch {
	case math.IsNaN(v):
		return math.NaN()
	case v <= n.VCenter:
		t = 0.5 * (v - n.VMin) / (n.VCenter - n.VMin)
	default:
		t = 0.5 + 0.5*(v-n.VCenter)/(n.VMax-n.VCenter)
	}
	return math.Max(0, math.Min(1, t))
}

// Inverse maps a scale position in [0, 1] back to data.
func (n TwoSlopeNorm) Inverse(t float64) float64 {
	if t <= 0.5 {
		return n.VMin + t/0.5*(n.VCenter-n.VMin)
	}
	return n.VCenter + (t-0.5)/0.5*(n.VMax-n.VCenter)
}

// newBaseColorMap returns the blue-white-red diverging map on [0, 1].
func newBaseColorMap() palette.ColorMap {
	cm := moreland.SmoothBlueRed()
	cm.SetMin(0)
	cm.SetMax(1)
	return cm
}

// normColorMap is a palette.ColorMap in data units whose colors come from a
// [0, 1] base map through a TwoSlopeNorm.
type normColorMap struct {
	base palette.ColorMap
	norm TwoSlopeNorm
}

var _ palette.ColorMap = (*normColorMap)(nil)

func newNormColorMap(base palette.ColorMap, norm TwoSlopeNorm) *normColorMap {
	return &normColorMap{base: base, norm: norm}
}

func (c *normColorMap) At(v float64) (color.Color, error) {
	if math.IsNaN(v) {
		return nil, palette.ErrNaN
	}
	return c.base.At(c.norm.Normalize(v))
}

func (c *normColorMap) Min() float64 { return c.norm.VMin }
func (c *normColorMap) Max() float64 { return c.norm.VMax }

// SetMin and SetMax are no-ops; the range is fixed by the norm.
func (c *normColorMap) SetMin(float64) {}
func (c *normColorMap) SetMax(float64) {}

func (c *normColorMap) Alpha() float64 { return c.base.Alpha() }
func (c *normColorMap) SetAlpha(a float64) { c.base.SetAlpha(a) }
func (c *normColorMap) Palette(n int) palette.Palette {
	return c.base.Palette(n)
}
