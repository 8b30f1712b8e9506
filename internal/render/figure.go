package render

import (
	"bytes"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Default figure geometry: 10 x 8 inches at 100 dpi.
const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 8 * vg.Inch
	DefaultDPI    = 100
)

const (
	// figurePad is the outer margin of the tight layout.
	figurePad = vg.Length(10)
	// colorBarPad separates the map from the color bar, as a fraction of
	// the map width.
	colorBarPad = 0.05
	// colorBarAspect is the ratio of the bar's length to its thickness.
	colorBarAspect = 40
)

// Figure is a rendered map with its color bar.
type Figure struct {
	Map      *plot.Plot
	ColorBar *plot.Plot

	Width, Height vg.Length
	DPI           int

	// aspect is the data height over width in projected units; the map's
	// data area keeps it.
	aspect float64
}

// Draw lays the map and color bar out on c.
func (f *Figure) Draw(c draw.Canvas) {
	c = draw.Crop(c, figurePad, -figurePad, figurePad, -figurePad)

	// The color bar strip is sized from its measured label space.
	barArea := draw.Crop(c, c.Size().X*0.8, 0, 0, 0)
	labelSpace := barArea.Size().X - f.ColorBar.DataCanvas(barArea).Size().X

	mapArea := c
	dataArea := f.Map.DataCanvas(mapArea)
	barThick := dataArea.Size().Y / colorBarAspect
	strip := labelSpace + barThick + c.Size().X*colorBarPad
	mapArea = draw.Crop(c, 0, -strip, 0, 0)

	// Keep the projected aspect ratio by shrinking the long side.
	dataArea = f.Map.DataCanvas(mapArea)
	dw, dh := dataArea.Size().X, dataArea.Size().Y
	if f.aspect > 0 && dw > 0 && dh > 0 {
		if want := dw * vg.Length(f.aspect); want < dh {
			cut := (dh - want) / 2
			mapArea = draw.Crop(mapArea, 0, 0, cut, -cut)
		} else {
			cut := (dw - dh/vg.Length(f.aspect)) / 2
			mapArea = draw.Crop(mapArea, cut, -cut, 0, 0)
		}
		dataArea = f.Map.DataCanvas(mapArea)
	}
	f.Map.Draw(mapArea)

	barThick = dataArea.Size().Y / colorBarAspect
	bar := draw.Canvas{Canvas: c.Canvas, Rectangle: vg.Rectangle{
		Min: vg.Point{X: mapArea.Max.X + c.Size().X*colorBarPad, Y: dataArea.Min.Y},
		Max: vg.Point{X: mapArea.Max.X + c.Size().X*colorBarPad + labelSpace + barThick, Y: dataArea.Max.Y},
	}}
	// Align the bar's data area, not its canvas, with the map.
	inner := f.ColorBar.DataCanvas(bar)
	bar.Min.Y -= inner.Min.Y - dataArea.Min.Y
	bar.Max.Y += dataArea.Max.Y - inner.Max.Y
	f.ColorBar.Draw(bar)
}

// WriteTo encodes the figure as PNG.
func (f *Figure) WriteTo(w io.Writer) (int64, error) {
	img := vgimg.NewWith(
		vgimg.UseWH(f.Width, f.Height),
		vgimg.UseDPI(f.DPI),
		vgimg.UseBackgroundColor(color.White),
	)
	f.Draw(draw.New(img))
	png := vgimg.PngCanvas{Canvas: img}
	return png.WriteTo(w)
}

// PNG returns the encoded image.
func (f *Figure) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
