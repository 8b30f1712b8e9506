// Package fixture writes synthetic NCEP/NCAR-style 2 m air temperature files
// for local development and tests.
package fixture

import (
	"fmt"
	"math"
	"time"

	"github.com/fhs/go-netcdf/netcdf"
)

// Packing of the archive's air.2m.gauss files.
const (
	ScaleFactor  = 0.01
	AddOffset    = 477.66
	MissingValue = int16(32766)
	TimeUnits    = "hours since 1800-01-01 00:00:0.0"
)

var timeOrigin = time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)

// Options controls the generated grid.
type Options struct {
	Year int
	// Days limits the time axis to the first n days of the year
	// (0 = the whole year).
	Days int
	// NLat is the number of Gaussian latitudes (default 94, T62).
	NLat int
	// NLon is the number of longitudes from 0 eastward (default 192).
	NLon int
	// MissingDays lists 1-based days of year written entirely as missing.
	MissingDays []int
}

func (o Options) withDefaults() Options {
	if o.NLat <= 0 {
		o.NLat = 94
	}
	if o.NLon <= 0 {
		o.NLon = 192
	}
	daysInYear := time.Date(o.Year, 12, 31, 0, 0, 0, 0, time.UTC).YearDay()
	if o.Days <= 0 || o.Days > daysInYear {
		o.Days = daysInYear
	}
	return o
}

// Grid is the generated coordinate system.
type Grid struct {
	Lat   []float64 // north to south
	Lon   []float64 // 0 to 360 - step
	Hours []float64 // TimeUnits offsets, one per day
}

// NewGrid returns the coordinates a file with opts would have.
func NewGrid(opts Options) Grid {
	opts = opts.withDefaults()
	g := Grid{
		Lat:   GaussianLatitudes(opts.NLat),
		Lon:   make([]float64, opts.NLon),
		Hours: make([]float64, opts.Days),
	}
	step := 360.0 / float64(opts.NLon)
	for i := range g.Lon {
		g.Lon[i] = float64(i) * step
	}
	start := time.Date(opts.Year, 1, 1, 0, 0, 0, 0, time.UTC)
	for d := range g.Hours {
		g.Hours[d] = start.AddDate(0, 0, d).Sub(timeOrigin).Hours()
	}
	return g
}

// Temperature is the synthetic field in kelvin on day (1-based) of a year.
func Temperature(lat, lon float64, day int) float64 {
	phi := lat * math.Pi / 180
	season := math.Sin(2 * math.Pi * float64(day-105) / 365.25)
	return 258 + 45*math.Cos(phi) +
		12*season*math.Sin(phi) +
		2*math.Sin(3*lon*math.Pi/180)*math.Cos(phi)
}

// Write creates path as a NetCDF file holding air(time, lat, lon).
func Write(path string, opts Options) error {
	opts = opts.withDefaults()
	g := NewGrid(opts)
	nLat, nLon, nTime := len(g.Lat), len(g.Lon), len(g.Hours)

	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer ds.Close()

	// Create dimensions
	timeDim, err := ds.AddDim("time", uint64(nTime))
	if err != nil {
		return err
	}
	latDim, err := ds.AddDim("lat", uint64(nLat))
	if err != nil {
		return err
	}
	lonDim, err := ds.AddDim("lon", uint64(nLon))
	if err != nil {
		return err
	}

	// Create variables
	timeVar, err := ds.AddVar("time", netcdf.DOUBLE, []netcdf.Dim{timeDim})
	if err != nil {
		return err
	}
	latVar, err := ds.AddVar("lat", netcdf.FLOAT, []netcdf.Dim{latDim})
	if err != nil {
		return err
	}
	lonVar, err := ds.AddVar("lon", netcdf.FLOAT, []netcdf.Dim{lonDim})
	if err != nil {
		return err
	}
	airVar, err := ds.AddVar("air", netcdf.SHORT, []netcdf.Dim{timeDim, latDim, lonDim})
	if err != nil {
		return err
	}

	texts := []struct {
		v          netcdf.Var
		name, text string
	}{
		{timeVar, "units", TimeUnits},
		{timeVar, "calendar", "standard"},
		{latVar, "units", "degrees_north"},
		{lonVar, "units", "degrees_east"},
		{airVar, "units", "degK"},
		{airVar, "long_name", "mean Daily Air temperature at 2 m"},
	}
	for _, a := range texts {
		if err := a.v.Attr(a.name).WriteBytes([]byte(a.text)); err != nil {
			return fmt.Errorf("failed to write %s: %w", a.name, err)
		}
	}
	if err := airVar.Attr("scale_factor").WriteFloat32s([]float32{ScaleFactor}); err != nil {
		return err
	}
	if err := airVar.Attr("add_offset").WriteFloat32s([]float32{AddOffset}); err != nil {
		return err
	}
	if err := airVar.Attr("missing_value").WriteInt16s([]int16{MissingValue}); err != nil {
		return err
	}
	if err := ds.EndDef(); err != nil {
		return err
	}

	if err := timeVar.WriteFloat64s(g.Hours); err != nil {
		return err
	}
	if err := latVar.WriteFloat32s(narrow(g.Lat)); err != nil {
		return err
	}
	if err := lonVar.WriteFloat32s(narrow(g.Lon)); err != nil {
		return err
	}

	missing := make(map[int]bool, len(opts.MissingDays))
	for _, d := range opts.MissingDays {
		missing[d] = true
	}
	air := make([]int16, nTime*nLat*nLon)
	for t := 0; t < nTime; t++ {
		day := t + 1
		for i, lat := range g.Lat {
			for j, lon := range g.Lon {
				idx := (t*nLat+i)*nLon + j
				if missing[day] {
					air[idx] = MissingValue
					continue
				}
				air[idx] = Pack(Temperature(lat, lon, day))
			}
		}
	}
	return airVar.WriteInt16s(air)
}

// Pack converts kelvin to the stored short value.
func Pack(k float64) int16 {
	return int16(math.Round((k - AddOffset) / ScaleFactor))
}

// GaussianLatitudes returns the n Gaussian latitudes in degrees, north to
// south: the arcsine of the roots of the Legendre polynomial P_n.
func GaussianLatitudes(n int) []float64 {
	lats := make([]float64, n)
	for i := 0; i < (n+1)/2; i++ {
		// Initial guess for the i-th root, refined by Newton's method.
		x := math.Cos(math.Pi * (float64(i) + 0.75) / (float64(n) + 0.5))
		for iter := 0; iter < 100; iter++ {
			p0, p1 := 1.0, x
			for k := 2; k <= n; k++ {
				p0, p1 = p1, ((2*float64(k)-1)*x*p1-(float64(k)-1)*p0)/float64(k)
			}
			dp := float64(n) * (x*p1 - p0) / (x*x - 1)
			dx := p1 / dp
			x -= dx
			if math.Abs(dx) < 1e-15 {
				break
			}
		}
		lat := math.Asin(x) * 180 / math.Pi
		lats[i] = lat
		lats[n-1-i] = -lat
	}
	return lats
}

func narrow(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
