package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"go.ngs.io/reanalysis-maps/internal/adapter/axis"
	"go.ngs.io/reanalysis-maps/internal/adapter/cftime"
	"go.ngs.io/reanalysis-maps/internal/adapter/opendap"
	"go.ngs.io/reanalysis-maps/internal/domain"
)

// DefaultURLTemplate is the NCEP/NCAR Reanalysis 1 daily mean 2 m air
// temperature archive, one file per year.
const DefaultURLTemplate = "https://psl.noaa.gov/thredds/dodsC/Datasets/ncep.reanalysis.dailyavgs/surface_gauss/air.2m.gauss.{year}.nc"

// DefaultVariable is the temperature variable inside each yearly file.
const DefaultVariable = "air"

// errDataset marks failures caused by the dataset's structure rather than
// by transport. They are never retried with another backend.
var errDataset = errors.New("unexpected dataset structure")

// Attributes consumed while unpacking; they no longer apply to the values.
var packingAttrs = map[string]bool{
	"scale_factor":  true,
	"add_offset":    true,
	"_FillValue":    true,
	"missing_value": true,
}

type openStatus int

const (
	openOK openStatus = iota
	openRetryWithFallback
	openTerminal
)

func (s openStatus) String() string {
	switch s {
	case openOK:
		return "ok"
	case openRetryWithFallback:
		return "retry_with_fallback"
	case openTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// openResult is the outcome of one access attempt. For openOK, grid is set,
// or err is domain.ErrNoData.
type openResult struct {
	status  openStatus
	backend string
	grid    *domain.Grid
	err     error
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	URLTemplate string // Contains "{year}".
	Variable    string
	Window      domain.BoundingBox
}

// Fetcher retrieves the daily temperature slice for a date from the yearly
// archive, trying the primary backend and then, once, the fallback.
type Fetcher struct {
	cfg      FetcherConfig
	primary  opendap.Backend
	fallback opendap.Backend
}

// NewFetcher creates a fetcher. fallback may be nil.
func NewFetcher(cfg FetcherConfig, primary, fallback opendap.Backend) *Fetcher {
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = DefaultURLTemplate
	}
	if cfg.Variable == "" {
		cfg.Variable = DefaultVariable
	}
	if cfg.Window == (domain.BoundingBox{}) {
		cfg.Window = domain.KoreaWindow
	}
	return &Fetcher{cfg: cfg, primary: primary, fallback: fallback}
}

// URL returns the archive location for a year.
func (f *Fetcher) URL(year int) string {
	return strings.ReplaceAll(f.cfg.URLTemplate, "{year}", strconv.Itoa(year))
}

// Fetch returns the grid nearest to date's midnight inside the map window.
// It returns domain.ErrNoData when the window holds no valid values and a
// *domain.FetchError when the archive could not be read.
func (f *Fetcher) Fetch(ctx context.Context, date domain.Date, variant domain.Variant) (*domain.Grid, error) {
	url := f.URL(date.Year)
	attempted := []string{f.primary.Name()}

	res := f.attempt(ctx, f.primary, url, date, variant)
	if res.status == openRetryWithFallback && f.fallback != nil {
		log.Warn().
			Err(res.err).
			Str("backend", res.backend).
			Str("fallback", f.fallback.Name()).
			Str("url", url).
			Msg("Primary access failed, retrying with fallback")

		attempted = append(attempted, f.fallback.Name())
		res = f.attempt(ctx, f.fallback, url, date, variant)
	}

	if res.status == openOK {
		return res.grid, res.err
	}

	log.Error().
		Err(res.err).
		Strs("backends", attempted).
		Str("url", url).
		Str("date", date.String()).
		Msg("Fetch failed")
	return nil, &domain.FetchError{URL: url, Backends: attempted, Err: res.err}
}

func (f *Fetcher) attempt(ctx context.Context, backend opendap.Backend, url string, date domain.Date, variant domain.Variant) openResult {
	start := time.Now()
	res := openResult{backend: backend.Name()}

	ds, err := backend.Open(ctx, url)
	if err != nil {
		res.status, res.err = classify(ctx, err), err
		return res
	}
	defer func() { _ = ds.Close() }()

	grid, err := f.extract(ctx, ds, date)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoData):
		res.status, res.err = openOK, err
		log.Info().Str("backend", res.backend).Str("date", date.String()).Dur("duration", time.Since(start)).Msg("No data in window")
		return res
	default:
		res.status, res.err = classify(ctx, err), err
		return res
	}

	if variant.ConvertToDegC {
		grid = grid.ToCelsius()
	}
	if grid.AllMissing() {
		res.status, res.err = openOK, domain.ErrNoData
		return res
	}

	log.Info().
		Str("backend", res.backend).
		Str("date", date.String()).
		Str("variant", variant.Name).
		Time("slice", grid.Time).
		Dur("duration", time.Since(start)).
		Msg("Fetched grid")
	res.status, res.grid = openOK, grid
	return res
}

// classify decides whether a failed attempt may be retried elsewhere.
func classify(ctx context.Context, err error) openStatus {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return openTerminal
	}
	if errors.Is(err, errDataset) {
		return openTerminal
	}
	return openRetryWithFallback
}

// coordNames maps the variable's dimensions to time/lat/lon roles.
type coordNames struct {
	time, lat, lon string
}

func roleOf(dim string) string {
	switch strings.ToLower(dim) {
	case "time", "t":
		return "time"
	case "lat", "latitude", "y":
		return "lat"
	case "lon", "longitude", "x":
		return "lon"
	default:
		return ""
	}
}

func (f *Fetcher) extract(ctx context.Context, ds opendap.Dataset, date domain.Date) (*domain.Grid, error) {
	variable := f.cfg.Variable
	dims, err := ds.Dims(variable)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errDataset, err)
	}

	var names coordNames
	for _, d := range dims {
		switch roleOf(d.Name) {
		case "time":
			names.time = d.Name
		case "lat":
			names.lat = d.Name
		case "lon":
			names.lon = d.Name
		default:
			if d.Len != 1 {
				return nil, fmt.Errorf("%w: %s has non-singleton dimension %s (%d)", errDataset, variable, d.Name, d.Len)
			}
		}
	}
	if names.time == "" || names.lat == "" || names.lon == "" {
		return nil, fmt.Errorf("%w: %s must have time, lat and lon dimensions, got %v", errDataset, variable, dims)
	}

	tIdx, tAt, err := nearestTime(ctx, ds, names.time, date)
	if err != nil {
		return nil, err
	}

	lats, err := ds.Axis(ctx, names.lat)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", names.lat, err)
	}
	lons, err := ds.Axis(ctx, names.lon)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", names.lon, err)
	}
	latStart, latCount, err := axis.Window(lats, f.cfg.Window.LatMin, f.cfg.Window.LatMax)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errDataset, names.lat, err)
	}
	lonStart, lonCount, err := axis.Window(lons, f.cfg.Window.LonMin, f.cfg.Window.LonMax)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errDataset, names.lon, err)
	}
	if latCount == 0 || lonCount == 0 {
		return nil, domain.ErrNoData
	}

	start := make([]int, len(dims))
	count := make([]int, len(dims))
	for i, d := range dims {
		count[i] = 1
		switch d.Name {
		case names.time:
			start[i] = tIdx
		case names.lat:
			start[i], count[i] = latStart, latCount
		case names.lon:
			start[i], count[i] = lonStart, lonCount
		}
	}

	raw, err := ds.Read(ctx, variable, start, count)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", variable, err)
	}
	if len(raw) != latCount*lonCount {
		return nil, fmt.Errorf("read %d values for %s, expected %d", len(raw), variable, latCount*lonCount)
	}
	latFirst := dimIndex(dims, names.lat) < dimIndex(dims, names.lon)

	grid := &domain.Grid{
		Variable: variable,
		Time:     tAt,
		Lat:      append([]float64(nil), lats[latStart:latStart+latCount]...),
		Lon:      append([]float64(nil), lons[lonStart:lonStart+lonCount]...),
		Values:   make([][]float64, latCount),
		Attrs:    map[string]string{},
	}
	unpack := newUnpacker(ds, variable)
	for i := 0; i < latCount; i++ {
		row := make([]float64, lonCount)
		for j := 0; j < lonCount; j++ {
			k := i*lonCount + j
			if !latFirst {
				k = j*latCount + i
			}
			row[j] = unpack.value(raw[k])
		}
		grid.Values[i] = row
	}
	orient(grid)

	for _, name := range ds.AttrNames(variable) {
		if packingAttrs[name] {
			continue
		}
		if a, ok := ds.Attr(variable, name); ok {
			grid.Attrs[name] = a.String()
		}
	}
	grid.Units = grid.Attrs["units"]
	return grid, nil
}

func nearestTime(ctx context.Context, ds opendap.Dataset, name string, date domain.Date) (int, time.Time, error) {
	unitsAttr, ok := ds.Attr(name, "units")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("%w: %s has no units", errDataset, name)
	}
	units, err := cftime.ParseUnits(unitsAttr.String())
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: %w", errDataset, err)
	}
	if cal, ok := ds.Attr(name, "calendar"); ok {
		if err := cftime.CheckCalendar(cal.String()); err != nil {
			return 0, time.Time{}, fmt.Errorf("%w: %w", errDataset, err)
		}
	}

	times, err := ds.Axis(ctx, name)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(times) == 0 {
		return 0, time.Time{}, domain.ErrNoData
	}
	idx, err := axis.NearestIndex(times, units.Offset(date.Midnight()))
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: %s: %w", errDataset, name, err)
	}
	return idx, units.Time(times[idx]).UTC(), nil
}

func dimIndex(dims []opendap.Dim, name string) int {
	for i, d := range dims {
		if d.Name == name {
			return i
		}
	}
	return -1
}

// orient puts rows north to south and columns west to east.
func orient(g *domain.Grid) {
	if len(g.Lat) > 1 && g.Lat[0] < g.Lat[len(g.Lat)-1] {
		for i, j := 0, len(g.Lat)-1; i < j; i, j = i+1, j-1 {
			g.Lat[i], g.Lat[j] = g.Lat[j], g.Lat[i]
			g.Values[i], g.Values[j] = g.Values[j], g.Values[i]
		}
	}
	if len(g.Lon) > 1 && g.Lon[0] > g.Lon[len(g.Lon)-1] {
		for i, j := 0, len(g.Lon)-1; i < j; i, j = i+1, j-1 {
			g.Lon[i], g.Lon[j] = g.Lon[j], g.Lon[i]
			for _, row := range g.Values {
				row[i], row[j] = row[j], row[i]
			}
		}
	}
}

// unpacker applies CF packing and missing-value conventions.
type unpacker struct {
	scale, offset float64
	missing       []float64
}

func newUnpacker(ds opendap.Dataset, variable string) unpacker {
	u := unpacker{scale: 1}
	if a, ok := ds.Attr(variable, "scale_factor"); ok {
		if v, ok := a.Float(); ok {
			u.scale = v
		}
	}
	if a, ok := ds.Attr(variable, "add_offset"); ok {
		if v, ok := a.Float(); ok {
			u.offset = v
		}
	}
	for _, name := range []string{"_FillValue", "missing_value"} {
		if a, ok := ds.Attr(variable, name); ok {
			u.missing = append(u.missing, a.Values...)
		}
	}
	return u
}

func (u unpacker) value(raw float64) float64 {
	if math.IsNaN(raw) {
		return raw
	}
	for _, m := range u.missing {
		if raw == m {
			return math.NaN()
		}
	}
	return raw*u.scale + u.offset
}
