package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"go.ngs.io/reanalysis-maps/internal/adapter/interp"
	"go.ngs.io/reanalysis-maps/internal/adapter/store"
	"go.ngs.io/reanalysis-maps/internal/domain"
	"go.ngs.io/reanalysis-maps/internal/render"
)

// MapRequest selects one day's map.
type MapRequest struct {
	Date    domain.Date
	Variant domain.Variant
}

// Validate checks the request against the archive's date range.
func (r MapRequest) Validate(dates domain.DateRange, now time.Time) error {
	if r.Variant.Name == "" {
		return fmt.Errorf("variant is required")
	}
	if r.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	return dates.Validate(r.Date, now)
}

// Preview is the data preview shown under the map.
type Preview struct {
	Variant string             `json:"variant"`
	Date    string             `json:"date"`
	Heading string             `json:"heading"`
	Summary domain.GridSummary `json:"summary"`
	Caption string             `json:"caption"`
	Lat     []float64          `json:"lat,omitempty"`
	Lon     []float64          `json:"lon,omitempty"`
	Values  [][]*float64       `json:"values,omitempty"` // nil for missing cells
}

// DateInfo describes the selectable dates.
type DateInfo struct {
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
	Default  string `json:"default"`
	LagDays  int    `json:"lag_days"`
}

// PointValue is the temperature interpolated at one location.
type PointValue struct {
	Variant string  `json:"variant"`
	Date    string  `json:"date"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Value   float64 `json:"value"`
	Units   string  `json:"units,omitempty"`
}

// MapUseCase orchestrates date validation, grid loading and rendering
type MapUseCase struct {
	grids    store.GridFetcher
	renderer *render.Renderer
	dates    domain.DateRange
	now      func() time.Time
}

// NewMapUseCase creates a new map use case
func NewMapUseCase(grids store.GridFetcher, renderer *render.Renderer, dates domain.DateRange) *MapUseCase {
	return &MapUseCase{
		grids:    grids,
		renderer: renderer,
		dates:    dates,
		now:      time.Now,
	}
}

// Now returns the current time used for date bounds.
func (uc *MapUseCase) Now() time.Time {
	return uc.now()
}

// Dates returns the selectable date range as of now.
func (uc *MapUseCase) Dates() DateInfo {
	now := uc.now()
	return DateInfo{
		Earliest: uc.dates.Earliest.String(),
		Latest:   uc.dates.Latest(now).String(),
		Default:  uc.dates.Default(now).String(),
		LagDays:  uc.dates.Lag,
	}
}

// DefaultDate returns today minus the reporting lag.
func (uc *MapUseCase) DefaultDate() domain.Date {
	return uc.dates.Default(uc.now())
}

// Grid validates the request and loads its grid.
func (uc *MapUseCase) Grid(ctx context.Context, req MapRequest) (*domain.Grid, error) {
	if err := req.Validate(uc.dates, uc.now()); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return uc.grids.Fetch(ctx, req.Date, req.Variant)
}

// Render loads the grid and draws its map. It returns domain.ErrNoData
// when there is nothing to draw.
func (uc *MapUseCase) Render(ctx context.Context, req MapRequest) (*render.Figure, error) {
	grid, err := uc.Grid(ctx, req)
	if err != nil {
		return nil, err
	}
	fig, err := uc.renderer.Render(grid, req.Date, req.Variant)
	if err != nil {
		return nil, fmt.Errorf("failed to render map: %w", err)
	}
	if fig == nil {
		return nil, domain.ErrNoData
	}
	return fig, nil
}

// Preview loads the grid and describes it. Values are included on request.
func (uc *MapUseCase) Preview(ctx context.Context, req MapRequest, withValues bool) (*Preview, error) {
	grid, err := uc.Grid(ctx, req)
	if err != nil {
		return nil, err
	}

	p := &Preview{
		Variant: req.Variant.Name,
		Date:    req.Date.String(),
		Heading: req.Variant.Heading(req.Date),
		Summary: grid.Summary(),
		Caption: Caption(grid),
	}
	if withValues {
		p.Lat, p.Lon = grid.Lat, grid.Lon
		p.Values = make([][]*float64, len(grid.Values))
		for i, row := range grid.Values {
			p.Values[i] = make([]*float64, len(row))
			for j := range row {
				if !math.IsNaN(row[j]) {
					p.Values[i][j] = &row[j]
				}
			}
		}
	}
	return p, nil
}

// Point loads the grid and interpolates it bilinearly at (lat, lon).
// Points beyond the grid return interp.ErrOutsideGrid.
func (uc *MapUseCase) Point(ctx context.Context, req MapRequest, lat, lon float64) (*PointValue, error) {
	grid, err := uc.Grid(ctx, req)
	if err != nil {
		return nil, err
	}
	v, err := interp.Sample(grid, lat, lon)
	if err != nil {
		return nil, err
	}
	return &PointValue{
		Variant: req.Variant.Name,
		Date:    req.Date.String(),
		Lat:     lat,
		Lon:     lon,
		Value:   v,
		Units:   grid.Units,
	}, nil
}

// Caption returns "lat: a~b, lon: c~d" for a grid.
func Caption(g *domain.Grid) string {
	latMin, latMax := g.LatRange()
	lonMin, lonMax := g.LonRange()
	return fmt.Sprintf("lat: %v~%v, lon: %v~%v", latMin, latMax, lonMin, lonMax)
}

// Warm loads the default date of every variant into the grid store. Dates
// without data are not errors.
func (uc *MapUseCase) Warm(ctx context.Context) error {
	date := uc.DefaultDate()
	var errs []error
	for _, v := range domain.Variants() {
		_, err := uc.Grid(ctx, MapRequest{Date: date, Variant: v})
		switch {
		case err == nil:
			log.Info().Str("variant", v.Name).Str("date", date.String()).Msg("Warmed grid")
		case errors.Is(err, domain.ErrNoData):
			log.Info().Str("variant", v.Name).Str("date", date.String()).Msg("No data to warm")
		default:
			errs = append(errs, fmt.Errorf("warm %s %s: %w", v.Name, date, err))
		}
	}
	return errors.Join(errs...)
}
