package store

import (
	"context"

	"go.ngs.io/reanalysis-maps/internal/domain"
)

// GridFetcher is the interface for loading the daily temperature grid
type GridFetcher interface {
	// Fetch returns the grid for a date and variant, domain.ErrNoData when
	// the date holds no valid values, or a *domain.FetchError when the
	// archive could not be read.
	Fetch(ctx context.Context, date domain.Date, variant domain.Variant) (*domain.Grid, error)
}
