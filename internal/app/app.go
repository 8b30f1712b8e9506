// Package app assembles the map service from its configuration.
package app

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"go.ngs.io/reanalysis-maps/internal/adapter/opendap"
	"go.ngs.io/reanalysis-maps/internal/adapter/store/memory"
	"go.ngs.io/reanalysis-maps/internal/basemap"
	"go.ngs.io/reanalysis-maps/internal/config"
	"go.ngs.io/reanalysis-maps/internal/domain"
	"go.ngs.io/reanalysis-maps/internal/render"
	"go.ngs.io/reanalysis-maps/internal/usecase"
)

// App holds the wired components.
type App struct {
	Maps       *usecase.MapUseCase
	Cache      *memory.GridCache
	Projection *render.Projection
}

// New builds the fetch, cache and render pipeline.
func New(cfg *config.Config) (*App, error) {
	// libnetcdf first; the pure-Go DAP2 client is the fallback.
	dapClient := &http.Client{Timeout: cfg.DAPTimeout}
	fetcher := usecase.NewFetcher(usecase.FetcherConfig{
		URLTemplate: cfg.URLTemplate,
		Variable:    cfg.Variable,
		Window:      domain.KoreaWindow,
	}, opendap.NewNetCDFBackend(), opendap.NewDAP2Backend(dapClient))
	cache := memory.NewGridCache(fetcher)

	bm, err := basemap.Load(cfg.Basemap, domain.KoreaWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load basemap: %w", err)
	}

	proj, err := render.NewProjection(cfg.Projection)
	if err != nil {
		return nil, err
	}

	renderCfg := render.DefaultConfig()
	renderCfg.FontPath = cfg.FontPath
	renderer, err := render.NewRenderer(renderCfg, proj, bm)
	if err != nil {
		proj.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	log.Info().
		Str("url_template", cfg.URLTemplate).
		Str("variable", cfg.Variable).
		Str("projection", proj.ID()).
		Str("earliest", cfg.Dates.Earliest.String()).
		Int("lag_days", cfg.Dates.Lag).
		Msg("Map pipeline initialized")

	return &App{
		Maps:       usecase.NewMapUseCase(cache, renderer, cfg.Dates),
		Cache:      cache,
		Projection: proj,
	}, nil
}

// Close releases the projection.
func (a *App) Close() {
	a.Projection.Close()
}
