// Package main provides the reanalysis maps HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"go.ngs.io/reanalysis-maps/internal/app"
	"go.ngs.io/reanalysis-maps/internal/config"
	httpHandler "go.ngs.io/reanalysis-maps/internal/http"
	"go.ngs.io/reanalysis-maps/internal/scheduler"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("reanalysis-maps version %s\n", version)
		return
	}

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

// run serves until SIGINT or SIGTERM. Cleanup runs before it returns.
func run() error {
	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.SetupLogging(nil)

	log.Info().Str("version", version).Str("port", cfg.Port).Msg("Starting reanalysis maps server")

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer a.Close()

	// Optional cache warm-up.
	sched := scheduler.New(cfg.PrewarmSchedule, a.Maps)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// Setup router.
	router := httpHandler.SetupRouter(a.Maps, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Wait for termination signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("addr", srv.Addr).Msg("Server listening")
	log.Info().Msgf("Map page: http://localhost:%s/surface", cfg.Port)
	if err := serve(ctx, srv, shutdownTimeout); err != nil {
		return err
	}

	stats := a.Cache.Stats()
	log.Info().Int("entries", stats.Entries).Int64("hits", stats.Hits).Int64("misses", stats.Misses).Msg("Shutdown complete")
	return nil
}

const shutdownTimeout = 30 * time.Second

// serve runs srv until ctx is done, then shuts it down gracefully. A listen
// failure is returned instead of exiting.
func serve(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Reanalysis Maps Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  reanalysis-maps [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                     Server port (default: 8080)")
	fmt.Println("  DATASET_URL_TEMPLATE     Yearly dataset URL or path with {year} (default: NOAA PSL THREDDS)")
	fmt.Println("  DATASET_VARIABLE         Temperature variable name (default: air)")
	fmt.Println("  EARLIEST_DATE            First selectable date (default: 1948-01-01)")
	fmt.Println("  REPORTING_LAG_DAYS       Days between today and the latest date (default: 2)")
	fmt.Println("  FONT_PATH                TTF font for map text (default: fonts/Pretendard-Bold.ttf)")
	fmt.Println("  BASEMAP_LAND_PATH        GeoJSON land polygons (optional)")
	fmt.Println("  BASEMAP_COASTLINE_PATH   GeoJSON coastlines (optional, defaults to land outlines)")
	fmt.Println("  BASEMAP_BORDERS_PATH     GeoJSON country borders (optional)")
	fmt.Println("  MAP_PROJECTION           PROJ string (default: +proj=eqc +ellps=WGS84)")
	fmt.Println("  DAP_HTTP_TIMEOUT         Timeout per DAP2 request, e.g. 60s (default: none)")
	fmt.Println("  CORS_ALLOWED_ORIGINS     Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  PREWARM_SCHEDULE         Cron expression for cache warm-up, UTC (optional)")
	fmt.Println("  LOG_LEVEL                debug, info, warn or error (default: info)")
	fmt.Println("  LOG_FORMAT               json or console (default: json)")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start server with default settings")
	fmt.Println("  reanalysis-maps")
	fmt.Println()
	fmt.Println("  # Serve a local fixture and warm the cache every morning")
	fmt.Println("  DATASET_URL_TEMPLATE=./data/air.2m.gauss.{year}.nc PREWARM_SCHEDULE='0 6 * * *' reanalysis-maps")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                       Health check")
	fmt.Println("  GET /{variant}?date=YYYY-MM-DD    Map page (surface, sea)")
	fmt.Println("  GET /v1/maps/{variant}/{date}     Map image (PNG)")
	fmt.Println("  GET /v1/grids/{variant}/{date}    Grid preview (JSON, ?values=true for values)")
	fmt.Println("  GET /v1/grids/{variant}/{date}/point?lat=..&lon=..  Interpolated value at a point (JSON)")
	fmt.Println("  GET /v1/dates                     Selectable date range")
	fmt.Println()
}
