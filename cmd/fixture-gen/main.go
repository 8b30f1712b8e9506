// Command fixture-gen writes synthetic air.2m.gauss.{year}.nc files for
// local development. Point DATASET_URL_TEMPLATE at the output directory to
// serve them.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"go.ngs.io/reanalysis-maps/internal/fixture"
)

func main() {
	outDir := flag.String("out", "./data", "Output directory for NetCDF files")
	years := flag.String("years", strconv.Itoa(time.Now().UTC().Year()), "Comma-separated years to generate")
	days := flag.Int("days", 0, "Days per file from January 1 (0 = whole year)")
	missing := flag.String("missing-days", "", "Comma-separated days of year written as missing")
	flag.Parse()

	missingDays, err := parseInts(*missing)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -missing-days")
	}
	yearList, err := parseInts(*years)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -years")
	}

	// Create output directory
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create output directory")
	}

	for _, year := range yearList {
		path := filepath.Join(*outDir, fmt.Sprintf("air.2m.gauss.%d.nc", year))
		opts := fixture.Options{Year: year, Days: *days, MissingDays: missingDays}
		if err := fixture.Write(path, opts); err != nil {
			log.Error().Err(err).Int("year", year).Msg("Failed to generate fixture")
			continue
		}
		g := fixture.NewGrid(opts)
		log.Info().
			Str("path", path).
			Int("days", len(g.Hours)).
			Int("lat", len(g.Lat)).
			Int("lon", len(g.Lon)).
			Msg("Generated fixture")
	}

	abs, _ := filepath.Abs(*outDir)
	log.Info().Msgf("Serve with DATASET_URL_TEMPLATE=%s", filepath.Join(abs, "air.2m.gauss.{year}.nc"))
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
