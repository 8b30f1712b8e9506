// Command render-map fetches one day's grid and writes its map as PNG.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"

	"go.ngs.io/reanalysis-maps/internal/app"
	"go.ngs.io/reanalysis-maps/internal/config"
	"go.ngs.io/reanalysis-maps/internal/domain"
	"go.ngs.io/reanalysis-maps/internal/usecase"
)

func main() {
	dateStr := flag.String("date", "", "Date to render, YYYY-MM-DD (default: today minus the reporting lag)")
	variantName := flag.String("variant", "surface", "Variant: surface or sea")
	out := flag.String("out", "", "Output PNG path (default: <variant>_<date>.png)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	cfg.SetupLogging(os.Stderr)

	variant, err := domain.VariantByName(*variantName)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid variant")
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer a.Close()

	date := a.Maps.DefaultDate()
	if *dateStr != "" {
		if date, err = domain.ParseDate(*dateStr); err != nil {
			log.Fatal().Err(err).Msg("Invalid date")
		}
	}
	if *out == "" {
		*out = fmt.Sprintf("%s_%s.png", variant.Name, date)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, a.Maps, usecase.MapRequest{Date: date, Variant: variant}, *out); err != nil {
		log.Fatal().Err(err).Msg("Failed to render map")
	}
}

func run(ctx context.Context, maps *usecase.MapUseCase, req usecase.MapRequest, out string) error {
	preview, err := maps.Preview(ctx, req, false)
	if err != nil {
		var fe *domain.FetchError
		if errors.As(err, &fe) {
			fmt.Fprintln(os.Stderr, fe.Hint())
		}
		return err
	}

	fig, err := maps.Render(ctx, req)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if _, err := fig.WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Println(preview.Heading)
	fmt.Println(preview.Caption)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(preview.Summary); err != nil {
		return err
	}
	log.Info().Str("path", out).Msg("Map written")
	return nil
}
