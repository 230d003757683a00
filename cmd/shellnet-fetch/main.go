package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/registryintel/shellnet/pkg/entity"
	"github.com/registryintel/shellnet/pkg/logging"
	"github.com/registryintel/shellnet/pkg/metrics"
	"github.com/registryintel/shellnet/pkg/registry"
)

func main() {
	year := flag.Int("year", time.Now().Year(), "Incorporation year to sample")
	size := flag.Int("size", 100, "Number of companies to fetch")
	outputFile := flag.String("output", "bundles.json", "Output path for company bundles JSON")
	company := flag.String("company", "", "Fetch one company number instead of sampling")
	timeout := flag.Duration("timeout", 10*time.Minute, "Overall fetch deadline")
	flag.Parse()

	slogger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	apiKey := os.Getenv("COMPANIES_HOUSE_API_KEY")
	if apiKey == "" {
		slogger.Error("COMPANIES_HOUSE_API_KEY environment variable not set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := registry.NewClient(apiKey,
		registry.WithLogger(logging.NewDefaultLogger()),
		registry.WithTelemetry(metrics.DefaultRegistry()),
	)

	var bundles []entity.Bundle
	var err error
	if *company != "" {
		var b *entity.Bundle
		b, err = client.CompleteCompanyData(ctx, *company)
		if b != nil {
			bundles = []entity.Bundle{*b}
		}
	} else {
		slogger.Info("sampling companies", "year", *year, "size", *size)
		bundles, err = client.SampleByYear(ctx, *year, *size)
	}
	if err != nil {
		slogger.Error("fetch failed", "error", err)
		os.Exit(1)
	}

	kept := bundles[:0]
	for i := range bundles {
		if err := entity.ValidateBundle(&bundles[i]); err != nil {
			slogger.Warn("skipping invalid bundle",
				"company", bundles[i].CompanyNumber(), "error", err)
			continue
		}
		kept = append(kept, bundles[i])
	}

	if err := writeBundles(*outputFile, kept); err != nil {
		slogger.Error("failed to write bundles", "path", *outputFile, "error", err)
		os.Exit(1)
	}
	slogger.Info("bundles written", "path", *outputFile, "count", len(kept))
	fmt.Fprintf(os.Stderr, "wrote %d bundles to %s\n", len(kept), *outputFile)
}

func writeBundles(path string, bundles []entity.Bundle) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(bundles)
}
