package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/registryintel/shellnet/pkg/analytics"
	"github.com/registryintel/shellnet/pkg/config"
	"github.com/registryintel/shellnet/pkg/entity"
	"github.com/registryintel/shellnet/pkg/graph"
	"github.com/registryintel/shellnet/pkg/logging"
	"github.com/registryintel/shellnet/pkg/metrics"
	"github.com/registryintel/shellnet/pkg/patterns"
	"github.com/registryintel/shellnet/pkg/report"
)

func main() {
	inputFile := flag.String("input", "", "Path to company bundles JSON (array of bundles)")
	configFile := flag.String("config", "", "Path to YAML config (defaults used when empty)")
	reportFile := flag.String("report", "", "Write the text report to this file (stdout when empty)")
	jsonFile := flag.String("json", "", "Write the full JSON results to this file")
	threshold := flag.Float64("threshold", 0, "Risk threshold override (0 keeps the configured value)")
	strict := flag.Bool("strict", false, "Abort on any component failure instead of degrading")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	if *inputFile == "" {
		fmt.Println("Usage: shellnet --input bundles.json [--config shellnet.yaml] [--report report.txt] [--json results.json]")
		os.Exit(1)
	}

	slogger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel(*logLevel),
	}))

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			slogger.Error("failed to load config", "path", *configFile, "error", err)
			os.Exit(1)
		}
	}
	if *threshold > 0 {
		cfg.RiskThreshold = *threshold
	}
	if *strict {
		cfg.Strict = true
	}

	bundles, err := loadBundles(*inputFile)
	if err != nil {
		slogger.Error("failed to load bundles", "path", *inputFile, "error", err)
		os.Exit(1)
	}
	slogger.Info("loaded company bundles", "path", *inputFile, "count", len(bundles))

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(*logLevel))
	telemetry := metrics.DefaultRegistry()

	g := graph.NewBuilder(graph.BuilderOptions{
		MaxGroupSize: cfg.MaxGroupSize,
		Logger:       logger,
	}).Build(bundles)
	stats := g.GetStatistics()
	slogger.Info("relationship graph built",
		"nodes", stats.NodeCount,
		"edges", stats.EdgeCount,
		"density", stats.Density)

	analyzer := analytics.NewNetworkAnalyzer(g, cfg, logger, telemetry)
	m, err := analyzer.CalculateNetworkMetrics(context.Background())
	if err != nil {
		slogger.Error("analysis failed", "error", err)
		os.Exit(1)
	}
	for component, cerr := range m.ComponentErrors {
		slogger.Warn("analysis component degraded", "component", component, "error", cerr)
	}

	ranked := analytics.GetHighRiskEntities(m, cfg.RiskThreshold)
	telemetry.SetHighRiskEntities(len(ranked))

	shellPatterns := patterns.Run(g, patterns.DefaultShellDetectors()...)
	ukAnalysis := (&patterns.UKComplianceAnalyzer{}).Analyze(g)

	rep := report.Build(report.Input{
		Metrics:       m,
		Ranked:        ranked,
		ShellPatterns: shellPatterns,
		UKAnalysis:    ukAnalysis,
		Statistics:    stats,
		RiskThreshold: cfg.RiskThreshold,
	})

	if err := writeReport(rep, *reportFile, *jsonFile); err != nil {
		slogger.Error("failed to write report", "error", err)
		os.Exit(1)
	}
	slogger.Info("analysis complete",
		"run_id", m.RunID,
		"high_risk_entities", len(ranked),
		"risk_patterns", len(m.RiskPatterns),
		"conditions", m.Conditions)
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadBundles(path string) ([]entity.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var bundles []entity.Bundle
	if err := json.Unmarshal(data, &bundles); err != nil {
		return nil, fmt.Errorf("parse bundles: %w", err)
	}
	return bundles, nil
}

func writeReport(rep *report.Report, reportFile, jsonFile string) error {
	text := rep.RenderText()
	if reportFile == "" {
		fmt.Print(text)
	} else if err := os.WriteFile(reportFile, []byte(text), 0o644); err != nil {
		return err
	}

	if jsonFile != "" {
		f, err := os.Create(jsonFile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := rep.WriteJSON(f); err != nil {
			return err
		}
	}
	return nil
}
