package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/docmatch/internal/config"
	"github.com/joseph-ayodele/docmatch/internal/export"
)

func main() {
	var (
		cfgPath = flag.String("config", "config.yaml", "path to the YAML config file")
		out     = flag.String("out", "", "output XLSX file path (defaults to <output folder>/matches.xlsx)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *out == "" {
		*out = filepath.Join(cfg.Folders.Output, "matches.xlsx")
	}

	svc := export.NewService(logger)
	xlsxBytes, count, err := svc.BuildMatchesXLSX(cfg.Folders.Matches)
	if err != nil {
		logger.Error("failed to build report", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		logger.Error("failed to create output folder", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("report written", "output", *out, "matches", count)
	fmt.Printf("Report written: %s (%d matches)\n", *out, count)
}
