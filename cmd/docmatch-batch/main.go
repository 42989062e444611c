package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/docmatch/internal/config"
	"github.com/joseph-ayodele/docmatch/internal/extract"
	"github.com/joseph-ayodele/docmatch/internal/llm"
	"github.com/joseph-ayodele/docmatch/internal/match"
	"github.com/joseph-ayodele/docmatch/internal/pipeline"
	"github.com/joseph-ayodele/docmatch/internal/watch"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		cfgPath   = flag.String("config", "config.yaml", "path to the YAML config file")
		incoming  = flag.String("incoming", "", "incoming folder (overrides config)")
		matchFile = flag.String("match-file", "", "reference table CSV (overrides config)")
		debug     = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	// Setup logger
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		printError("Error: loading config: %v\n", err)
		os.Exit(1)
	}
	if *incoming != "" {
		cfg.Folders.Incoming = *incoming
	}
	if *matchFile != "" {
		cfg.Processing.MatchFile = *matchFile
	}

	ctx := context.Background()

	vision := llm.NewClient(llm.Config{
		Endpoint: cfg.LLM.VisionEndpoint,
		Timeout:  cfg.LLM.Timeout,
	}, logger)
	text := llm.NewClient(llm.Config{
		Endpoint: cfg.LLM.TextEndpoint,
		Timeout:  cfg.LLM.Timeout,
	}, logger)

	extractor := extract.NewExtractor(extract.Config{OCRPrompt: cfg.OCRPrompt}, vision, logger)
	oracle := match.NewOracle(text, cfg.ExtractionPrompt, logger)

	orch, err := pipeline.NewOrchestrator(cfg, extractor, oracle, logger)
	if err != nil {
		logger.Error("failed to initialize pipeline", "error", err)
		os.Exit(1)
	}

	loop := watch.NewLoop(watch.Config{
		IncomingDir: cfg.Folders.Incoming,
		MatchFile:   cfg.MatchFilePath(),
	}, orch, nil)

	logger.Info("starting batch pass",
		"incoming", cfg.Folders.Incoming,
		"match_file", cfg.MatchFilePath())

	extracted, matched, err := loop.RunOnce(ctx)
	if err != nil {
		logger.Error("batch pass failed", "error", err)
		os.Exit(1)
	}

	// Log summary
	logger.Info("batch pass complete",
		"documents_extracted", extracted,
		"documents_matched", matched)

	fmt.Printf("Batch pass complete!\n")
	fmt.Printf("- Documents extracted: %d\n", extracted)
	fmt.Printf("- Documents matched: %d\n", matched)
}
