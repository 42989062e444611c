package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/joseph-ayodele/docmatch/constants"
	"github.com/joseph-ayodele/docmatch/internal/config"
	"github.com/joseph-ayodele/docmatch/internal/extract"
	"github.com/joseph-ayodele/docmatch/internal/llm"
	"github.com/joseph-ayodele/docmatch/internal/match"
	"github.com/joseph-ayodele/docmatch/internal/pipeline"
	"github.com/joseph-ayodele/docmatch/internal/watch"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to the YAML config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	// Logger
	var logger *zap.Logger
	if *debug {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()
	log := logger.Sugar()

	// Pipeline components log through slog.
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vision := llm.NewClient(llm.Config{
		Endpoint: cfg.LLM.VisionEndpoint,
		Timeout:  cfg.LLM.Timeout,
	}, nil)
	text := llm.NewClient(llm.Config{
		Endpoint: cfg.LLM.TextEndpoint,
		Timeout:  cfg.LLM.Timeout,
	}, nil)

	extractor := extract.NewExtractor(extract.Config{OCRPrompt: cfg.OCRPrompt}, vision, nil)
	oracle := match.NewOracle(text, cfg.ExtractionPrompt, nil)

	orch, err := pipeline.NewOrchestrator(cfg, extractor, oracle, nil)
	if err != nil {
		log.Fatalf("initializing pipeline: %v", err)
	}

	allowed := constants.ExtSet(cfg.Processing.ImageExtensions)
	for ext := range constants.ExtSet(cfg.Processing.PDFExtensions) {
		allowed[ext] = struct{}{}
	}

	loop := watch.NewLoop(watch.Config{
		Interval:    cfg.Processing.SleepTime,
		IncomingDir: cfg.Folders.Incoming,
		MatchFile:   cfg.MatchFilePath(),
		AllowedExts: allowed,
	}, orch, log)

	log.Infow("docmatchd starting",
		"incoming", cfg.Folders.Incoming,
		"match_file", cfg.MatchFilePath(),
		"interval", cfg.Processing.SleepTime,
		"threshold", cfg.Processing.ConfidenceThreshold,
	)

	if err := loop.Run(ctx); err != nil {
		log.Fatalf("loop: %v", err)
	}
	fmt.Println("stopped.")
}
