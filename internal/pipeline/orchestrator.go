// Package pipeline is the two-stage batch orchestrator: Stage 1 drains the
// incoming folder into extracted text artifacts, Stage 2 reconciles artifacts
// against the reference table through the matching oracle.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/docmatch/constants"
	"github.com/joseph-ayodele/docmatch/internal/config"
	"github.com/joseph-ayodele/docmatch/internal/match"
)

// Extractor is the extraction adapter contract.
type Extractor interface {
	ExtractImage(ctx context.Context, path string) (string, error)
	ExtractDocumentText(ctx context.Context, path string) (string, error)
}

// Oracle is the matching adapter contract.
type Oracle interface {
	MatchText(ctx context.Context, text string, table *match.ReferenceTable) (match.Verdict, error)
}

// Orchestrator owns no long-lived entities; its job is to keep the folder
// state consistent, one file transition at a time.
type Orchestrator struct {
	cfg       *config.Config
	extractor Extractor
	oracle    Oracle
	logger    *slog.Logger

	images    map[string]struct{}
	documents map[string]struct{}
	delim     rune
}

func NewOrchestrator(cfg *config.Config, extractor Extractor, oracle Oracle, logger *slog.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, dir := range cfg.FolderPaths() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create folder %s: %w", dir, err)
		}
	}
	// Hand-built configs may skip config.Load's validation.
	delim := ';'
	if cfg.Processing.CSVDelimiter != "" {
		delim = rune(cfg.Processing.CSVDelimiter[0])
	}
	return &Orchestrator{
		cfg:       cfg,
		extractor: extractor,
		oracle:    oracle,
		logger:    logger,
		images:    constants.ExtSet(cfg.Processing.ImageExtensions),
		documents: constants.ExtSet(cfg.Processing.PDFExtensions),
		delim:     delim,
	}, nil
}

// ReferenceTableExists reports whether the configured reference table file is
// present; it gates the matching pass together with the extraction count.
func (o *Orchestrator) ReferenceTableExists() bool {
	st, err := os.Stat(o.cfg.MatchFilePath())
	return err == nil && !st.IsDir()
}
