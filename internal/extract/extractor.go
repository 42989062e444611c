// Package extract maps source files to extracted text. PDFs go through their
// embedded text layer via pdftotext; images go through a vision model.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/docmatch/internal/llm"
)

// TextGenerator is the slice of the LLM client the extractor depends on.
type TextGenerator interface {
	GenerateText(ctx context.Context, req llm.GenerateRequest) (string, error)
}

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	OCRPrompt string // prompt sent with each image
}

type Extractor struct {
	cfg    Config
	runner Runner
	vision TextGenerator
	logger *slog.Logger
}

func NewExtractor(cfg Config, vision TextGenerator, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.OCRPrompt == "" {
		cfg.OCRPrompt = "Please transcribe all visible text in this image."
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, vision: vision, logger: logger}
}

// ExtractDocumentText pulls the embedded text layer out of a PDF. Embedded
// raster content is ignored; an empty text layer is a failure.
func (e *Extractor) ExtractDocumentText(ctx context.Context, path string) (string, error) {
	start := time.Now()

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		e.logger.Error("extract.pdf.failed", "path", path, "error", err, "stderr", truncate(string(errb), 512))
		return "", fmt.Errorf("pdftotext: %w", err)
	}

	text := strings.TrimSpace(string(out))
	if text == "" {
		e.logger.Warn("extract.pdf.empty_text_layer", "path", path)
		return "", fmt.Errorf("empty text layer in %s", path)
	}

	pages := 1 + strings.Count(string(out), "\f")
	e.logger.Info("extract.pdf.ok",
		"path", path,
		"pages", pages,
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// ExtractImage transcribes an image through the vision endpoint.
func (e *Extractor) ExtractImage(ctx context.Context, path string) (string, error) {
	start := time.Now()

	dataURL, mt, err := llm.ReadAsDataURL(path)
	if err != nil {
		e.logger.Error("extract.image.read_failed", "path", path, "error", err)
		return "", fmt.Errorf("read image: %w", err)
	}

	text, err := e.vision.GenerateText(ctx, llm.GenerateRequest{
		Prompt:       e.cfg.OCRPrompt,
		ImageDataURL: dataURL,
		Temperature:  0.1,
	})
	if err != nil {
		e.logger.Error("extract.image.failed", "path", path, "mime", mt, "error", err)
		return "", fmt.Errorf("vision ocr: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		e.logger.Warn("extract.image.empty_response", "path", path)
		return "", fmt.Errorf("vision model returned no text for %s", path)
	}

	e.logger.Info("extract.image.ok",
		"path", path,
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
