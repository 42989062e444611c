package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/docmatch/constants"
)

// RunExtractionPass processes every file currently in the incoming folder and
// returns the number of files whose text was successfully extracted. A single
// file failure never aborts the pass; only a missing incoming folder does.
func (o *Orchestrator) RunExtractionPass(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(o.cfg.Folders.Incoming)
	if err != nil {
		return 0, fmt.Errorf("list incoming folder: %w", err)
	}

	count := 0
	// os.ReadDir returns entries sorted by name, which keeps processing
	// order reproducible across passes over an unchanged folder.
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if o.processIncoming(ctx, entry.Name()) {
			count++
		}
	}

	if count > 0 {
		o.logger.Info("pipeline.extract.pass_done", "extracted", count, "seen", len(entries))
	}
	return count, nil
}

// processIncoming runs one source file through extraction and routing.
// Returns true when the file's text was extracted and saved.
func (o *Orchestrator) processIncoming(ctx context.Context, name string) bool {
	src := filepath.Join(o.cfg.Folders.Incoming, name)
	ext := constants.NormalizeExt(filepath.Ext(name))
	base := strings.TrimSuffix(name, filepath.Ext(name))
	kind := constants.Classify(ext, o.images, o.documents)

	var text string
	var err error
	switch kind {
	case constants.KindImage:
		text, err = o.extractor.ExtractImage(ctx, src)
	case constants.KindDocument:
		text, err = o.extractor.ExtractDocumentText(ctx, src)
	}

	if route := DecideSource(kind, err); route == RouteToErrors {
		if kind == constants.KindUnsupported {
			o.logger.Warn("pipeline.extract.unsupported_extension", "file", name, "ext", ext)
		} else {
			o.logger.Error("pipeline.extract.failed", "file", name, "kind", kind.String(), "error", err)
		}
		o.moveTo(src, o.cfg.Folders.Errors, name)
		return false
	}

	// Last extraction wins: a stale artifact from a previous run is overwritten.
	artifact := filepath.Join(o.cfg.Folders.Extracted, base+".txt")
	if err := os.WriteFile(artifact, []byte(text), 0o644); err != nil {
		// Leave the source in incoming so the already-extracted text is not
		// lost; the next pass retries the whole file.
		o.logger.Error("pipeline.extract.artifact_write_failed", "file", name, "artifact", artifact, "error", err)
		return false
	}

	o.logger.Info("pipeline.extract.ok", "file", name, "artifact", filepath.Base(artifact), "chars", len(text))
	o.moveTo(src, o.cfg.Folders.Processed, name)
	return true
}

// moveTo relocates a file and logs instead of failing: a stuck source file is
// retried on the next pass, never silently dropped.
func (o *Orchestrator) moveTo(src, dstDir, name string) {
	dst := filepath.Join(dstDir, name)
	if err := moveFile(src, dst); err != nil {
		o.logger.Error("pipeline.move_failed", "file", name, "dest", dstDir, "error", err)
		return
	}
	o.logger.Debug("pipeline.moved", "file", name, "dest", dstDir)
}
