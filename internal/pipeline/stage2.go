package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/docmatch/internal/match"
)

// RunMatchingPass asks the oracle about every artifact currently in the
// extracted folder and returns the number of accepted matches. A malformed
// reference table skips the pass (the error wraps match.ErrMalformedTable);
// per-artifact failures leave the artifact in place for a later retry.
func (o *Orchestrator) RunMatchingPass(ctx context.Context) (int, error) {
	table, err := match.LoadReferenceTable(o.cfg.MatchFilePath(), o.delim)
	if err != nil {
		return 0, err
	}
	if len(table.Rows) == 0 {
		// Present but empty: the pass runs, nothing can match, no oracle calls.
		o.logger.Warn("pipeline.match.empty_reference_table", "path", o.cfg.MatchFilePath())
		return 0, nil
	}

	entries, err := os.ReadDir(o.cfg.Folders.Extracted)
	if err != nil {
		return 0, fmt.Errorf("list extracted folder: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		if o.matchArtifact(ctx, entry.Name(), table) {
			count++
		}
	}

	if count > 0 {
		o.logger.Info("pipeline.match.pass_done", "matched", count)
	}
	return count, nil
}

// matchArtifact runs one artifact through the oracle and routes it. Returns
// true when the match was accepted and fully migrated.
func (o *Orchestrator) matchArtifact(ctx context.Context, name string, table *match.ReferenceTable) bool {
	path := filepath.Join(o.cfg.Folders.Extracted, name)

	text, err := os.ReadFile(path)
	if err != nil {
		o.logger.Error("pipeline.match.read_artifact_failed", "artifact", name, "error", err)
		return false
	}

	verdict, err := o.oracle.MatchText(ctx, string(text), table)
	if err != nil {
		// No decision: the artifact stays and is retried on a later pass.
		o.logger.Warn("pipeline.match.no_decision", "artifact", name, "error", err)
		return false
	}

	route := DecideArtifact(verdict, len(table.Rows), o.cfg.Processing.ConfidenceThreshold)
	o.logger.Info("pipeline.match.verdict",
		"artifact", name,
		"confidence", verdict.Confidence,
		"row_number", verdict.RowNumber,
		"route", route.String(),
	)
	if route != RouteToMatches {
		return false
	}

	if err := o.migrateMatch(path, name, verdict, table); err != nil {
		o.logger.Error("pipeline.match.migrate_failed", "artifact", name, "error", err)
		return false
	}
	return true
}

// migrateMatch writes the two companion artifacts and then moves the text
// artifact, as one logical unit. The artifact is moved last so the matches
// folder never holds a text file without its verdict record; on any failure
// the companions are removed best-effort and the artifact stays in extracted.
func (o *Orchestrator) migrateMatch(path, name string, verdict match.Verdict, table *match.ReferenceTable) error {
	base := strings.TrimSuffix(name, ".txt")
	recordPath := filepath.Join(o.cfg.Folders.Matches, base+"_match.json")
	rowPath := filepath.Join(o.cfg.Folders.Matches, base+"_matched_row.txt")

	record := match.NewRecord(verdict, time.Now())
	encoded, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode match record: %w", err)
	}
	if err := os.WriteFile(recordPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write match record: %w", err)
	}
	if err := os.WriteFile(rowPath, []byte(table.RawRow(record.RowNumber)), 0o644); err != nil {
		o.discard(recordPath)
		return fmt.Errorf("write matched row: %w", err)
	}
	if err := moveFile(path, filepath.Join(o.cfg.Folders.Matches, name)); err != nil {
		o.discard(recordPath)
		o.discard(rowPath)
		return fmt.Errorf("move artifact: %w", err)
	}

	o.logger.Info("pipeline.match.accepted",
		"artifact", name,
		"row_number", record.RowNumber,
		"confidence", record.Confidence,
	)
	return nil
}

func (o *Orchestrator) discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		o.logger.Warn("pipeline.match.cleanup_failed", "path", path, "error", err)
	}
}
