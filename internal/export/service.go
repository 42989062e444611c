// Package export produces an XLSX summary of the matches folder from the
// verdict records the pipeline writes alongside each matched document.
package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docmatch/internal/match"
)

const matchSuffix = "_match.json"

// Service builds XLSX bytes from a matches folder.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Entry is one accepted match as read back from its artifacts.
type Entry struct {
	Base       string // artifact base name, e.g. "a" for a.txt
	Record     match.Record
	MatchedRow string // raw reference row, empty if the file is missing
}

// ListEntries reads every verdict record in matchesDir, sorted by base name.
// Unreadable records are skipped with a warning so one damaged file cannot
// block the report.
func (s *Service) ListEntries(matchesDir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(matchesDir)
	if err != nil {
		return nil, fmt.Errorf("list matches folder: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), matchSuffix) {
			continue
		}
		base := strings.TrimSuffix(de.Name(), matchSuffix)

		raw, err := os.ReadFile(filepath.Join(matchesDir, de.Name()))
		if err != nil {
			s.logger.Warn("export.record_unreadable", "file", de.Name(), "error", err)
			continue
		}
		var rec match.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			s.logger.Warn("export.record_undecodable", "file", de.Name(), "error", err)
			continue
		}

		row := ""
		if b, err := os.ReadFile(filepath.Join(matchesDir, base+"_matched_row.txt")); err == nil {
			row = strings.TrimSpace(string(b))
		}

		entries = append(entries, Entry{Base: base, Record: rec, MatchedRow: row})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Base < entries[j].Base })
	return entries, nil
}

// BuildMatchesXLSX returns an XLSX workbook (as bytes) summarizing matchesDir.
func (s *Service) BuildMatchesXLSX(matchesDir string) ([]byte, int, error) {
	start := time.Now()

	entries, err := s.ListEntries(matchesDir)
	if err != nil {
		return nil, 0, err
	}

	f := excelize.NewFile()
	const sheet = "Matches"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, 0, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defIdx, _ := f.GetSheetIndex("Sheet1"); defIdx != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Document",
		"Confidence",
		"Row",
		"Date",
		"Description",
		"Matched Row",
		"Rationale",
		"Matched At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, e := range entries {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, e.Base+".txt")
		write(2, e.Record.Confidence)
		write(3, e.Record.RowNumber)
		write(4, e.Record.Date)
		write(5, e.Record.Description)
		write(6, e.MatchedRow)
		write(7, truncate(e.Record.Rationale, 140))
		if !e.Record.MatchedAt.IsZero() {
			write(8, e.Record.MatchedAt.Format(time.RFC3339))
		}
		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 28) // document
	_ = f.SetColWidth(sheet, "B", "C", 12) // confidence, row
	_ = f.SetColWidth(sheet, "D", "D", 14) // date
	_ = f.SetColWidth(sheet, "E", "F", 42) // description, matched row
	_ = f.SetColWidth(sheet, "G", "G", 48) // rationale
	_ = f.SetColWidth(sheet, "H", "H", 22) // timestamp

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"matches_dir", matchesDir,
		"rows", len(entries),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), len(entries), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
