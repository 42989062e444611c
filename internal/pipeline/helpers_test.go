package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docmatch/internal/config"
	"github.com/joseph-ayodele/docmatch/internal/match"
)

// fakeExtractor returns canned text keyed by base file name, or an error for
// names listed in fail.
type fakeExtractor struct {
	texts map[string]string
	fail  map[string]error

	imageCalls []string
	docCalls   []string
}

func (f *fakeExtractor) extract(path string) (string, error) {
	name := filepath.Base(path)
	if err, ok := f.fail[name]; ok {
		return "", err
	}
	if text, ok := f.texts[name]; ok {
		return text, nil
	}
	return "", fmt.Errorf("no canned text for %s", name)
}

func (f *fakeExtractor) ExtractImage(_ context.Context, path string) (string, error) {
	f.imageCalls = append(f.imageCalls, filepath.Base(path))
	return f.extract(path)
}

func (f *fakeExtractor) ExtractDocumentText(_ context.Context, path string) (string, error) {
	f.docCalls = append(f.docCalls, filepath.Base(path))
	return f.extract(path)
}

// fakeOracle returns a canned verdict keyed by artifact text, or err for all.
type fakeOracle struct {
	verdicts map[string]match.Verdict
	err      error
	calls    int
}

func (f *fakeOracle) MatchText(_ context.Context, text string, _ *match.ReferenceTable) (match.Verdict, error) {
	f.calls++
	if f.err != nil {
		return match.Verdict{}, f.err
	}
	if v, ok := f.verdicts[text]; ok {
		return v, nil
	}
	return match.Verdict{}, fmt.Errorf("no canned verdict for %q", text)
}

func intPtr(n int) *int { return &n }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg, err := config.Load(filepath.Join(root, "no-config.yaml"))
	require.NoError(t, err)
	cfg.Folders.Incoming = filepath.Join(root, "incoming")
	cfg.Folders.Extracted = filepath.Join(root, "extracted")
	cfg.Folders.Processed = filepath.Join(root, "processed")
	cfg.Folders.Matches = filepath.Join(root, "matches")
	cfg.Folders.Errors = filepath.Join(root, "errors")
	cfg.Folders.Output = filepath.Join(root, "output")
	cfg.Processing.MatchFile = filepath.Join(root, "matchwith.csv")
	return cfg
}

func newTestOrchestrator(t *testing.T, cfg *config.Config, ex Extractor, or Oracle) *Orchestrator {
	t.Helper()
	orch, err := NewOrchestrator(cfg, ex, or, nil)
	require.NoError(t, err)
	return orch
}

func writeIncoming(t *testing.T, cfg *config.Config, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(cfg.Folders.Incoming, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Folders.Incoming, name), []byte(content), 0o644))
}

func writeExtracted(t *testing.T, cfg *config.Config, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(cfg.Folders.Extracted, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Folders.Extracted, name), []byte(content), 0o644))
}

func writeMatchFile(t *testing.T, cfg *config.Config, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(cfg.Processing.MatchFile, []byte(content), 0o644))
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
