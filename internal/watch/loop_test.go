package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docmatch/internal/match"
)

type fakePasses struct {
	mu sync.Mutex

	extractCounts []int // returned in order, last value repeats
	extractErr    error
	matchCount    int
	matchErr      error

	extractCalls int
	matchCalls   int
	panicOnce    bool
}

func (f *fakePasses) RunExtractionPass(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extractCalls++
	if f.panicOnce {
		f.panicOnce = false
		panic("incoming folder vanished")
	}
	if f.extractErr != nil {
		return 0, f.extractErr
	}
	idx := f.extractCalls - 1
	if idx >= len(f.extractCounts) {
		idx = len(f.extractCounts) - 1
	}
	if idx < 0 {
		return 0, nil
	}
	return f.extractCounts[idx], nil
}

func (f *fakePasses) RunMatchingPass(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matchCalls++
	return f.matchCount, f.matchErr
}

func (f *fakePasses) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.extractCalls, f.matchCalls
}

func tempMatchFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matchwith.csv")
	require.NoError(t, os.WriteFile(path, []byte("date;description;amount;total\n"), 0o644))
	return path
}

func TestRunOnceCouplesStages(t *testing.T) {
	f := &fakePasses{extractCounts: []int{2}, matchCount: 1}
	l := NewLoop(Config{IncomingDir: t.TempDir(), MatchFile: tempMatchFile(t)}, f, nil)

	extracted, matched, err := l.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, extracted)
	assert.Equal(t, 1, matched)
}

func TestRunOnceSkipsMatchingWhenNothingExtracted(t *testing.T) {
	f := &fakePasses{extractCounts: []int{0}}
	l := NewLoop(Config{IncomingDir: t.TempDir(), MatchFile: tempMatchFile(t)}, f, nil)

	extracted, matched, err := l.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, extracted)
	assert.Equal(t, 0, matched)
	_, matchCalls := f.calls()
	assert.Equal(t, 0, matchCalls)
}

func TestRunOnceSkipsMatchingWithoutTable(t *testing.T) {
	f := &fakePasses{extractCounts: []int{3}}
	l := NewLoop(Config{
		IncomingDir: t.TempDir(),
		MatchFile:   filepath.Join(t.TempDir(), "missing.csv"),
	}, f, nil)

	extracted, matched, err := l.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, extracted)
	assert.Equal(t, 0, matched)
	_, matchCalls := f.calls()
	assert.Equal(t, 0, matchCalls)
}

func TestRunStopsOnCancel(t *testing.T) {
	f := &fakePasses{extractCounts: []int{0}}
	l := NewLoop(Config{
		Interval:    10 * time.Millisecond,
		IncomingDir: t.TempDir(),
		MatchFile:   tempMatchFile(t),
	}, f, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	// let a few iterations happen, then interrupt
	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}

	extractCalls, _ := f.calls()
	assert.GreaterOrEqual(t, extractCalls, 2)
}

func TestRunSurvivesIterationFailuresAndPanics(t *testing.T) {
	f := &fakePasses{extractCounts: []int{0}, extractErr: errors.New("transient"), panicOnce: true}
	l := NewLoop(Config{
		Interval:    5 * time.Millisecond,
		IncomingDir: t.TempDir(),
		MatchFile:   tempMatchFile(t),
	}, f, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	extractCalls, _ := f.calls()
	assert.GreaterOrEqual(t, extractCalls, 3) // kept iterating past the panic and errors
}

func TestIterateTreatsMalformedTableAsSkip(t *testing.T) {
	f := &fakePasses{
		extractCounts: []int{1},
		matchErr:      match.ErrMalformedTable,
	}
	l := NewLoop(Config{IncomingDir: t.TempDir(), MatchFile: tempMatchFile(t)}, f, nil)

	// must not panic or abort; the error is absorbed at the boundary
	l.iterate(context.Background())
	_, matchCalls := f.calls()
	assert.Equal(t, 1, matchCalls)
}

func TestWatcherWakesLoopEarly(t *testing.T) {
	incoming := t.TempDir()
	f := &fakePasses{extractCounts: []int{0}}
	l := NewLoop(Config{
		Interval:    10 * time.Second, // would stall without the wakeup
		Debounce:    10 * time.Millisecond,
		IncomingDir: incoming,
		MatchFile:   tempMatchFile(t),
		AllowedExts: map[string]struct{}{"pdf": {}},
	}, f, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	// first iteration runs immediately; drop a file to trigger the second
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(incoming, "new.pdf"), []byte("%PDF"), 0o644))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if calls, _ := f.calls(); calls >= 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	calls, _ := f.calls()
	assert.GreaterOrEqual(t, calls, 2, "file event should wake the loop before the interval elapses")

	cancel()
	<-done
}
