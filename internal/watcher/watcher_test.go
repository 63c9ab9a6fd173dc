package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/a11ytabs/internal/logging"
)

func newTestWatcher(t *testing.T, delay time.Duration) *FileWatcher {
	t.Helper()
	watcher, err := NewFileWatcher(delay, logging.NewDiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = watcher.Stop() })
	return watcher
}

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestNewFileWatcher(t *testing.T) {
	watcher := newTestWatcher(t, 100*time.Millisecond)

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)
}

func TestFileWatcherAddFilterAndHandler(t *testing.T) {
	watcher := newTestWatcher(t, 100*time.Millisecond)

	watcher.AddFilter(PathFilter("/site/index.html"))
	watcher.AddFilter(NoTempFilter)
	assert.Len(t, watcher.filters, 2)

	watcher.AddHandler(func([]ChangeEvent) error { return nil })
	assert.Len(t, watcher.handlers, 1)
}

func TestWatchFile(t *testing.T) {
	watcher := newTestWatcher(t, 100*time.Millisecond)
	dir := t.TempDir()

	assert.Error(t, watcher.WatchFile(filepath.Join(dir, "missing.html")))
	assert.Error(t, watcher.WatchFile(dir), "directories are rejected")

	page := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(page, []byte("<p>hi</p>"), 0644))
	require.NoError(t, watcher.WatchFile(page))
	require.Len(t, watcher.filters, 1)
	assert.True(t, watcher.filters[0](page))
	assert.False(t, watcher.filters[0](filepath.Join(dir, "other.html")))
}

func TestFileWatcherDeliversDebouncedChanges(t *testing.T) {
	watcher := newTestWatcher(t, 50*time.Millisecond)
	dir := t.TempDir()
	page := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(page, []byte("v0"), 0644))
	require.NoError(t, watcher.WatchFile(page))

	var (
		mu      sync.Mutex
		batches [][]ChangeEvent
	)
	watcher.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, events)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	time.Sleep(50 * time.Millisecond)

	// Unrelated files in the same directory are filtered out.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.html"), []byte("x"), 0644))
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(page, []byte("v"+string(rune('1'+i))), 0644))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) > 0
	}, 2*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, batch := range batches {
		for _, event := range batch {
			assert.Equal(t, page, event.Path)
		}
	}
	assert.Len(t, batches[0], 1, "events for one path collapse")
}

func TestDebouncerFlushDeduplicates(t *testing.T) {
	d := &Debouncer{
		delay:  time.Hour,
		events: make(chan ChangeEvent, 10),
		output: make(chan []ChangeEvent, 1),
	}
	d.addEvent(ChangeEvent{Type: EventTypeCreated, Path: "a.html"})
	d.addEvent(ChangeEvent{Type: EventTypeModified, Path: "b.html"})
	d.addEvent(ChangeEvent{Type: EventTypeModified, Path: "a.html"})
	d.timer.Stop()
	d.flush()

	events := <-d.output
	require.Len(t, events, 2)
	assert.Equal(t, "a.html", events[0].Path)
	assert.Equal(t, EventTypeModified, events[0].Type, "last event per path wins")
	assert.Equal(t, "b.html", events[1].Path)
	assert.Empty(t, d.pending)

	d.flush()
	assert.Empty(t, d.output, "empty flushes send nothing")
}

func TestFilters(t *testing.T) {
	testCases := []struct {
		name     string
		filter   FileFilter
		path     string
		expected bool
	}{
		{"target", PathFilter("/site/index.html"), "/site/index.html", true},
		{"target uncleaned", PathFilter("/site/index.html"), "/site/./index.html", true},
		{"sibling", PathFilter("/site/index.html"), "/site/other.html", false},
		{"swap file", NoTempFilter, ".page.html.swp", false},
		{"backup", NoTempFilter, "page.html~", false},
		{"emacs lock", NoTempFilter, ".#page.html", false},
		{"regular", NoTempFilter, "page.html", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.filter(tc.path))
		})
	}
}
