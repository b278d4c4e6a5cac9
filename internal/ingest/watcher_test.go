package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case p, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed before %s", want)
			}
			if p == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestStartWatcher(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.pdf")
	if err := os.WriteFile(existing, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Debounce:    20 * time.Millisecond,
		SkipHidden:  true,
	}, testLogger())
	if err != nil {
		t.Fatalf("StartWatcher: %v", err)
	}

	waitFor(t, events, existing)

	added := filepath.Join(dir, "Report.PDF")
	if err := os.WriteFile(added, []byte("%PDF-1.7"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, events, added)

	cancel()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events channel not closed after cancel")
		}
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	if _, _, err := StartWatcher(context.Background(), WatchConfig{}, testLogger()); err == nil {
		t.Fatal("expected error without roots")
	}
}

func TestAllowed(t *testing.T) {
	cases := map[string]bool{
		"a.pdf":     true,
		"B.PDF":     true,
		"scan.png":  false,
		"noext":     false,
		"dir/c.pdf": true,
	}
	for path, want := range cases {
		if got := allowed(path, defaultExts); got != want {
			t.Errorf("allowed(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestIsHidden(t *testing.T) {
	if !IsHidden("/tmp/.partial.pdf") {
		t.Error("dotfile should be hidden")
	}
	if IsHidden("/tmp/report.pdf") {
		t.Error("report.pdf is not hidden")
	}
}
