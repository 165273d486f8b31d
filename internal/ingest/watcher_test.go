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

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-ch:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, discardLogger())
	if err == nil {
		t.Fatal("expected error for empty roots")
	}
}

func TestWatcherEmitsDroppedTextFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}}, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "invoice.txt")
	if err := os.WriteFile(path, []byte("Invoice Number\n0000085"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, events, path)
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}}, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "scan.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	wanted := filepath.Join(dir, "wanted.txt")
	if err := os.WriteFile(wanted, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	// The pdf never surfaces; the next emission is the txt file.
	select {
	case got := <-events:
		if got != wanted {
			t.Fatalf("got %q, want %q", got, wanted)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for txt file")
	}
}

func TestWatcherInitialScan(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "backlog.txt")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}, InitialScan: true}, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, events, existing)
}

func TestWatcherDebounceCoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:    []string{dir},
		Debounce: 100 * time.Millisecond,
	}, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "invoice.txt")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("chunk"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	waitFor(t, events, path)

	// The burst was coalesced: quiet channel shortly after.
	select {
	case got := <-events:
		t.Fatalf("unexpected duplicate emission %q", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}}, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, open := <-events:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("event channel not closed after cancel")
		}
	}
}
