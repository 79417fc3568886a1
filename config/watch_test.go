package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.yaml")
	if err := os.WriteFile(path, []byte("- AAPL\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w, err := NewWatcher(path, 0, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan []string, 8)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(s []string) { updates <- s }) }()

	if err := os.WriteFile(path, []byte("- AAPL\n- MSFT\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case got := <-updates:
			if len(got) == 2 && got[0] == "AAPL" && got[1] == "MSFT" {
				cancel()
				if err := <-done; err != context.Canceled {
					t.Fatalf("run returned %v, want context.Canceled", err)
				}
				return
			}
		case <-deadline:
			t.Fatalf("expected reload callback")
		}
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "symbols.yaml")
	if err := os.WriteFile(path, []byte("- AAPL\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w, err := NewWatcher(path, 0, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan []string, 1)
	go func() { _ = w.Run(ctx, func(s []string) { updates <- s }) }()

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("- MSFT\n"), 0o644); err != nil {
		t.Fatalf("write other: %v", err)
	}
	select {
	case got := <-updates:
		t.Fatalf("unexpected reload %v", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNewWatcherMissingDir(t *testing.T) {
	if _, err := NewWatcher(filepath.Join(t.TempDir(), "nope", "symbols.yaml"), 0, nil); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
