package scheduler

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/readmark/readmark/internal/catalog"
	"github.com/readmark/readmark/internal/domain"
	"github.com/readmark/readmark/internal/logger"
	"github.com/readmark/readmark/internal/session"
	"github.com/readmark/readmark/internal/store/memory"
)

type noopRecorder struct{}

func (noopRecorder) RecordProgress(userID string, bookmark domain.ReadingBookmark) {}

func (noopRecorder) Flush(ctx context.Context, userID, contentID string) error { return nil }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestSessionReaper_Reap(t *testing.T) {
	log := logger.New("error", false)
	reg := session.NewRegistry(noopRecorder{}, memory.New(), log)

	entry := catalog.Entry{ID: "one-piece-1088", Title: "One Piece 1088", Pages: 20}
	if _, _, err := reg.Open(context.Background(), "reader-1", entry, session.Config{}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	// Nothing is idle yet under a generous threshold.
	sr := NewSessionReaper(reg, log, time.Hour, time.Hour)
	if closed := sr.Reap(context.Background()); closed != 0 {
		t.Errorf("Reap closed %d sessions, want 0", closed)
	}
	if reg.Count() != 1 {
		t.Fatalf("Expected 1 open session, got %d", reg.Count())
	}

	// With a tiny threshold the same session counts as idle.
	time.Sleep(20 * time.Millisecond)
	sr = NewSessionReaper(reg, log, time.Hour, 5*time.Millisecond)
	if closed := sr.Reap(context.Background()); closed != 1 {
		t.Errorf("Reap closed %d sessions, want 1", closed)
	}
	if reg.Count() != 0 {
		t.Errorf("Expected 0 open sessions after reap, got %d", reg.Count())
	}
}

func TestSessionReaper_DefaultThreshold(t *testing.T) {
	log := logger.New("error", false)
	reg := session.NewRegistry(noopRecorder{}, memory.New(), log)

	sr := NewSessionReaper(reg, log, time.Hour, 0)
	if sr.threshold != DefaultIdleThreshold {
		t.Errorf("threshold = %v, want %v", sr.threshold, DefaultIdleThreshold)
	}
}

func TestCatalogReloader_Reload(t *testing.T) {
	log := logger.New("error", false)

	dir := t.TempDir()
	path := dir + "/catalog.yaml"
	writeFile(t, path, `content:
  - id: one-piece-1088
    title: One Piece 1088
    pages: 20
  - id: berserk-364
    title: Berserk 364
    pages: 48
    vertical: true
`)

	cat := catalog.New(path)
	cr := NewCatalogReloader(cat, log, time.Hour, make(chan struct{}, 1))

	if err := cr.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if cat.Count() != 2 {
		t.Errorf("Expected 2 entries, got %d", cat.Count())
	}

	// A reload picks up edits to the file.
	writeFile(t, path, `content:
  - id: one-piece-1089
    title: One Piece 1089
    pages: 18
`)
	if err := cr.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if cat.Count() != 1 {
		t.Errorf("Expected 1 entry after reload, got %d", cat.Count())
	}
	if _, ok := cat.Get("one-piece-1089"); !ok {
		t.Error("New entry missing after reload")
	}
	if _, ok := cat.Get("one-piece-1088"); ok {
		t.Error("Stale entry survived reload")
	}
}

func TestCatalogReloader_MissingFile(t *testing.T) {
	log := logger.New("error", false)
	cat := catalog.New(t.TempDir() + "/nope.yaml")
	cr := NewCatalogReloader(cat, log, time.Hour, make(chan struct{}, 1))

	if err := cr.Reload(); err == nil {
		t.Error("Expected error for missing catalog file")
	}
}
