package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/readmark/readmark/internal/domain"
	"github.com/readmark/readmark/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), store.CollectionBookmarks, "user-1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get() on empty store = %v, want ErrNotFound", err)
	}
}

func TestPutGetRemove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, store.CollectionBookmarks, "user-1", []byte(`[{"id":"c1"}]`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := s.Get(ctx, store.CollectionBookmarks, "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `[{"id":"c1"}]` {
		t.Errorf("Get() = %s", got)
	}

	if err := s.Remove(ctx, store.CollectionBookmarks, "user-1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := s.Get(ctx, store.CollectionBookmarks, "user-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get() after Remove = %v, want ErrNotFound", err)
	}
	if err := s.Remove(ctx, store.CollectionBookmarks, "user-1"); err != nil {
		t.Errorf("removing a missing key = %v, want nil", err)
	}
}

func TestPutReplacesExistingValue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, store.CollectionFollows, "user-1", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, store.CollectionFollows, "user-1", []byte("v2")); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, store.CollectionFollows, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v2" {
		t.Errorf("Get() after upsert = %s, want v2", got)
	}
}

func TestDataSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, store.CollectionReads, "user-1", []byte("kept")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := s2.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	}()

	got, err := s2.Get(ctx, store.CollectionReads, "user-1")
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if string(got) != "kept" {
		t.Errorf("Get() after reopen = %s, want kept", got)
	}
}

func TestTypedHelpersRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bookmarks := []domain.ReadingBookmark{
		{ID: "c1", Title: "Chapter 1", CurrentPage: 4, TotalPages: 20, Timestamp: 1234},
	}
	if err := store.PutBookmarks(ctx, s, "user-1", bookmarks); err != nil {
		t.Fatalf("PutBookmarks() error = %v", err)
	}

	got, err := store.Bookmarks(ctx, s, "user-1")
	if err != nil {
		t.Fatalf("Bookmarks() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "c1" || got[0].CurrentPage != 4 {
		t.Errorf("Bookmarks() = %+v", got)
	}

	// Absent lists come back empty, not as errors.
	follows, err := store.Follows(ctx, s, "user-1")
	if err != nil {
		t.Fatalf("Follows() error = %v", err)
	}
	if len(follows) != 0 {
		t.Errorf("Follows() = %+v, want empty", follows)
	}
}
