// Package store defines the per-user, per-collection key-value
// contract the sync engine persists through. Values are opaque JSON
// blobs; typed accessors live alongside the interface so backends stay
// codec-free.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/readmark/readmark/internal/domain"
)

// Collections used by the core engine.
const (
	CollectionBookmarks = "bookmarks"
	CollectionFollows   = "follows"
	CollectionReads     = "reads"

	// CollectionUserData holds a single UserProfile record per user.
	CollectionUserData = "user_data"
)

// Store is a per-user, per-collection blob store. There are no
// cross-user queries. Get returns domain.ErrNotFound when nothing has
// been written for the key; that is a normal outcome.
//
// A Store is safe for sequential access only. Callers serialize writes
// to the same (collection, userID) pair through the debounce/flush
// layer; no backend is required to tolerate concurrent writes to one
// key.
type Store interface {
	Get(ctx context.Context, collection, userID string) ([]byte, error)
	Put(ctx context.Context, collection, userID string, data []byte) error
	Remove(ctx context.Context, collection, userID string) error
	Close() error
}

// Bookmarks returns the user's bookmark list, empty if none stored.
func Bookmarks(ctx context.Context, s Store, userID string) ([]domain.ReadingBookmark, error) {
	data, err := s.Get(ctx, CollectionBookmarks, userID)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	var bookmarks []domain.ReadingBookmark
	if err := json.Unmarshal(data, &bookmarks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookmarks: %w", err)
	}
	return bookmarks, nil
}

// PutBookmarks replaces the user's bookmark list.
func PutBookmarks(ctx context.Context, s Store, userID string, bookmarks []domain.ReadingBookmark) error {
	data, err := json.Marshal(bookmarks)
	if err != nil {
		return fmt.Errorf("failed to marshal bookmarks: %w", err)
	}
	return s.Put(ctx, CollectionBookmarks, userID, data)
}

// Follows returns the user's follow list, empty if none stored.
func Follows(ctx context.Context, s Store, userID string) ([]domain.FollowedSeries, error) {
	data, err := s.Get(ctx, CollectionFollows, userID)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	var follows []domain.FollowedSeries
	if err := json.Unmarshal(data, &follows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal follows: %w", err)
	}
	return follows, nil
}

// PutFollows replaces the user's follow list.
func PutFollows(ctx context.Context, s Store, userID string, follows []domain.FollowedSeries) error {
	data, err := json.Marshal(follows)
	if err != nil {
		return fmt.Errorf("failed to marshal follows: %w", err)
	}
	return s.Put(ctx, CollectionFollows, userID, data)
}

// Reads returns the user's read-history list, empty if none stored.
func Reads(ctx context.Context, s Store, userID string) ([]domain.ReadEntry, error) {
	data, err := s.Get(ctx, CollectionReads, userID)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	var reads []domain.ReadEntry
	if err := json.Unmarshal(data, &reads); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reads: %w", err)
	}
	return reads, nil
}

// PutReads replaces the user's read-history list.
func PutReads(ctx context.Context, s Store, userID string, reads []domain.ReadEntry) error {
	data, err := json.Marshal(reads)
	if err != nil {
		return fmt.Errorf("failed to marshal reads: %w", err)
	}
	return s.Put(ctx, CollectionReads, userID, data)
}

// Profile returns the stored UserProfile, or domain.ErrNotFound.
func Profile(ctx context.Context, s Store, userID string) (*domain.UserProfile, error) {
	data, err := s.Get(ctx, CollectionUserData, userID)
	if err != nil {
		return nil, err
	}
	var profile domain.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

// PutProfile stores the UserProfile.
func PutProfile(ctx context.Context, s Store, profile *domain.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	return s.Put(ctx, CollectionUserData, profile.ID, data)
}
