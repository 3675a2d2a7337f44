// Package redis is an optional store backend for setups that already
// run a Redis instance (e.g. shared between devices on a LAN). The
// default backend is the embedded sqlite store.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/readmark/readmark/internal/domain"
)

// Store handles Redis operations for the per-user collections.
type Store struct {
	client *goredis.Client
}

// NewStore creates a new Redis store.
func NewStore(client *goredis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Get returns the blob for (collection, userID), or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, collection, userID string) ([]byte, error) {
	data, err := s.client.Get(ctx, Key(collection, userID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, userID, err)
	}
	return data, nil
}

// Put stores the blob for (collection, userID). Entries do not expire:
// a reading position must survive arbitrarily long idle periods.
func (s *Store) Put(ctx context.Context, collection, userID string, data []byte) error {
	if err := s.client.Set(ctx, Key(collection, userID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", collection, userID, err)
	}
	return nil
}

// Remove deletes the blob for (collection, userID).
func (s *Store) Remove(ctx context.Context, collection, userID string) error {
	if err := s.client.Del(ctx, Key(collection, userID)).Err(); err != nil {
		return fmt.Errorf("failed to remove %s/%s: %w", collection, userID, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
