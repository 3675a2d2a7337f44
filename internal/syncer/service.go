// Package syncer persists reading progress: debounced writes into the
// local store, plus a best-effort consolidated backup push to the
// remote when a valid credential exists.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/readmark/readmark/internal/domain"
	"github.com/readmark/readmark/internal/logger"
	"github.com/readmark/readmark/internal/store"
)

// DefaultQuietWindow is the debounce window: rapid progress updates
// for one content id coalesce until this much silence has passed.
const DefaultQuietWindow = 5 * time.Second

// CommitTimeout bounds one commit (store write + backup push).
const CommitTimeout = 10 * time.Second

// CredentialChecker reports whether a usable credential exists,
// refreshing it if needed. Implemented by the token manager.
type CredentialChecker interface {
	IsValid(ctx context.Context) bool
}

// BackupSink receives consolidated snapshots. Implemented by the
// remote client (HTTP) and the S3 sink.
type BackupSink interface {
	PushBackup(ctx context.Context, userID string, snap domain.BackupSnapshot) error
}

// Service debounces and commits bookmark writes. One pending task
// exists per (user, content id); a task owns its cancel handle, so a
// flush or session close can replace the timer with an immediate
// commit.
type Service struct {
	store  store.Store
	creds  CredentialChecker
	backup BackupSink // nil disables backup pushes
	log    logger.Logger
	clock  Clock
	window time.Duration

	mu      sync.Mutex
	pending map[string]*task
}

// task is the debounce state for one (user, content id).
type task struct {
	userID   string
	timer    Timer
	latest   domain.ReadingBookmark
	inFlight bool
	done     chan struct{}           // non-nil while a commit is in flight; closed when it lands
	queued   *domain.ReadingBookmark // arrived while a commit was in flight
	lastSeen int64                   // highest committed-or-pending timestamp
}

// Option tweaks Service construction.
type Option func(*Service)

// WithClock swaps the wall clock for a test clock.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithQuietWindow overrides the debounce window.
func WithQuietWindow(d time.Duration) Option {
	return func(s *Service) { s.window = d }
}

// New creates the synchronization service.
func New(st store.Store, creds CredentialChecker, backup BackupSink, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:   st,
		creds:   creds,
		backup:  backup,
		log:     log,
		clock:   RealClock(),
		window:  DefaultQuietWindow,
		pending: make(map[string]*task),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func taskKey(userID, contentID string) string {
	return userID + "/" + contentID
}

// RecordProgress schedules a debounced commit of the bookmark. Calls
// within the quiet window coalesce to the latest value; only the last
// one is committed. Without an authenticated user the call is a no-op.
func (s *Service) RecordProgress(userID string, bookmark domain.ReadingBookmark) {
	if userID == "" {
		s.log.Debug("skipping progress record, no authenticated user",
			logger.String("content_id", bookmark.ID))
		return
	}
	bookmark.Clamp()

	s.mu.Lock()
	defer s.mu.Unlock()

	key := taskKey(userID, bookmark.ID)
	t, ok := s.pending[key]
	if !ok {
		t = &task{userID: userID}
		s.pending[key] = t
	}

	// Timestamps never go backwards for one content id in one session.
	if bookmark.Timestamp == 0 {
		bookmark.Timestamp = s.clock.Now().UnixMilli()
	}
	if bookmark.Timestamp < t.lastSeen {
		bookmark.Timestamp = t.lastSeen
	}
	t.lastSeen = bookmark.Timestamp

	if t.inFlight {
		// A commit is running; park the value for the next window
		// instead of racing the in-flight write.
		t.queued = &bookmark
		return
	}

	t.latest = bookmark
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = s.clock.AfterFunc(s.window, func() { s.fire(key) })
}

// fire runs when a quiet window elapses.
func (s *Service) fire(key string) {
	s.mu.Lock()
	t, ok := s.pending[key]
	if !ok || t.inFlight {
		s.mu.Unlock()
		return
	}
	t.inFlight = true
	t.done = make(chan struct{})
	t.timer = nil
	bookmark := t.latest
	userID := t.userID
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), CommitTimeout)
	err := s.commit(ctx, userID, bookmark)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	t.inFlight = false
	close(t.done)
	t.done = nil
	if err != nil {
		s.log.Warn("bookmark commit failed, will retry on next cycle",
			logger.String("content_id", bookmark.ID),
			logger.Error(err))
		// Keep the freshest value and re-arm so the write is not lost.
		if t.queued == nil {
			t.queued = &bookmark
		}
	}
	if t.queued != nil {
		t.latest = *t.queued
		t.queued = nil
		t.timer = s.clock.AfterFunc(s.window, func() { s.fire(key) })
		return
	}
	delete(s.pending, key)
}

// Flush bypasses the debounce: it cancels any pending timer for the
// content id and commits the last known value synchronously. Used on
// session close. A commit already in flight is waited for first, so an
// older write can never land after the flushed one. A flush with
// nothing pending is a no-op.
func (s *Service) Flush(ctx context.Context, userID, contentID string) error {
	key := taskKey(userID, contentID)
	for {
		s.mu.Lock()
		t, ok := s.pending[key]
		if !ok {
			s.mu.Unlock()
			return nil
		}
		if t.timer != nil {
			t.timer.Stop()
			t.timer = nil
		}
		if t.inFlight {
			// Wait for the running commit to land before deciding what
			// is left to write; committing now would race it.
			done := t.done
			s.mu.Unlock()
			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		bookmark := t.latest
		if t.queued != nil {
			bookmark = *t.queued
			t.queued = nil
		}
		delete(s.pending, key)
		s.mu.Unlock()
		return s.commit(ctx, userID, bookmark)
	}
}

// FlushAll flushes every pending write. Called on shutdown.
func (s *Service) FlushAll(ctx context.Context) {
	type target struct {
		userID    string
		contentID string
	}
	s.mu.Lock()
	targets := make([]target, 0, len(s.pending))
	for _, t := range s.pending {
		targets = append(targets, target{userID: t.userID, contentID: t.latest.ID})
	}
	s.mu.Unlock()

	for _, tg := range targets {
		if err := s.Flush(ctx, tg.userID, tg.contentID); err != nil {
			s.log.Warn("failed to flush pending bookmark on shutdown",
				logger.String("content_id", tg.contentID),
				logger.Error(err))
		}
	}
}

// commit merges the bookmark into the user's stored list, then pushes
// a consolidated snapshot to the backup sink when a valid credential
// exists. The push is best-effort: its failure never fails the local
// commit.
func (s *Service) commit(ctx context.Context, userID string, bookmark domain.ReadingBookmark) error {
	bookmarks, err := store.Bookmarks(ctx, s.store, userID)
	if err != nil {
		return err
	}

	replaced := false
	for i := range bookmarks {
		if bookmarks[i].ID == bookmark.ID {
			bookmarks[i] = bookmark
			replaced = true
			break
		}
	}
	if !replaced {
		bookmarks = append([]domain.ReadingBookmark{bookmark}, bookmarks...)
	}

	if err := store.PutBookmarks(ctx, s.store, userID, bookmarks); err != nil {
		return err
	}

	s.log.Debug("bookmark committed",
		logger.String("content_id", bookmark.ID),
		logger.Int("page", bookmark.CurrentPage))

	s.pushBackup(ctx, userID, bookmarks)
	return nil
}

// pushBackup assembles and sends the backup snapshot. All failures are
// logged and swallowed.
func (s *Service) pushBackup(ctx context.Context, userID string, bookmarks []domain.ReadingBookmark) {
	if s.backup == nil {
		return
	}
	if s.creds == nil || !s.creds.IsValid(ctx) {
		return
	}

	reads, err := store.Reads(ctx, s.store, userID)
	if err != nil {
		s.log.Warn("failed to load reads for backup", logger.Error(err))
		return
	}
	follows, err := store.Follows(ctx, s.store, userID)
	if err != nil {
		s.log.Warn("failed to load follows for backup", logger.Error(err))
		return
	}

	snap := domain.BackupSnapshot{
		ReadPosts:      reads,
		FavoritePosts:  follows,
		MangaBookmarks: bookmarks,
	}
	if err := s.backup.PushBackup(ctx, userID, snap); err != nil {
		s.log.Warn("backup push failed (best effort)", logger.Error(err))
		return
	}

	s.updateProfile(ctx, userID, snap)
}

// updateProfile records the successful sync on the stored profile.
func (s *Service) updateProfile(ctx context.Context, userID string, snap domain.BackupSnapshot) {
	profile, err := store.Profile(ctx, s.store, userID)
	if err != nil {
		if err != domain.ErrNotFound {
			s.log.Warn("failed to load profile after sync", logger.Error(err))
		}
		return
	}
	profile.LastSyncTime = s.clock.Now().UnixMilli()
	profile.SyncStatus = domain.SyncStatus{
		Follows:   len(snap.FavoritePosts),
		Bookmarks: len(snap.MangaBookmarks),
		Reads:     len(snap.ReadPosts),
	}
	if err := store.PutProfile(ctx, s.store, profile); err != nil {
		s.log.Warn("failed to update profile after sync", logger.Error(err))
	}
}
