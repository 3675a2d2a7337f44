package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/readmark/readmark/internal/catalog"
	"github.com/readmark/readmark/internal/domain"
	"github.com/readmark/readmark/internal/logger"
	"github.com/readmark/readmark/internal/store"
)

// ProgressRecorder is the slice of the sync service the registry
// needs: debounced recording plus synchronous flush on close.
type ProgressRecorder interface {
	RecordProgress(userID string, bookmark domain.ReadingBookmark)
	Flush(ctx context.Context, userID, contentID string) error
}

// Registry owns the open sessions: one per content id. It serializes
// access to each controller, runs the auto-scroll timers, and routes
// bookmark effects into the recorder.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session // content id -> session
	recorder ProgressRecorder
	store    store.Store
	log      logger.Logger
}

// NewRegistry creates an empty session registry.
func NewRegistry(recorder ProgressRecorder, st store.Store, log logger.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		recorder: recorder,
		store:    st,
		log:      log,
	}
}

// Session is one managed open session.
type Session struct {
	ID     string
	UserID string

	mu           sync.Mutex
	ctrl         *Controller
	lastActivity time.Time
	stopScroll   chan struct{} // non-nil while the auto-scroll timer runs

	reg *Registry
}

// Open starts a reading session for a catalog entry. An existing
// session for the same content is closed (and flushed) first: the UI
// contract is one open session per content item. The stored bookmark
// is consulted only when the config carries no deep-link page.
func (r *Registry) Open(ctx context.Context, userID string, entry catalog.Entry, cfg Config) (*Session, []Effect, error) {
	for {
		r.mu.Lock()
		old, ok := r.sessions[entry.ID]
		r.mu.Unlock()
		if !ok {
			break
		}
		if err := old.Close(ctx); err != nil {
			r.log.Warn("failed to close previous session",
				logger.String("content_id", entry.ID),
				logger.Error(err))
		}
	}

	if !cfg.VerticalMode && entry.Vertical {
		cfg.VerticalMode = true
	}
	ctrl := NewController(entry.ID, entry.Title, entry.URL, entry.Pages, cfg)

	// The deep-link page parameter wins; only without it do we pay for
	// the bookmark lookup.
	var bookmark *domain.ReadingBookmark
	if cfg.URLPage == 0 && userID != "" {
		bookmarks, err := store.Bookmarks(ctx, r.store, userID)
		if err != nil {
			r.log.Warn("failed to load bookmarks, starting from initial page",
				logger.String("content_id", entry.ID),
				logger.Error(err))
		} else {
			for i := range bookmarks {
				if bookmarks[i].ID == entry.ID {
					bookmark = &bookmarks[i]
					break
				}
			}
		}
	}

	s := &Session{
		ID:           uuid.New().String(),
		UserID:       userID,
		ctrl:         ctrl,
		lastActivity: time.Now(),
		reg:          r,
	}
	presentation := s.applyLocked(ctx, ctrl.Resolve(bookmark))

	r.mu.Lock()
	loser := r.sessions[entry.ID]
	r.sessions[entry.ID] = s
	r.mu.Unlock()
	if loser != nil {
		// A concurrent open for the same content slipped in while this
		// one was resolving; close it so its bookmark still flushes.
		if err := loser.Close(ctx); err != nil {
			r.log.Warn("failed to close superseded session",
				logger.String("content_id", entry.ID),
				logger.Error(err))
		}
	}

	r.log.Info("session opened",
		logger.String("session_id", s.ID),
		logger.String("content_id", entry.ID),
		logger.Int("page", ctrl.Snapshot().CurrentPage))
	return s, presentation, nil
}

// Get returns the open session for a content id.
func (r *Registry) Get(contentID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[contentID]
	return s, ok
}

// CloseAll closes every open session, flushing their bookmarks.
// Called on shutdown.
func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	open := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		open = append(open, s)
	}
	r.mu.Unlock()

	for _, s := range open {
		if err := s.Close(ctx); err != nil {
			r.log.Warn("failed to close session on shutdown",
				logger.String("session_id", s.ID),
				logger.Error(err))
		}
	}
}

// CloseIdle closes sessions with no activity for at least threshold.
// Returns the number closed.
func (r *Registry) CloseIdle(ctx context.Context, threshold time.Duration) int {
	r.mu.Lock()
	idle := make([]*Session, 0)
	now := time.Now()
	for _, s := range r.sessions {
		s.mu.Lock()
		stale := now.Sub(s.lastActivity) >= threshold
		s.mu.Unlock()
		if stale {
			idle = append(idle, s)
		}
	}
	r.mu.Unlock()

	closed := 0
	for _, s := range idle {
		if err := s.Close(ctx); err != nil {
			r.log.Warn("failed to close idle session",
				logger.String("session_id", s.ID),
				logger.Error(err))
			continue
		}
		closed++
	}
	return closed
}

// Count returns the number of open sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

func (r *Registry) remove(contentID string, s *Session) {
	r.mu.Lock()
	if r.sessions[contentID] == s {
		delete(r.sessions, contentID)
	}
	r.mu.Unlock()
}

// do runs one controller call under the session lock and executes the
// returned effects. It returns the presentation effects (scroll
// requests) for the caller to forward to the frontend.
func (s *Session) do(ctx context.Context, call func(*Controller) ([]Effect, error)) ([]Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	effects, err := call(s.ctrl)
	if err != nil {
		return nil, err
	}
	s.lastActivity = time.Now()
	return s.applyLocked(ctx, effects), nil
}

// applyLocked executes engine effects and filters out the ones the
// presentation layer must handle. Caller holds s.mu.
func (s *Session) applyLocked(ctx context.Context, effects []Effect) []Effect {
	presentation := make([]Effect, 0, len(effects))
	for _, e := range effects {
		switch e.Type {
		case EffectScrollToPage:
			presentation = append(presentation, e)
		case EffectRecordProgress:
			s.reg.recorder.RecordProgress(s.UserID, s.ctrl.Bookmark())
		case EffectFlushBookmark:
			s.reg.recorder.RecordProgress(s.UserID, s.ctrl.Bookmark())
			if err := s.reg.recorder.Flush(ctx, s.UserID, s.ctrl.ContentID()); err != nil {
				s.reg.log.Warn("failed to flush bookmark",
					logger.String("content_id", s.ctrl.ContentID()),
					logger.Error(err))
			}
		case EffectAutoScrollStart:
			s.startScrollLocked(e.Interval)
		case EffectAutoScrollStop:
			s.stopScrollLocked()
		}
	}
	return presentation
}

// startScrollLocked (re)starts the auto-scroll ticker.
func (s *Session) startScrollLocked(interval time.Duration) {
	s.stopScrollLocked()
	stop := make(chan struct{})
	s.stopScroll = stop

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.do(context.Background(), func(c *Controller) ([]Effect, error) {
					return c.AutoScrollTick()
				}); err != nil {
					return
				}
			case <-stop:
				return
			}
		}
	}()
}

// stopScrollLocked cancels the auto-scroll ticker if one runs.
func (s *Session) stopScrollLocked() {
	if s.stopScroll != nil {
		close(s.stopScroll)
		s.stopScroll = nil
	}
}

// NextPage advances the session by one step.
func (s *Session) NextPage(ctx context.Context) ([]Effect, error) {
	return s.do(ctx, func(c *Controller) ([]Effect, error) { return c.NextPage() })
}

// PrevPage goes back one step.
func (s *Session) PrevPage(ctx context.Context) ([]Effect, error) {
	return s.do(ctx, func(c *Controller) ([]Effect, error) { return c.PrevPage() })
}

// JumpToPage jumps to a 1-indexed page.
func (s *Session) JumpToPage(ctx context.Context, page int) ([]Effect, error) {
	return s.do(ctx, func(c *Controller) ([]Effect, error) { return c.JumpToPage(page) })
}

// SetVerticalMode toggles scroll mode.
func (s *Session) SetVerticalMode(ctx context.Context, on bool) ([]Effect, error) {
	return s.do(ctx, func(c *Controller) ([]Effect, error) { return c.SetVerticalMode(on) })
}

// SetTwoPage toggles two-page spread mode.
func (s *Session) SetTwoPage(ctx context.Context, on bool) ([]Effect, error) {
	return s.do(ctx, func(c *Controller) ([]Effect, error) { return c.SetTwoPage(on) })
}

// SetAutoScroll starts or stops auto-scrolling.
func (s *Session) SetAutoScroll(ctx context.Context, on bool, speed int) ([]Effect, error) {
	return s.do(ctx, func(c *Controller) ([]Effect, error) { return c.SetAutoScroll(on, speed) })
}

// SetBrightness sets display brightness.
func (s *Session) SetBrightness(value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
	return s.ctrl.SetBrightness(value)
}

// SetZoom sets the zoom scale.
func (s *Session) SetZoom(scale float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
	return s.ctrl.SetZoom(scale)
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Snapshot()
}

// Close terminates the session: the auto-scroll timer is cancelled and
// the final bookmark is flushed synchronously before teardown.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	effects := s.ctrl.Close()
	contentID := s.ctrl.ContentID()
	s.applyLocked(ctx, effects)
	s.mu.Unlock()

	s.reg.remove(contentID, s)
	return nil
}
