// Package session implements the reading-session state machine. The
// Controller is pure: every mutation returns the side effects the
// caller must execute (scroll requests, bookmark writes, timer
// changes), so it stays framework-agnostic and deterministic in tests.
package session

import (
	"errors"
	"time"

	"github.com/readmark/readmark/internal/domain"
)

// State is the lifecycle phase of a session.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EffectType identifies a side effect requested by the controller.
type EffectType int

const (
	// EffectScrollToPage asks the presentation layer to scroll the
	// vertical view to the given 0-indexed page element.
	EffectScrollToPage EffectType = iota

	// EffectRecordProgress asks for a debounced bookmark write.
	EffectRecordProgress

	// EffectFlushBookmark asks for an immediate, non-debounced
	// bookmark write. Emitted exactly once, on Close.
	EffectFlushBookmark

	// EffectAutoScrollStart asks the owner to start (or restart) the
	// auto-scroll timer with Effect.Interval.
	EffectAutoScrollStart

	// EffectAutoScrollStop asks the owner to cancel the auto-scroll
	// timer.
	EffectAutoScrollStop
)

// Effect is one side-effect request returned by a controller call.
type Effect struct {
	Type     EffectType
	Page     int           // EffectScrollToPage
	Interval time.Duration // EffectAutoScrollStart
}

// Errors for calls that are invalid in the current state or mode.
var (
	ErrSessionClosed  = errors.New("session is closed")
	ErrNotReady       = errors.New("session is still loading")
	ErrVerticalOnly   = errors.New("auto-scroll requires vertical mode")
	ErrPagedModeOnly  = errors.New("zoom is only available in paged mode")
	ErrUnknownContent = errors.New("unknown content")
)

// Controller tracks one open reading session. It is not safe for
// concurrent use; the Registry serializes access.
type Controller struct {
	contentID  string
	title      string
	url        string
	totalPages int

	state      State
	page       int // 0-indexed
	vertical   bool
	twoPage    bool
	brightness int
	zoomLevel  float64 // >1 means zoomed in
	autoScroll bool
	speed      int

	cfg Config
	now func() time.Time
}

// NewController creates a session in StateLoading for the given
// content. totalPages must be >= 1 (callers resolve it from the
// catalog before opening).
func NewController(contentID, title, url string, totalPages int, cfg Config) *Controller {
	if totalPages < 1 {
		totalPages = 1
	}
	cfg.normalize()
	return &Controller{
		contentID:  contentID,
		title:      title,
		url:        url,
		totalPages: totalPages,
		state:      StateLoading,
		vertical:   cfg.VerticalMode,
		twoPage:    cfg.TwoPage,
		brightness: cfg.Brightness,
		zoomLevel:  1,
		speed:      cfg.AutoScrollSpeed,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Resolve finishes loading. The initial page is chosen in strict
// precedence order: deep-link URL parameter (1-indexed), then the
// stored bookmark, then Config.InitialPage. bookmark may be nil
// (unauthenticated user, or nothing stored).
func (c *Controller) Resolve(bookmark *domain.ReadingBookmark) []Effect {
	if c.state != StateLoading {
		return nil
	}

	switch {
	case c.cfg.URLPage > 0:
		c.page = domain.ClampPage(c.cfg.URLPage-1, c.totalPages)
	case bookmark != nil:
		c.page = domain.ClampPage(bookmark.CurrentPage, c.totalPages)
		// A bookmark taken in scroll mode resumes in scroll mode so the
		// recorded page means the same thing it did when saved.
		if bookmark.VerticalMode && !c.vertical {
			c.vertical = true
			c.twoPage = false
		}
	default:
		c.page = domain.ClampPage(c.cfg.InitialPage, c.totalPages)
	}

	if c.twoPage {
		c.page = c.snapTwoPage(c.page)
	}
	c.state = StateReady

	if c.vertical && c.page > 0 {
		return []Effect{{Type: EffectScrollToPage, Page: c.page}}
	}
	return nil
}

// maxStart is the highest valid position in the current mode: the last
// page in single-page flow, the last even spread start in two-page
// flow (which is the lone trailing page when totalPages is odd).
func (c *Controller) maxStart() int {
	if c.twoPage {
		return ((c.totalPages - 1) / 2) * 2
	}
	return c.totalPages - 1
}

// snapTwoPage snaps a page down to the nearest even spread start.
func (c *Controller) snapTwoPage(page int) int {
	page = page &^ 1
	if max := c.maxStart(); page > max {
		page = max
	}
	return page
}

func (c *Controller) step() int {
	if c.twoPage {
		return 2
	}
	return 1
}

func (c *Controller) checkReady() error {
	switch c.state {
	case StateClosed:
		return ErrSessionClosed
	case StateReady:
		return nil
	default:
		return ErrNotReady
	}
}

// NextPage advances by one step, clamped to the end of the content.
func (c *Controller) NextPage() ([]Effect, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	return c.moveTo(c.page + c.step()), nil
}

// PrevPage goes back by one step, clamped to the first page.
func (c *Controller) PrevPage() ([]Effect, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	return c.moveTo(c.page - c.step()), nil
}

// JumpToPage jumps to a 1-indexed page (the public contract is
// 1-indexed everywhere; only internal state is 0-indexed).
func (c *Controller) JumpToPage(page int) ([]Effect, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	return c.moveTo(page - 1), nil
}

// moveTo clamps and applies a 0-indexed target, returning the effects
// of the move. A no-op move still reports progress so the bookmark
// timestamp tracks activity.
func (c *Controller) moveTo(target int) []Effect {
	if target < 0 {
		target = 0
	}
	if max := c.maxStart(); target > max {
		target = max
	}
	if c.twoPage {
		target = c.snapTwoPage(target)
	}
	c.page = target

	effects := make([]Effect, 0, 3)
	if c.vertical {
		effects = append(effects, Effect{Type: EffectScrollToPage, Page: c.page})
	}
	effects = append(effects, Effect{Type: EffectRecordProgress})

	// Reaching the end stops a running auto-scroll.
	if c.autoScroll && c.page >= c.maxStart() {
		c.autoScroll = false
		effects = append(effects, Effect{Type: EffectAutoScrollStop})
	}
	return effects
}

// SetVerticalMode toggles scroll mode. Entering vertical force-disables
// two-page mode (and with it the edge-tap zones) but leaves a running
// auto-scroll alone. Leaving vertical stops auto-scroll, which only
// exists in scroll mode.
func (c *Controller) SetVerticalMode(on bool) ([]Effect, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	if c.vertical == on {
		return nil, nil
	}
	c.vertical = on

	effects := []Effect{{Type: EffectRecordProgress}}
	if on {
		c.twoPage = false
		if c.page > 0 {
			effects = append([]Effect{{Type: EffectScrollToPage, Page: c.page}}, effects...)
		}
		return effects, nil
	}
	c.zoomLevel = 1
	if c.autoScroll {
		c.autoScroll = false
		effects = append(effects, Effect{Type: EffectAutoScrollStop})
	}
	return effects, nil
}

// SetTwoPage toggles two-page spread mode. Enabling it snaps the
// current page down to the nearest even spread start. Not available in
// vertical mode.
func (c *Controller) SetTwoPage(on bool) ([]Effect, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	if on && c.vertical {
		return nil, ErrPagedModeOnly
	}
	if c.twoPage == on {
		return nil, nil
	}
	c.twoPage = on
	if on {
		c.page = c.snapTwoPage(c.page)
	}
	return []Effect{{Type: EffectRecordProgress}}, nil
}

// SetBrightness sets the display brightness, clamped to the valid
// range. Purely presentational; never persisted.
func (c *Controller) SetBrightness(value int) error {
	if err := c.checkReady(); err != nil {
		return err
	}
	c.brightness = clampInt(value, BrightnessMin, BrightnessMax)
	return nil
}

// SetZoom sets the zoom scale. Only available in paged mode; a scale
// above 1 suppresses the edge-tap navigation zones so panning cannot
// turn pages by accident.
func (c *Controller) SetZoom(scale float64) error {
	if err := c.checkReady(); err != nil {
		return err
	}
	if c.vertical {
		return ErrPagedModeOnly
	}
	if scale < 1 {
		scale = 1
	}
	c.zoomLevel = scale
	return nil
}

// AutoScrollInterval maps speed to a fixed seconds-per-page cadence:
// speed 1 advances one page every 10s, speed 10 every 1s.
func (c *Controller) AutoScrollInterval() time.Duration {
	speed := clampInt(c.speed, AutoScrollSpeedMin, AutoScrollSpeedMax)
	return time.Duration(11-speed) * time.Second
}

// SetAutoScroll starts or stops auto-scrolling. Starting requires
// vertical mode and a position before the last page. speed 0 keeps the
// current speed; changing speed while running restarts the timer with
// the new cadence.
func (c *Controller) SetAutoScroll(on bool, speed int) ([]Effect, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	if speed != 0 {
		c.speed = clampInt(speed, AutoScrollSpeedMin, AutoScrollSpeedMax)
	}
	if !on {
		if !c.autoScroll {
			return nil, nil
		}
		c.autoScroll = false
		return []Effect{{Type: EffectAutoScrollStop}}, nil
	}
	if !c.vertical {
		return nil, ErrVerticalOnly
	}
	if c.page >= c.maxStart() {
		return nil, nil // already at the end, nothing to scroll to
	}
	c.autoScroll = true
	return []Effect{{Type: EffectAutoScrollStart, Interval: c.AutoScrollInterval()}}, nil
}

// AutoScrollTick advances one page on behalf of the timer. It
// auto-disables when the last page is reached.
func (c *Controller) AutoScrollTick() ([]Effect, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	if !c.autoScroll {
		return nil, nil
	}
	return c.moveTo(c.page + 1), nil
}

// Close terminates the session. All ephemeral state is discarded; the
// caller must execute the returned flush synchronously before
// teardown. Closing twice is a no-op.
func (c *Controller) Close() []Effect {
	if c.state == StateClosed {
		return nil
	}
	wasReady := c.state == StateReady
	c.state = StateClosed

	effects := make([]Effect, 0, 2)
	if c.autoScroll {
		c.autoScroll = false
		effects = append(effects, Effect{Type: EffectAutoScrollStop})
	}
	if wasReady {
		effects = append(effects, Effect{Type: EffectFlushBookmark})
	}
	return effects
}

// Bookmark captures the current position as a persistable record.
func (c *Controller) Bookmark() domain.ReadingBookmark {
	return domain.ReadingBookmark{
		ID:           c.contentID,
		Title:        c.title,
		URL:          c.url,
		CurrentPage:  c.page,
		TotalPages:   c.totalPages,
		VerticalMode: c.vertical,
		Timestamp:    c.now().UnixMilli(),
	}
}

// Snapshot is a read-only view of the session for the API layer.
type Snapshot struct {
	ContentID       string  `json:"contentId"`
	Title           string  `json:"title"`
	State           string  `json:"state"`
	CurrentPage     int     `json:"currentPage"` // 0-indexed
	TotalPages      int     `json:"totalPages"`
	VerticalMode    bool    `json:"verticalMode"`
	TwoPage         bool    `json:"twoPage"`
	Brightness      int     `json:"brightness"`
	ZoomLevel       float64 `json:"zoomLevel"`
	IsZoomed        bool    `json:"isZoomed"`
	EdgeTapsEnabled bool    `json:"edgeTapsEnabled"`
	AutoScroll      bool    `json:"autoScroll"`
	AutoScrollSpeed int     `json:"autoScrollSpeed"`
	ProgressPct     float64 `json:"progressPct"`
	ETASeconds      float64 `json:"etaSeconds"` // 0 unless auto-scrolling
}

// Snapshot returns the current derived view of the session.
func (c *Controller) Snapshot() Snapshot {
	progress := float64(c.page+1) / float64(c.totalPages) * 100

	var eta float64
	if c.autoScroll {
		remaining := c.maxStart() - c.page
		eta = (time.Duration(remaining) * c.AutoScrollInterval()).Seconds()
	}

	return Snapshot{
		ContentID:       c.contentID,
		Title:           c.title,
		State:           c.state.String(),
		CurrentPage:     c.page,
		TotalPages:      c.totalPages,
		VerticalMode:    c.vertical,
		TwoPage:         c.twoPage,
		Brightness:      c.brightness,
		ZoomLevel:       c.zoomLevel,
		IsZoomed:        c.zoomLevel > 1,
		EdgeTapsEnabled: !c.vertical && c.zoomLevel <= 1,
		AutoScroll:      c.autoScroll,
		AutoScrollSpeed: c.speed,
		ProgressPct:     progress,
		ETASeconds:      eta,
	}
}

// CurrentState returns the lifecycle phase.
func (c *Controller) CurrentState() State { return c.state }

// ContentID returns the content this session reads.
func (c *Controller) ContentID() string { return c.contentID }
