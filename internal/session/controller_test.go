package session

import (
	"errors"
	"testing"
	"time"

	"github.com/readmark/readmark/internal/domain"
)

func newReady(t *testing.T, totalPages int, cfg Config) *Controller {
	t.Helper()
	c := NewController("post-1", "Chapter 1", "/posts/post-1", totalPages, cfg)
	c.Resolve(nil)
	if c.CurrentState() != StateReady {
		t.Fatalf("controller not ready after Resolve: %v", c.CurrentState())
	}
	return c
}

func hasEffect(effects []Effect, typ EffectType) bool {
	for _, e := range effects {
		if e.Type == typ {
			return true
		}
	}
	return false
}

func TestResolvePrecedence(t *testing.T) {
	bookmark := &domain.ReadingBookmark{ID: "post-1", CurrentPage: 6, TotalPages: 10}

	tests := []struct {
		name     string
		cfg      Config
		bookmark *domain.ReadingBookmark
		expected int
	}{
		{
			name:     "url parameter wins over bookmark",
			cfg:      Config{URLPage: 3, InitialPage: 8},
			bookmark: bookmark,
			expected: 2, // 1-indexed parameter, 0-indexed state
		},
		{
			name:     "bookmark wins over initial page",
			cfg:      Config{InitialPage: 8},
			bookmark: bookmark,
			expected: 6,
		},
		{
			name:     "initial page as last resort",
			cfg:      Config{InitialPage: 4},
			expected: 4,
		},
		{
			name:     "no hints starts at zero",
			cfg:      Config{},
			expected: 0,
		},
		{
			name:     "url parameter past the end clamps",
			cfg:      Config{URLPage: 42},
			expected: 9,
		},
		{
			name:     "stale bookmark past the end clamps",
			cfg:      Config{},
			bookmark: &domain.ReadingBookmark{ID: "post-1", CurrentPage: 25, TotalPages: 30},
			expected: 9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController("post-1", "Chapter 1", "/posts/post-1", 10, tt.cfg)
			c.Resolve(tt.bookmark)
			if got := c.Snapshot().CurrentPage; got != tt.expected {
				t.Errorf("CurrentPage = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestResolveInheritsBookmarkVerticalMode(t *testing.T) {
	c := NewController("post-1", "", "", 10, Config{TwoPage: true})
	effects := c.Resolve(&domain.ReadingBookmark{ID: "post-1", CurrentPage: 5, TotalPages: 10, VerticalMode: true})

	snap := c.Snapshot()
	if !snap.VerticalMode {
		t.Error("vertical bookmark should resume in vertical mode")
	}
	if snap.TwoPage {
		t.Error("two-page must be disabled when resuming vertical")
	}
	if !hasEffect(effects, EffectScrollToPage) {
		t.Error("resuming vertical past page 0 should request a scroll")
	}
}

func TestResolveBeforeReadyRejectsNavigation(t *testing.T) {
	c := NewController("post-1", "", "", 10, Config{})
	if _, err := c.NextPage(); !errors.Is(err, ErrNotReady) {
		t.Errorf("NextPage before Resolve = %v, want ErrNotReady", err)
	}
}

func TestNextPageClampsAtEnd(t *testing.T) {
	c := newReady(t, 10, Config{})

	// Walk well past the final page; position must pin at the end.
	for i := 0; i < 12; i++ {
		if _, err := c.NextPage(); err != nil {
			t.Fatalf("NextPage() error = %v", err)
		}
	}
	if got := c.Snapshot().CurrentPage; got != 9 {
		t.Errorf("CurrentPage after overshoot = %d, want 9", got)
	}
}

func TestPrevPageClampsAtStart(t *testing.T) {
	c := newReady(t, 10, Config{})
	for i := 0; i < 3; i++ {
		if _, err := c.PrevPage(); err != nil {
			t.Fatalf("PrevPage() error = %v", err)
		}
	}
	if got := c.Snapshot().CurrentPage; got != 0 {
		t.Errorf("CurrentPage = %d, want 0", got)
	}
}

func TestJumpToPage(t *testing.T) {
	tests := []struct {
		name     string
		target   int // 1-indexed
		expected int // 0-indexed
	}{
		{name: "in range", target: 7, expected: 6},
		{name: "past the end", target: 999, expected: 9},
		{name: "below the start", target: -5, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newReady(t, 10, Config{})
			if _, err := c.JumpToPage(tt.target); err != nil {
				t.Fatalf("JumpToPage(%d) error = %v", tt.target, err)
			}
			if got := c.Snapshot().CurrentPage; got != tt.expected {
				t.Errorf("CurrentPage = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestTwoPageSnapsToSpreadStart(t *testing.T) {
	c := newReady(t, 10, Config{})
	if _, err := c.JumpToPage(4); err != nil { // 0-indexed page 3
		t.Fatal(err)
	}

	if _, err := c.SetTwoPage(true); err != nil {
		t.Fatalf("SetTwoPage(true) error = %v", err)
	}
	if got := c.Snapshot().CurrentPage; got != 2 {
		t.Errorf("CurrentPage after enabling two-page at 3 = %d, want 2", got)
	}

	// Steps now move by spreads.
	if _, err := c.NextPage(); err != nil {
		t.Fatal(err)
	}
	if got := c.Snapshot().CurrentPage; got != 4 {
		t.Errorf("CurrentPage after spread advance = %d, want 4", got)
	}
}

func TestTwoPageOddTotalTrailingSingle(t *testing.T) {
	// 5 pages in spreads: (0,1) (2,3) (4). The last position is the
	// lone page 4.
	c := newReady(t, 5, Config{TwoPage: true})
	for i := 0; i < 4; i++ {
		if _, err := c.NextPage(); err != nil {
			t.Fatal(err)
		}
	}
	if got := c.Snapshot().CurrentPage; got != 4 {
		t.Errorf("CurrentPage = %d, want 4", got)
	}
}

func TestTwoPageEvenTotalLastSpread(t *testing.T) {
	// 10 pages: the last spread starts at 8, never at 9.
	c := newReady(t, 10, Config{TwoPage: true})
	if _, err := c.JumpToPage(10); err != nil {
		t.Fatal(err)
	}
	if got := c.Snapshot().CurrentPage; got != 8 {
		t.Errorf("CurrentPage = %d, want 8", got)
	}
}

func TestVerticalModeDisablesTwoPage(t *testing.T) {
	c := newReady(t, 10, Config{TwoPage: true})
	if _, err := c.SetVerticalMode(true); err != nil {
		t.Fatalf("SetVerticalMode(true) error = %v", err)
	}

	snap := c.Snapshot()
	if snap.TwoPage {
		t.Error("two-page must be force-disabled in vertical mode")
	}
	if snap.EdgeTapsEnabled {
		t.Error("edge taps must be disabled in vertical mode")
	}

	if _, err := c.SetTwoPage(true); !errors.Is(err, ErrPagedModeOnly) {
		t.Errorf("SetTwoPage in vertical = %v, want ErrPagedModeOnly", err)
	}
}

func TestVerticalNavigationEmitsScroll(t *testing.T) {
	c := newReady(t, 10, Config{VerticalMode: true})
	effects, err := c.NextPage()
	if err != nil {
		t.Fatal(err)
	}
	if !hasEffect(effects, EffectScrollToPage) {
		t.Error("vertical navigation should request a scroll")
	}
	if !hasEffect(effects, EffectRecordProgress) {
		t.Error("navigation should record progress")
	}
}

func TestZoomPagedModeOnly(t *testing.T) {
	c := newReady(t, 10, Config{VerticalMode: true})
	if err := c.SetZoom(2); !errors.Is(err, ErrPagedModeOnly) {
		t.Errorf("SetZoom in vertical = %v, want ErrPagedModeOnly", err)
	}
}

func TestZoomSuppressesEdgeTaps(t *testing.T) {
	c := newReady(t, 10, Config{})
	if !c.Snapshot().EdgeTapsEnabled {
		t.Fatal("edge taps should start enabled in paged mode")
	}

	if err := c.SetZoom(2.5); err != nil {
		t.Fatalf("SetZoom error = %v", err)
	}
	snap := c.Snapshot()
	if !snap.IsZoomed {
		t.Error("IsZoomed should be true above scale 1")
	}
	if snap.EdgeTapsEnabled {
		t.Error("edge taps must be suppressed while zoomed")
	}

	// Scales below 1 clamp back to neutral.
	if err := c.SetZoom(0.3); err != nil {
		t.Fatal(err)
	}
	if got := c.Snapshot().ZoomLevel; got != 1 {
		t.Errorf("ZoomLevel = %v, want 1", got)
	}
}

func TestLeavingVerticalResetsZoom(t *testing.T) {
	c := newReady(t, 10, Config{})
	if err := c.SetZoom(3); err != nil {
		t.Fatal(err)
	}
	if _, err := c.SetVerticalMode(true); err != nil {
		t.Fatal(err)
	}
	if _, err := c.SetVerticalMode(false); err != nil {
		t.Fatal(err)
	}
	if got := c.Snapshot().ZoomLevel; got != 1 {
		t.Errorf("ZoomLevel back in paged mode = %v, want 1", got)
	}
}

func TestBrightnessClamped(t *testing.T) {
	tests := []struct {
		name     string
		value    int
		expected int
	}{
		{name: "in range", value: 80, expected: 80},
		{name: "below minimum", value: 5, expected: BrightnessMin},
		{name: "above maximum", value: 400, expected: BrightnessMax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newReady(t, 10, Config{})
			if err := c.SetBrightness(tt.value); err != nil {
				t.Fatal(err)
			}
			if got := c.Snapshot().Brightness; got != tt.expected {
				t.Errorf("Brightness = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestAutoScrollRequiresVertical(t *testing.T) {
	c := newReady(t, 10, Config{})
	if _, err := c.SetAutoScroll(true, 5); !errors.Is(err, ErrVerticalOnly) {
		t.Errorf("SetAutoScroll in paged mode = %v, want ErrVerticalOnly", err)
	}
}

func TestAutoScrollInterval(t *testing.T) {
	tests := []struct {
		name     string
		speed    int
		expected time.Duration
	}{
		{name: "slowest", speed: 1, expected: 10 * time.Second},
		{name: "default", speed: 5, expected: 6 * time.Second},
		{name: "fastest", speed: 10, expected: 1 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newReady(t, 10, Config{VerticalMode: true})
			effects, err := c.SetAutoScroll(true, tt.speed)
			if err != nil {
				t.Fatal(err)
			}
			if len(effects) != 1 || effects[0].Type != EffectAutoScrollStart {
				t.Fatalf("effects = %+v, want one AutoScrollStart", effects)
			}
			if effects[0].Interval != tt.expected {
				t.Errorf("Interval = %v, want %v", effects[0].Interval, tt.expected)
			}
		})
	}
}

func TestAutoScrollStopsAtLastPage(t *testing.T) {
	c := newReady(t, 3, Config{VerticalMode: true})
	if _, err := c.SetAutoScroll(true, 10); err != nil {
		t.Fatal(err)
	}

	// Two ticks reach the last page; the second must stop the timer.
	if _, err := c.AutoScrollTick(); err != nil {
		t.Fatal(err)
	}
	effects, err := c.AutoScrollTick()
	if err != nil {
		t.Fatal(err)
	}
	if !hasEffect(effects, EffectAutoScrollStop) {
		t.Errorf("effects = %+v, want AutoScrollStop at the end", effects)
	}
	if c.Snapshot().AutoScroll {
		t.Error("auto-scroll should be disabled at the last page")
	}

	// Further ticks are no-ops.
	effects, err = c.AutoScrollTick()
	if err != nil {
		t.Fatal(err)
	}
	if len(effects) != 0 {
		t.Errorf("tick after stop returned effects: %+v", effects)
	}
}

func TestAutoScrollAtEndIsNoop(t *testing.T) {
	c := newReady(t, 3, Config{VerticalMode: true})
	if _, err := c.JumpToPage(3); err != nil {
		t.Fatal(err)
	}
	effects, err := c.SetAutoScroll(true, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(effects) != 0 || c.Snapshot().AutoScroll {
		t.Errorf("starting auto-scroll on the last page should be a no-op, got %+v", effects)
	}
}

func TestLeavingVerticalStopsAutoScroll(t *testing.T) {
	c := newReady(t, 10, Config{VerticalMode: true})
	if _, err := c.SetAutoScroll(true, 5); err != nil {
		t.Fatal(err)
	}
	effects, err := c.SetVerticalMode(false)
	if err != nil {
		t.Fatal(err)
	}
	if !hasEffect(effects, EffectAutoScrollStop) {
		t.Errorf("effects = %+v, want AutoScrollStop when leaving vertical", effects)
	}
	if c.Snapshot().AutoScroll {
		t.Error("auto-scroll must not survive leaving vertical mode")
	}
}

func TestSnapshotProgressAndETA(t *testing.T) {
	c := newReady(t, 10, Config{VerticalMode: true})
	if _, err := c.JumpToPage(5); err != nil {
		t.Fatal(err)
	}
	if _, err := c.SetAutoScroll(true, 10); err != nil { // 1s per page
		t.Fatal(err)
	}

	snap := c.Snapshot()
	if snap.ProgressPct != 50 {
		t.Errorf("ProgressPct = %v, want 50", snap.ProgressPct)
	}
	// 5 pages remain at 1s each.
	if snap.ETASeconds != 5 {
		t.Errorf("ETASeconds = %v, want 5", snap.ETASeconds)
	}
}

func TestCloseFlushesOnce(t *testing.T) {
	c := newReady(t, 10, Config{})
	effects := c.Close()
	if !hasEffect(effects, EffectFlushBookmark) {
		t.Errorf("Close effects = %+v, want FlushBookmark", effects)
	}

	if again := c.Close(); len(again) != 0 {
		t.Errorf("second Close returned effects: %+v", again)
	}

	if _, err := c.NextPage(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("NextPage after Close = %v, want ErrSessionClosed", err)
	}
}

func TestBookmarkCapturesPosition(t *testing.T) {
	c := newReady(t, 10, Config{VerticalMode: true})
	if _, err := c.JumpToPage(7); err != nil {
		t.Fatal(err)
	}

	b := c.Bookmark()
	if b.ID != "post-1" || b.CurrentPage != 6 || b.TotalPages != 10 || !b.VerticalMode {
		t.Errorf("Bookmark() = %+v", b)
	}
	if b.Timestamp == 0 {
		t.Error("Bookmark timestamp must be set")
	}
}
