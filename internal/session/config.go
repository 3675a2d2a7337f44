package session

// Presentation-state limits. Brightness and zoom are session-local
// only; they are never persisted into a bookmark.
const (
	BrightnessMin     = 20
	BrightnessMax     = 150
	BrightnessDefault = 100

	AutoScrollSpeedMin     = 1
	AutoScrollSpeedMax     = 10
	AutoScrollSpeedDefault = 5
)

// Config enumerates every recognized session option with validated
// ranges. Unknown knobs do not exist: callers get a compile error, not
// a silently ignored bag entry.
type Config struct {
	// InitialPage is the 0-indexed page to open at when no deep link
	// and no bookmark apply. Defaults to 0.
	InitialPage int

	// URLPage is the 1-indexed deep-link page parameter, 0 when the
	// URL carried none. When present it wins over any stored bookmark.
	URLPage int

	// VerticalMode opens the session in scroll mode.
	VerticalMode bool

	// TwoPage opens the session in two-page spread mode. Ignored when
	// VerticalMode is set (vertical forces single-page flow).
	TwoPage bool

	// Brightness in [BrightnessMin, BrightnessMax]; 0 means default.
	Brightness int

	// AutoScrollSpeed in [AutoScrollSpeedMin, AutoScrollSpeedMax];
	// 0 means default.
	AutoScrollSpeed int
}

// normalize clamps every field into its valid range.
func (c *Config) normalize() {
	if c.InitialPage < 0 {
		c.InitialPage = 0
	}
	if c.URLPage < 0 {
		c.URLPage = 0
	}
	if c.Brightness == 0 {
		c.Brightness = BrightnessDefault
	}
	c.Brightness = clampInt(c.Brightness, BrightnessMin, BrightnessMax)
	if c.AutoScrollSpeed == 0 {
		c.AutoScrollSpeed = AutoScrollSpeedDefault
	}
	c.AutoScrollSpeed = clampInt(c.AutoScrollSpeed, AutoScrollSpeedMin, AutoScrollSpeedMax)
	if c.VerticalMode {
		c.TwoPage = false
	}
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
