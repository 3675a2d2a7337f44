package domain

// ReadingBookmark is the persisted reading position for one piece of
// content for one user. At most one bookmark exists per content id per
// user; a new write replaces the previous one.
type ReadingBookmark struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is the content (post) identifier the bookmark belongs to.
	ID string `json:"id"`

	// Title is the content title at the time the bookmark was taken.
	Title string `json:"title"`

	// URL is the canonical path used to deep-link back to the position.
	URL string `json:"url"`

	// ─────────────────────────────
	// Position
	// ─────────────────────────────

	// CurrentPage is the 0-indexed page the reader was on.
	// Always clamped to [0, TotalPages-1] on write.
	CurrentPage int `json:"currentPage"`

	// TotalPages is the page count of the content. Always >= 1.
	TotalPages int `json:"totalPages"`

	// VerticalMode records whether the bookmark was taken in scroll
	// mode; it changes how CurrentPage is interpreted on resume.
	VerticalMode bool `json:"verticalMode"`

	// Timestamp is the last-write time in epoch millis.
	// Last-writer-wins on conflict; never decreases per ID within a
	// single client session.
	Timestamp int64 `json:"timestamp"`
}

// Clamp normalizes the bookmark position in place.
// TotalPages is raised to 1 if invalid, CurrentPage is forced into
// [0, TotalPages-1].
func (b *ReadingBookmark) Clamp() {
	if b.TotalPages < 1 {
		b.TotalPages = 1
	}
	b.CurrentPage = ClampPage(b.CurrentPage, b.TotalPages)
}

// ClampPage forces a 0-indexed page into [0, totalPages-1].
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 0 {
		return 0
	}
	if page >= totalPages {
		return totalPages - 1
	}
	return page
}

// FollowedSeries is one entry of a user's follow list.
type FollowedSeries struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	AddedAt int64  `json:"addedAt"` // epoch millis
}

// ReadEntry marks a post as read.
type ReadEntry struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	ReadAt int64  `json:"readAt"` // epoch millis
}
