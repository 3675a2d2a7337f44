package domain

// BackupSnapshot is the consolidated per-user state pushed to the
// remote backup endpoint. Field names follow the backup wire contract.
type BackupSnapshot struct {
	ReadPosts      []ReadEntry       `json:"readPosts"`
	FavoritePosts  []FollowedSeries  `json:"favoritePosts"`
	MangaBookmarks []ReadingBookmark `json:"mangaBookmarks"`
}
