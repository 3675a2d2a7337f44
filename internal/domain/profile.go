package domain

// SyncStatus summarizes the last successful backup push.
type SyncStatus struct {
	Follows   int `json:"follows"`
	Bookmarks int `json:"bookmarks"`
	Reads     int `json:"reads"`
}

// UserProfile is the signed-in user. It owns the per-user collections
// (bookmarks, follows, reads) but never embeds the Credential.
type UserProfile struct {
	// ID is the stable external subject identifier.
	ID string `json:"id"`

	Email string `json:"email"`
	Name  string `json:"name"`

	// LastSyncTime is the epoch millis of the last successful backup
	// push, 0 if never synced.
	LastSyncTime int64 `json:"lastSyncTime"`

	SyncStatus SyncStatus `json:"syncStatus"`
}
