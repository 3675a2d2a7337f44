package domain

import "time"

// RefreshBuffer is how long before expiry a credential is already
// considered due for refresh.
const RefreshBuffer = 5 * time.Minute

// Credential is the bearer credential for the remote CMS.
// Exactly one instance exists per process; the token manager is the
// only writer, everyone else reads snapshots.
type Credential struct {
	// AccessToken is the opaque bearer token sent on every call.
	AccessToken string `json:"accessToken"`

	// RefreshToken, when present, allows renewing AccessToken in place.
	RefreshToken string `json:"refreshToken,omitempty"`

	// ExpiresAt is the access token expiry in epoch millis.
	ExpiresAt int64 `json:"expiresAt"`
}

// Expired reports whether the token is past (or within RefreshBuffer
// of) its expiry at the given instant.
func (c *Credential) Expired(now time.Time) bool {
	return now.Add(RefreshBuffer).UnixMilli() >= c.ExpiresAt
}

// Clear zeroes every field so the credential cannot be reused.
func (c *Credential) Clear() {
	c.AccessToken = ""
	c.RefreshToken = ""
	c.ExpiresAt = 0
}
