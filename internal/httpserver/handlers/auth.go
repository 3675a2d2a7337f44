package handlers

import (
	"net/http"

	"github.com/readmark/readmark/internal/domain"
	"github.com/readmark/readmark/internal/httpserver/deps"
	"github.com/readmark/readmark/internal/logger"
	"github.com/readmark/readmark/internal/store"
)

type loginRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresAt    int64  `json:"expiresAt,omitempty"`

	Profile struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"profile"`
}

type authStatusResponse struct {
	Authenticated bool                `json:"authenticated"`
	Profile       *domain.UserProfile `json:"profile,omitempty"`
}

// Login receives the credential the frontend obtained from the OAuth
// flow and installs it: token manager first, then the sign-in state
// and the stored profile. A failed persistent save is not fatal (the
// daemon runs on the memory copy), so it only logs.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.AccessToken == "" || req.Profile.ID == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "accessToken and profile.id are required"})
			return
		}

		cred := &domain.Credential{
			AccessToken:  req.AccessToken,
			RefreshToken: req.RefreshToken,
			ExpiresAt:    req.ExpiresAt,
		}
		if err := d.Tokens.Save(cred); err != nil {
			d.Logger.Warn("credential not persisted, continuing in memory",
				logger.Error(err))
		}

		profile := domain.UserProfile{
			ID:    req.Profile.ID,
			Email: req.Profile.Email,
			Name:  req.Profile.Name,
		}
		// Keep sync history from a previous run of the same user.
		if stored, err := store.Profile(r.Context(), d.Store, profile.ID); err == nil {
			profile.LastSyncTime = stored.LastSyncTime
			profile.SyncStatus = stored.SyncStatus
		}
		d.User.SignIn(profile)
		if err := store.PutProfile(r.Context(), d.Store, &profile); err != nil {
			d.Logger.Warn("failed to store profile", logger.Error(err))
		}

		d.Logger.Info("user signed in", logger.String("user_id", profile.ID))
		writeJSON(w, http.StatusOK, authStatusResponse{Authenticated: true, Profile: &profile})
	}
}

// Logout clears the credential everywhere and signs the user out.
// Always succeeds.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := d.User.CurrentID()
		d.Tokens.Clear()
		d.User.SignOut()
		if userID != "" {
			d.Logger.Info("user signed out", logger.String("user_id", userID))
		}
		writeJSON(w, http.StatusOK, authStatusResponse{Authenticated: false})
	}
}

// AuthStatus reports whether a usable credential exists right now,
// refreshing an expired one as a side effect.
func AuthStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := d.User.Current()
		valid := profile != nil && d.Tokens.IsValid(r.Context())
		if !valid {
			writeJSON(w, http.StatusOK, authStatusResponse{Authenticated: false})
			return
		}
		writeJSON(w, http.StatusOK, authStatusResponse{Authenticated: true, Profile: profile})
	}
}
