package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/readmark/readmark/internal/domain"
	"github.com/readmark/readmark/internal/httpserver/deps"
	"github.com/readmark/readmark/internal/store"
)

// currentUser rejects the request when nobody is signed in.
func currentUser(d deps.Deps, w http.ResponseWriter) (string, bool) {
	userID := d.User.CurrentID()
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return "", false
	}
	return userID, true
}

// ListBookmarks returns the user's stored reading bookmarks.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(d, w)
		if !ok {
			return
		}
		bookmarks, err := store.Bookmarks(r.Context(), d.Store, userID)
		if err != nil {
			writeError(w, err)
			return
		}
		if bookmarks == nil {
			bookmarks = []domain.ReadingBookmark{}
		}
		writeJSON(w, http.StatusOK, bookmarks)
	}
}

// DeleteBookmark removes one bookmark by content id.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(d, w)
		if !ok {
			return
		}
		contentID := chi.URLParam(r, "contentID")
		bookmarks, err := store.Bookmarks(r.Context(), d.Store, userID)
		if err != nil {
			writeError(w, err)
			return
		}
		kept := bookmarks[:0]
		for _, b := range bookmarks {
			if b.ID != contentID {
				kept = append(kept, b)
			}
		}
		if err := store.PutBookmarks(r.Context(), d.Store, userID, kept); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListFollows returns the user's followed series.
func ListFollows(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(d, w)
		if !ok {
			return
		}
		follows, err := store.Follows(r.Context(), d.Store, userID)
		if err != nil {
			writeError(w, err)
			return
		}
		if follows == nil {
			follows = []domain.FollowedSeries{}
		}
		writeJSON(w, http.StatusOK, follows)
	}
}

type followRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Follow adds a series to the follow list (idempotent per id).
func Follow(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(d, w)
		if !ok {
			return
		}
		var req followRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.ID == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id is required"})
			return
		}
		follows, err := store.Follows(r.Context(), d.Store, userID)
		if err != nil {
			writeError(w, err)
			return
		}
		for _, f := range follows {
			if f.ID == req.ID {
				writeJSON(w, http.StatusOK, f)
				return
			}
		}
		entry := domain.FollowedSeries{
			ID:      req.ID,
			Title:   req.Title,
			URL:     req.URL,
			AddedAt: time.Now().UnixMilli(),
		}
		follows = append([]domain.FollowedSeries{entry}, follows...)
		if err := store.PutFollows(r.Context(), d.Store, userID, follows); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}

// Unfollow removes a series from the follow list.
func Unfollow(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(d, w)
		if !ok {
			return
		}
		id := chi.URLParam(r, "seriesID")
		follows, err := store.Follows(r.Context(), d.Store, userID)
		if err != nil {
			writeError(w, err)
			return
		}
		kept := follows[:0]
		for _, f := range follows {
			if f.ID != id {
				kept = append(kept, f)
			}
		}
		if err := store.PutFollows(r.Context(), d.Store, userID, kept); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListReads returns the user's read history.
func ListReads(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(d, w)
		if !ok {
			return
		}
		reads, err := store.Reads(r.Context(), d.Store, userID)
		if err != nil {
			writeError(w, err)
			return
		}
		if reads == nil {
			reads = []domain.ReadEntry{}
		}
		writeJSON(w, http.StatusOK, reads)
	}
}

type markReadRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// MarkRead records a post as read (idempotent per id, timestamp moves
// forward on repeat).
func MarkRead(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(d, w)
		if !ok {
			return
		}
		var req markReadRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.ID == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id is required"})
			return
		}
		reads, err := store.Reads(r.Context(), d.Store, userID)
		if err != nil {
			writeError(w, err)
			return
		}
		entry := domain.ReadEntry{
			ID:     req.ID,
			Title:  req.Title,
			URL:    req.URL,
			ReadAt: time.Now().UnixMilli(),
		}
		replaced := false
		for i := range reads {
			if reads[i].ID == req.ID {
				reads[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			reads = append([]domain.ReadEntry{entry}, reads...)
		}
		if err := store.PutReads(r.Context(), d.Store, userID, reads); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}
