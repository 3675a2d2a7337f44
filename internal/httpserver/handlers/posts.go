package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/readmark/readmark/internal/httpserver/deps"
	"github.com/readmark/readmark/internal/remote"
)

// The post endpoints proxy the CMS for the embedded management UI.
// Errors come back with the remote message verbatim; only the token
// refresh path retries automatically (inside the client).

func GetPost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := d.Remote.GetPost(r.Context(), chi.URLParam(r, "postID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, post)
	}
}

func ListPosts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := d.Remote.ListPosts(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, posts)
	}
}

func CreatePost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var post remote.Post
		if !decodeBody(w, r, &post) {
			return
		}
		created, err := d.Remote.CreatePost(r.Context(), &post)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func UpdatePost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var post remote.Post
		if !decodeBody(w, r, &post) {
			return
		}
		post.ID = chi.URLParam(r, "postID")
		updated, err := d.Remote.UpdatePost(r.Context(), &post)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func DeletePost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Remote.DeletePost(r.Context(), chi.URLParam(r, "postID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func PublishPost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Remote.PublishPost(r.Context(), chi.URLParam(r, "postID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func RevertPost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Remote.RevertPost(r.Context(), chi.URLParam(r, "postID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
