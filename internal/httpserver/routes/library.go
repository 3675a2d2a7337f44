package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/readmark/readmark/internal/httpserver/deps"
	"github.com/readmark/readmark/internal/httpserver/handlers"
)

func init() { Register(registerLibrary) }

func registerLibrary(r chi.Router, d deps.Deps) {
	r.Route("/library", func(r chi.Router) {
		r.Get("/bookmarks", handlers.ListBookmarks(d))
		r.Delete("/bookmarks/{contentID}", handlers.DeleteBookmark(d))
		r.Get("/follows", handlers.ListFollows(d))
		r.Post("/follows", handlers.Follow(d))
		r.Delete("/follows/{seriesID}", handlers.Unfollow(d))
		r.Get("/reads", handlers.ListReads(d))
		r.Post("/reads", handlers.MarkRead(d))
	})
}
