package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/readmark/readmark/internal/httpserver/deps"
	"github.com/readmark/readmark/internal/httpserver/handlers"
)

func init() { Register(registerPosts) }

func registerPosts(r chi.Router, d deps.Deps) {
	r.Route("/posts", func(r chi.Router) {
		r.Get("/", handlers.ListPosts(d))
		r.Post("/", handlers.CreatePost(d))
		r.Get("/{postID}", handlers.GetPost(d))
		r.Put("/{postID}", handlers.UpdatePost(d))
		r.Delete("/{postID}", handlers.DeletePost(d))
		r.Post("/{postID}/publish", handlers.PublishPost(d))
		r.Post("/{postID}/revert", handlers.RevertPost(d))
	})
}
