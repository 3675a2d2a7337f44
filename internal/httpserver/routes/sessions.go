package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/readmark/readmark/internal/httpserver/deps"
	"github.com/readmark/readmark/internal/httpserver/handlers"
)

func init() { Register(registerSessions) }

func registerSessions(r chi.Router, d deps.Deps) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/{contentID}", handlers.OpenSession(d))
		r.Get("/{contentID}", handlers.SessionState(d))
		r.Post("/{contentID}/next", handlers.NextPage(d))
		r.Post("/{contentID}/prev", handlers.PrevPage(d))
		r.Post("/{contentID}/page", handlers.JumpToPage(d))
		r.Post("/{contentID}/mode", handlers.SetMode(d))
		r.Post("/{contentID}/zoom", handlers.SetZoom(d))
		r.Post("/{contentID}/brightness", handlers.SetBrightness(d))
		r.Post("/{contentID}/autoscroll", handlers.SetAutoScroll(d))
		r.Delete("/{contentID}", handlers.CloseSession(d))
	})
}
