package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/readmark/readmark/internal/httpserver/deps"
	"github.com/readmark/readmark/internal/httpserver/handlers"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", handlers.Login(d))
		r.Post("/logout", handlers.Logout(d))
		r.Get("/status", handlers.AuthStatus(d))
	})
}
