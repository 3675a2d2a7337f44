package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/readmark/readmark/internal/httpserver/deps"
	"github.com/readmark/readmark/internal/httpserver/handlers"
)

func init() { Register(registerCatalog) }

func registerCatalog(r chi.Router, d deps.Deps) {
	r.Get("/catalog", handlers.Catalog(d))
}
