package handlers

import (
	"net/http"

	"github.com/readmark/readmark/internal/httpserver/deps"
)

// Catalog returns every readable content entry.
func Catalog(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Catalog.All())
	}
}
