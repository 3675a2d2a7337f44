package handlers

import (
	"net/http"

	"github.com/readmark/readmark/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready          bool `json:"ready"`
	CatalogEntries int  `json:"catalog_entries"`
}

// Readyz reports readiness: the daemon serves sessions once the
// catalog has loaded at least once.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready := !d.Catalog.LastReload().IsZero()
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, readyzResponse{
			Ready:          ready,
			CatalogEntries: d.Catalog.Count(),
		})
	}
}
