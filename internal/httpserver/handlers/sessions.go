package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/readmark/readmark/internal/httpserver/deps"
	"github.com/readmark/readmark/internal/session"
)

type openSessionRequest struct {
	ContentID       string `json:"contentId"`
	Page            int    `json:"page,omitempty"` // 1-indexed deep-link page, 0 = absent
	InitialPage     int    `json:"initialPage,omitempty"`
	Vertical        bool   `json:"vertical,omitempty"`
	TwoPage         bool   `json:"twoPage,omitempty"`
	Brightness      int    `json:"brightness,omitempty"`
	AutoScrollSpeed int    `json:"autoScrollSpeed,omitempty"`
}

// sessionResponse is the state snapshot plus the presentation actions
// (scroll requests) the frontend must execute.
type sessionResponse struct {
	SessionID string           `json:"sessionId,omitempty"`
	State     session.Snapshot `json:"state"`
	ScrollTo  *int             `json:"scrollTo,omitempty"` // 0-indexed page element
}

func buildResponse(s *session.Session, effects []session.Effect) sessionResponse {
	resp := sessionResponse{SessionID: s.ID, State: s.Snapshot()}
	for _, e := range effects {
		if e.Type == session.EffectScrollToPage {
			page := e.Page
			resp.ScrollTo = &page
		}
	}
	return resp
}

// OpenSession opens (or reopens) a reading session for a catalog item.
// The deep-link page parameter may come from the body or from the
// "page" query parameter; either way it is 1-indexed and wins over the
// stored bookmark.
func OpenSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req openSessionRequest
		if r.ContentLength != 0 {
			if !decodeBody(w, r, &req) {
				return
			}
		}
		if id := chi.URLParam(r, "contentID"); id != "" {
			req.ContentID = id
		}
		if q := r.URL.Query().Get("page"); q != "" {
			if page, err := strconv.Atoi(q); err == nil && page > 0 {
				req.Page = page
			}
		}

		entry, ok := d.Catalog.Get(req.ContentID)
		if !ok {
			writeError(w, session.ErrUnknownContent)
			return
		}

		cfg := session.Config{
			InitialPage:     req.InitialPage,
			URLPage:         req.Page,
			VerticalMode:    req.Vertical,
			TwoPage:         req.TwoPage,
			Brightness:      req.Brightness,
			AutoScrollSpeed: req.AutoScrollSpeed,
		}
		s, effects, err := d.Sessions.Open(r.Context(), d.User.CurrentID(), entry, cfg)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, buildResponse(s, effects))
	}
}

// withSession resolves the session for the content id in the URL.
func withSession(d deps.Deps, w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	contentID := chi.URLParam(r, "contentID")
	s, ok := d.Sessions.Get(contentID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no open session for " + contentID})
		return nil, false
	}
	return s, true
}

// SessionState returns the current snapshot.
func SessionState(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(d, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, buildResponse(s, nil))
	}
}

// NextPage advances one step (one page, or one spread in two-page mode).
func NextPage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(d, w, r)
		if !ok {
			return
		}
		effects, err := s.NextPage(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, buildResponse(s, effects))
	}
}

// PrevPage goes back one step.
func PrevPage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(d, w, r)
		if !ok {
			return
		}
		effects, err := s.PrevPage(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, buildResponse(s, effects))
	}
}

type jumpRequest struct {
	Page int `json:"page"` // 1-indexed
}

// JumpToPage jumps to a 1-indexed page.
func JumpToPage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(d, w, r)
		if !ok {
			return
		}
		var req jumpRequest
		if !decodeBody(w, r, &req) {
			return
		}
		effects, err := s.JumpToPage(r.Context(), req.Page)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, buildResponse(s, effects))
	}
}

type modeRequest struct {
	Vertical *bool `json:"vertical,omitempty"`
	TwoPage  *bool `json:"twoPage,omitempty"`
}

// SetMode switches vertical and/or two-page mode.
func SetMode(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(d, w, r)
		if !ok {
			return
		}
		var req modeRequest
		if !decodeBody(w, r, &req) {
			return
		}
		var effects []session.Effect
		if req.Vertical != nil {
			e, err := s.SetVerticalMode(r.Context(), *req.Vertical)
			if err != nil {
				writeError(w, err)
				return
			}
			effects = append(effects, e...)
		}
		if req.TwoPage != nil {
			e, err := s.SetTwoPage(r.Context(), *req.TwoPage)
			if err != nil {
				writeError(w, err)
				return
			}
			effects = append(effects, e...)
		}
		writeJSON(w, http.StatusOK, buildResponse(s, effects))
	}
}

type zoomRequest struct {
	Scale float64 `json:"scale"`
}

// SetZoom sets the zoom scale (paged mode only).
func SetZoom(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(d, w, r)
		if !ok {
			return
		}
		var req zoomRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := s.SetZoom(req.Scale); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, buildResponse(s, nil))
	}
}

type brightnessRequest struct {
	Value int `json:"value"`
}

// SetBrightness sets display brightness.
func SetBrightness(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(d, w, r)
		if !ok {
			return
		}
		var req brightnessRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := s.SetBrightness(req.Value); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, buildResponse(s, nil))
	}
}

type autoScrollRequest struct {
	Enabled bool `json:"enabled"`
	Speed   int  `json:"speed,omitempty"` // 1-10, 0 keeps current
}

// SetAutoScroll starts or stops auto-scrolling (vertical mode only).
func SetAutoScroll(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(d, w, r)
		if !ok {
			return
		}
		var req autoScrollRequest
		if !decodeBody(w, r, &req) {
			return
		}
		effects, err := s.SetAutoScroll(r.Context(), req.Enabled, req.Speed)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, buildResponse(s, effects))
	}
}

// CloseSession closes the session, flushing its bookmark synchronously.
func CloseSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(d, w, r)
		if !ok {
			return
		}
		if err := s.Close(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
