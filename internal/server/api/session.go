package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ayusman/cardsight/internal/overlay"
	"github.com/ayusman/cardsight/internal/session"
)

// SessionHandler exposes the session operations under /api/session.
type SessionHandler struct {
	session *session.Session
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

// NewSessionHandler creates a SessionHandler. Manual detection requests are limited
// to detectRate per second; a non-positive rate disables the limit.
func NewSessionHandler(s *session.Session, detectRate float64, log logrus.FieldLogger) *SessionHandler {
	limit := rate.Inf
	burst := 1
	if detectRate > 0 {
		limit = rate.Limit(detectRate)
		burst = max(1, int(detectRate))
	}

	return &SessionHandler{
		session: s,
		limiter: rate.NewLimiter(limit, burst),
		log:     log.WithField("component", "api"),
	}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/session or /api/session/{operation}
	path := strings.TrimPrefix(r.URL.Path, "/api/session")
	path = strings.TrimPrefix(path, "/")

	type route struct {
		path   string
		method string
	}

	switch (route{path, r.Method}) {
	case route{"", http.MethodGet}:
		h.get(w, r)
	case route{"source", http.MethodPost}:
		h.acquire(w, r)
	case route{"source", http.MethodDelete}:
		h.release(w, r)
	case route{"detect", http.MethodPost}:
		h.detect(w, r)
	case route{"loop", http.MethodPost}:
		h.startLoop(w, r)
	case route{"loop", http.MethodDelete}:
		h.stopLoop(w, r)
	case route{"mode", http.MethodPut}:
		h.setMode(w, r)
	case route{"players", http.MethodPut}:
		h.setPlayers(w, r)
	case route{"clear", http.MethodPost}:
		h.clear(w, r)
	case route{"restart", http.MethodPost}:
		h.restart(w, r)
	case route{"overlay", http.MethodGet}:
		h.overlay(w, r)
	case route{"display", http.MethodPut}:
		h.setDisplay(w, r)
	default:
		switch path {
		case "", "source", "detect", "loop", "mode", "players", "clear", "restart", "overlay", "display":
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		default:
			http.NotFound(w, r)
		}
	}
}

type detectRequest struct {
	Action string `json:"action"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type playersRequest struct {
	NumPlayers int `json:"num_players"`
}

type clearRequest struct {
	Target string `json:"target"`
}

type displayRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type overlayResponse struct {
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Boxes  []overlay.Box `json:"boxes"`
}

// get handles GET /api/session and returns the state snapshot.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// acquire handles POST /api/session/source.
func (h *SessionHandler) acquire(w http.ResponseWriter, r *http.Request) {
	if err := h.session.AcquireSource(); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// release handles DELETE /api/session/source.
func (h *SessionHandler) release(w http.ResponseWriter, r *http.Request) {
	if err := h.session.ReleaseSource(); err != nil {
		h.log.WithError(err).Warn("closing source failed")
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// detect handles POST /api/session/detect and runs one round trip.
func (h *SessionHandler) detect(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "Too many detection requests")
		return
	}

	var req detectRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	action, err := session.ParseAction(req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The round trip is applied even if the client goes away.
	if err := h.session.RunOnce(context.WithoutCancel(r.Context()), action); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// startLoop handles POST /api/session/loop.
func (h *SessionHandler) startLoop(w http.ResponseWriter, r *http.Request) {
	if err := h.session.StartLoop(); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// stopLoop handles DELETE /api/session/loop.
func (h *SessionHandler) stopLoop(w http.ResponseWriter, r *http.Request) {
	h.session.StopLoop()
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// setMode handles PUT /api/session/mode.
func (h *SessionHandler) setMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.session.SetMode(mode)
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// setPlayers handles PUT /api/session/players. Changing the count resets every hand.
func (h *SessionHandler) setPlayers(w http.ResponseWriter, r *http.Request) {
	var req playersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.session.SetNumPlayers(req.NumPlayers); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// clear handles POST /api/session/clear.
func (h *SessionHandler) clear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	switch req.Target {
	case "results":
		h.session.ClearResults()
	case "hands":
		h.session.ClearHands()
	default:
		writeError(w, http.StatusBadRequest, "Target must be results or hands")
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// restart handles POST /api/session/restart.
func (h *SessionHandler) restart(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Restart(); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// setDisplay handles PUT /api/session/display. Published detection boxes are mapped
// onto the given size from then on.
func (h *SessionHandler) setDisplay(w http.ResponseWriter, r *http.Request) {
	var req displayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	size := overlay.Size{Width: req.Width, Height: req.Height}
	if !size.Valid() {
		writeError(w, http.StatusBadRequest, "width and height must be positive")
		return
	}

	h.session.SetDisplay(size)
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// overlay handles GET /api/session/overlay?width=W&height=H.
func (h *SessionHandler) overlay(w http.ResponseWriter, r *http.Request) {
	width, errW := strconv.Atoi(r.URL.Query().Get("width"))
	height, errH := strconv.Atoi(r.URL.Query().Get("height"))
	dst := overlay.Size{Width: float64(width), Height: float64(height)}
	if errW != nil || errH != nil || !dst.Valid() {
		writeError(w, http.StatusBadRequest, "width and height must be positive integers")
		return
	}

	writeJSON(w, http.StatusOK, overlayResponse{
		Width:  width,
		Height: height,
		Boxes:  h.session.Overlay(dst),
	})
}
