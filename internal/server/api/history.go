package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/cardsight/internal/store"
)

// DefaultHistoryLimit is the number of detections returned without a limit parameter.
const DefaultHistoryLimit = 100

// HistoryHandler serves the stored detections of one session.
type HistoryHandler struct {
	store     *store.Store
	sessionID string
}

// NewHistoryHandler creates a HistoryHandler for sessionID.
func NewHistoryHandler(s *store.Store, sessionID string) *HistoryHandler {
	return &HistoryHandler{store: s, sessionID: sessionID}
}

type historyResponse struct {
	Session    *store.Session     `json:"session"`
	Detections []*store.Detection `json:"detections"`
	Hands      []store.HandCard   `json:"hands"`
}

// ServeHTTP handles GET /api/history?limit=N.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	sess, err := h.store.Sessions().GetByID(h.sessionID)
	if err != nil {
		writeErr(w, err)
		return
	}

	dets, err := h.store.Detections().ListBySession(h.sessionID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list detections")
		return
	}
	cards, err := h.store.Hands().ListBySession(h.sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list hands")
		return
	}

	if dets == nil {
		dets = []*store.Detection{}
	}
	if cards == nil {
		cards = []store.HandCard{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Session: sess, Detections: dets, Hands: cards})
}
