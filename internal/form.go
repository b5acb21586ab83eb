package internal

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/vichambarde/serverroom/internal/models"
	"github.com/vichambarde/serverroom/internal/stock"
)

const (
	msgNotEnoughStock = "Not enough items in stock."
	msgInvalidBody    = "Invalid request body."
	msgServerError    = "Server Error"
)

// submitEntry issues stock to a requester. Notification delivery happens in
// the background and never changes the response.
func (s *Server) submitEntry(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.MessageResponse{Msg: msgInvalidBody})
		return
	}

	entry, err := s.Workflow.Submit(r.Context(), req)
	var verr *stock.ValidationError
	switch {
	case err == nil:
	case errors.Is(err, stock.ErrInsufficientStock):
		writeJSON(w, http.StatusBadRequest, models.MessageResponse{Msg: msgNotEnoughStock})
		return
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, models.MessageResponse{Msg: verr.Error()})
		return
	default:
		log.Printf("[Form] submit %q: %v", req.ItemTaken, err)
		http.Error(w, msgServerError, http.StatusInternalServerError)
		return
	}

	// A list read before the decrement may still be cached after this by a
	// concurrent GET, so the dropdown can lag by up to ITEMS_CACHE_TTL. Submit
	// itself never trusts the cache.
	s.Cache.Invalidate(r.Context())
	writeJSON(w, http.StatusCreated, entry)
}

// listAvailableItems feeds the form dropdown with in-stock item names. The
// cached list is advisory and may be stale for one TTL.
func (s *Server) listAvailableItems(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.Cache.GetAvailable(r.Context()); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	items, err := s.Store.Catalog().ListAvailable(r.Context())
	if err != nil {
		log.Printf("[Form] list items: %v", err)
		http.Error(w, msgServerError, http.StatusInternalServerError)
		return
	}

	out := make([]models.AvailableItem, 0, len(items))
	for _, it := range items {
		out = append(out, models.AvailableItem{Name: it.Name})
	}
	s.Cache.SetAvailable(r.Context(), out)
	writeJSON(w, http.StatusOK, out)
}
