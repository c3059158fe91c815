package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-broadcast-api/internal/application/broadcast"
	"github.com/go-broadcast-api/internal/domain"
	"github.com/go-broadcast-api/internal/pkg/validate"
	"github.com/go-broadcast-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// BroadcastHandler handles the operator-facing announcement endpoints.
type BroadcastHandler struct {
	svc broadcast.Service
}

func NewBroadcastHandler(svc broadcast.Service) *BroadcastHandler {
	return &BroadcastHandler{svc: svc}
}

func (h *BroadcastHandler) Send(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.SendAnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !req.SendToAll && len(req.RecipientIDs) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "either send_to_all or recipient_ids is required")
		return
	}
	count, err := h.svc.Send(r.Context(), claims.UserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SendResultEnvelope{RecipientCount: count})
}

func (h *BroadcastHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *BroadcastHandler) Detail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *BroadcastHandler) Delete(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResultEnvelope{DeletedCount: count})
}
