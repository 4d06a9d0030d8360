package api

import (
	"net/http"

	"github.com/erazemk/izgubljeno/internal/service"
)

// DisposalHandler handles disposal hold endpoints.
type DisposalHandler struct {
	Service *service.Service
}

type submitHoldRequest struct {
	Reason        string `json:"reason"`
	ExtensionDays int    `json:"extension_days"`
}

// Submit handles POST /api/items/{id}/disposal-holds.
func (h *DisposalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitHoldRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hold, err := h.Service.SubmitDisposalHold(r.Context(), actor(r), r.PathValue("id"), req.Reason, req.ExtensionDays)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, hold)
}

// List handles GET /api/items/{id}/disposal-holds.
func (h *DisposalHandler) List(w http.ResponseWriter, r *http.Request) {
	holds, err := h.Service.ListDisposalHolds(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(holds))
}

// Latest handles GET /api/items/{id}/disposal-hold. The optional from and
// to query parameters are inclusive YYYY-MM-DD dates.
func (h *DisposalHandler) Latest(w http.ResponseWriter, r *http.Request) {
	from, ok := queryDate(r, "from")
	if !ok {
		jsonError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}
	to, ok := queryDate(r, "to")
	if !ok {
		jsonError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
		return
	}
	if (from == nil) != (to == nil) {
		jsonError(w, http.StatusBadRequest, "from and to must be given together")
		return
	}

	hold, err := h.Service.GetDisposalHold(r.Context(), r.PathValue("id"), from, to)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, hold)
}

// Apply handles POST /api/items/{id}/disposal-holds/{hold}/apply.
func (h *DisposalHandler) Apply(w http.ResponseWriter, r *http.Request) {
	holdID, ok := pathID(r, "hold")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid disposal hold id")
		return
	}

	item, err := h.Service.ApplyExtension(r.Context(), actor(r), r.PathValue("id"), holdID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, newItemResponse(item))
}
