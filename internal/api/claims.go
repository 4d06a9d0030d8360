package api

import (
	"net/http"

	"github.com/erazemk/izgubljeno/internal/model"
	"github.com/erazemk/izgubljeno/internal/service"
)

// ClaimsHandler handles ownership claim endpoints.
type ClaimsHandler struct {
	Service *service.Service
}

type submitClaimRequest struct {
	Reason string `json:"reason"`
}

type resolveClaimRequest struct {
	Decision model.ClaimStatus `json:"decision"`
}

// Submit handles POST /api/items/{id}/claims.
func (h *ClaimsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, err := h.Service.SubmitClaim(r.Context(), actor(r), r.PathValue("id"), req.Reason)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, claim)
}

// List handles GET /api/claims.
func (h *ClaimsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	claims, err := h.Service.ListClaims(r.Context(), actor(r), service.ClaimQuery{
		Status: q.Get("status"),
		ItemID: q.Get("item"),
		Sort:   q.Get("sort"),
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(claims))
}

// Count handles GET /api/claims/count.
func (h *ClaimsHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.CountPendingClaims(r.Context(), actor(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int{"pending": count})
}

// Mine handles GET /api/claims/mine.
func (h *ClaimsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims, err := h.Service.MyClaims(r.Context(), actor(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(claims))
}

// Resolve handles POST /api/claims/{id}/resolve.
func (h *ClaimsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	var req resolveClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, err := h.Service.ResolveClaim(r.Context(), actor(r), id, req.Decision)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, claim)
}
