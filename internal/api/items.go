package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/izgubljeno/internal/imaging"
	"github.com/erazemk/izgubljeno/internal/lifecycle"
	"github.com/erazemk/izgubljeno/internal/model"
	"github.com/erazemk/izgubljeno/internal/service"
	"github.com/erazemk/izgubljeno/internal/store"
)

// ItemsHandler handles found-item endpoints.
type ItemsHandler struct {
	Service *service.Service
	Images  imaging.Options
}

type registerItemRequest struct {
	Name        string         `json:"name"`
	Category    model.Category `json:"category"`
	FoundAt     time.Time      `json:"found_at"`
	PlaceID     int64          `json:"place_id"`
	PlaceDetail string         `json:"place_detail"`
}

type approvalRequest struct {
	Decision model.ApprovalStatus `json:"decision"`
}

type giveRequest struct {
	ReceiverID int64 `json:"receiver_id"`
}

type giveResponse struct {
	Item *model.Item `json:"item"`
	Give *model.Give `json:"give"`
}

// itemResponse adds the pending disposal deadline, which is only
// meaningful while the item waits for disposal.
type itemResponse struct {
	*model.Item
	PendingDeadline *time.Time `json:"pending_deadline,omitempty"`
}

func newItemResponse(item *model.Item) itemResponse {
	return itemResponse{Item: item, PendingDeadline: lifecycle.PendingDeadline(item)}
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	placeID, ok := queryID(r, "place")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid place id")
		return
	}

	items, err := h.Service.ListItems(r.Context(), store.ItemFilter{
		Status:         model.Status(q.Get("status")),
		ApprovalStatus: model.ApprovalStatus(q.Get("approval")),
		Category:       model.Category(q.Get("category")),
		PlaceID:        placeID,
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}

	out := make([]itemResponse, 0, len(items))
	for i := range items {
		out = append(out, newItemResponse(&items[i]))
	}
	jsonResponse(w, http.StatusOK, out)
}

// Register handles POST /api/items.
func (h *ItemsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Service.RegisterLostItem(r.Context(), actor(r), model.NewItem{
		Name:        req.Name,
		Category:    req.Category,
		FoundAt:     req.FoundAt,
		PlaceID:     req.PlaceID,
		PlaceDetail: req.PlaceDetail,
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, newItemResponse(item))
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, newItemResponse(item))
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteItem(r.Context(), actor(r), r.PathValue("id")); err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Approve handles POST /api/items/{id}/approval.
func (h *ItemsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req approvalRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Service.ProcessApproval(r.Context(), actor(r), r.PathValue("id"), req.Decision)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, newItemResponse(item))
}

// Give handles POST /api/items/{id}/give.
func (h *ItemsHandler) Give(w http.ResponseWriter, r *http.Request) {
	var req giveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ReceiverID <= 0 {
		jsonError(w, http.StatusBadRequest, "receiver_id required")
		return
	}

	item, give, err := h.Service.GiveToStudent(r.Context(), actor(r), r.PathValue("id"), req.ReceiverID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, giveResponse{Item: item, Give: give})
}

// ItemGives handles GET /api/items/{id}/gives.
func (h *ItemsHandler) ItemGives(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.Service.GetItem(r.Context(), id); err != nil {
		serviceError(w, r, err)
		return
	}

	gives, err := h.Service.ListGives(r.Context(), id, 0)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(gives))
}

// ListGives handles GET /api/gives.
func (h *ItemsHandler) ListGives(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(r, "user")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	gives, err := h.Service.ListGives(r.Context(), "", userID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(gives))
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.Images.MaxBytes
	if maxBytes <= 0 {
		maxBytes = imaging.DefaultMaxBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	if err := h.Service.SetItemImage(r.Context(), actor(r), r.PathValue("id"), file, h.Images); err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{id}/image and /api/items/{id}/thumbnail.
func (h *ItemsHandler) GetImage(thumbnail bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, mime, err := h.Service.ItemImage(r.Context(), r.PathValue("id"), thumbnail)
		if err != nil {
			serviceError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", mime)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Cache-Control", "private, max-age=3600")
		w.Write(data)
	}
}
