package api

import (
	"net/http"

	"github.com/erazemk/izgubljeno/internal/service"
)

// RewardsHandler handles finder reward endpoints.
type RewardsHandler struct {
	Service *service.Service
}

type grantRewardRequest struct {
	StudentID int64 `json:"student_id"`
}

// Grant handles POST /api/items/{id}/reward.
func (h *RewardsHandler) Grant(w http.ResponseWriter, r *http.Request) {
	var req grantRewardRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StudentID <= 0 {
		jsonError(w, http.StatusBadRequest, "student_id required")
		return
	}

	reward, err := h.Service.GrantReward(r.Context(), actor(r), r.PathValue("id"), req.StudentID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, reward)
}

// List handles GET /api/rewards. Students only see their own rewards.
func (h *RewardsHandler) List(w http.ResponseWriter, r *http.Request) {
	studentID, ok := queryID(r, "student")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid student id")
		return
	}
	if a := actor(r); !a.IsStaff() {
		studentID = a.UserID
	}

	rewards, err := h.Service.ListRewards(r.Context(), studentID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(rewards))
}
