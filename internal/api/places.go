package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/erazemk/izgubljeno/internal/store"
)

// maxPlaceNameLength bounds place names.
const maxPlaceNameLength = 100

// PlacesHandler handles the places where items are found.
type PlacesHandler struct {
	DB *sql.DB
}

type placeRequest struct {
	Name string `json:"name"`
}

func (req *placeRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name required"
	}
	if utf8.RuneCountInString(req.Name) > maxPlaceNameLength {
		return "name too long"
	}
	return ""
}

// List handles GET /api/places.
func (h *PlacesHandler) List(w http.ResponseWriter, r *http.Request) {
	places, err := store.ListPlaces(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list places", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list places")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(places))
}

// Create handles POST /api/places.
func (h *PlacesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	place, err := store.CreatePlace(r.Context(), h.DB, req.Name)
	if err != nil {
		slog.Error("failed to create place", "error", err)
		jsonError(w, http.StatusConflict, "place already exists")
		return
	}

	slog.Info("place created", "user", actor(r).Username, "place", place.Name)
	jsonResponse(w, http.StatusCreated, place)
}

// Rename handles PUT /api/places/{id}.
func (h *PlacesHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid place id")
		return
	}

	var req placeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	place, err := store.GetPlace(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get place", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to rename place")
		return
	}
	if place == nil {
		jsonError(w, http.StatusNotFound, "place not found")
		return
	}

	if err := store.RenamePlace(r.Context(), h.DB, id, req.Name); err != nil {
		slog.Error("failed to rename place", "error", err)
		jsonError(w, http.StatusConflict, "place already exists")
		return
	}

	slog.Info("place renamed", "user", actor(r).Username, "from", place.Name, "to", req.Name)
	place.Name = req.Name
	jsonResponse(w, http.StatusOK, place)
}
