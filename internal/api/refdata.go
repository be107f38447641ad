package api

import (
	"database/sql"
	"net/http"

	"github.com/oit-labs/lostfound/internal/model"
	"github.com/oit-labs/lostfound/internal/store"
)

// RefDataHandler serves the reference tables: actions, categories, locations.
type RefDataHandler struct {
	DB *sql.DB
}

type createCategoryRequest struct {
	Name        string `json:"name"`
	MachineName string `json:"machine_name"`
}

type createLocationRequest struct {
	Name string `json:"name"`
}

// ListActions handles GET /api/actions.
func (h *RefDataHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	actions, err := store.ListActions(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list actions")
		return
	}
	if actions == nil {
		actions = []model.Action{}
	}
	jsonResponse(w, http.StatusOK, actions)
}

// ListCategories handles GET /api/categories.
func (h *RefDataHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	jsonResponse(w, http.StatusOK, categories)
}

// CreateCategory handles POST /api/categories.
func (h *RefDataHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	category, err := store.CreateCategory(r.Context(), h.DB, req.Name, req.MachineName)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create category")
		return
	}
	jsonResponse(w, http.StatusCreated, category)
}

// ListLocations handles GET /api/locations.
func (h *RefDataHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := store.ListLocations(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list locations")
		return
	}
	if locations == nil {
		locations = []model.Location{}
	}
	jsonResponse(w, http.StatusOK, locations)
}

// CreateLocation handles POST /api/locations.
func (h *RefDataHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req createLocationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	location, err := store.CreateLocation(r.Context(), h.DB, req.Name)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create location")
		return
	}
	jsonResponse(w, http.StatusCreated, location)
}
