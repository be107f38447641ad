package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/oit-labs/lostfound/internal/directory"
	"github.com/oit-labs/lostfound/internal/imaging"
	"github.com/oit-labs/lostfound/internal/model"
	"github.com/oit-labs/lostfound/internal/store"
	"github.com/oit-labs/lostfound/internal/workflow"
)

// ItemsHandler handles item check-in, listing, actions, and photos.
type ItemsHandler struct {
	DB        *sql.DB
	Engine    *workflow.Engine
	Directory directory.Lookup
}

type checkinRequest struct {
	LocationID     int64  `json:"location_id"`
	CategoryID     int64  `json:"category_id"`
	Description    string `json:"description"`
	IsValuable     bool   `json:"is_valuable"`
	OwnerUsername  string `json:"owner_username"`
	OwnerFirstName string `json:"owner_first_name"`
	OwnerLastName  string `json:"owner_last_name"`
	OwnerEmail     string `json:"owner_email"`
}

type actionRequest struct {
	Action    string `json:"action"`
	Note      string `json:"note"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type archiveRequest struct {
	Archived bool `json:"archived"`
}

// Checkin handles POST /api/items/checkin.
func (h *ItemsHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	var req checkinRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// A supplied directory username must actually exist before attaching.
	// Lookup failures count as absent.
	if req.OwnerUsername != "" && !directory.Verify(r.Context(), h.Directory, req.OwnerUsername) {
		jsonResponse(w, http.StatusBadRequest, map[string]any{"errors": map[string]string{
			"username": "Invalid username, enter a valid username or leave blank.",
		}})
		return
	}

	item, err := h.Engine.CheckIn(r.Context(), workflow.CheckInRequest{
		LocationID:     req.LocationID,
		CategoryID:     req.CategoryID,
		Description:    req.Description,
		IsValuable:     req.IsValuable,
		OwnerFirstName: req.OwnerFirstName,
		OwnerLastName:  req.OwnerLastName,
		OwnerEmail:     req.OwnerEmail,
	}, GetActor(r.Context()))
	if err != nil {
		workflowError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// List handles GET /api/items. Staff see any state; everyone else gets the
// restricted view, which only ever shows items currently checked in.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ItemFilter{
		Select:  q.Get("select"),
		Keyword: q.Get("keyword"),
		SortBy:  q.Get("sort"),
	}
	filter.LocationID, _ = strconv.ParseInt(q.Get("location"), 10, 64)
	filter.CategoryID, _ = strconv.ParseInt(q.Get("category"), 10, 64)

	actor := GetActor(r.Context())
	if actor == nil || !actor.IsStaff {
		filter.CheckedInOnly = true
	}

	items, err := store.FilterItems(r.Context(), h.DB, filter)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}, returning the item with its full history.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	history, err := store.ItemHistory(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item history")
		return
	}
	if history == nil {
		history = []model.StatusEvent{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"item":    item,
		"history": history,
	})
}

// Action handles POST /api/items/{id}/action. Permission and validation are
// the workflow engine's responsibility.
func (h *ItemsHandler) Action(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req actionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Engine.ApplyAction(r.Context(), id, workflow.ActionRequest{
		Action:    req.Action,
		Note:      req.Note,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}, GetActor(r.Context()))
	if err != nil {
		workflowError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Archive handles PUT /api/items/{id}/archive.
func (h *ItemsHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req archiveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	if err := store.SetItemArchived(r.Context(), h.DB, id, req.Archived); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	updated, _ := store.GetItem(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, updated)
}

// UploadPhoto handles PUT /api/items/{id}/photo.
func (h *ItemsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemPhoto(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/items/{id}/photo.
func (h *ItemsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemPhoto(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
