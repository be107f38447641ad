package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/oit-labs/lostfound/internal/directory"
	"github.com/oit-labs/lostfound/internal/model"
	"github.com/oit-labs/lostfound/internal/store"
)

// PersonsHandler handles the person registry endpoints. All of these are
// staff-only, enforced by the router.
type PersonsHandler struct {
	DB        *sql.DB
	Directory directory.Lookup
	Rules     directory.Rules
}

type provisionRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type flagsRequest struct {
	IsActive bool `json:"is_active"`
	IsStaff  bool `json:"is_staff"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// List handles GET /api/persons.
func (h *PersonsHandler) List(w http.ResponseWriter, r *http.Request) {
	persons, err := store.ListPersons(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list persons")
		return
	}
	if persons == nil {
		persons = []model.Person{}
	}
	jsonResponse(w, http.StatusOK, persons)
}

// Get handles GET /api/persons/{id}.
func (h *PersonsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid person id")
		return
	}

	person, err := store.GetPerson(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get person")
		return
	}
	if person == nil {
		jsonError(w, http.StatusNotFound, "person not found")
		return
	}
	jsonResponse(w, http.StatusOK, person)
}

// Provision handles POST /api/persons/provision. Looks the username up in the
// directory, classifies the account from its group memberships, and creates a
// login-capable person. An existing person with the same username has its
// flags refreshed instead.
func (h *PersonsHandler) Provision(w http.ResponseWriter, r *http.Request) {
	var req provisionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" {
		jsonError(w, http.StatusBadRequest, "username required")
		return
	}

	if h.Directory == nil {
		jsonError(w, http.StatusServiceUnavailable, "directory lookup not configured")
		return
	}

	entries, err := h.Directory.Search(r.Context(), req.Username)
	if err != nil {
		jsonError(w, http.StatusServiceUnavailable, "directory lookup failed")
		return
	}

	var entry *directory.Entry
	for i := range entries {
		if entries[i].Username == req.Username {
			entry = &entries[i]
			break
		}
	}
	if entry == nil {
		jsonError(w, http.StatusNotFound, "username not found in directory")
		return
	}

	isStaff, isActive := h.Rules.Classify(entry.Groups)
	if !isActive {
		jsonError(w, http.StatusForbidden, "account is not in an eligible directory group")
		return
	}

	existing, err := store.GetPersonByUsername(r.Context(), h.DB, req.Username)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		if err := store.SetPersonFlags(r.Context(), h.DB, existing.ID, isActive, isStaff); err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to update person")
			return
		}
		updated, _ := store.GetPerson(r.Context(), h.DB, existing.ID)
		jsonResponse(w, http.StatusOK, updated)
		return
	}

	var hash string
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
		hash = string(hashed)
	}

	person, err := store.CreateLoginPerson(r.Context(), h.DB,
		entry.FirstName, entry.LastName, entry.Email, entry.Username, hash, isStaff)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create person")
		return
	}

	slog.Info("person provisioned", "username", person.Username, "staff", person.IsStaff)
	jsonResponse(w, http.StatusCreated, person)
}

// SetFlags handles PUT /api/persons/{id}/flags.
func (h *PersonsHandler) SetFlags(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid person id")
		return
	}

	var req flagsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	person, err := store.GetPerson(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if person == nil {
		jsonError(w, http.StatusNotFound, "person not found")
		return
	}

	// A staff person keeping their own account working.
	actor := GetActor(r.Context())
	if actor != nil && actor.ID == id && !req.IsActive {
		jsonError(w, http.StatusBadRequest, "cannot deactivate your own account")
		return
	}

	if err := store.SetPersonFlags(r.Context(), h.DB, id, req.IsActive, req.IsStaff); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update person")
		return
	}

	updated, _ := store.GetPerson(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, updated)
}

// ResetPassword handles PUT /api/persons/{id}/password.
func (h *PersonsHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid person id")
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Password == "" {
		jsonError(w, http.StatusBadRequest, "password required")
		return
	}

	person, err := store.GetPerson(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if person == nil {
		jsonError(w, http.StatusNotFound, "person not found")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	if err := store.SetPersonPassword(r.Context(), h.DB, id, string(hash)); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update password")
		return
	}

	slog.Info("password reset", "username", person.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}
