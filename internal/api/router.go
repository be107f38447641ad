// Package api provides the HTTP API for the lost and found service.
package api

import (
	"database/sql"
	"net/http"

	"github.com/oit-labs/lostfound/internal/directory"
	"github.com/oit-labs/lostfound/internal/workflow"
)

// NewRouter builds the HTTP handler with all routes wired.
func NewRouter(db *sql.DB, jwtSecret string, engine *workflow.Engine, dir directory.Lookup, rules directory.Rules) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	itemsHandler := &ItemsHandler{DB: db, Engine: engine, Directory: dir}
	personsHandler := &PersonsHandler{DB: db, Directory: dir, Rules: rules}
	refHandler := &RefDataHandler{DB: db}

	authed := AuthMiddleware(jwtSecret, db)
	staff := func(h http.HandlerFunc) http.Handler {
		return authed(RequireStaff(h))
	}

	// Authentication.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("PUT /api/auth/password", authed(http.HandlerFunc(authHandler.ChangePassword)))

	// Items.
	mux.Handle("POST /api/items/checkin", authed(http.HandlerFunc(itemsHandler.Checkin)))
	mux.Handle("GET /api/items", authed(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("GET /api/items/{id}", authed(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("POST /api/items/{id}/action", authed(http.HandlerFunc(itemsHandler.Action)))
	mux.Handle("PUT /api/items/{id}/archive", staff(itemsHandler.Archive))
	mux.Handle("PUT /api/items/{id}/photo", authed(http.HandlerFunc(itemsHandler.UploadPhoto)))
	mux.Handle("GET /api/items/{id}/photo", authed(http.HandlerFunc(itemsHandler.GetPhoto)))

	// Persons.
	mux.Handle("GET /api/persons", staff(personsHandler.List))
	mux.Handle("GET /api/persons/{id}", staff(personsHandler.Get))
	mux.Handle("POST /api/persons/provision", staff(personsHandler.Provision))
	mux.Handle("PUT /api/persons/{id}/flags", staff(personsHandler.SetFlags))
	mux.Handle("PUT /api/persons/{id}/password", staff(personsHandler.ResetPassword))

	// Reference data.
	mux.Handle("GET /api/actions", authed(http.HandlerFunc(refHandler.ListActions)))
	mux.Handle("GET /api/categories", authed(http.HandlerFunc(refHandler.ListCategories)))
	mux.Handle("POST /api/categories", staff(refHandler.CreateCategory))
	mux.Handle("GET /api/locations", authed(http.HandlerFunc(refHandler.ListLocations)))
	mux.Handle("POST /api/locations", staff(refHandler.CreateLocation))

	// Health check.
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return LoggingMiddleware(mux)
}
