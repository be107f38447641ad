package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oit-labs/lostfound/internal/auth"
	"github.com/oit-labs/lostfound/internal/model"
	"github.com/oit-labs/lostfound/internal/store"
)

type contextKey string

const actorKey contextKey = "actor"

// AuthMiddleware validates the bearer token and loads the acting person into
// the request context. Deactivated accounts are rejected even with a valid
// token.
func AuthMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				jsonError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}

			tokenStr := strings.TrimPrefix(header, "Bearer ")
			claims, err := auth.ValidateToken(secret, tokenStr)
			if err != nil {
				jsonError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			person, err := store.GetPerson(r.Context(), db, claims.PersonID)
			if err != nil {
				jsonError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if person == nil || !person.IsActive {
				jsonError(w, http.StatusUnauthorized, "account not active")
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, person)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStaff rejects requests whose actor lacks the staff flag.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := GetActor(r.Context())
		if actor == nil {
			jsonError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if !actor.IsStaff {
			jsonError(w, http.StatusForbidden, "staff access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetActor retrieves the acting person from the context.
func GetActor(ctx context.Context) *model.Person {
	actor, _ := ctx.Value(actorKey).(*model.Person)
	return actor
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond))
	})
}
