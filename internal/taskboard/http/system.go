package http

import (
	"net/http"
	"time"

	"github.com/taskboardhq/taskboard/internal/taskboard/store"
	"github.com/taskboardhq/taskboard/pkg/httpx"
)

type healthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Version  string `json:"version"`
	Database string `json:"database,omitempty"`
}

// LivezHandler godoc
//
//	@Summary		Liveness probe
//	@Description	Always returns 200 while the process is running.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	healthResponse
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Returns 503 when the database cannot be reached.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	healthResponse
//	@Failure		503	{object}	healthResponse
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := healthResponse{
			Status:   "ok",
			Uptime:   time.Since(startTime).String(),
			Version:  version,
			Database: "ok",
		}
		code := http.StatusOK
		if err := st.Ping(r.Context()); err != nil {
			response.Status = "degraded"
			response.Database = "error: " + err.Error()
			code = http.StatusServiceUnavailable
		}
		httpx.WriteJSON(w, code, response)
	}
}

// IndexHandler lists the API surface, mirroring what a client would
// find in the docs. Unauthenticated.
//
//	@Summary		API index
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Router			/api [get].
func IndexHandler(version string) http.HandlerFunc {
	endpoints := map[string]any{
		"auth": map[string]string{
			"register":       "POST /api/auth/register",
			"login":          "POST /api/auth/login",
			"refresh":        "POST /api/auth/refresh",
			"logout":         "POST /api/auth/logout",
			"me":             "GET /api/auth/me",
			"updateProfile":  "PUT /api/auth/profile",
			"changePassword": "PUT /api/auth/password",
			"totpEnroll":     "POST /api/auth/totp/enroll",
			"totpActivate":   "POST /api/auth/totp/activate",
			"totpDisable":    "POST /api/auth/totp/disable",
		},
		"tasks": map[string]string{
			"search": "GET /api/tasks",
			"create": "POST /api/tasks",
			"stats":  "GET /api/tasks/stats",
			"get":    "GET /api/tasks/{id}",
			"update": "PUT /api/tasks/{id}",
			"delete": "DELETE /api/tasks/{id}",
		},
		"comments": map[string]string{
			"add":    "POST /api/tasks/{id}/comments",
			"update": "PUT /api/tasks/{id}/comments/{commentId}",
			"delete": "DELETE /api/tasks/{id}/comments/{commentId}",
		},
		"attachments": map[string]string{
			"upload":   "POST /api/tasks/{id}/attachments",
			"url":      "GET /api/tasks/{id}/attachments/{attachmentId}/url",
			"download": "GET /api/tasks/{id}/attachments/{attachmentId}/download",
			"delete":   "DELETE /api/tasks/{id}/attachments/{attachmentId}",
		},
		"users": map[string]string{
			"list":       "GET /api/users",
			"assignable": "GET /api/users/assignable",
			"get":        "GET /api/users/{id}",
			"update":     "PUT /api/users/{id}",
			"delete":     "DELETE /api/users/{id}",
		},
		"system": map[string]string{
			"livez":   "GET /livez",
			"readyz":  "GET /readyz",
			"swagger": "GET /swagger/index.html",
		},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, "taskboard API "+version, endpoints)
	}
}
