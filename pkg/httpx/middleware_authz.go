package httpx

import "net/http"

// AdminRole is the role value that passes RequireAdmin. Kept here so
// httpx stays free of domain imports.
const AdminRole = "admin"

// RequireAdmin rejects callers whose authenticated role is not admin.
// Must run after AuthnMiddleware.
func RequireAdmin() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromCtx(r.Context()) != AdminRole {
				WriteJSON(w, http.StatusForbidden, map[string]any{
					"success": false,
					"message": "admin access required",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
