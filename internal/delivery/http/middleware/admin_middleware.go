package middleware

import (
	"net/http"
	"product-service/internal/domain"
	"product-service/pkg/utils"
)

// AdminMiddleware ensures the authenticated user has the 'admin' role.
// MUST be used AFTER AuthMiddleware.
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value(domain.UserContextKey).(*domain.User)
		if !ok || user == nil {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: No user found in context")
			return
		}

		if user.Role != domain.RoleAdmin {
			utils.WriteError(w, http.StatusForbidden, "Forbidden: Admins only")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Protect chains AuthMiddleware and AdminMiddleware when enabled.
// With auth disabled the handler is returned unwrapped.
func Protect(enabled bool) func(http.HandlerFunc) http.Handler {
	return func(h http.HandlerFunc) http.Handler {
		if !enabled {
			return h
		}
		return AuthMiddleware(AdminMiddleware(h))
	}
}
