package middleware

import (
	"context"
	"net/http"
	"product-service/internal/domain"
	"product-service/pkg/utils"
)

// AuthMiddleware verifies the bearer token (or accessToken cookie) and
// puts the caller in the request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := utils.TokenFromRequest(r)
		if tokenString == "" {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: No token provided")
			return
		}

		claims, err := utils.ValidateJWT(tokenString)
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: Invalid token")
			return
		}

		// Token claims are trusted as-is; there is no user store behind this service.
		sub, _ := claims["sub"].(string)
		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)

		user := &domain.User{
			ID:    sub,
			Email: email,
			Role:  role,
		}

		ctx := context.WithValue(r.Context(), domain.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
