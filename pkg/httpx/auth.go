package httpx

import (
	"net/http"

	"github.com/tair/field-service/pkg/auth"
)

// AuthMiddleware validates the bearer token and stores the actor in the request context
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			RespondMessage(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		token, err := auth.ParseBearer(authHeader)
		if err != nil {
			RespondMessage(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			RespondMessage(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := auth.WithActor(r.Context(), auth.Actor{
			UserID:   claims.UserID,
			Username: claims.Username,
			Role:     claims.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ManagerOnly rejects callers that are not managers or admins
func ManagerOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !Actor(r).IsManager() {
			RespondMessage(w, http.StatusForbidden, "Manager access required")
			return
		}
		next(w, r)
	}
}

// Actor returns the authenticated caller, or the zero actor
func Actor(r *http.Request) auth.Actor {
	actor, _ := auth.ActorFromContext(r.Context())
	return actor
}
