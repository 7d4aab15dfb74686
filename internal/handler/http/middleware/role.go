package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/nomina-hr/nomina-backend-go/internal/handler/http/response"
	"github.com/nomina-hr/nomina-backend-go/internal/pkg/jwt"
)

// RequireManager requires manager or owner role
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Forbidden(w, ErrManagerAccessRequired.Error())
			return
		}

		role, ok := claims["role"].(string)
		if !ok {
			response.Forbidden(w, ErrManagerAccessRequired.Error())
			return
		}

		if role != jwt.RoleManager && role != jwt.RoleOwner {
			response.Forbidden(w, ErrManagerAccessRequired.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}
