// AngelaMos | 2026
// routes.go

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/estate-market/internal/admin"
	"github.com/carterperez-dev/estate-market/internal/auth"
	"github.com/carterperez-dev/estate-market/internal/middleware"
	"github.com/carterperez-dev/estate-market/internal/property"
	"github.com/carterperez-dev/estate-market/internal/user"
)

type Handlers struct {
	Auth       *auth.Handler
	Users      *user.Handler
	Properties *property.Handler
	Admin      *admin.Handler

	Authenticator func(http.Handler) http.Handler
	// AuthLimiter wraps the credential endpoints; nil disables it.
	AuthLimiter func(http.Handler) http.Handler
}

// RegisterAPI mounts every domain route on r.
func RegisterAPI(r chi.Router, h Handlers) {
	adminOnly := middleware.RequireAdmin

	h.Auth.RegisterRoutes(r, h.Authenticator, h.AuthLimiter)
	h.Properties.RegisterRoutes(r, h.Authenticator, adminOnly)
	h.Users.RegisterRoutes(r, h.Authenticator, adminOnly)
	h.Admin.RegisterRoutes(r, h.Authenticator, adminOnly, h.Users.RegisterAdminRoutes)
}
