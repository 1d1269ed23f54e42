// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/estate-market/internal/core"
)

const (
	IdentityKey contextKey = "identity"
	ClaimsKey   contextKey = "token_claims"
)

const (
	RoleAdmin  = "admin"
	RoleSeller = "seller"
)

// AdminIdentityID is the placeholder id carried by the synthetic admin
// identity. It never matches a stored record.
const AdminIdentityID = "admin"

type IdentitySource string

const (
	SourceAdminClaim IdentitySource = "admin_claim"
	SourceStoredUser IdentitySource = "stored_user"
)

// Identity is the resolved caller. Admin identities are materialised from
// token claims alone; every other identity comes from the credential store.
type Identity struct {
	Source IdentitySource `json:"source"`
	ID     string         `json:"id"`
	Email  string         `json:"email"`
	Name   string         `json:"name"`
	Role   string         `json:"role"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

type TokenClaims struct {
	UserID    string
	Email     string
	Role      string
	ExpiresAt time.Time
}

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*TokenClaims, error)
}

// UserLookup loads a stored account without its password hash.
type UserLookup interface {
	LookupIdentity(ctx context.Context, userID string) (*Identity, error)
}

type IdentityResolver struct {
	users     UserLookup
	adminName string
}

func NewIdentityResolver(users UserLookup, adminName string) *IdentityResolver {
	return &IdentityResolver{users: users, adminName: adminName}
}

// Resolve turns verified claims into an identity. Admin claims are trusted
// on signature alone; no store lookup happens for them.
func (r *IdentityResolver) Resolve(
	ctx context.Context,
	claims *TokenClaims,
) (*Identity, error) {
	if claims.Role == RoleAdmin {
		return &Identity{
			Source: SourceAdminClaim,
			ID:     AdminIdentityID,
			Email:  claims.Email,
			Name:   r.adminName,
			Role:   RoleAdmin,
		}, nil
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("resolve identity: missing user id: %w", core.ErrUnauthorized)
	}

	identity, err := r.users.LookupIdentity(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("resolve identity: %w", core.ErrUnauthorized)
		}
		return nil, fmt.Errorf("resolve identity: %w", err)
	}

	identity.Source = SourceStoredUser
	return identity, nil
}

func Authenticator(
	verifier TokenVerifier,
	resolver *IdentityResolver,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing authorization token"),
				)
				return
			}

			// expired, tampered and malformed tokens share one response
			claims, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				core.JSONError(
					w,
					core.UnauthorizedError("invalid or expired token"),
				)
				return
			}

			identity, err := resolver.Resolve(r.Context(), claims)
			if err != nil {
				if errors.Is(err, core.ErrUnauthorized) {
					core.JSONError(
						w,
						core.UnauthorizedError("account no longer exists"),
					)
					return
				}
				core.InternalServerError(w, err)
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			ctx = context.WithValue(ctx, ClaimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorize is the role predicate behind RequireRole.
func Authorize(identity *Identity, allowed map[string]struct{}) error {
	if identity == nil {
		return core.UnauthorizedError("authentication required")
	}

	if _, ok := allowed[identity.Role]; !ok {
		return core.ForbiddenError("insufficient permissions")
	}

	return nil
}

// RequireRole fixes the permitted role set at route registration time.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := Authorize(GetIdentity(r.Context()), roleSet); err != nil {
				core.JSONError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(RoleAdmin)(next)
}

// RequireSelfOrAdmin admits admins and the account named by the URL param.
func RequireSelfOrAdmin(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil {
				core.Unauthorized(w, "authentication required")
				return
			}

			if !identity.IsAdmin() && identity.ID != chi.URLParam(r, param) {
				core.Forbidden(w, "you can only access your own account")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

func GetIdentity(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(IdentityKey).(*Identity); ok {
		return identity
	}
	return nil
}

func GetUserID(ctx context.Context) string {
	if identity := GetIdentity(ctx); identity != nil {
		return identity.ID
	}
	return ""
}

func GetUserRole(ctx context.Context) string {
	if identity := GetIdentity(ctx); identity != nil {
		return identity.Role
	}
	return ""
}

func GetClaims(ctx context.Context) *TokenClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*TokenClaims); ok {
		return claims
	}
	return nil
}

func IsAuthenticated(ctx context.Context) bool {
	return GetIdentity(ctx) != nil
}

func IsAdmin(ctx context.Context) bool {
	return GetIdentity(ctx).IsAdmin()
}
