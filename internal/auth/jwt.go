// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/estate-market/internal/config"
	"github.com/carterperez-dev/estate-market/internal/core"
	"github.com/carterperez-dev/estate-market/internal/middleware"
)

const tokenTypeAccess = "access"

// TokenManager signs and verifies HS256 bearer tokens with the process-wide
// secret. The key is fixed for the lifetime of the manager.
type TokenManager struct {
	key    jwk.Key
	config config.JWTConfig
}

func NewTokenManager(cfg config.JWTConfig) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is empty")
	}

	key, err := jwk.Import([]byte(cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("import signing key: %w", err)
	}

	if setErr := key.Set(jwk.AlgorithmKey, jwa.HS256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	return &TokenManager{key: key, config: cfg}, nil
}

type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// IssueAdminToken carries only the email and the admin role. There is no
// subject because no stored record backs the admin identity.
func (m *TokenManager) IssueAdminToken(email string) (*IssuedToken, error) {
	return m.issue("", email, middleware.RoleAdmin, m.config.AccessTokenExpire)
}

func (m *TokenManager) IssueUserToken(userID, email, role string) (*IssuedToken, error) {
	if userID == "" {
		return nil, fmt.Errorf("issue token: empty user id")
	}
	return m.issue(userID, email, role, m.config.AccessTokenExpire)
}

func (m *TokenManager) issue(
	subject, email, role string,
	ttl time.Duration,
) (*IssuedToken, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	builder := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(m.config.Issuer).
		IssuedAt(now).
		Expiration(expiresAt).
		Claim("email", email).
		Claim("role", role).
		Claim("type", tokenTypeAccess)

	if subject != "" {
		builder = builder.Subject(subject)
	}

	token, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), m.key))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &IssuedToken{Token: string(signed), ExpiresAt: expiresAt}, nil
}

// VerifyToken satisfies middleware.TokenVerifier. Callers outside this
// package only ever see ErrTokenExpired or ErrTokenInvalid.
func (m *TokenManager) VerifyToken(
	_ context.Context,
	tokenString string,
) (*middleware.TokenClaims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), m.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.config.Issuer),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	var tokenType string
	if err := token.Get("type", &tokenType); err != nil ||
		tokenType != tokenTypeAccess {
		return nil, fmt.Errorf(
			"verify token: invalid token type: %w",
			core.ErrTokenInvalid,
		)
	}

	var role string
	if err := token.Get("role", &role); err != nil || role == "" {
		return nil, fmt.Errorf(
			"verify token: missing role claim: %w",
			core.ErrTokenInvalid,
		)
	}

	var email string
	//nolint:errcheck // email is informational for stored users
	_ = token.Get("email", &email)

	subject, _ := token.Subject()
	if role != middleware.RoleAdmin && subject == "" {
		return nil, fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	expiresAt, _ := token.Expiration()

	return &middleware.TokenClaims{
		UserID:    subject,
		Email:     email,
		Role:      role,
		ExpiresAt: expiresAt,
	}, nil
}

func isTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "exp") &&
		strings.Contains(errStr, "not satisfied")
}
