// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carterperez-dev/estate-market/internal/config"
	"github.com/carterperez-dev/estate-market/internal/core"
	"github.com/carterperez-dev/estate-market/internal/middleware"
	"github.com/carterperez-dev/estate-market/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already exists")
)

const (
	MsgNameRequired            = "Name is required."
	MsgPasswordRequired        = "Password is required."
	MsgConfirmPasswordRequired = "Please confirm your password."
	MsgPasswordMismatch        = "Passwords do not match."
)

type UserInfo struct {
	ID                 string
	Name               string
	Email              string
	Phone              string
	PasswordHash       string
	Role               string
	IsApproved         bool
	RegistrationStatus string
	Status             string
	CreatedAt          time.Time
}

type NewSeller struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	CreateSeller(ctx context.Context, seller NewSeller) (*UserInfo, error)
}

type Service struct {
	tokens       *TokenManager
	userProvider UserProvider
	admin        config.AdminConfig
}

func NewService(
	tokens *TokenManager,
	userProvider UserProvider,
	admin config.AdminConfig,
) *Service {
	return &Service{
		tokens:       tokens,
		userProvider: userProvider,
		admin:        admin,
	}
}

// AdminLogin checks the configured credentials. Both comparisons always
// run so a wrong email costs the same as a wrong password.
func (s *Service) AdminLogin(
	ctx context.Context,
	req LoginRequest,
) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	emailOK := core.SecureCompare(email, s.admin.Email)
	passwordOK := core.SecureCompare(req.Password, s.admin.Password)
	if !emailOK || !passwordOK {
		return nil, ErrInvalidCredentials
	}

	issued, err := s.tokens.IssueAdminToken(email)
	if err != nil {
		return nil, fmt.Errorf("issue admin token: %w", err)
	}

	slog.InfoContext(ctx, "admin login", "email", email)

	return &AuthResponse{
		User:      s.adminUser(email),
		Token:     issued.Token,
		TokenType: "Bearer",
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

// Register creates a pending seller. Field problems come back as a
// *core.AppError carrying one message per field.
func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*AuthResponse, error) {
	if fields := ValidateRegistration(req); len(fields) > 0 {
		return nil, core.ValidationError(fields)
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.CreateSeller(ctx, NewSeller{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		Phone:        req.Phone,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create seller: %w", err)
	}

	slog.InfoContext(ctx, "seller registered", "user_id", user.ID)

	return s.createAuthResponse(user)
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*AuthResponse, error) {
	user, err := s.userProvider.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention
			_, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, err := core.VerifyPasswordTimingSafe(req.Password, &user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	return s.createAuthResponse(user)
}

// Me renders the resolved identity. Admin identities never touch the store.
func (s *Service) Me(
	ctx context.Context,
	identity *middleware.Identity,
) (*UserResponse, error) {
	if identity == nil {
		return nil, fmt.Errorf("me: %w", core.ErrUnauthorized)
	}

	if identity.Source == middleware.SourceAdminClaim {
		resp := s.adminUser(identity.Email)
		return &resp, nil
	}

	user, err := s.userProvider.GetByID(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// ValidateRegistration returns a field-keyed mapping of problems. The
// password entry joins every violated rule; other fields carry one message.
func ValidateRegistration(req RegisterRequest) map[string]string {
	fields := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = MsgNameRequired
	} else if msg := validation.Name(req.Name); msg != "" {
		fields["name"] = msg
	}

	if msg := validation.Email(req.Email); msg != "" {
		fields["email"] = msg
	}

	if req.Password == "" {
		fields["password"] = MsgPasswordRequired
	} else if violations := validation.Password(req.Password); len(violations) > 0 {
		fields["password"] = validation.JoinViolations(violations)
	}

	switch {
	case req.ConfirmPassword == "":
		fields["confirmPassword"] = MsgConfirmPasswordRequired
	case req.ConfirmPassword != req.Password:
		fields["confirmPassword"] = MsgPasswordMismatch
	}

	if msg := validation.Phone(req.Phone); msg != "" {
		fields["phone"] = msg
	}

	return fields
}

func (s *Service) createAuthResponse(user *UserInfo) (*AuthResponse, error) {
	issued, err := s.tokens.IssueUserToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &AuthResponse{
		User:      toUserResponse(user),
		Token:     issued.Token,
		TokenType: "Bearer",
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

func (s *Service) adminUser(email string) UserResponse {
	return UserResponse{
		ID:         middleware.AdminIdentityID,
		Name:       s.admin.Name,
		Email:      email,
		Role:       middleware.RoleAdmin,
		IsApproved: true,
	}
}

func toUserResponse(u *UserInfo) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Phone:              u.Phone,
		Role:               u.Role,
		IsApproved:         u.IsApproved,
		RegistrationStatus: u.RegistrationStatus,
		Status:             u.Status,
		CreatedAt:          u.CreatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
