// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/estate-market/internal/auth"
	"github.com/carterperez-dev/estate-market/internal/core"
	"github.com/carterperez-dev/estate-market/internal/middleware"
	"github.com/carterperez-dev/estate-market/internal/validation"
)

var ErrIncorrectPassword = errors.New("current password is incorrect")

// ListingRemover deletes every listing a seller owns. It runs when the
// seller account is deleted.
type ListingRemover interface {
	DeleteBySeller(ctx context.Context, sellerID string) (int, error)
}

type Service struct {
	repo     Repository
	listings ListingRemover
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SetListingRemover breaks the construction cycle between users and
// listings; main wires it once both services exist.
func (s *Service) SetListingRemover(listings ListingRemover) {
	s.listings = listings
}

func (s *Service) GetByID(ctx context.Context, id string) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}
	return toUserInfo(user), nil
}

// CreateSeller stores a fresh registration. Every axis starts pending.
func (s *Service) CreateSeller(
	ctx context.Context,
	seller auth.NewSeller,
) (*auth.UserInfo, error) {
	user := &User{
		ID:                 uuid.New().String(),
		Name:               seller.Name,
		Email:              strings.ToLower(seller.Email),
		PasswordHash:       seller.PasswordHash,
		Phone:              seller.Phone,
		Role:               RoleSeller,
		IsApproved:         false,
		RegistrationStatus: RegistrationPending,
		Status:             StatusPending,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

// LookupIdentity satisfies middleware.UserLookup.
func (s *Service) LookupIdentity(
	ctx context.Context,
	userID string,
) (*middleware.Identity, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &middleware.Identity{
		Source: middleware.SourceStoredUser,
		ID:     user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	}, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) ListRegistrations(
	ctx context.Context,
	status string,
	page core.PageParams,
) ([]User, int, error) {
	switch status {
	case "", RegistrationPending, RegistrationApproved, RegistrationRejected:
	default:
		return nil, 0, core.ValidationError(map[string]string{
			"status": "status must be one of: pending approved rejected",
		})
	}

	return s.repo.List(ctx, ListUsersParams{
		PageParams:         page,
		Role:               RoleSeller,
		RegistrationStatus: status,
	})
}

// UpdateProfile applies the registration field rules to whichever fields
// are present.
func (s *Service) UpdateProfile(
	ctx context.Context,
	id string,
	req UpdateUserRequest,
) (*User, error) {
	fields := make(map[string]string)

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			fields["name"] = auth.MsgNameRequired
		} else if msg := validation.Name(name); msg != "" {
			fields["name"] = msg
		}
	}
	if req.Email != nil {
		if msg := validation.Email(*req.Email); msg != "" {
			fields["email"] = msg
		}
	}
	if req.Phone != nil {
		if msg := validation.Phone(*req.Phone); msg != "" {
			fields["phone"] = msg
		}
	}
	if len(fields) > 0 {
		return nil, core.ValidationError(fields)
	}

	var changes ProfileChanges
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		changes.Name = &name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		changes.Email = &email
	}
	if req.Phone != nil {
		phone := *req.Phone
		changes.Phone = &phone
	}

	return s.repo.UpdateProfile(ctx, id, changes)
}

func (s *Service) ChangePassword(
	ctx context.Context,
	id string,
	req ChangePasswordRequest,
) error {
	if violations := validation.Password(req.NewPassword); len(violations) > 0 {
		return core.ValidationError(map[string]string{
			"newPassword": validation.JoinViolations(violations),
		})
	}

	user, err := s.repo.GetCredentialsByID(ctx, id)
	if err != nil {
		return err
	}

	valid, err := core.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return ErrIncorrectPassword
	}

	hash, err := core.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.repo.UpdatePassword(ctx, id, hash)
}

// DeleteUser hard deletes the account and then every listing it owns.
func (s *Service) DeleteUser(ctx context.Context, actorID, id string) error {
	ctx, span := core.StartSpan(ctx, "user.delete",
		attribute.String("user.id", id),
	)
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			core.SetSpanError(ctx, err)
		}
		return err
	}

	removed := 0
	if s.listings != nil {
		n, err := s.listings.DeleteBySeller(ctx, id)
		if err != nil {
			core.SetSpanError(ctx, err)
			return fmt.Errorf("delete seller listings: %w", err)
		}
		removed = n
	}

	slog.InfoContext(ctx, "user deleted",
		"actor_id", actorID,
		"user_id", id,
		"listings_removed", removed,
	)
	return nil
}

// ApproveSeller moves a seller to approved. Non-seller records fail with
// ErrInvalidSubject before anything is written.
func (s *Service) ApproveSeller(ctx context.Context, actorID, id string) (*User, error) {
	approved, cleared := true, ""
	return s.moderate(ctx, actorID, id, "approve", Moderation{
		RegistrationStatus: RegistrationApproved,
		IsApproved:         &approved,
		RejectionReason:    &cleared,
	})
}

func (s *Service) RejectSeller(
	ctx context.Context,
	actorID, id, reason string,
) (*User, error) {
	approved := false
	reason = strings.TrimSpace(reason)
	return s.moderate(ctx, actorID, id, "reject", Moderation{
		RegistrationStatus: RegistrationRejected,
		IsApproved:         &approved,
		RejectionReason:    &reason,
	})
}

// SetStatus changes the account status axis. isApproved is only touched
// when supplied.
func (s *Service) SetStatus(
	ctx context.Context,
	actorID, id string,
	req SetStatusRequest,
) (*User, error) {
	if req.Status != StatusActive && req.Status != StatusSuspended {
		return nil, core.ValidationError(map[string]string{
			"status": "status must be one of: active suspended",
		})
	}

	user, err := s.repo.SetModeration(ctx, id, Moderation{
		Status:     req.Status,
		IsApproved: req.IsApproved,
	})
	if err != nil {
		return nil, err
	}

	core.RecordTransition("user", "set_status")
	slog.InfoContext(ctx, "user status changed",
		"actor_id", actorID,
		"user_id", id,
		"status", user.Status,
		"is_approved", user.IsApproved,
	)

	return user, nil
}

// moderate applies a seller-only transition; the role check and the write
// happen in the same store operation.
func (s *Service) moderate(
	ctx context.Context,
	actorID, id, transition string,
	m Moderation,
) (*User, error) {
	ctx, span := core.StartSpan(ctx, "user."+transition,
		attribute.String("user.id", id),
	)
	defer span.End()

	m.SellerOnly = true
	user, err := s.repo.SetModeration(ctx, id, m)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) && !errors.Is(err, core.ErrInvalidSubject) {
			core.SetSpanError(ctx, err)
		}
		return nil, fmt.Errorf("%s %s: %w", transition, id, err)
	}

	core.RecordTransition("user", transition)
	slog.InfoContext(ctx, "seller registration moderated",
		"transition", transition,
		"actor_id", actorID,
		"user_id", id,
		"registration_status", user.RegistrationStatus,
	)

	return user, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	byRegistration, err := s.repo.CountBy(ctx, "registrationStatus")
	if err != nil {
		return nil, err
	}

	byStatus, err := s.repo.CountBy(ctx, "status")
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range byStatus {
		total += n
	}

	return &Stats{
		Total:              total,
		ByRegistration:     byRegistration,
		ByStatus:           byStatus,
		PendingSellerCount: byRegistration[RegistrationPending],
	}, nil
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Phone:              u.Phone,
		PasswordHash:       u.PasswordHash,
		Role:               u.Role,
		IsApproved:         u.IsApproved,
		RegistrationStatus: u.RegistrationStatus,
		Status:             u.Status,
		CreatedAt:          u.CreatedAt,
	}
}

var (
	_ auth.UserProvider     = (*Service)(nil)
	_ middleware.UserLookup = (*Service)(nil)
)
