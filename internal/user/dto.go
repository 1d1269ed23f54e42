// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/estate-market/internal/core"
)

// UpdateUserRequest fields are optional; nil means unchanged. Values are
// checked by the registration rules in the service.
type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,max=128"`
}

type SetStatusRequest struct {
	Status     string `json:"status"               validate:"required,oneof=active suspended"`
	IsApproved *bool  `json:"isApproved,omitempty"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type UserResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	Role               string    `json:"role"`
	IsApproved         bool      `json:"isApproved"`
	RegistrationStatus string    `json:"registrationStatus"`
	Status             string    `json:"status"`
	RejectionReason    string    `json:"rejectionReason,omitempty"`
	RegisteredAt       time.Time `json:"registeredAt"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type ListUsersParams struct {
	core.PageParams
	Search             string
	Role               string
	Status             string
	RegistrationStatus string
}

type Stats struct {
	Total              int            `json:"total"`
	ByRegistration     map[string]int `json:"byRegistrationStatus"`
	ByStatus           map[string]int `json:"byStatus"`
	PendingSellerCount int            `json:"pendingSellers"`
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Phone:              u.Phone,
		Role:               u.Role,
		IsApproved:         u.IsApproved,
		RegistrationStatus: u.RegistrationStatus,
		Status:             u.Status,
		RejectionReason:    u.RejectionReason,
		RegisteredAt:       u.RegisteredAt,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}
