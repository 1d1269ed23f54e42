// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

// User is a stored seller account. The three status axes are independent
// and nothing here keeps them consistent with each other.
type User struct {
	ID                 string    `bson:"_id"                       json:"id"`
	Name               string    `bson:"name"                      json:"name"`
	Email              string    `bson:"email"                     json:"email"`
	PasswordHash       string    `bson:"password,omitempty"        json:"-"`
	Phone              string    `bson:"phone"                     json:"phone"`
	Role               string    `bson:"role"                      json:"role"`
	IsApproved         bool      `bson:"isApproved"                json:"isApproved"`
	RegistrationStatus string    `bson:"registrationStatus"        json:"registrationStatus"`
	Status             string    `bson:"status"                    json:"status"`
	RejectionReason    string    `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	RegisteredAt       time.Time `bson:"registeredAt"              json:"registeredAt"`
	CreatedAt          time.Time `bson:"createdAt"                 json:"createdAt"`
	UpdatedAt          time.Time `bson:"updatedAt"                 json:"updatedAt"`
}

func (u *User) IsSeller() bool {
	return u.Role == RoleSeller
}

const (
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

const (
	RegistrationPending  = "pending"
	RegistrationApproved = "approved"
	RegistrationRejected = "rejected"
)

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusPending   = "pending"
)
