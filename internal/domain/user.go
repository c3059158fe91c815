package domain

import "time"

// Membership statuses. Only approved members are eligible broadcast
// recipients.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusSuspended = "suspended"
)

// Roles recognised by the role middleware.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Username     string    `json:"username" dynamodbav:"username"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	Role         string    `json:"role" dynamodbav:"role"`
	Status       string    `json:"status" dynamodbav:"status"`
	FirstName    string    `json:"first_name" dynamodbav:"first_name"`
	LastName     string    `json:"last_name" dynamodbav:"last_name"`
	AvatarKey    string    `json:"-" dynamodbav:"avatar_key"` // S3 object key, resolved to a presigned URL on read
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateUserRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

type UpdateUserStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved suspended"`
}

// RecipientProfile is the denormalized member view returned alongside each
// deliverable record in an announcement detail.
type RecipientProfile struct {
	UserID    string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
