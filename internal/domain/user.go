package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents a user account in the domain layer
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Nik       string    `json:"nik"`
	Email     *string   `json:"email,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Theme     string    `json:"theme"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserResponse is the public representation of a user
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Nik       string    `json:"nik"`
	Email     string    `json:"email,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Theme     string    `json:"theme,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts a User to a UserResponse
func (u *User) ToResponse() *UserResponse {
	response := &UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Nik:       u.Nik,
		Theme:     u.Theme,
		CreatedAt: u.CreatedAt,
	}

	if u.Email != nil {
		response.Email = *u.Email
	}
	if u.AvatarURL != nil {
		response.AvatarURL = *u.AvatarURL
	}

	return response
}

// Themes a user profile can select.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// CreateUserParams holds parameters for user creation
type CreateUserParams struct {
	Name         string
	Nik          string
	Email        *string
	PasswordHash string
	Theme        string
}

// UpdateUserParams holds optional profile fields; nil means keep current.
type UpdateUserParams struct {
	Name         *string
	Nik          *string
	PasswordHash *string
	AvatarURL    *string
	Theme        *string
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	CreateUser(ctx context.Context, params CreateUserParams) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByNik(ctx context.Context, nik string) (*User, error)
	GetUserByName(ctx context.Context, name string) (*User, error)
	GetUserWithPassword(ctx context.Context, nik string) (*User, string, error)
	UpdateUser(ctx context.Context, id uuid.UUID, params UpdateUserParams) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context) ([]*User, error)
	SearchUsersByNik(ctx context.Context, nik string, limit int) ([]*User, error)
}

// VerificationCode is a signup code delivered by email, valid until ExpiresAt.
type VerificationCode struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

// CodeRepository persists signup verification codes with a TTL. The store
// replaces the process-global map the feature started with, so codes survive
// restarts and expired rows can be reclaimed.
type CodeRepository interface {
	UpsertCode(ctx context.Context, code VerificationCode) error
	GetCode(ctx context.Context, email string) (*VerificationCode, error)
	DeleteCode(ctx context.Context, email string) error
	DeleteExpiredCodes(ctx context.Context) error
}
