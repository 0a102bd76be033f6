package domain

import (
	"context"

	"github.com/google/uuid"

	"github.com/chatline/backend/internal/auth"
)

const searchResultLimit = 10

// UserService handles profile reads and updates for existing accounts.
type UserService struct {
	users UserRepository
}

// NewUserService creates a new user service
func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users}
}

// GetAll returns every user account.
func (s *UserService) GetAll(ctx context.Context) ([]*UserResponse, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse())
	}
	return out, nil
}

// GetByID returns a single user.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// GetByNik returns a single user by handle.
func (s *UserService) GetByNik(ctx context.Context, nik string) (*UserResponse, error) {
	user, err := s.users.GetUserByNik(ctx, nik)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// SearchByNik returns up to ten users whose nik matches the query
// case-insensitively.
func (s *UserService) SearchByNik(ctx context.Context, nik string) ([]*UserResponse, error) {
	users, err := s.users.SearchUsersByNik(ctx, nik, searchResultLimit)
	if err != nil {
		return nil, err
	}
	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse())
	}
	return out, nil
}

// UpdateName changes the display name; names are unique.
func (s *UserService) UpdateName(ctx context.Context, id uuid.UUID, name string) (*UserResponse, error) {
	if _, err := s.users.GetUserByName(ctx, name); err == nil {
		return nil, Conflictf("a user with this name already exists")
	} else if !IsKind(err, KindNotFound) {
		return nil, err
	}
	user, err := s.users.UpdateUser(ctx, id, UpdateUserParams{Name: &name})
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateNik changes the handle; niks are unique.
func (s *UserService) UpdateNik(ctx context.Context, id uuid.UUID, nik string) (*UserResponse, error) {
	if _, err := s.users.GetUserByNik(ctx, nik); err == nil {
		return nil, Conflictf("a user with this nik already exists")
	} else if !IsKind(err, KindNotFound) {
		return nil, err
	}
	user, err := s.users.UpdateUser(ctx, id, UpdateUserParams{Nik: &nik})
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdatePassword rehashes and stores a new password.
func (s *UserService) UpdatePassword(ctx context.Context, id uuid.UUID, password string) (*UserResponse, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, Validationf("%s", err.Error())
	}
	user, err := s.users.UpdateUser(ctx, id, UpdateUserParams{PasswordHash: &hash})
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateAvatar stores a new avatar URL produced by the upload layer.
func (s *UserService) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*UserResponse, error) {
	user, err := s.users.UpdateUser(ctx, id, UpdateUserParams{AvatarURL: &avatarURL})
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateTheme switches the profile theme.
func (s *UserService) UpdateTheme(ctx context.Context, id uuid.UUID, theme string) (*UserResponse, error) {
	if theme != ThemeLight && theme != ThemeDark {
		return nil, Validationf("unknown theme: %s", theme)
	}
	user, err := s.users.UpdateUser(ctx, id, UpdateUserParams{Theme: &theme})
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// Delete removes a user account.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.users.DeleteUser(ctx, id)
}
