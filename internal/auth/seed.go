package auth

import (
	"context"
	"fmt"

	"github.com/ukydev/proworkshop/internal/models"
)

// UserSeeder is the slice of the user store needed to create the first account.
type UserSeeder interface {
	CountUsers(ctx context.Context) (int64, error)
	InsertUser(ctx context.Context, user models.User) (int64, error)
}

// EnsureAdmin creates an admin account when the user store is empty. It
// reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, users UserSeeder, username, password string) (bool, error) {
	n, err := users.CountUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return false, err
	}
	if _, err := users.InsertUser(ctx, models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}); err != nil {
		return false, fmt.Errorf("insert admin: %w", err)
	}
	return true, nil
}
