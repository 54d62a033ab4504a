package auth

import (
	"errors"
	"strings"
)

const (
	minPasswordLen = 8
	minUsernameLen = 3
	maxUsernameLen = 50
)

// ValidatePassword validates password strength
func (s *Service) ValidatePassword(password string) error {
	if len(password) < minPasswordLen {
		return errors.New("password must be at least 8 characters long")
	}
	return nil
}

// ValidateEmail validates email format
func (s *Service) ValidateEmail(email string) error {
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return errors.New("invalid email format")
	}
	return nil
}

// ValidateUsername validates username format
func (s *Service) ValidateUsername(username string) error {
	switch {
	case len(username) < minUsernameLen:
		return errors.New("username must be at least 3 characters long")
	case len(username) > maxUsernameLen:
		return errors.New("username must be less than 50 characters")
	}
	return nil
}
