package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/proworkshop/internal/auth"
	"github.com/ukydev/proworkshop/internal/db"
	"github.com/ukydev/proworkshop/internal/middleware"
	"github.com/ukydev/proworkshop/internal/models"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
	log            logrus.FieldLogger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
		log:            log,
	}
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq models.LoginRequest
	if err := decodeJSON(w, r, &loginReq); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if loginReq.Username == "" || loginReq.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.userCollection.FindUserByUsername(r.Context(), loginReq.Username)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		storageError(w, r, h.log, err, "User not found")
		return
	}

	if !user.IsActive {
		writeError(w, http.StatusUnauthorized, "Account is deactivated")
		return
	}

	if !h.authService.CheckPassword(loginReq.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	response, err := h.issueTokens(r.Context(), user)
	if err != nil {
		requestLog(r, h.log).WithError(err).Error("Failed to issue tokens")
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID); err != nil {
		requestLog(r, h.log).WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}

	writeJSON(w, http.StatusOK, response)
}

// Register handles user registration. New accounts get the manager role
// unless another non-admin role is requested.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var registerReq models.RegisterRequest
	if err := decodeJSON(w, r, &registerReq); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	registerReq.Username = strings.TrimSpace(registerReq.Username)
	registerReq.Email = strings.TrimSpace(registerReq.Email)

	if err := h.authService.ValidateUsername(registerReq.Username); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if registerReq.Email != "" {
		if err := h.authService.ValidateEmail(registerReq.Email); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := h.authService.ValidatePassword(registerReq.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if registerReq.Role == "" {
		registerReq.Role = models.RoleManager
	}
	if !models.IsValidRole(registerReq.Role) {
		writeError(w, http.StatusBadRequest, "Invalid role")
		return
	}
	if registerReq.Role == models.RoleAdmin {
		writeError(w, http.StatusForbidden, "Admin accounts cannot be self-registered")
		return
	}

	ctx := r.Context()
	if taken, err := h.exists(h.userCollection.FindUserByUsername(ctx, registerReq.Username)); err != nil {
		storageError(w, r, h.log, err, "User not found")
		return
	} else if taken {
		writeError(w, http.StatusConflict, "Username already exists")
		return
	}
	if registerReq.Email != "" {
		if taken, err := h.exists(h.userCollection.FindUserByEmail(ctx, registerReq.Email)); err != nil {
			storageError(w, r, h.log, err, "User not found")
			return
		} else if taken {
			writeError(w, http.StatusConflict, "Email already exists")
			return
		}
	}

	passwordHash, err := h.authService.HashPassword(registerReq.Password)
	if err != nil {
		requestLog(r, h.log).WithError(err).Error("Failed to hash password")
		writeError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	now := time.Now().UTC()
	user := models.User{
		Username:     registerReq.Username,
		Email:        registerReq.Email,
		PasswordHash: passwordHash,
		Role:         registerReq.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	user.ID, err = h.userCollection.InsertUser(ctx, user)
	if errors.Is(err, db.ErrDuplicate) {
		writeError(w, http.StatusConflict, "Username already exists")
		return
	}
	if err != nil {
		storageError(w, r, h.log, err, "User not found")
		return
	}

	response, err := h.issueTokens(ctx, &user)
	if err != nil {
		requestLog(r, h.log).WithError(err).Error("Failed to issue tokens")
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	requestLog(r, h.log).WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User registered")
	writeJSON(w, http.StatusCreated, response)
}

// Verify reports the identity carried by a valid token.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Token is valid",
		"user":    claims,
	})
}

// Refresh exchanges a refresh token for a new token pair. The presented
// refresh token is spent.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	ctx := r.Context()
	user, err := h.userCollection.FindUserByRefreshToken(ctx, auth.HashRefreshToken(req.RefreshToken))
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	if err != nil {
		storageError(w, r, h.log, err, "User not found")
		return
	}

	if h.authService.RefreshExpired(user.RefreshTokenExpiresAt) {
		h.revokeRefresh(r, user.ID)
		writeError(w, http.StatusUnauthorized, "Refresh token expired")
		return
	}
	if !user.IsActive {
		h.revokeRefresh(r, user.ID)
		writeError(w, http.StatusUnauthorized, "Account is deactivated")
		return
	}

	response, err := h.issueTokens(ctx, user)
	if err != nil {
		requestLog(r, h.log).WithError(err).Error("Failed to issue tokens")
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// Logout revokes the caller's refresh token. Access tokens stay valid until
// they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	if err := h.userCollection.SetRefreshToken(r.Context(), claims.UserID, "", nil); err != nil {
		storageError(w, r, h.log, err, "User not found")
		return
	}
	writeMessage(w, "Logged out")
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		storageError(w, r, h.log, err, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	Email string `json:"email"`
}

// UpdateProfile updates the current user's email address
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := h.authService.ValidateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	user, err := h.userCollection.FindUserByID(ctx, claims.UserID)
	if err != nil {
		storageError(w, r, h.log, err, "User not found")
		return
	}

	if req.Email != user.Email {
		other, err := h.userCollection.FindUserByEmail(ctx, req.Email)
		switch {
		case err == nil && other.ID != user.ID:
			writeError(w, http.StatusConflict, "Email already exists")
			return
		case err != nil && !errors.Is(err, db.ErrNotFound):
			storageError(w, r, h.log, err, "User not found")
			return
		}
	}

	user.Email = req.Email
	if err := h.userCollection.UpdateUser(ctx, user.ID, *user); err != nil {
		storageError(w, r, h.log, err, "User not found")
		return
	}

	writeMessage(w, "Profile updated successfully")
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword changes the current user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ctx := r.Context()
	user, err := h.userCollection.FindUserByID(ctx, claims.UserID)
	if err != nil {
		storageError(w, r, h.log, err, "User not found")
		return
	}

	if !h.authService.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	if err := h.authService.ValidatePassword(req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	newHash, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		requestLog(r, h.log).WithError(err).Error("Failed to hash password")
		writeError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user.PasswordHash = newHash
	if err := h.userCollection.UpdateUser(ctx, user.ID, *user); err != nil {
		storageError(w, r, h.log, err, "User not found")
		return
	}

	h.revokeRefresh(r, user.ID)
	writeMessage(w, "Password changed successfully")
}

// issueTokens signs an access token and rotates the user's refresh token.
func (h *AuthHandler) issueTokens(ctx context.Context, user *models.User) (models.LoginResponse, error) {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return models.LoginResponse{}, err
	}
	refresh, err := h.authService.IssueRefreshToken()
	if err != nil {
		return models.LoginResponse{}, err
	}
	if err := h.userCollection.SetRefreshToken(ctx, user.ID, refresh.Digest, &refresh.ExpiresAt); err != nil {
		return models.LoginResponse{}, fmt.Errorf("store refresh token: %w", err)
	}
	return models.LoginResponse{Token: token, RefreshToken: refresh.Token, User: *user}, nil
}

// revokeRefresh clears a user's refresh token. Failures are logged only.
func (h *AuthHandler) revokeRefresh(r *http.Request, id int64) {
	if err := h.userCollection.SetRefreshToken(r.Context(), id, "", nil); err != nil {
		requestLog(r, h.log).WithError(err).WithField("user_id", id).Warn("Failed to revoke refresh token")
	}
}

// exists turns a lookup result into a presence flag.
func (h *AuthHandler) exists(_ *models.User, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, db.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
