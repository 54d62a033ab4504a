package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/proworkshop/internal/db"
	"github.com/ukydev/proworkshop/internal/middleware"
	"github.com/ukydev/proworkshop/internal/models"
)

// UserHandler serves account administration.
type UserHandler struct {
	users db.UserCollection
	log   logrus.FieldLogger
}

func NewUserHandler(users db.UserCollection, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// List returns every account.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.FindUsers(r.Context())
	if err != nil {
		storageError(w, r, h.log, err, "User not found")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Get returns one account.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.users.FindUserByID(r.Context(), id)
	if err != nil {
		storageError(w, r, h.log, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Update changes another account's role or active flag. Deactivation also
// revokes the account's refresh token.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if id == claims.UserID {
		writeError(w, http.StatusBadRequest, "Cannot change your own role or status")
		return
	}

	var req models.UserUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Role != nil && !models.IsValidRole(*req.Role) {
		writeError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	ctx := r.Context()
	user, err := h.users.FindUserByID(ctx, id)
	if err != nil {
		storageError(w, r, h.log, err, "User not found")
		return
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if err := h.users.UpdateUser(ctx, id, *user); err != nil {
		storageError(w, r, h.log, err, "User not found")
		return
	}

	if !user.IsActive {
		if err := h.users.SetRefreshToken(ctx, id, "", nil); err != nil {
			requestLog(r, h.log).WithError(err).WithField("user_id", id).Warn("Failed to revoke refresh token")
		}
	}
	requestLog(r, h.log).WithFields(logrus.Fields{
		"user_id":   id,
		"role":      user.Role,
		"is_active": user.IsActive,
		"by":        claims.UserID,
	}).Info("User updated")
	writeJSON(w, http.StatusOK, user)
}
