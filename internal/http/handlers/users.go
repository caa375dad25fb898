package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/taskify/internal/config"
	"github.com/geocoder89/taskify/internal/domain/user"
	"github.com/geocoder89/taskify/internal/http/middlewares"
	"github.com/geocoder89/taskify/internal/repo/postgres"
	"github.com/geocoder89/taskify/internal/security"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateProfile(ctx context.Context, id, name, passwordHash string) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type UsersHandler struct {
	store UserStore
	// nil refreshStore skips session revocation (handler tests).
	refreshStore *postgres.RefreshTokensRepo
}

func NewUsersHandler(store UserStore, refreshStore *postgres.RefreshTokensRepo) *UsersHandler {
	return &UsersHandler{store: store, refreshStore: refreshStore}
}

func (h *UsersHandler) GetMe(ctx *gin.Context) {
	callerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || callerID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	// a valid token can outlive its account (self-delete); that is a 404
	u, err := h.store.GetByID(cctx, callerID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not load profile")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, u)
}

func (h *UsersHandler) UpdateMe(ctx *gin.Context) {
	callerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || callerID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	// UpdateProfileRequest has no email field: an "email" key in the payload
	// is dropped at bind time and the stored email never changes
	var req user.UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	current, err := h.store.GetByID(cctx, callerID)

	if err == nil && req.Empty() {
		// nothing to apply, skip the write
		ctx.JSON(http.StatusOK, current)
		return
	}

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not update profile")
		return
	}

	req.ApplyTo(&current)

	passwordChanged := false

	if req.Password != nil {
		hash, err := security.HashPassword(*req.Password)

		if err != nil {
			RespondInternal(ctx, "Could not update profile")
			return
		}

		current.PasswordHash = hash
		passwordChanged = true
	}

	updated, err := h.store.UpdateProfile(cctx, callerID, current.Name, current.PasswordHash)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not update profile")
		return
	}

	// a new password invalidates every live session
	if passwordChanged && h.refreshStore != nil {
		_ = h.refreshStore.RevokeAllForUser(cctx, callerID)
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *UsersHandler) DeleteMe(ctx *gin.Context) {
	callerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || callerID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, err := h.store.GetByID(cctx, callerID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not delete account")
		return
	}

	// tasks and refresh tokens cascade with the user row
	err = h.store.Delete(cctx, callerID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not delete account")
		return
	}

	if email, ok := middlewares.EmailFromContext(ctx); ok {
		slog.Default().InfoContext(ctx.Request.Context(), "account deleted", "email", email)
	}

	ctx.JSON(http.StatusOK, u)
}
