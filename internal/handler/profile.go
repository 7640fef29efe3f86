package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube/internal/middleware"
	"github.com/iliyamo/vidtube/internal/repository"
	"github.com/iliyamo/vidtube/internal/utils"
)

// Profile endpoints. All of them run behind the auth gate; the username is
// immutable by policy, so account updates cover email and full name only.

type updateAccountReq struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// ChangePassword verifies the old password before storing a new hash.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil || req.OldPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "old_password and new_password are required"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.OldPassword) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "change password failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "change password failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateAccount changes email and full name.
func (h *AuthHandler) UpdateAccount(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateAccountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	fullName := strings.TrimSpace(req.FullName)
	if email == "" || fullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and full_name are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Users.UpdateAccount(ctx, u.ID, email, fullName); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	updated, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": updated.Public()})
}

// UpdateAvatar replaces the avatar image (multipart field "avatar").
func (h *AuthHandler) UpdateAvatar(c echo.Context) error {
	return h.updateImage(c, "avatar", h.Users.UpdateAvatar)
}

// UpdateCoverImage replaces the cover image (multipart field "coverImage").
func (h *AuthHandler) UpdateCoverImage(c echo.Context) error {
	return h.updateImage(c, "coverImage", h.Users.UpdateCoverImage)
}

func (h *AuthHandler) updateImage(c echo.Context, field string, save func(context.Context, string, string) error) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fh, err := c.FormFile(field)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": field + " file is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	url, err := h.uploadFormFile(ctx, fh, field)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	if err := save(ctx, u.ID, url); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	updated, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": updated.Public()})
}
