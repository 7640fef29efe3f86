package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube/internal/auth"
	"github.com/iliyamo/vidtube/internal/config"
	"github.com/iliyamo/vidtube/internal/middleware"
	"github.com/iliyamo/vidtube/internal/model"
	"github.com/iliyamo/vidtube/internal/repository"
	"github.com/iliyamo/vidtube/internal/storage"
	"github.com/iliyamo/vidtube/internal/utils"
)

// UserStore is the repository surface the handlers need beyond what the
// auth service already wraps.
type UserStore interface {
	Create(ctx context.Context, username, email, fullName, passwordHash, avatarURL, coverURL string) (string, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	UpdateAccount(ctx context.Context, id, email, fullName string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id, url string) error
	UpdateCoverImage(ctx context.Context, id, url string) error
}

// AuthHandler bundles dependencies for the account endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Auth   *auth.Service
	Users  UserStore
	Assets storage.Uploader
}

func NewAuthHandler(cfg config.Config, svc *auth.Service, users UserStore, assets storage.Uploader) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Auth: svc, Users: users, Assets: assets}
}

// ----- DTOs -----

type loginReq struct {
	Identifier string `json:"identifier"` // username or email
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type authResp struct {
	User    model.PublicUser `json:"user"`
	Access  tokenPart        `json:"access"`
	Refresh tokenPart        `json:"refresh"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

const refreshCookie = "refreshToken"

// Register creates an account from a multipart form: text fields
// username, email, fullName, password plus an avatar file (required) and
// an optional coverImage file. Images go to the asset store first; the
// account row is created with the resulting URLs.
func (h *AuthHandler) Register(c echo.Context) error {
	username := strings.ToLower(strings.TrimSpace(c.FormValue("username")))
	email := strings.ToLower(strings.TrimSpace(c.FormValue("email")))
	fullName := strings.TrimSpace(c.FormValue("fullName"))
	password := c.FormValue("password")
	if username == "" || email == "" || fullName == "" || password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username, email, fullName and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	avatarFile, err := c.FormFile("avatar")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "avatar file is required"})
	}
	avatarURL, err := h.uploadFormFile(ctx, avatarFile, "avatar")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "avatar upload failed"})
	}

	coverURL := ""
	if coverFile, err := c.FormFile("coverImage"); err == nil {
		coverURL, err = h.uploadFormFile(ctx, coverFile, "cover")
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cover image upload failed"})
		}
	}

	hash, err := utils.HashPassword(password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	id, err := h.Users.Create(ctx, username, email, fullName, hash, avatarURL, coverURL)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": u.Public()})
}

// Login verifies credentials and starts a session. Tokens travel both as
// http-only cookies and in the response body. Unknown identifier and wrong
// password are deliberately indistinguishable in the response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Username)
	}
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	if identifier == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username or email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, u, err := h.Auth.Login(ctx, identifier, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) || errors.Is(err, auth.ErrCredentialMismatch) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	h.setAuthCookies(c, pair)
	return c.JSON(http.StatusOK, authResp{
		User:    u.Public(),
		Access:  tokenPart{Token: pair.Access.Token, Expires: pair.Access.ExpiresAt},
		Refresh: tokenPart{Token: pair.Refresh.Token, Expires: pair.Refresh.ExpiresAt},
	})
}

// Refresh exchanges a refresh token (cookie or body) for a new pair. A
// superseded token yields 401 and cleared cookies: the client must log in
// again, retrying with the same token cannot succeed.
func (h *AuthHandler) Refresh(c echo.Context) error {
	presented := ""
	if ck, err := c.Cookie(refreshCookie); err == nil {
		presented = ck.Value
	}
	if presented == "" {
		var req refreshReq
		_ = c.Bind(&req)
		presented = strings.TrimSpace(req.RefreshToken)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Auth.Refresh(ctx, presented)
	if err != nil {
		var ae *auth.Error
		if errors.As(err, &ae) {
			if ae.Kind == auth.KindTokenReused {
				h.clearAuthCookies(c)
			}
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": ae.Message, "kind": string(ae.Kind)})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}

	h.setAuthCookies(c, pair)
	return c.JSON(http.StatusOK, echo.Map{
		"access":  tokenPart{Token: pair.Access.Token, Expires: pair.Access.ExpiresAt},
		"refresh": tokenPart{Token: pair.Refresh.Token, Expires: pair.Refresh.ExpiresAt},
	})
}

// Logout clears the stored refresh token for the authenticated user and
// expires both cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.Logout(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	h.clearAuthCookies(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's public profile.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u.Public()})
}

// ----- cookie helpers -----

func (h *AuthHandler) setAuthCookies(c echo.Context, pair auth.Pair) {
	c.SetCookie(h.cookie(middleware.AccessCookie, pair.Access.Token, pair.Access.ExpiresAt))
	c.SetCookie(h.cookie(refreshCookie, pair.Refresh.Token, pair.Refresh.ExpiresAt))
}

func (h *AuthHandler) clearAuthCookies(c echo.Context) {
	expired := time.Unix(0, 0)
	c.SetCookie(h.cookie(middleware.AccessCookie, "", expired))
	c.SetCookie(h.cookie(refreshCookie, "", expired))
}

// cookie builds an auth cookie. HttpOnly keeps page scripts away from the
// tokens and SameSite=Strict stops them riding along on cross-site
// requests; without these the rotation scheme would not mean much.
func (h *AuthHandler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (h *AuthHandler) uploadFormFile(ctx context.Context, fh *multipart.FileHeader, suffix string) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return h.Assets.Upload(ctx, storage.ObjectKey(suffix), contentType, f)
}
