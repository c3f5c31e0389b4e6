package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/users"
)

const maxImageBytes = 5 << 20

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	users *users.Service
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(svc *users.Service) *UserHandler {
	return &UserHandler{users: svc}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.PUT("/profile/handle", h.SetHandle)
	g.POST("/profile/avatar", h.UploadAvatar)
	g.POST("/profile/header", h.UploadHeader)
	g.DELETE("/profile", h.DeleteUser)
	g.GET("/users/:id", h.GetUser)
	g.GET("/users/by-handle/:handle", h.GetUserByHandle)
}

// GetUser retrieves another user's profile by ID
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.users.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// GetUserByHandle resolves a handle to its owner's profile
func (h *UserHandler) GetUserByHandle(c echo.Context) error {
	user, err := h.users.GetByHandle(c.Request().Context(), c.Param("handle"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateProfile(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// SetHandle claims a handle for the authenticated user. A handle can be set once.
func (h *UserHandler) SetHandle(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.SetHandleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	user, err := h.users.SetHandle(c.Request().Context(), userID, req.Handle)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

func (h *UserHandler) UploadAvatar(c echo.Context) error {
	return h.upload(c, h.users.UploadAvatar)
}

func (h *UserHandler) UploadHeader(c echo.Context) error {
	return h.upload(c, h.users.UploadHeader)
}

type uploadFunc func(ctx context.Context, callerID, fileName string, data []byte, contentType string) (*models.User, error)

func (h *UserHandler) upload(c echo.Context, fn uploadFunc) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing file")
	}
	if file.Size > maxImageBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File too large")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable file")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxImageBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable file")
	}
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	user, err := fn(c.Request().Context(), userID, file.Filename, data, contentType)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// DeleteUser deletes the authenticated user's profile and releases their handle
func (h *UserHandler) DeleteUser(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.users.DeleteAccount(c.Request().Context(), userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
