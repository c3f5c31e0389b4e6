package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/memoshare/internal/memos"
	"github.com/anonto42/memoshare/internal/models"
)

// MemoHandler handles HTTP requests related to memos
type MemoHandler struct {
	memos *memos.Service
}

// NewMemoHandler creates a new MemoHandler
func NewMemoHandler(svc *memos.Service) *MemoHandler {
	return &MemoHandler{memos: svc}
}

// RegisterMemoRoutes registers memo-related routes
func (h *MemoHandler) RegisterMemoRoutes(g *echo.Group) {
	g.POST("/memos", h.CreateMemo)
	g.GET("/memos/:id", h.GetMemo)
	g.PUT("/memos/:id", h.UpdateMemo)
	g.DELETE("/memos/:id", h.DeleteMemo)
	g.GET("/users/:id/memos", h.ListUserMemos)
}

// CreateMemo publishes a memo by the authenticated user
func (h *MemoHandler) CreateMemo(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.CreateMemoRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	memo, err := h.memos.Create(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, memo)
}

// GetMemo retrieves a memo by ID
func (h *MemoHandler) GetMemo(c echo.Context) error {
	memo, err := h.memos.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, memo)
}

// UpdateMemo edits a memo owned by the authenticated user
func (h *MemoHandler) UpdateMemo(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.UpdateMemoRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	memo, err := h.memos.Update(c.Request().Context(), userID, c.Param("id"), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, memo)
}

// DeleteMemo deletes a memo owned by the authenticated user
func (h *MemoHandler) DeleteMemo(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.memos.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUserMemos lists a user's memos, newest first
func (h *MemoHandler) ListUserMemos(c echo.Context) error {
	list, err := h.memos.ListByAuthor(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, list)
}
