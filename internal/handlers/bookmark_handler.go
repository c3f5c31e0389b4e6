package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/memoshare/internal/engagement"
	"github.com/anonto42/memoshare/internal/models"
)

// BookmarkHandler handles bookmark HTTP requests
type BookmarkHandler struct {
	engagement *engagement.Service
}

// NewBookmarkHandler creates a new BookmarkHandler
func NewBookmarkHandler(svc *engagement.Service) *BookmarkHandler {
	return &BookmarkHandler{engagement: svc}
}

// RegisterBookmarkRoutes registers bookmark-related routes
func (h *BookmarkHandler) RegisterBookmarkRoutes(g *echo.Group) {
	g.POST("/memos/:id/bookmark", h.ToggleBookmark)
	g.GET("/memos/:id/bookmark", h.GetBookmarkState)
	g.GET("/bookmarks", h.ListBookmarks)
}

func (h *BookmarkHandler) ToggleBookmark(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	state, err := h.engagement.ToggleBookmark(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, state)
}

func (h *BookmarkHandler) GetBookmarkState(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	ok, err := h.engagement.IsBookmarked(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, models.BookmarkState{Bookmarked: ok})
}

// ListBookmarks returns the authenticated user's bookmarked memos
func (h *BookmarkHandler) ListBookmarks(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	items, err := h.engagement.ListBookmarks(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, items)
}
