package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/memoshare/internal/engagement"
)

// LikeHandler handles like HTTP requests
type LikeHandler struct {
	engagement *engagement.Service
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(svc *engagement.Service) *LikeHandler {
	return &LikeHandler{engagement: svc}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/memos/:id/like", h.ToggleLike)
	g.GET("/memos/:id/likes", h.GetLikes)
}

// ToggleLike likes or unlikes a memo for the authenticated user
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	state, err := h.engagement.ToggleLike(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, state)
}

// GetLikes returns the like count and likers of a memo
func (h *LikeHandler) GetLikes(c echo.Context) error {
	likes, err := h.engagement.GetLikes(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, likes)
}
