package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/memoshare/internal/engagement"
	"github.com/anonto42/memoshare/internal/models"
)

// CommentHandler handles comment HTTP requests
type CommentHandler struct {
	engagement *engagement.Service
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(svc *engagement.Service) *CommentHandler {
	return &CommentHandler{engagement: svc}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/memos/:id/comments", h.CreateComment)
	g.GET("/memos/:id/comments", h.GetComments)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment adds a comment to a memo
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	// Blank text is rejected by the service with a typed error.
	comment, err := h.engagement.AddComment(c.Request().Context(), userID, c.Param("id"), req.Text)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, comment)
}

// GetComments lists every comment on a memo, oldest first
func (h *CommentHandler) GetComments(c echo.Context) error {
	comments, err := h.engagement.ListComments(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, comments)
}

// DeleteComment deletes a comment written by the authenticated user
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.engagement.DeleteComment(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
