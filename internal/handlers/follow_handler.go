package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/memoshare/internal/social"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	social *social.Service
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(svc *social.Service) *FollowHandler {
	return &FollowHandler{social: svc}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
	g.GET("/users/:id/mutual", h.GetMutual)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	targetID := c.Param("id")
	if err := h.social.Follow(c.Request().Context(), userID, targetID); err != nil {
		return err
	}
	count, err := h.social.FollowerCount(c.Request().Context(), targetID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"following": true, "followerCount": count})
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	targetID := c.Param("id")
	if err := h.social.Unfollow(c.Request().Context(), userID, targetID); err != nil {
		return err
	}
	count, err := h.social.FollowerCount(c.Request().Context(), targetID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"following": false, "followerCount": count})
}

// GetFollowers lists a user's followers with the follower count
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	ctx := c.Request().Context()
	users, err := h.social.ListFollowers(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	count, err := h.social.FollowerCount(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"count": count, "users": users})
}

// GetFollowing lists the users a user follows
func (h *FollowHandler) GetFollowing(c echo.Context) error {
	users, err := h.social.ListFollowing(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"users": users})
}

// GetMutual reports the follow relationship between the caller and a user
func (h *FollowHandler) GetMutual(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	following, err := h.social.IsFollowing(ctx, userID, c.Param("id"))
	if err != nil {
		return err
	}
	mutual, err := h.social.IsMutual(ctx, userID, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"following": following, "mutual": mutual})
}
