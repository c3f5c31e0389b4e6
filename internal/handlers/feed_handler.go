package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/memoshare/internal/feed"
	"github.com/anonto42/memoshare/internal/search"
)

// FeedHandler serves the memo feed and search over it
type FeedHandler struct {
	feed   *feed.Service
	search *search.Service
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feedSvc *feed.Service, searchSvc *search.Service) *FeedHandler {
	return &FeedHandler{feed: feedSvc, search: searchSvc}
}

// RegisterFeedRoutes registers feed and search routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
	g.GET("/search", h.Search)
}

// GetFeed returns one page of the feed. Pass the previous nextCursor as
// ?cursor= to continue; ?author= narrows the feed to one user.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit")
		}
		limit = n
	}
	page, err := h.feed.Page(c.Request().Context(), c.QueryParam("cursor"), limit, c.QueryParam("author"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page)
}

// Search matches ?q= against the titles and summaries of recent memos.
func (h *FeedHandler) Search(c echo.Context) error {
	res, err := h.search.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, res)
}
