package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/app"
	"github.com/anonto42/memoshare/internal/handlers"
	"github.com/anonto42/memoshare/internal/identity"
	"github.com/anonto42/memoshare/internal/metrics"
	"github.com/anonto42/memoshare/internal/middleware"
	"github.com/anonto42/memoshare/internal/validators"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, logger *zap.Logger, m *metrics.Collector) {
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler(logger)
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.Use(middleware.RequestLogger(logger, m))
	logger.Info("global middleware configured")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, svc *app.Services, verifier identity.Verifier, logger *zap.Logger, m *metrics.Collector) {
	// Health check and metrics - always accessible
	e.GET("/health", handlers.HealthCheck)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "memoshare"})
	})

	// First sight of a principal creates their profile.
	register := func(c echo.Context, p *identity.Principal) error {
		_, err := svc.Users.Register(c.Request().Context(), p.ID, p.DisplayName)
		return err
	}

	api := e.Group("/api/v1")
	api.Use(middleware.Auth(verifier, register, logger.Named("auth")))

	handlers.NewUserHandler(svc.Users).RegisterProfileRoutes(api)
	handlers.NewMemoHandler(svc.Memos).RegisterMemoRoutes(api)
	handlers.NewFeedHandler(svc.Feed, svc.Search).RegisterFeedRoutes(api)
	handlers.NewFollowHandler(svc.Social).RegisterFollowRoutes(api)
	handlers.NewLikeHandler(svc.Engagement).RegisterLikeRoutes(api)
	handlers.NewBookmarkHandler(svc.Engagement).RegisterBookmarkRoutes(api)
	handlers.NewCommentHandler(svc.Engagement).RegisterCommentRoutes(api)
	handlers.NewChatHandler(svc.Chat, logger.Named("chat")).RegisterChatRoutes(api)

	logger.Info("all routes configured", zap.Int("routes", len(e.Routes())))
}
