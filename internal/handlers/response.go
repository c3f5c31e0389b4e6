package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/apperrors"
	"github.com/anonto42/memoshare/internal/middleware"
)

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func currentUser(c echo.Context) (string, error) {
	id := middleware.CurrentUserID(c)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return id, nil
}

// bindAndValidate binds the request body into req and validates it.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

// ErrorHandler renders application errors with the status of their kind and
// echo errors with their own code.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := echo.Map{"code": "INTERNAL", "message": "internal server error"}

		var appErr *apperrors.Error
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			status = apperrors.HTTPStatus(err)
			body = echo.Map{"code": appErr.Code, "kind": appErr.Kind, "message": appErr.Message}
		case errors.As(err, &httpErr):
			status = httpErr.Code
			body = echo.Map{"code": http.StatusText(status), "message": httpErr.Message}
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, echo.Map{"success": false, "error": body})
		}
		if err != nil {
			logger.Error("failed to write error response", zap.Error(err))
		}
	}
}
