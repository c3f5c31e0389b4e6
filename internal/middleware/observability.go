package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/metrics"
)

// RequestLogger logs each request with zap and records HTTP metrics.
func RequestLogger(logger *zap.Logger, m *metrics.Collector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is final.
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			elapsed := time.Since(start)
			m.ObserveHTTP(req.Method, c.Path(), status, elapsed)

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("route", c.Path()),
				zap.Int("status", status),
				zap.Duration("latency", elapsed),
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}
			if status >= 500 {
				logger.Error("request", fields...)
			} else {
				logger.Info("request", fields...)
			}
			return nil
		}
	}
}
