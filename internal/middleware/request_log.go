package middleware

import (
	"time"

	"gigmarket/internal/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const HeaderRequestID = "X-Request-ID"

// リクエストIDを振ってctxに載せ、終わったら1行ログを出す
func RequestLogger(log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(HeaderRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(HeaderRequestID, rid)
			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), rid)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			ctx := c.Request().Context()
			switch {
			case status >= 500:
				log.Errorf(ctx, "%s %s %d %s", req.Method, c.Path(), status, time.Since(start))
			case status >= 400:
				log.Warnf(ctx, "%s %s %d %s", req.Method, c.Path(), status, time.Since(start))
			default:
				log.Infof(ctx, "%s %s %d %s", req.Method, c.Path(), status, time.Since(start))
			}
			return nil
		}
	}
}
