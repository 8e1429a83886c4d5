package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gigmarket/internal/config"
	"gigmarket/internal/logger"
	"gigmarket/internal/middleware"
	"gigmarket/internal/repository"
	"gigmarket/internal/validator"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const shutdownTimeout = 10 * time.Second

func New(cfg config.Config, log logger.Logger, users repository.UserRepository, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()

	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	if cfg.FEURL != "" {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: []string{cfg.FEURL},
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.HeaderRequestID},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		}))
	}

	RegisterRoutes(e, cfg, users, h)
	return e
}

// ctxが閉じたらgraceful shutdown
func Start(ctx context.Context, e *echo.Echo, addr string, log logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof(ctx, "http server listening on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Infof(shutdownCtx, "http server shutting down")
	return e.Shutdown(shutdownCtx)
}
