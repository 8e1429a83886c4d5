package server

import (
	"net/http"

	"gigmarket/internal/config"
	"gigmarket/internal/handler"
	"gigmarket/internal/repository"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Orders   *handler.OrderHandler
	Payments *handler.PaymentHandler
	Reviews  *handler.ReviewHandler
	Messages *handler.MessageHandler
	Payouts  *handler.PayoutHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, users repository.UserRepository, h Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, handler.SuccessResponse{Message: "ok"})
	})

	h.Orders.RegisterRoutes(e, cfg, users)
	h.Payments.RegisterRoutes(e, cfg, users)
	h.Reviews.RegisterRoutes(e, cfg, users)
	h.Messages.RegisterRoutes(e, cfg, users)
	h.Payouts.RegisterRoutes(e, cfg, users)
}
