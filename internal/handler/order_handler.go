package handler

import (
	"context"
	"net/http"
	"strconv"

	"gigmarket/internal/config"
	"gigmarket/internal/domain/model"
	"gigmarket/internal/middleware"
	"gigmarket/internal/repository"
	"gigmarket/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type OrderCreateRequest struct {
	ServiceID int64  `json:"service_id" validate:"required,gt=0"`
	PackageID *int64 `json:"package_id" validate:"omitempty,gt=0"`
}

type OrderCancelRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.GET("/:id/history", h.history)

	g.POST("/:id/start", h.transition(h.uc.StartWork))
	g.POST("/:id/deliver", h.transition(h.uc.Deliver))
	g.POST("/:id/request-revision", h.transition(h.uc.RequestRevision))
	g.POST("/:id/revert", h.transition(h.uc.Revert))
	g.POST("/:id/complete", h.transition(h.uc.Complete))
	g.POST("/:id/cancel", h.cancel)
}

func (h *OrderHandler) create(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req OrderCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Create(c.Request().Context(), actor, usecase.CreateOrderInput{
		ServiceID: req.ServiceID,
		PackageID: req.PackageID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid page")
		}
		page = p
	}
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid limit")
		}
		limit = l
	}

	out, err := h.uc.List(c.Request().Context(), actor, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) history(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.History(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type orderTransitionFunc func(ctx context.Context, actor model.Actor, orderID int64) (usecase.OrderOutput, error)

// 本文なしの遷移エンドポイント共通
func (h *OrderHandler) transition(fn orderTransitionFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, ok := getActorFromContext(c)
		if !ok {
			return unauthorized(c)
		}
		id, ok := parseIDParam(c, "id")
		if !ok {
			return badRequest(c, "invalid id")
		}

		out, err := fn(c.Request().Context(), actor, id)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	}
}

func (h *OrderHandler) cancel(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	// 本文は任意
	var req OrderCancelRequest
	if c.Request().ContentLength > 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return writeError(c, err)
		}
	}

	out, err := h.uc.Cancel(c.Request().Context(), actor, id, usecase.TransitionInput{Notes: req.Notes})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
