package handler

import (
	"net/http"

	"gigmarket/internal/config"
	"gigmarket/internal/domain/model"
	"gigmarket/internal/middleware"
	"gigmarket/internal/repository"
	"gigmarket/internal/usecase"

	"github.com/labstack/echo/v4"
)

type PayoutHandler struct {
	uc *usecase.PayoutUsecase
}

func NewPayoutHandler(uc *usecase.PayoutUsecase) *PayoutHandler {
	return &PayoutHandler{uc: uc}
}

type PayoutCreateRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

type PayoutResolveRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}

func (h *PayoutHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/wallet")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))
	g.Use(middleware.RequireRoles(model.RoleFreelancer))

	g.GET("", h.wallet)
	g.POST("/payouts", h.request)

	admin := e.Group("/admin/payouts")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.POST("/:id/process", h.process)
	admin.POST("/:id/reject", h.reject)
}

func (h *PayoutHandler) wallet(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.Wallet(c.Request().Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PayoutHandler) request(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req PayoutCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.RequestPayout(c.Request().Context(), actor, usecase.RequestPayoutInput{Amount: req.Amount})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *PayoutHandler) process(c echo.Context) error {
	return h.resolve(c, false)
}

func (h *PayoutHandler) reject(c echo.Context) error {
	return h.resolve(c, true)
}

func (h *PayoutHandler) resolve(c echo.Context, reject bool) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req PayoutResolveRequest
	if c.Request().ContentLength > 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return writeError(c, err)
		}
	}

	in := usecase.ResolvePayoutInput{Notes: req.Notes}
	var (
		out model.Payout
		err error
	)
	if reject {
		out, err = h.uc.RejectPayout(c.Request().Context(), actor, id, in)
	} else {
		out, err = h.uc.ProcessPayout(c.Request().Context(), actor, id, in)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
