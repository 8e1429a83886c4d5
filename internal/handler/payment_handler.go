package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gigmarket/internal/config"
	"gigmarket/internal/domain/model"
	"gigmarket/internal/middleware"
	"gigmarket/internal/repository"
	"gigmarket/internal/usecase"

	"github.com/labstack/echo/v4"
)

const maxScreenshotUpload = 10 << 20

type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

type PaymentApproveRequest struct {
	Notes          string `json:"notes" validate:"max=1000"`
	HoldBeforeWork bool   `json:"hold_before_work"`
}

type PaymentRejectRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}

type BulkPaymentRequest struct {
	OrderIDs []int64 `json:"order_ids" validate:"required,min=1,max=100,dive,gt=0"`
	Notes    string  `json:"notes" validate:"max=1000"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.POST("/:id/payment-proof", h.uploadProof)
	g.POST("/:id/payment/approve", h.approve)
	g.POST("/:id/payment/reject", h.reject)

	admin := e.Group("/admin/payments")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.POST("/bulk-approve", h.bulkApprove)
	admin.POST("/bulk-reject", h.bulkReject)
}

// multipart: transaction_ref + screenshot
func (h *PaymentHandler) uploadProof(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	name, data, err := readFormFile(c, "screenshot", maxScreenshotUpload)
	if errors.Is(err, errFileTooLarge) {
		return badRequest(c, "payment screenshot too large")
	}
	if err != nil {
		return badRequest(c, "invalid multipart body")
	}

	out, err := h.uc.UploadProof(c.Request().Context(), actor, id, usecase.UploadProofInput{
		TransactionRef: strings.TrimSpace(c.FormValue("transaction_ref")),
		Filename:       name,
		Screenshot:     data,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) approve(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req PaymentApproveRequest
	if c.Request().ContentLength > 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return writeError(c, err)
		}
	}

	out, err := h.uc.Approve(c.Request().Context(), actor, id, usecase.ApprovePaymentInput{
		Notes:          req.Notes,
		HoldBeforeWork: req.HoldBeforeWork,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) reject(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req PaymentRejectRequest
	if c.Request().ContentLength > 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return writeError(c, err)
		}
	}

	out, err := h.uc.Reject(c.Request().Context(), actor, id, usecase.RejectPaymentInput{Notes: req.Notes})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) bulkApprove(c echo.Context) error {
	return h.bulk(c, h.uc.BulkApprove)
}

func (h *PaymentHandler) bulkReject(c echo.Context) error {
	return h.bulk(c, h.uc.BulkReject)
}

// 1件ずつの成否は本文で返す（全体は200）
func (h *PaymentHandler) bulk(c echo.Context, run bulkPaymentFunc) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req BulkPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := run(c.Request().Context(), actor, usecase.BulkPaymentInput{OrderIDs: req.OrderIDs, Notes: req.Notes})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type bulkPaymentFunc func(ctx context.Context, actor model.Actor, in usecase.BulkPaymentInput) (usecase.BulkResult, error)
