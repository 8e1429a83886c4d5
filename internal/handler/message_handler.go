package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gigmarket/internal/config"
	"gigmarket/internal/middleware"
	"gigmarket/internal/repository"
	"gigmarket/internal/usecase"

	"github.com/labstack/echo/v4"
)

const maxAttachmentUpload = 25 << 20

type MessageHandler struct {
	uc *usecase.MessageUsecase
}

func NewMessageHandler(uc *usecase.MessageUsecase) *MessageHandler {
	return &MessageHandler{uc: uc}
}

// テキストだけならJSONでも送れる
type MessageSendRequest struct {
	Content string `json:"content" validate:"max=5000"`
}

func (h *MessageHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.GET("/:id/messages", h.list)
	g.POST("/:id/messages", h.send)
	g.POST("/:id/messages/read", h.markRead)
}

func (h *MessageHandler) send(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	in, err := h.sendInput(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Send(c.Request().Context(), actor, id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// multipart: content, file, file_type, view_once
func (h *MessageHandler) sendInput(c echo.Context) (usecase.SendMessageInput, error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		var req MessageSendRequest
		if err := bindAndValidate(c, &req); err != nil {
			return usecase.SendMessageInput{}, err
		}
		return usecase.SendMessageInput{Content: req.Content}, nil
	}

	name, data, err := readFormFile(c, "file", maxAttachmentUpload)
	if errors.Is(err, errFileTooLarge) {
		return usecase.SendMessageInput{}, usecase.NewHTTPError(http.StatusBadRequest, "file too large")
	}
	if err != nil {
		return usecase.SendMessageInput{}, usecase.NewHTTPError(http.StatusBadRequest, "invalid multipart body")
	}

	viewOnce := false
	if v := c.FormValue("view_once"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return usecase.SendMessageInput{}, usecase.NewHTTPError(http.StatusBadRequest, "invalid view_once")
		}
		viewOnce = b
	}

	return usecase.SendMessageInput{
		Content:  c.FormValue("content"),
		Filename: name,
		File:     data,
		FileType: c.FormValue("file_type"),
		ViewOnce: viewOnce,
	}, nil
}

func (h *MessageHandler) list(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.List(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *MessageHandler) markRead(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.MarkRead(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
