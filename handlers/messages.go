package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/lepens-foundation/lepens/services/logging"
	"github.com/lepens-foundation/lepens/services/messages"
)

type MessagesHandler struct {
	messagesService *messages.Service
	logger          *logging.Service
}

func NewMessagesHandler(messagesService *messages.Service, logger *logging.Service) *MessagesHandler {
	return &MessagesHandler{
		messagesService: messagesService,
		logger:          logger,
	}
}

// submitRequest uses the capitalized field names the public site posts.
type submitRequest struct {
	FullName string `json:"FullName"`
	Email    string `json:"Email"`
	Subject  string `json:"Subject"`
	Message  string `json:"Message"`
}

func (h *MessagesHandler) Submit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	_, err := h.messagesService.Submit(req.FullName, req.Email, req.Subject, req.Message)
	if err != nil {
		if errors.Is(err, messages.ErrMissingFields) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.logger.Error("message submission failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to send message")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Message sent successfully",
	})
}

func (h *MessagesHandler) List(c echo.Context) error {
	list, err := h.messagesService.List()
	if err != nil {
		h.logger.Error("failed to list messages", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load messages")
	}

	return c.JSON(http.StatusOK, list)
}

func (h *MessagesHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	message, err := h.messagesService.GetByID(id)
	if err != nil {
		if errors.Is(err, messages.ErrMessageNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		h.logger.Error("failed to load message", zap.Uint("message_id", id), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load message")
	}

	return c.JSON(http.StatusOK, message)
}

func (h *MessagesHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.messagesService.Delete(id); err != nil {
		if errors.Is(err, messages.ErrMessageNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		h.logger.Error("failed to delete message", zap.Uint("message_id", id), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete message")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Message deleted successfully",
	})
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusNotFound, "message not found")
	}
	return uint(id), nil
}
