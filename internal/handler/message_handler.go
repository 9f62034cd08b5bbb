package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studybuddy/study-buddy-api/internal/service"
	appErrors "github.com/studybuddy/study-buddy-api/pkg/errors"
	"github.com/studybuddy/study-buddy-api/pkg/response"
)

// MessageHandler exposes course chat and direct message endpoints.
type MessageHandler struct {
	messages *service.MessageService
}

// NewMessageHandler constructs MessageHandler.
func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// ListCourseMessages godoc
// @Summary List a course room's messages
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/messages [get]
func (h *MessageHandler) ListCourseMessages(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	messages, err := h.messages.ListCourseMessages(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages)
}

// PostCourseMessage godoc
// @Summary Post a message to a course room
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param payload body service.CourseMessageRequest true "Message payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/messages [post]
func (h *MessageHandler) PostCourseMessage(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CourseMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	message, err := h.messages.PostCourseMessage(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, message)
}

// Conversation godoc
// @Summary Load the direct-message thread with another user
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param to_net_id query string true "Other user's NetID"
// @Success 200 {object} response.Envelope
// @Router /dm [get]
func (h *MessageHandler) Conversation(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	otherNetID := strings.TrimSpace(c.Query("to_net_id"))
	if otherNetID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to_net_id is required"))
		return
	}

	messages, err := h.messages.Conversation(c.Request.Context(), claims.UserID, otherNetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages)
}

// SendDirectMessage godoc
// @Summary Send a direct message
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.DirectMessageRequest true "Message payload"
// @Success 201 {object} response.Envelope "The refreshed conversation"
// @Router /dm [post]
func (h *MessageHandler) SendDirectMessage(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.DirectMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	conversation, err := h.messages.SendDirectMessage(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, conversation)
}
