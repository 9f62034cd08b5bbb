package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studybuddy/study-buddy-api/internal/service"
	appErrors "github.com/studybuddy/study-buddy-api/pkg/errors"
	"github.com/studybuddy/study-buddy-api/pkg/response"
)

// MatchHandler exposes study-partner matching endpoints.
type MatchHandler struct {
	matches *service.MatchService
}

// NewMatchHandler constructs MatchHandler.
func NewMatchHandler(matches *service.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

// List godoc
// @Summary List the caller's matches
// @Tags Matches
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /matches [get]
func (h *MatchHandler) List(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	views, err := h.matches.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views)
}

// Create godoc
// @Summary Request a study match
// @Tags Matches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.MatchRequest true "Match payload"
// @Success 200 {object} response.Envelope "Existing match returned unchanged"
// @Success 201 {object} response.Envelope "New pending match created"
// @Router /matches [post]
func (h *MatchHandler) Create(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	match, created, err := h.matches.Request(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, match)
		return
	}
	response.JSON(c, http.StatusOK, match)
}

// Respond godoc
// @Summary Accept or reject a pending match
// @Tags Matches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Match ID"
// @Param payload body service.RespondRequest true "Response payload"
// @Success 200 {object} response.Envelope
// @Router /matches/{id} [patch]
func (h *MatchHandler) Respond(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	match, err := h.matches.Respond(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, match)
}

// Withdraw godoc
// @Summary Withdraw a pending match request
// @Tags Matches
// @Produce json
// @Security BearerAuth
// @Param course_id query string true "Course ID"
// @Param target_net_id query string true "Target user's NetID"
// @Success 204
// @Router /matches [delete]
func (h *MatchHandler) Withdraw(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	courseID := strings.TrimSpace(c.Query("course_id"))
	targetNetID := strings.TrimSpace(c.Query("target_net_id"))
	if courseID == "" || targetNetID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "course_id and target_net_id are required"))
		return
	}

	if err := h.matches.Withdraw(c.Request.Context(), claims.UserID, courseID, targetNetID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
