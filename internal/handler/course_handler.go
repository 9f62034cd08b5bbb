package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studybuddy/study-buddy-api/internal/service"
	appErrors "github.com/studybuddy/study-buddy-api/pkg/errors"
	"github.com/studybuddy/study-buddy-api/pkg/response"
)

// CourseHandler exposes enrollment endpoints.
type CourseHandler struct {
	courses *service.CourseService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// List godoc
// @Summary List the caller's enrolled courses
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param code query string false "Look up one course by code"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if code := strings.TrimSpace(c.Query("code")); code != "" {
		course, err := h.courses.FindByCode(c.Request.Context(), code)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, course)
		return
	}

	courses, err := h.courses.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses)
}

// Create godoc
// @Summary Enroll in a catalog course
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.EnrollRequest true "Course code and name"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	course, err := h.courses.Enroll(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Delete godoc
// @Summary Leave a course
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 204
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.courses.Unenroll(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Users godoc
// @Summary List users enrolled in a course
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/users [get]
func (h *CourseHandler) Users(c *gin.Context) {
	members, err := h.courses.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members)
}
