package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studybuddy/study-buddy-api/internal/service"
	"github.com/studybuddy/study-buddy-api/pkg/response"
)

// CatalogHandler exposes the course reference catalog.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// List godoc
// @Summary List catalog courses for selection
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *CatalogHandler) List(c *gin.Context) {
	options, err := h.catalog.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options)
}

// Search godoc
// @Summary Search catalog courses by code or title
// @Tags Catalog
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {object} response.Envelope
// @Router /catalog/search [get]
func (h *CatalogHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	options, err := h.catalog.Search(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options)
}
