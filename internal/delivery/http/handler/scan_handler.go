package handler

import (
	"net/http"

	"precast-tracker/internal/usecase/scan"
	"precast-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ScanHandler struct {
	service *scan.Service
}

func NewScanHandler(service *scan.Service) *ScanHandler {
	return &ScanHandler{service: service}
}

func (h *ScanHandler) RegisterRoutes(router *gin.RouterGroup, scanLimit gin.HandlerFunc) {
	router.GET("/scan", scanLimit, h.Resolve)
	router.GET("/scan/:token", scanLimit, h.Resolve)
}

// Resolve accepts the scanned text either as a path segment (bare id) or,
// for full label URLs, as the ?token= query parameter.
func (h *ScanHandler) Resolve(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}

	token := c.Param("token")
	if token == "" {
		token = c.Query("token")
	}

	result, err := h.service.Resolve(c.Request.Context(), token, actorID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Element resolved successfully", scan.ToResolutionResponse(result))
}
