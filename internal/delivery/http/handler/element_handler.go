package handler

import (
	"net/http"
	"strconv"

	domainElement "precast-tracker/internal/domain/element"
	"precast-tracker/internal/usecase/element"
	"precast-tracker/internal/usecase/scan"
	appErrors "precast-tracker/pkg/errors"
	"precast-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ElementHandler struct {
	service *element.Service
	labels  *scan.Service
}

func NewElementHandler(service *element.Service, labels *scan.Service) *ElementHandler {
	return &ElementHandler{service: service, labels: labels}
}

func (h *ElementHandler) RegisterRoutes(router *gin.RouterGroup) {
	elements := router.Group("/elements")
	{
		elements.GET("", h.ListElements)
		elements.GET("/:id", h.GetElement)
		elements.GET("/:id/transitions", h.GetAllowedTransitions)
		elements.GET("/:id/qr", h.GetLabel)
	}
}

// RegisterFactoryRoutes are the catalogue and production endpoints. Role
// checks live in the service as well, the group middleware only fails fast.
func (h *ElementHandler) RegisterFactoryRoutes(router *gin.RouterGroup) {
	elements := router.Group("/elements")
	{
		elements.POST("", h.CreateElement)
		elements.PATCH("/:id", h.UpdateElement)
		elements.DELETE("/:id", h.DeleteElement)
		elements.POST("/:id/transition", h.Transition)
	}
}

func (h *ElementHandler) CreateElement(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}

	var req element.CreateElementRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.CreateElement(c.Request.Context(), actorID, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Element created successfully", element.ToElementResponse(result))
}

func (h *ElementHandler) UpdateElement(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req element.UpdateElementRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.UpdateElement(c.Request.Context(), id, actorID, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Element updated successfully", element.ToElementResponse(result))
}

func (h *ElementHandler) DeleteElement(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteElement(c.Request.Context(), id, actorID); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Element deleted successfully", nil)
}

func (h *ElementHandler) GetElement(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.GetElement(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Element retrieved successfully", element.ToElementResponse(result))
}

func (h *ElementHandler) ListElements(c *gin.Context) {
	projectID, ok := queryUUID(c, "project_id")
	if !ok {
		return
	}
	batchID, ok := queryUUID(c, "batch_id")
	if !ok {
		return
	}
	req := element.ElementFilterRequest{
		ProjectID: projectID,
		BatchID:   batchID,
		Status:    queryString(c, "status"),
	}

	result, err := h.service.ListElements(c.Request.Context(), &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Elements retrieved successfully", element.ToElementResponses(result))
}

func (h *ElementHandler) GetAllowedTransitions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.AllowedTransitions(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Allowed transitions retrieved successfully", result)
}

func (h *ElementHandler) Transition(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req element.TransitionRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.RespondError(c, appErrors.Validation(err))
		return
	}

	result, err := h.service.Transition(c.Request.Context(), id, domainElement.Status(req.Status), actorID, req.Notes)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Element status updated successfully", element.ToElementResponse(result))
}

// GetLabel serves the printable QR label as PNG.
func (h *ElementHandler) GetLabel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	size := scan.DefaultLabelSize
	if raw := c.Query("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 64 || parsed > 2048 {
			utils.RespondError(c, appErrors.New(appErrors.KindValidation, "size must be between 64 and 2048").
				WithDetail("param", "size"))
			return
		}
		size = parsed
	}

	png, err := h.labels.Label(c.Request.Context(), id, size)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.Header("Content-Disposition", "inline; filename=\"element-"+id.String()+".png\"")
	c.Data(http.StatusOK, "image/png", png)
}
