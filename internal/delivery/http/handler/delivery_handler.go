package handler

import (
	"context"
	"net/http"

	domainDelivery "precast-tracker/internal/domain/delivery"
	"precast-tracker/internal/usecase/delivery"
	"precast-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DeliveryHandler struct {
	service *delivery.Service
}

func NewDeliveryHandler(service *delivery.Service) *DeliveryHandler {
	return &DeliveryHandler{service: service}
}

// RegisterRoutes mounts every delivery endpoint. Ownership of a delivery
// is decided per request by the service, not by route groups. scanLimit
// guards loading, which is driven by label scans.
func (h *DeliveryHandler) RegisterRoutes(router *gin.RouterGroup, scanLimit gin.HandlerFunc) {
	deliveries := router.Group("/deliveries")
	{
		deliveries.GET("", h.ListDeliveries)
		deliveries.POST("", h.CreateDelivery)
		deliveries.GET("/:id", h.GetDelivery)

		deliveries.POST("/:id/items", scanLimit, h.LoadElement)
		deliveries.DELETE("/:id/items/:elementId", h.UnloadElement)
		deliveries.POST("/:id/items/:elementId/confirm", h.ConfirmItemDelivered)

		deliveries.POST("/:id/depart", h.Depart)
		deliveries.POST("/:id/arrive", h.Arrive)
		deliveries.POST("/:id/revert", h.Revert)
		deliveries.POST("/:id/complete", h.Complete)
		deliveries.POST("/:id/cancel", h.CancelDelivery)
		deliveries.POST("/:id/reopen", h.ReopenDelivery)
	}
}

func (h *DeliveryHandler) CreateDelivery(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}

	var req delivery.CreateDeliveryRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.CreateDelivery(c.Request.Context(), actorID, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Delivery created successfully", delivery.ToDeliveryResponse(result))
}

func (h *DeliveryHandler) GetDelivery(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.GetDelivery(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Delivery retrieved successfully", delivery.ToDeliveryResponse(result))
}

func (h *DeliveryHandler) ListDeliveries(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}

	driverID, ok := queryUUID(c, "driver_id")
	if !ok {
		return
	}
	projectID, ok := queryUUID(c, "project_id")
	if !ok {
		return
	}
	req := delivery.DeliveryFilterRequest{
		DriverID:  driverID,
		ProjectID: projectID,
		Status:    queryString(c, "status"),
	}

	result, err := h.service.ListDeliveries(c.Request.Context(), actorID, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Deliveries retrieved successfully", delivery.ToDeliveryResponses(result))
}

func (h *DeliveryHandler) LoadElement(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req delivery.LoadElementRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.LoadElement(c.Request.Context(), id, actorID, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Element loaded successfully", delivery.ToItemResponse(result))
}

func (h *DeliveryHandler) UnloadElement(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	elementID, ok := pathID(c, "elementId")
	if !ok {
		return
	}

	if err := h.service.UnloadElement(c.Request.Context(), id, elementID, actorID); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Element unloaded successfully", nil)
}

func (h *DeliveryHandler) ConfirmItemDelivered(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	elementID, ok := pathID(c, "elementId")
	if !ok {
		return
	}

	var req delivery.ConfirmItemRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	result, err := h.service.ConfirmItemDelivered(c.Request.Context(), id, elementID, actorID, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Element confirmed as delivered", delivery.ToItemResponse(result))
}

func (h *DeliveryHandler) Complete(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req delivery.CompleteDeliveryRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.Complete(c.Request.Context(), id, actorID, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Delivery completed successfully", delivery.ToDeliveryResponse(result))
}

func (h *DeliveryHandler) Depart(c *gin.Context) {
	h.step(c, "Delivery departed", h.service.Depart)
}

func (h *DeliveryHandler) Arrive(c *gin.Context) {
	h.step(c, "Delivery arrived", h.service.Arrive)
}

func (h *DeliveryHandler) Revert(c *gin.Context) {
	h.step(c, "Delivery reverted", h.service.Revert)
}

func (h *DeliveryHandler) CancelDelivery(c *gin.Context) {
	h.step(c, "Delivery cancelled", h.service.CancelDelivery)
}

func (h *DeliveryHandler) ReopenDelivery(c *gin.Context) {
	h.step(c, "Delivery reopened", h.service.ReopenDelivery)
}

type deliveryStep func(ctx context.Context, deliveryID, actorID uuid.UUID) (*domainDelivery.Delivery, error)

// step runs a body-less status change on the delivery in the path.
func (h *DeliveryHandler) step(c *gin.Context, message string, fn deliveryStep) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), id, actorID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, message, delivery.ToDeliveryResponse(result))
}
