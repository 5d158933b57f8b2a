package handler

import (
	"net/http"

	"precast-tracker/internal/usecase/batch"
	appErrors "precast-tracker/pkg/errors"
	"precast-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
)

type BatchHandler struct {
	service *batch.Service
}

func NewBatchHandler(service *batch.Service) *BatchHandler {
	return &BatchHandler{service: service}
}

func (h *BatchHandler) RegisterRoutes(router *gin.RouterGroup) {
	batches := router.Group("/batches")
	{
		batches.GET("/:id", h.GetBatch)
	}
	router.GET("/projects/:id/batches", h.ListBatches)
}

func (h *BatchHandler) RegisterFactoryRoutes(router *gin.RouterGroup) {
	batches := router.Group("/batches")
	{
		batches.POST("", h.CreateBatch)
		batches.PUT("/:id/checklist/:key", h.SetChecklistItem)
		batches.POST("/:id/complete", h.CompleteBatch)
		batches.POST("/:id/cancel", h.CancelBatch)
	}
}

func (h *BatchHandler) CreateBatch(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}

	var req batch.CreateBatchRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.CreateBatch(c.Request.Context(), actorID, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Batch created successfully", batch.ToBatchResponse(result, nil))
}

func (h *BatchHandler) SetChecklistItem(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req batch.ChecklistItemRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.RespondError(c, appErrors.Validation(err))
		return
	}

	result, err := h.service.SetChecklistItem(c.Request.Context(), id, c.Param("key"), *req.Checked, actorID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Checklist updated successfully", batch.ToBatchResponse(result, nil))
}

func (h *BatchHandler) CompleteBatch(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.CompleteBatch(c.Request.Context(), id, actorID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Batch completed successfully", batch.ToBatchResponse(result, nil))
}

func (h *BatchHandler) CancelBatch(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.CancelBatch(c.Request.Context(), id, actorID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Batch cancelled successfully", batch.ToBatchResponse(result, nil))
}

func (h *BatchHandler) GetBatch(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.GetBatch(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Batch retrieved successfully", batch.ToBatchResponse(result.Batch, result.Elements))
}

func (h *BatchHandler) ListBatches(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.ListBatches(c.Request.Context(), projectID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	out := make([]*batch.BatchResponse, len(result))
	for i, b := range result {
		out[i] = batch.ToBatchResponse(b, nil)
	}
	utils.SuccessResponse(c, http.StatusOK, "Batches retrieved successfully", out)
}
