package handler

import (
	"errors"
	"net/http"

	"precast-tracker/internal/middleware"
	appErrors "precast-tracker/pkg/errors"
	"precast-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// actor returns the authenticated user or writes a 401.
func actor(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.RespondError(c, appErrors.ErrUnauthorized)
	}
	return id, ok
}

// pathID parses a uuid path parameter or writes a 400.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondError(c, appErrors.New(appErrors.KindValidation, "invalid "+name).
			WithDetail("param", name))
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(c, appErrors.PayloadTooLarge(tooLarge.Limit))
			return false
		}
		utils.RespondError(c, appErrors.Validation(err))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		utils.RespondError(c, appErrors.Validation(err))
		return false
	}
	return true
}

// queryUUID reads an optional uuid query parameter. Filters are read by
// hand because form binding does not decode uuid.UUID.
func queryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondError(c, appErrors.New(appErrors.KindValidation, "invalid "+name).
			WithDetail("param", name))
		return nil, false
	}
	return &id, true
}

func queryString(c *gin.Context, name string) *string {
	if raw := c.Query(name); raw != "" {
		return &raw
	}
	return nil
}
