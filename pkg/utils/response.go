package utils

import (
	"errors"

	appErrors "precast-tracker/pkg/errors"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondError writes err using its kind's status and the message localized
// for the request's Accept-Language. Errors without a kind are reported as
// storage failures.
func RespondError(c *gin.Context, err error) {
	var appErr *appErrors.AppError
	if !errors.As(err, &appErr) {
		appErr = appErrors.StorageFailure("request", err)
	}

	kind := appErr.Kind()
	tag := appErrors.MatchLanguage(c.GetHeader("Accept-Language"))

	c.JSON(appErrors.HTTPStatus(kind), Response{
		Success: false,
		Error: &ErrorBody{
			Code:    string(kind),
			Message: appErrors.Localize(kind, tag),
			Details: appErr.Details,
		},
	})
}
