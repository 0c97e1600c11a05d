package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-core/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a success response with 201
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError maps an application error to its HTTP status and
// sends the error envelope. Repositories wrap their errors, so the
// AppError is unwrapped rather than type-asserted.
func RespondWithError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	if appErr, ok := errors.AsAppError(err); ok {
		statusCode = statusFor(appErr.Code)
		message = appErr.Message
	}

	c.JSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:    statusCode,
			Message: message,
		},
	})
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrNotFound, errors.ErrNoEffectiveRevision:
		return http.StatusNotFound
	case errors.ErrForbidden:
		return http.StatusForbidden
	case errors.ErrUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodeCollision, errors.ErrSchedulingConflict, errors.ErrInvalidTransition, errors.ErrPreconditionNotMet:
		return http.StatusConflict
	case errors.ErrBadRequest,
		errors.ErrInvalidCode, errors.ErrInvalidParentScope, errors.ErrInvalidEffectiveDate,
		errors.ErrRoomsNotSupported, errors.ErrRoomRequired, errors.ErrRoomForbidden,
		errors.ErrInvalidTimeWindow, errors.ErrInvalidGateMode:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
