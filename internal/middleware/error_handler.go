package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"schoolpay_backend/internal/utils"
)

type errorResponse struct {
	Success bool            `json:"success"`
	Error   errorBody       `json:"error"`
}

type errorBody struct {
	Kind    utils.ErrorKind `json:"kind"`
	Message string          `json:"message"`
}

// CustomErrorHandler maps errors to the JSON error envelope. AppErrors carry
// their own kind and status; anything else is treated as internal so store
// and gateway details never leak to clients.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	kind := utils.KindUpstream
	message := "Something went wrong. Please try again later."

	if appErr, ok := utils.AsAppError(err); ok {
		code = appErr.Code
		kind = appErr.Kind
		message = appErr.Message
	} else if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		}
		switch code {
		case http.StatusNotFound:
			kind = utils.KindNotFound
		case http.StatusBadRequest:
			kind = utils.KindValidation
		}
	}

	if code >= 500 {
		c.Logger().Error(err)
	}

	if writeErr := c.JSON(code, errorResponse{
		Success: false,
		Error:   errorBody{Kind: kind, Message: message},
	}); writeErr != nil {
		c.Logger().Error(writeErr)
	}
}
