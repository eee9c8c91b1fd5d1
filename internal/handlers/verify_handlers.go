package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"schoolpay_backend/internal/services"
	"schoolpay_backend/internal/utils"
)

type VerifyHandler struct {
	lookup *services.LookupService
}

func NewVerifyHandler(lookup *services.LookupService) *VerifyHandler {
	return &VerifyHandler{lookup: lookup}
}

// Verify answers the public "has this student/reference paid?" question.
// The payment's true status is surfaced, including pending and failed.
func (h *VerifyHandler) Verify(c echo.Context) error {
	var req VerifyRequest
	if err := c.Bind(&req); err != nil {
		return utils.NewValidationError("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	snapshot, err := h.lookup.Lookup(req.SearchType, req.SearchQuery)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"payment": snapshot,
	})
}
