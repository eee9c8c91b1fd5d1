package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"schoolpay_backend/internal/services"
	"schoolpay_backend/internal/utils"
)

type ReceiptHandler struct {
	receipts *services.ReceiptService
}

func NewReceiptHandler(receipts *services.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// Get returns the full receipt snapshot for a verified payment. The HTML
// page, PDF generator and email renderer all consume this same payload.
func (h *ReceiptHandler) Get(c echo.Context) error {
	reference := c.Param("reference")
	if reference == "" {
		return utils.NewValidationError("reference is required")
	}

	snapshot, err := h.receipts.ProjectByReference(reference)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"receipt": snapshot,
	})
}
