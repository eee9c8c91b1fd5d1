package handlers

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"schoolpay_backend/internal/services"
	"schoolpay_backend/internal/utils"
)

type PaymentHandler struct {
	payments  *services.PaymentService
	reconcile *services.ReconcileService
}

func NewPaymentHandler(payments *services.PaymentService, reconcile *services.ReconcileService) *PaymentHandler {
	return &PaymentHandler{payments: payments, reconcile: reconcile}
}

// Initiate starts a payment: pending ledger row plus gateway checkout URL.
func (h *PaymentHandler) Initiate(c echo.Context) error {
	var req InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return utils.NewValidationError("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	callbackURL := getEnv("APP_URL", "http://localhost:8080") + "/payments/confirm"

	result, err := h.payments.Initiate(c.Request().Context(), services.InitiateInput{
		StudentID:         req.StudentID,
		FeeID:             req.FeeID,
		Amount:            req.Amount,
		InstallmentNumber: req.InstallmentNumber,
		TotalInstallments: req.TotalInstallments,
		IsFullPayment:     req.IsFullPayment,
		CallbackURL:       callbackURL,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":           true,
		"authorization_url": result.AuthorizationURL,
		"reference":         result.Reference,
	})
}

// Reconcile confirms a transaction with the gateway and returns the receipt
// snapshot. Safe to call repeatedly for the same reference.
func (h *PaymentHandler) Reconcile(c echo.Context) error {
	var req ReconcileRequest
	if err := c.Bind(&req); err != nil {
		return utils.NewValidationError("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	snapshot, err := h.reconcile.Reconcile(c.Request().Context(), req.Reference)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "payment verified",
		"payment": map[string]interface{}{
			"reference":      snapshot.Payment.Reference,
			"amount":         snapshot.Payment.Amount,
			"status":         snapshot.Payment.Status,
			"receipt_number": snapshot.Payment.ReceiptNumber,
			"created_at":     snapshot.Payment.CreatedAt,
		},
		"student": map[string]interface{}{
			"email":     snapshot.Student.Email,
			"full_name": snapshot.Student.FullName,
		},
		"summary": snapshot.Summary,
	})
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
