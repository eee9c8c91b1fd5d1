package tasks

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/services"
)

// SendReceiptEmailTaskDef mails the receipt for a verified payment. It is
// enqueued by reconciliation as a one-time task so a mail outage never
// blocks or fails a payment confirmation; the worker retries up to the
// task's max attempts.
type SendReceiptEmailTaskDef struct{}

func (t *SendReceiptEmailTaskDef) TaskID() string {
	return "send_receipt_email"
}

func (t *SendReceiptEmailTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	reference, ok := task.Arguments["reference"].(string)
	if !ok || reference == "" {
		return nil, fmt.Errorf("reference argument missing")
	}

	store := services.NewGormStore(db)
	receipts := services.NewReceiptService(store)

	snapshot, err := receipts.ProjectByReference(reference)
	if err != nil {
		return nil, fmt.Errorf("failed to project receipt for %s: %w", reference, err)
	}
	if snapshot.Student.Email == "" || snapshot.Student.Email == "N/A" {
		return map[string]interface{}{"status": "skipped", "message": "student email unavailable"}, nil
	}

	body, err := services.RenderReceiptEmail(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to render receipt email: %w", err)
	}

	subject := fmt.Sprintf("Payment receipt %s", snapshot.Payment.ReceiptNumber)
	mailer := services.NewEmailService()
	if err := mailer.SendHTML([]string{snapshot.Student.Email}, subject, body); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"status":    "success",
		"reference": reference,
		"sent_to":   snapshot.Student.Email,
	}, nil
}

// SendReceiptEmailTask is the singleton instance of SendReceiptEmailTaskDef
var SendReceiptEmailTask = &SendReceiptEmailTaskDef{}
