package tasks

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/services"
)

// SendFeeRemindersTaskDef emails every eligible student who still owes part
// of a fee. Scheduled as a recurring task with an RRULE interval.
type SendFeeRemindersTaskDef struct{}

func (t *SendFeeRemindersTaskDef) TaskID() string {
	return "send_fee_reminders"
}

func (t *SendFeeRemindersTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	feeIDFloat, ok := task.Arguments["fee_id"].(float64)
	if !ok {
		return nil, fmt.Errorf("fee_id argument missing or invalid")
	}
	feeID := uint(feeIDFloat)

	store := services.NewGormStore(db)
	fee, err := store.GetFee(feeID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fee: %w", err)
	}
	if !fee.IsActive {
		return map[string]interface{}{"status": "skipped", "message": "fee is inactive"}, nil
	}

	var students []models.Student
	if err := db.Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch students: %w", err)
	}

	mailer := services.NewEmailService()
	sent := 0
	failed := 0
	for _, student := range students {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !fee.AppliesTo(student.School, student.Level) {
			continue
		}

		payments, err := store.ListVerifiedPayments(student.ID, fee.ID)
		if err != nil {
			log.Printf("reminder: failed to load payments for student %d: %v", student.ID, err)
			failed++
			continue
		}
		summary := services.ComputeSummary(fee, payments)
		if summary.IsFullyPaid {
			continue
		}

		body, err := services.RenderReminderEmail(services.ReminderEmailData{
			StudentName: student.FullName,
			FeeName:     fee.Name,
			Session:     fee.AcademicSession,
			Balance:     summary.Balance,
		})
		if err != nil {
			failed++
			continue
		}

		subject := fmt.Sprintf("Outstanding balance on %s", fee.Name)
		if err := mailer.SendHTML([]string{student.Email}, subject, body); err != nil {
			log.Printf("reminder: failed to email %s: %v", student.Email, err)
			failed++
			continue
		}
		sent++
	}

	return map[string]interface{}{
		"status": "success",
		"sent":   sent,
		"failed": failed,
	}, nil
}

// SendFeeRemindersTask is the singleton instance of SendFeeRemindersTaskDef
var SendFeeRemindersTask = &SendFeeRemindersTaskDef{}
