package services

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"schoolpay_backend/internal/models"
)

// ExportService builds the admin's Excel export of the payment ledger.
type ExportService struct {
	db *gorm.DB
}

func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{db: db}
}

// ExportLedger generates a workbook of payments for a session (all sessions
// when empty), with verified rows first.
func (s *ExportService) ExportLedger(session string) (*excelize.File, string, error) {
	query := s.db.Model(&models.Payment{}).Preload("Student").Preload("Fee")
	if session != "" {
		query = query.Where("academic_session = ?", session)
	}

	var payments []models.Payment
	if err := query.Order("status desc, created_at asc").Find(&payments).Error; err != nil {
		return nil, "", fmt.Errorf("failed to load payments: %v", err)
	}

	f := excelize.NewFile()
	sheet := "Payments"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Receipt Number", "Reference", "Matric Number", "Student", "Fee", "Session", "Amount", "Installment", "Status", "Date"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, p := range payments {
		values := []interface{}{
			p.ReceiptNumber,
			p.Reference,
			p.Student.MatricNumber,
			p.Student.FullName,
			p.FeeType,
			p.AcademicSession,
			p.Amount,
			fmt.Sprintf("%d/%d", p.InstallmentNumber, p.TotalInstallments),
			string(p.Status),
			p.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	filename := fmt.Sprintf("payments_%s.xlsx", time.Now().Format("20060102_150405"))
	return f, filename, nil
}
