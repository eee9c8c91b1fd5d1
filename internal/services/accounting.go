package services

import (
	"time"

	"schoolpay_backend/internal/models"
)

// PaymentLine is one verified payment in the audit listing, ascending by
// installment number.
type PaymentLine struct {
	Amount            int64     `json:"amount"`
	InstallmentNumber int       `json:"installment_number"`
	Reference         string    `json:"reference"`
	ReceiptNumber     string    `json:"receipt_number"`
	PaymentDate       time.Time `json:"payment_date"`
}

// PaymentSummary is the derived installment-accounting state for one
// (student, fee) pair. It is always recomputed from the verified ledger,
// never incrementally patched.
type PaymentSummary struct {
	TotalPaid             int64         `json:"total_paid"`
	Balance               int64         `json:"balance"`
	IsFullyPaid           bool          `json:"is_fully_paid"`
	FirstInstallmentPaid  bool          `json:"first_installment_paid"`
	SecondInstallmentPaid bool          `json:"second_installment_paid"`
	AllPayments           []PaymentLine `json:"all_payments"`
}

// ComputeSummary derives the accounting state from the verified payments for
// one fee. The installment flags are true once the verified sum reaches the
// corresponding cumulative percentage of the fee total; reaching the full
// amount sets both flags no matter how many discrete payments were used.
// Balance is clamped at zero so a trailing overpayment still reads as paid.
func ComputeSummary(fee *models.Fee, payments []models.Payment) PaymentSummary {
	var total int64
	lines := make([]PaymentLine, 0, len(payments))
	for _, p := range payments {
		if p.Status != models.PaymentStatusVerified {
			continue
		}
		total += p.Amount
		lines = append(lines, PaymentLine{
			Amount:            p.Amount,
			InstallmentNumber: p.InstallmentNumber,
			Reference:         p.Reference,
			ReceiptNumber:     p.ReceiptNumber,
			PaymentDate:       p.CreatedAt,
		})
	}

	balance := fee.TotalAmount - total
	if balance < 0 {
		balance = 0
	}
	fullyPaid := fee.TotalAmount-total <= 0

	summary := PaymentSummary{
		TotalPaid:   total,
		Balance:     balance,
		IsFullyPaid: fullyPaid,
		AllPayments: lines,
	}

	if fullyPaid {
		summary.FirstInstallmentPaid = true
		summary.SecondInstallmentPaid = true
		return summary
	}

	summary.FirstInstallmentPaid = total >= fee.CumulativeAmount(1)
	summary.SecondInstallmentPaid = total >= fee.CumulativeAmount(2)
	return summary
}
