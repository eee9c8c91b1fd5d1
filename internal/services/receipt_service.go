package services

import (
	"time"

	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/utils"
)

// ReceiptSnapshot is the self-contained, denormalized view of one payment
// plus running totals. It is built on demand and never persisted; every
// rendering surface (page, PDF, email) consumes this same structure. Values
// stay raw (integers, ISO timestamps); formatting belongs to the renderer.
type ReceiptSnapshot struct {
	Payment PaymentInfo    `json:"payment"`
	Student StudentInfo    `json:"student"`
	Fee     FeeInfo        `json:"fee"`
	Summary PaymentSummary `json:"summary"`
}

type PaymentInfo struct {
	Reference         string    `json:"reference"`
	ReceiptNumber     string    `json:"receipt_number"`
	Amount            int64     `json:"amount"`
	Status            string    `json:"status"`
	InstallmentNumber int       `json:"installment_number"`
	TotalInstallments int       `json:"total_installments"`
	FeeType           string    `json:"fee_type"`
	AcademicSession   string    `json:"academic_session"`
	Channel           string    `json:"channel"`
	CreatedAt         time.Time `json:"created_at"`
}

type StudentInfo struct {
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	MatricNumber string `json:"matric_number"`
	School       string `json:"school"`
	Department   string `json:"department"`
	Level        string `json:"level"`
}

type FeeInfo struct {
	Name                string `json:"name"`
	AcademicSession     string `json:"academic_session"`
	TotalAmount         int64  `json:"total_amount"`
	InstallmentPercents []int  `json:"installment_percents"`
}

const fieldUnavailable = "N/A"

// ReceiptService assembles receipt snapshots from the verified ledger.
// Read-only: it owns no status transitions.
type ReceiptService struct {
	store Store
}

func NewReceiptService(store Store) *ReceiptService {
	return &ReceiptService{store: store}
}

// ProjectByReference builds the snapshot for a verified payment. A pending
// or failed payment has no receipt.
func (s *ReceiptService) ProjectByReference(reference string) (*ReceiptSnapshot, error) {
	payment, err := s.store.GetPaymentByReference(reference)
	if err != nil {
		if IsNotFound(err) {
			return nil, utils.NewNotFoundError("payment")
		}
		return nil, utils.NewUpstreamError("failed to load payment: " + err.Error())
	}
	if payment.Status != models.PaymentStatusVerified {
		return nil, utils.NewNotVerifiedError("payment is not verified")
	}
	return s.Snapshot(payment)
}

// Snapshot denormalizes one payment into a receipt view. Totals are
// re-summed from the verified ledger at read time rather than trusted from
// any stored value, so the snapshot reflects the latest state even between
// two installment payments. A missing student or fee row degrades the
// affected fields to "N/A" instead of failing: the payment itself stays
// authoritative.
func (s *ReceiptService) Snapshot(payment *models.Payment) (*ReceiptSnapshot, error) {
	snapshot := &ReceiptSnapshot{
		Payment: PaymentInfo{
			Reference:         payment.Reference,
			ReceiptNumber:     payment.ReceiptNumber,
			Amount:            payment.Amount,
			Status:            string(payment.Status),
			InstallmentNumber: payment.InstallmentNumber,
			TotalInstallments: payment.TotalInstallments,
			FeeType:           payment.FeeType,
			AcademicSession:   payment.AcademicSession,
			Channel:           payment.Channel,
			CreatedAt:         payment.CreatedAt,
		},
	}

	student, err := s.store.GetStudent(payment.StudentID)
	if err != nil {
		snapshot.Student = StudentInfo{
			FullName:     fieldUnavailable,
			Email:        fieldUnavailable,
			MatricNumber: fieldUnavailable,
			School:       fieldUnavailable,
			Department:   fieldUnavailable,
			Level:        fieldUnavailable,
		}
	} else {
		snapshot.Student = StudentInfo{
			FullName:     student.FullName,
			Email:        student.Email,
			MatricNumber: student.MatricNumber,
			School:       student.School,
			Department:   student.Department,
			Level:        student.Level,
		}
	}

	payments, listErr := s.store.ListVerifiedPayments(payment.StudentID, payment.FeeID)
	if listErr != nil {
		return nil, utils.NewUpstreamError("failed to load payment history: " + listErr.Error())
	}

	fee, feeErr := s.store.GetFee(payment.FeeID)
	if feeErr != nil {
		snapshot.Fee = FeeInfo{Name: fieldUnavailable, AcademicSession: payment.AcademicSession}
		// Without the fee total no balance can be derived; report the
		// verified sum and leave the rest zeroed.
		for _, p := range payments {
			snapshot.Summary.TotalPaid += p.Amount
			snapshot.Summary.AllPayments = append(snapshot.Summary.AllPayments, PaymentLine{
				Amount:            p.Amount,
				InstallmentNumber: p.InstallmentNumber,
				Reference:         p.Reference,
				ReceiptNumber:     p.ReceiptNumber,
				PaymentDate:       p.CreatedAt,
			})
		}
		return snapshot, nil
	}

	snapshot.Fee = FeeInfo{
		Name:                fee.Name,
		AcademicSession:     fee.AcademicSession,
		TotalAmount:         fee.TotalAmount,
		InstallmentPercents: fee.SplitPercents(),
	}
	snapshot.Summary = ComputeSummary(fee, payments)
	return snapshot, nil
}
