package services

import (
	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/utils"
)

// Lookup search kinds accepted by the public verifier.
const (
	LookupByReference = "reference"
	LookupByEmail     = "email"
	LookupByMatric    = "matric_number"
)

// LookupService answers "has this student/reference paid?" for the public
// verifier. It reuses the receipt projection but does not require the
// payment to be verified: the true status is surfaced rather than the row
// concealed.
type LookupService struct {
	store    Store
	receipts *ReceiptService
}

func NewLookupService(store Store, receipts *ReceiptService) *LookupService {
	return &LookupService{store: store, receipts: receipts}
}

// Lookup resolves a search to a payment snapshot. Email and matric searches
// return the student's most recent payment by date; full history stays on
// the student's own dashboard.
func (s *LookupService) Lookup(kind, query string) (*ReceiptSnapshot, error) {
	if query == "" {
		return nil, utils.NewValidationError("search query is required")
	}

	var payment *models.Payment
	var err error

	switch kind {
	case LookupByReference:
		payment, err = s.store.GetPaymentByReference(query)
	case LookupByEmail:
		payment, err = s.latestFor(func() (*models.Student, error) {
			return s.store.GetStudentByEmail(query)
		})
	case LookupByMatric:
		payment, err = s.latestFor(func() (*models.Student, error) {
			return s.store.GetStudentByMatric(query)
		})
	default:
		return nil, utils.NewValidationError("unknown search type: " + kind)
	}

	if err != nil {
		if IsNotFound(err) {
			return nil, utils.NewNotFoundError("payment")
		}
		if appErr, ok := utils.AsAppError(err); ok {
			return nil, appErr
		}
		return nil, utils.NewUpstreamError("lookup failed: " + err.Error())
	}

	return s.receipts.Snapshot(payment)
}

func (s *LookupService) latestFor(findStudent func() (*models.Student, error)) (*models.Payment, error) {
	student, err := findStudent()
	if err != nil {
		return nil, err
	}
	return s.store.LatestPaymentForStudent(student.ID)
}
