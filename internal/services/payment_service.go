package services

import (
	"context"
	"errors"
	"log"

	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/utils"
)

// PaymentService handles initiation: it validates eligibility, writes the
// pending ledger row and requests a checkout handle from the gateway.
// Verification of the outcome belongs to ReconcileService.
type PaymentService struct {
	store   Store
	gateway GatewayClient
}

func NewPaymentService(store Store, gateway GatewayClient) *PaymentService {
	return &PaymentService{store: store, gateway: gateway}
}

// InitiateInput is the validated initiation request.
type InitiateInput struct {
	StudentID         uint
	FeeID             uint
	Amount            int64
	InstallmentNumber int
	TotalInstallments int
	IsFullPayment     bool
	CallbackURL       string
}

// InitiateResult carries what the payer needs to complete checkout.
type InitiateResult struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

// Initiate validates the request, creates a pending ledger row and asks the
// gateway for an authorization URL. A gateway rejection deletes the pending
// row again so no orphaned pending payments accumulate.
func (s *PaymentService) Initiate(ctx context.Context, in InitiateInput) (*InitiateResult, error) {
	if in.Amount <= 0 {
		return nil, utils.NewValidationError("amount must be positive")
	}
	if in.InstallmentNumber < 1 {
		return nil, utils.NewValidationError("installment number must be at least 1")
	}

	student, err := s.store.GetStudent(in.StudentID)
	if err != nil {
		if IsNotFound(err) {
			return nil, utils.NewNotFoundError("student")
		}
		return nil, utils.NewUpstreamError("failed to load student: " + err.Error())
	}

	fee, err := s.store.GetFee(in.FeeID)
	if err != nil {
		if IsNotFound(err) {
			return nil, utils.NewNotFoundError("fee")
		}
		return nil, utils.NewUpstreamError("failed to load fee: " + err.Error())
	}
	if !fee.IsActive {
		return nil, utils.NewNotFoundError("fee")
	}

	if !fee.AppliesTo(student.School, student.Level) {
		return nil, utils.NewBusinessRuleError("fee does not apply to this student's school or level")
	}
	if !in.IsFullPayment {
		if !fee.AllowsInstallments && in.InstallmentNumber > 1 {
			return nil, utils.NewBusinessRuleError("fee does not allow installment payments")
		}
		if in.InstallmentNumber > len(fee.SplitPercents()) {
			return nil, utils.NewValidationError("installment number exceeds the fee's installment count")
		}
	}

	duplicate, err := s.store.HasVerifiedInstallment(in.StudentID, in.FeeID, in.InstallmentNumber)
	if err != nil {
		return nil, utils.NewUpstreamError("failed to check existing payments: " + err.Error())
	}
	if duplicate {
		return nil, utils.NewConflictError("this installment has already been paid")
	}

	payment := &models.Payment{
		StudentID:         in.StudentID,
		FeeID:             in.FeeID,
		Amount:            in.Amount,
		Reference:         utils.GenerateReference(),
		ReceiptNumber:     utils.GenerateReceiptNumber(),
		Status:            models.PaymentStatusPending,
		FeeType:           fee.Name,
		AcademicSession:   fee.AcademicSession,
		InstallmentNumber: in.InstallmentNumber,
		TotalInstallments: in.TotalInstallments,
	}
	if err := s.store.CreatePayment(payment); err != nil {
		return nil, utils.NewUpstreamError("failed to create payment record: " + err.Error())
	}

	result, err := s.gateway.InitializeTransaction(ctx, InitializeRequest{
		Email:       student.Email,
		Amount:      in.Amount * 100,
		Reference:   payment.Reference,
		CallbackURL: in.CallbackURL,
		Metadata: TransactionMetadata{
			StudentID:         student.ID,
			FeeID:             fee.ID,
			FeeName:           fee.Name,
			AcademicSession:   fee.AcademicSession,
			InstallmentNumber: in.InstallmentNumber,
			TotalInstallments: in.TotalInstallments,
			IsFullPayment:     in.IsFullPayment,
		},
	})
	if err != nil {
		if delErr := s.store.DeletePayment(payment.ID); delErr != nil {
			log.Printf("failed to clean up pending payment %d after gateway rejection: %v", payment.ID, delErr)
		}
		if errors.Is(err, ErrGatewayUnavailable) {
			return nil, utils.NewUpstreamError("payment gateway unavailable, try again later")
		}
		return nil, utils.NewUpstreamError("gateway rejected initiation: " + err.Error())
	}

	return &InitiateResult{
		AuthorizationURL: result.AuthorizationURL,
		Reference:        payment.Reference,
	}, nil
}
