package handlers

import (
	"github.com/go-playground/validator/v10"

	"schoolpay_backend/internal/utils"
)

// Validator adapts go-playground/validator to echo.Validator so request
// DTOs are checked before any handler logic runs.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return utils.NewValidationError(err.Error())
	}
	return nil
}

// Request DTOs. Unknown or missing fields fail validation here instead of
// propagating into the services.

type ActivateStudentRequest struct {
	MatricNumber string `json:"matric_number" validate:"required"`
	FullName     string `json:"full_name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone"`
	School       string `json:"school" validate:"required"`
	Department   string `json:"department"`
	Level        string `json:"level" validate:"required"`
}

type InitiatePaymentRequest struct {
	StudentID         uint  `json:"student_id" validate:"required"`
	FeeID             uint  `json:"fee_id" validate:"required"`
	Amount            int64 `json:"amount" validate:"required,gt=0"`
	InstallmentNumber int   `json:"installment_number" validate:"required,gte=1"`
	TotalInstallments int   `json:"total_installments" validate:"required,gte=1"`
	IsFullPayment     bool  `json:"is_full_payment"`
}

type ReconcileRequest struct {
	Reference string `json:"reference" validate:"required"`
}

type VerifyRequest struct {
	SearchType  string `json:"search_type" validate:"required,oneof=reference email matric_number"`
	SearchQuery string `json:"search_query" validate:"required"`
}

type FeeRequest struct {
	Name                string   `json:"name" validate:"required"`
	Description         string   `json:"description"`
	TotalAmount         int64    `json:"total_amount" validate:"required,gt=0"`
	AcademicSession     string   `json:"academic_session" validate:"required"`
	AllowedLevels       []string `json:"allowed_levels" validate:"required,min=1"`
	AllowedSchools      []string `json:"allowed_schools" validate:"required,min=1"`
	AllowsInstallments  bool     `json:"allows_installments"`
	InstallmentPercents []int    `json:"installment_percents"`
}

type ReminderRequest struct {
	FeeID    uint   `json:"fee_id" validate:"required"`
	Interval string `json:"interval" validate:"required"`
}
