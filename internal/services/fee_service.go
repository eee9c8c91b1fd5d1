package services

import (
	"context"
	"fmt"
	"time"

	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/utils"
)

// FeeService owns the fee catalog: creation, edits, activation toggling and
// eligibility listing. Fees referenced by payments are frozen except for the
// active flag.
type FeeService struct {
	store Store
	cache *RedisCache
}

func NewFeeService(store Store, cache *RedisCache) *FeeService {
	return &FeeService{store: store, cache: cache}
}

// FeeInput is the validated shape for creating or updating a fee.
type FeeInput struct {
	Name                string
	Description         string
	TotalAmount         int64
	AcademicSession     string
	AllowedLevels       []string
	AllowedSchools      []string
	AllowsInstallments  bool
	InstallmentPercents []int
}

func (in FeeInput) validate() error {
	if in.TotalAmount <= 0 {
		return utils.NewValidationError("total amount must be positive")
	}
	if len(in.AllowedLevels) == 0 {
		return utils.NewValidationError("at least one level must be assigned")
	}
	if len(in.AllowedSchools) == 0 {
		return utils.NewValidationError("at least one school must be assigned")
	}
	if in.AllowsInstallments {
		if len(in.InstallmentPercents) == 0 {
			return utils.NewValidationError("installment percentages are required when installments are allowed")
		}
		sum := 0
		for _, pct := range in.InstallmentPercents {
			if pct < 1 || pct > 99 {
				return utils.NewValidationError("each installment percentage must be between 1 and 99")
			}
			sum += pct
		}
		if sum != 100 {
			return utils.NewValidationError(fmt.Sprintf("installment percentages must sum to 100, got %d", sum))
		}
	}
	return nil
}

// Create adds a fee to the catalog.
func (s *FeeService) Create(ctx context.Context, in FeeInput) (*models.Fee, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	fee := &models.Fee{
		Name:                in.Name,
		Description:         in.Description,
		TotalAmount:         in.TotalAmount,
		AcademicSession:     in.AcademicSession,
		IsActive:            true,
		AllowedLevels:       in.AllowedLevels,
		AllowedSchools:      in.AllowedSchools,
		AllowsInstallments:  in.AllowsInstallments,
		InstallmentPercents: in.InstallmentPercents,
	}
	if err := s.store.CreateFee(fee); err != nil {
		return nil, utils.NewUpstreamError("failed to create fee: " + err.Error())
	}

	return fee, nil
}

// Update edits a fee. Fees already referenced by payments are immutable
// apart from activation toggling.
func (s *FeeService) Update(ctx context.Context, id uint, in FeeInput) (*models.Fee, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	fee, err := s.store.GetFee(id)
	if err != nil {
		if IsNotFound(err) {
			return nil, utils.NewNotFoundError("fee")
		}
		return nil, utils.NewUpstreamError("failed to load fee: " + err.Error())
	}

	referenced, err := s.store.FeeHasPayments(id)
	if err != nil {
		return nil, utils.NewUpstreamError("failed to check fee usage: " + err.Error())
	}
	if referenced {
		return nil, utils.NewConflictError("fee has payments and can no longer be edited")
	}

	fee.Name = in.Name
	fee.Description = in.Description
	fee.TotalAmount = in.TotalAmount
	fee.AcademicSession = in.AcademicSession
	fee.AllowedLevels = in.AllowedLevels
	fee.AllowedSchools = in.AllowedSchools
	fee.AllowsInstallments = in.AllowsInstallments
	fee.InstallmentPercents = in.InstallmentPercents

	if err := s.store.SaveFee(fee); err != nil {
		return nil, utils.NewUpstreamError("failed to save fee: " + err.Error())
	}

	return fee, nil
}

// Toggle flips the active flag, the only edit allowed on a referenced fee.
func (s *FeeService) Toggle(ctx context.Context, id uint) (*models.Fee, error) {
	fee, err := s.store.GetFee(id)
	if err != nil {
		if IsNotFound(err) {
			return nil, utils.NewNotFoundError("fee")
		}
		return nil, utils.NewUpstreamError("failed to load fee: " + err.Error())
	}

	fee.IsActive = !fee.IsActive
	if err := s.store.SaveFee(fee); err != nil {
		return nil, utils.NewUpstreamError("failed to save fee: " + err.Error())
	}

	return fee, nil
}

// ListForStudent returns the active fees matching a student's school and
// level. The cache TTL is short enough that catalog edits show up without
// explicit invalidation.
func (s *FeeService) ListForStudent(ctx context.Context, student *models.Student) ([]models.Fee, error) {
	key := fmt.Sprintf("fees:%s:%s", student.School, student.Level)
	return GetOrSet(s.cache, ctx, key, 5*time.Minute, func() ([]models.Fee, error) {
		return s.store.ListActiveFees(student.School, student.Level)
	})
}
