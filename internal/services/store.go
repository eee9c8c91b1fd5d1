package services

import (
	"errors"

	"gorm.io/gorm"

	"schoolpay_backend/internal/models"
)

// Store is the persistence boundary for the payment flows. Handlers and
// services receive it explicitly so tests can substitute an in-memory fake.
// Implementations signal a unique-key rejection with gorm.ErrDuplicatedKey
// and a missing row with gorm.ErrRecordNotFound.
type Store interface {
	CreateStudent(s *models.Student) error
	GetStudent(id uint) (*models.Student, error)
	GetStudentByMatric(matric string) (*models.Student, error)
	GetStudentByEmail(email string) (*models.Student, error)

	CreateFee(f *models.Fee) error
	SaveFee(f *models.Fee) error
	GetFee(id uint) (*models.Fee, error)
	ListActiveFees(school, level string) ([]models.Fee, error)
	FeeHasPayments(feeID uint) (bool, error)

	CreatePayment(p *models.Payment) error
	SavePayment(p *models.Payment) error
	DeletePayment(id uint) error
	GetPaymentByReference(reference string) (*models.Payment, error)
	HasVerifiedInstallment(studentID, feeID uint, installmentNumber int) (bool, error)
	ListVerifiedPayments(studentID, feeID uint) ([]models.Payment, error)
	LatestPaymentForStudent(studentID uint) (*models.Payment, error)

	CreateCallbackHistory(h *models.PaymentCallbackHistory) error
	CreateScheduledTask(t *models.ScheduledTask) error
}

// GormStore is the Postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateStudent(st *models.Student) error {
	return s.db.Create(st).Error
}

func (s *GormStore) GetStudent(id uint) (*models.Student, error) {
	var st models.Student
	if err := s.db.First(&st, id).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *GormStore) GetStudentByMatric(matric string) (*models.Student, error) {
	var st models.Student
	if err := s.db.Where("matric_number = ?", matric).First(&st).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *GormStore) GetStudentByEmail(email string) (*models.Student, error) {
	var st models.Student
	if err := s.db.Where("email = ?", email).First(&st).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *GormStore) CreateFee(f *models.Fee) error {
	return s.db.Create(f).Error
}

func (s *GormStore) SaveFee(f *models.Fee) error {
	return s.db.Save(f).Error
}

func (s *GormStore) GetFee(id uint) (*models.Fee, error) {
	var f models.Fee
	if err := s.db.First(&f, id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// ListActiveFees returns active fees; school/level filtering happens in Go
// because the allowed sets are stored as JSON arrays.
func (s *GormStore) ListActiveFees(school, level string) ([]models.Fee, error) {
	var fees []models.Fee
	if err := s.db.Where("is_active = ?", true).Order("id asc").Find(&fees).Error; err != nil {
		return nil, err
	}
	if school == "" && level == "" {
		return fees, nil
	}
	matched := make([]models.Fee, 0, len(fees))
	for _, f := range fees {
		if f.AppliesTo(school, level) {
			matched = append(matched, f)
		}
	}
	return matched, nil
}

func (s *GormStore) FeeHasPayments(feeID uint) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Payment{}).Where("fee_id = ?", feeID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) CreatePayment(p *models.Payment) error {
	return s.db.Create(p).Error
}

func (s *GormStore) SavePayment(p *models.Payment) error {
	return s.db.Save(p).Error
}

func (s *GormStore) DeletePayment(id uint) error {
	return s.db.Unscoped().Delete(&models.Payment{}, id).Error
}

func (s *GormStore) GetPaymentByReference(reference string) (*models.Payment, error) {
	var p models.Payment
	if err := s.db.Where("reference = ?", reference).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) HasVerifiedInstallment(studentID, feeID uint, installmentNumber int) (bool, error) {
	var count int64
	err := s.db.Model(&models.Payment{}).
		Where("student_id = ? AND fee_id = ? AND installment_number = ? AND status = ?",
			studentID, feeID, installmentNumber, models.PaymentStatusVerified).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) ListVerifiedPayments(studentID, feeID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.Where("student_id = ? AND fee_id = ? AND status = ?",
		studentID, feeID, models.PaymentStatusVerified).
		Order("installment_number asc, id asc").
		Find(&payments).Error
	return payments, err
}

func (s *GormStore) LatestPaymentForStudent(studentID uint) (*models.Payment, error) {
	var p models.Payment
	err := s.db.Where("student_id = ?", studentID).
		Order("created_at desc, id desc").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) CreateCallbackHistory(h *models.PaymentCallbackHistory) error {
	return s.db.Create(h).Error
}

func (s *GormStore) CreateScheduledTask(t *models.ScheduledTask) error {
	return s.db.Create(t).Error
}

// IsDuplicateKey reports whether err is a unique-constraint rejection.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsNotFound reports whether err is a missing-row result.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
