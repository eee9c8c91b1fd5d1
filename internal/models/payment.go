package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentStatus is the ledger-entry state. Transitions are owned by the
// reconciliation service: pending -> verified (terminal) or failed (terminal).
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusVerified PaymentStatus = "verified"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// Payment is one recorded transaction attempt against a fee by a student.
// The unique index on Reference is the idempotency backstop: a second
// verified insert for the same gateway reference is rejected by the store.
type Payment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	StudentID uint `gorm:"index" json:"student_id"`
	FeeID     uint `gorm:"index" json:"fee_id"`

	Amount          int64         `gorm:"not null" json:"amount"`
	Reference       string        `gorm:"type:varchar(100);uniqueIndex" json:"reference"`
	ReceiptNumber   string        `gorm:"type:varchar(50);uniqueIndex" json:"receipt_number"`
	Status          PaymentStatus `gorm:"type:varchar(20);index" json:"status"`
	FeeType         string        `gorm:"type:varchar(255)" json:"fee_type"`
	AcademicSession string        `gorm:"type:varchar(20)" json:"academic_session"`

	InstallmentNumber int `json:"installment_number"`
	TotalInstallments int `json:"total_installments"`

	Channel string `gorm:"type:varchar(100)" json:"channel"`

	Student Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Fee     Fee     `gorm:"foreignKey:FeeID" json:"fee,omitempty"`
}
